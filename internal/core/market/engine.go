package market

import (
	"errors"
	"fmt"
	"time"

	"github.com/plip123/nft-marketplace/internal/core/keylet"
	"github.com/plip123/nft-marketplace/internal/core/market/entry"
	"github.com/plip123/nft-marketplace/internal/core/types"
)

// Operation is a marketplace state transition. Validate performs stateless
// checks on the operation fields; Apply runs the stateful checks and effects
// against the buffered view in ctx.
type Operation interface {
	// OpName returns the canonical operation name, e.g. "SellItem".
	OpName() string

	// Validate performs stateless validation. A non-nil error means the
	// operation is malformed or trivially invalid; wrap with NewCodedError
	// to control the result code.
	Validate() error

	// Apply executes the operation against ctx.View. Returning Success
	// commits the buffered writes; any other result discards them.
	Apply(ctx *ApplyContext) Result
}

// listingScoped is implemented by operations that act on a single existing
// listing. The engine refuses every nested Apply; the interface only selects
// the result code a refused listing operation reports.
type listingScoped interface {
	ListingScope() uint64
}

// Clock supplies the engine's notion of now. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// EngineConfig holds the static marketplace parameters.
type EngineConfig struct {
	// Admin is the only account allowed to change fee settings.
	Admin types.Address

	// MarketplaceAddress is the account that custodies collected payment
	// token amounts between collection and payout.
	MarketplaceAddress types.Address

	// EditionContract is the address of the edition token collaborator,
	// recorded on each listing.
	EditionContract types.Address

	// FeeRecipient and FeePercent seed the fee settings entry the first
	// time the engine runs against an empty ledger.
	FeeRecipient types.Address
	FeePercent   uint8

	// Clock defaults to the system clock when nil.
	Clock Clock
}

// ApplyResult is the outcome of Engine.Apply.
type ApplyResult struct {
	Result   Result
	Applied  bool
	Message  string
	Metadata *Metadata
}

// Engine applies marketplace operations against a ledger view. It is not
// safe for concurrent use; callers serialize Apply.
type Engine struct {
	view     LedgerView
	config   EngineConfig
	editions EditionLedger
	tokens   map[types.Address]FungibleToken

	// applying marks an Apply in progress. Collaborator callbacks that
	// re-enter the engine are refused wholesale: a nested apply would run a
	// second state table over the same base view, and the two flushes could
	// collide on shared entries such as account roots or the counters.
	applying bool
}

// NewEngine builds an engine over view. tokens maps accepted payment token
// contracts to their rails; the native currency is always accepted.
func NewEngine(view LedgerView, config EngineConfig, editions EditionLedger, tokens map[types.Address]FungibleToken) (*Engine, error) {
	if config.Clock == nil {
		config.Clock = systemClock{}
	}
	if config.Admin.IsZero() {
		return nil, errors.New("engine: admin address required")
	}
	if config.MarketplaceAddress.IsZero() {
		return nil, errors.New("engine: marketplace address required")
	}
	if config.FeeRecipient.IsZero() {
		config.FeeRecipient = config.Admin
	}
	if config.FeePercent > entry.MaxFeePercent {
		return nil, fmt.Errorf("engine: fee percent %d exceeds %d", config.FeePercent, entry.MaxFeePercent)
	}
	e := &Engine{
		view:     view,
		config:   config,
		editions: editions,
		tokens:   tokens,
	}
	if err := e.initLedger(); err != nil {
		return nil, err
	}
	return e, nil
}

// initLedger seeds the fee settings and counters entries on first run.
func (e *Engine) initLedger() error {
	k := keylet.FeeSettings()
	ok, err := e.view.Exists(k)
	if err != nil {
		return err
	}
	if !ok {
		fs := &entry.FeeSettings{Recipient: e.config.FeeRecipient, Percent: e.config.FeePercent}
		raw, err := entry.SerializeFeeSettings(fs)
		if err != nil {
			return err
		}
		if err := e.view.Insert(k, raw); err != nil {
			return err
		}
	}
	ck := keylet.Counters()
	ok, err = e.view.Exists(ck)
	if err != nil {
		return err
	}
	if !ok {
		c := &entry.Counters{NextListingID: 1}
		raw, err := entry.SerializeCounters(c)
		if err != nil {
			return err
		}
		if err := e.view.Insert(ck, raw); err != nil {
			return err
		}
	}
	return nil
}

// Apply runs op through preflight, the re-entrancy guard, and the buffered
// apply. Buffered writes reach the underlying view only on Success.
func (e *Engine) Apply(op Operation) ApplyResult {
	if err := op.Validate(); err != nil {
		var coded *CodedError
		if errors.As(err, &coded) {
			return ApplyResult{Result: coded.Code, Message: coded.Msg}
		}
		return ApplyResult{Result: InvalidParameter, Message: err.Error()}
	}

	if e.applying {
		if _, ok := op.(listingScoped); ok {
			return ApplyResult{Result: OutOfStock, Message: OutOfStock.Message()}
		}
		return ApplyResult{Result: Internal, Message: "operation already in progress"}
	}
	e.applying = true
	defer func() { e.applying = false }()

	table := NewApplyStateTable(e.view)
	meta := &Metadata{}
	ctx := &ApplyContext{
		View:     table,
		Config:   e.config,
		Now:      e.config.Clock.Now(),
		Metadata: meta,
		Engine:   e,
	}

	res := op.Apply(ctx)
	if !res.IsSuccess() {
		return ApplyResult{Result: res, Message: res.Message(), Metadata: meta}
	}

	affected, err := table.Apply()
	if err != nil {
		return ApplyResult{Result: Internal, Message: err.Error(), Metadata: meta}
	}
	meta.AffectedEntries = affected
	return ApplyResult{Result: Success, Applied: true, Message: Success.Message(), Metadata: meta}
}

// MarketplaceAddress returns the configured custody account.
func (e *Engine) MarketplaceAddress() types.Address { return e.config.MarketplaceAddress }

// Editions returns the edition ledger collaborator.
func (e *Engine) Editions() EditionLedger { return e.editions }

// PaymentToken returns the rail for an accepted payment token contract.
func (e *Engine) PaymentToken(addr types.Address) (FungibleToken, bool) {
	t, ok := e.tokens[addr]
	return t, ok
}

// FeeConfig reads the current fee recipient and percentage. It has no side
// effects and may be called between operations.
func (e *Engine) FeeConfig() (recipient types.Address, percent uint8, err error) {
	fs, err := readFeeSettings(e.view)
	if err != nil {
		return types.Address{}, 0, err
	}
	return fs.Recipient, fs.Percent, nil
}

// Listing reads a listing by ID. Returns NotFound when absent.
func (e *Engine) Listing(id uint64) (*entry.Listing, Result) {
	raw, err := e.view.Read(keylet.Listing(id))
	if err != nil {
		return nil, Internal
	}
	if raw == nil {
		return nil, NotFound
	}
	ls, err := entry.ParseListing(raw)
	if err != nil {
		return nil, Internal
	}
	return ls, Success
}

// CreditNative adds amount to an account's native balance, creating the
// account entry if needed. Used by deposit paths and test fixtures; it is
// not an operation and bypasses the apply pipeline.
func (e *Engine) CreditNative(addr types.Address, amount uint64) error {
	return creditAccount(e.view, addr, amount)
}

// NativeBalance reports an account's native balance. Missing accounts read
// as zero.
func (e *Engine) NativeBalance(addr types.Address) (uint64, error) {
	acct, err := readAccount(e.view, addr)
	if err != nil {
		return 0, err
	}
	if acct == nil {
		return 0, nil
	}
	return acct.Balance, nil
}

// readFeeSettings loads the fee settings entry from any view.
func readFeeSettings(view LedgerView) (*entry.FeeSettings, error) {
	raw, err := view.Read(keylet.FeeSettings())
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("fee settings entry missing")
	}
	return entry.ParseFeeSettings(raw)
}

// nextListingID allocates a listing ID from the counters entry inside the
// given view, updating the entry in place.
func nextListingID(view LedgerView) (uint64, error) {
	k := keylet.Counters()
	raw, err := view.Read(k)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, errors.New("counters entry missing")
	}
	c, err := entry.ParseCounters(raw)
	if err != nil {
		return 0, err
	}
	id := c.NextListingID
	c.NextListingID++
	out, err := entry.SerializeCounters(c)
	if err != nil {
		return 0, err
	}
	if err := view.Update(k, out); err != nil {
		return 0, err
	}
	return id, nil
}
