// Package collab provides in-memory reference implementations of the
// external collaborators: the edition token ledger, ERC20-style payment
// tokens, and the exchange router. The daemon uses them in standalone mode;
// tests use them directly.
package collab

import (
	"fmt"
	"sync"
	"time"

	"github.com/plip123/nft-marketplace/internal/core/types"
)

// MemoryEditions is an in-memory multi-edition token ledger. All transfers
// execute on behalf of the bound caller account: moving another holder's
// editions requires that holder's operator approval, the caller's own
// holdings move freely.
type MemoryEditions struct {
	mu        sync.Mutex
	caller    types.Address
	nextID    uint64
	names     map[uint64]string
	balances  map[types.Address]map[uint64]uint64
	operators map[types.Address]map[types.Address]bool
}

// NewMemoryEditions binds the account transfers execute as. The marketplace
// binds its own address so custody moves are self-moves.
func NewMemoryEditions(caller types.Address) *MemoryEditions {
	return &MemoryEditions{
		caller:    caller,
		names:     make(map[uint64]string),
		balances:  make(map[types.Address]map[uint64]uint64),
		operators: make(map[types.Address]map[types.Address]bool),
	}
}

func (m *MemoryEditions) BalanceOf(owner types.Address, tokenID uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[owner][tokenID], nil
}

func (m *MemoryEditions) IsApprovedForAll(owner, operator types.Address) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.operators[owner][operator], nil
}

// SetApprovalForAll grants or revokes an operator for all of owner's
// editions. Holders call this before listing.
func (m *MemoryEditions) SetApprovalForAll(owner, operator types.Address, approved bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.operators[owner] == nil {
		m.operators[owner] = make(map[types.Address]bool)
	}
	m.operators[owner][operator] = approved
}

func (m *MemoryEditions) SafeTransferFrom(from, to types.Address, tokenID, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if from != m.caller && !m.operators[from][m.caller] {
		return fmt.Errorf("caller %s is not an approved operator for %s", m.caller, from)
	}
	if m.balances[from][tokenID] < amount {
		return fmt.Errorf("insufficient edition balance: have %d, need %d", m.balances[from][tokenID], amount)
	}
	m.balances[from][tokenID] -= amount
	if m.balances[to] == nil {
		m.balances[to] = make(map[uint64]uint64)
	}
	m.balances[to][tokenID] += amount
	return nil
}

func (m *MemoryEditions) CreateToken(name string, quantity uint64, to types.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.names[id] = name
	if m.balances[to] == nil {
		m.balances[to] = make(map[uint64]uint64)
	}
	m.balances[to][id] += quantity
	return id, nil
}

func (m *MemoryEditions) TokenName(tokenID uint64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.names[tokenID]
	if !ok {
		return "", fmt.Errorf("unknown token id %d", tokenID)
	}
	return name, nil
}

// MemoryToken is an in-memory ERC20-style token. Transfer sends from the
// token's bound holder account, matching how the marketplace account pays
// out collected funds.
type MemoryToken struct {
	mu         sync.Mutex
	holder     types.Address
	balances   map[types.Address]uint64
	allowances map[types.Address]map[types.Address]uint64
}

// NewMemoryToken binds the token's Transfer sender. The marketplace binds
// its own custody account.
func NewMemoryToken(holder types.Address) *MemoryToken {
	return &MemoryToken{
		holder:     holder,
		balances:   make(map[types.Address]uint64),
		allowances: make(map[types.Address]map[types.Address]uint64),
	}
}

func (t *MemoryToken) BalanceOf(owner types.Address) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[owner], nil
}

func (t *MemoryToken) Allowance(owner, spender types.Address) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allowances[owner][spender], nil
}

// Mint credits freshly created units to an account.
func (t *MemoryToken) Mint(to types.Address, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[to] += amount
}

// Approve sets a spender allowance, as the token holder would on chain.
func (t *MemoryToken) Approve(owner, spender types.Address, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[types.Address]uint64)
	}
	t.allowances[owner][spender] = amount
}

func (t *MemoryToken) TransferFrom(from, to types.Address, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[from][t.holder] < amount {
		return fmt.Errorf("allowance %d below transfer of %d", t.allowances[from][t.holder], amount)
	}
	if t.balances[from] < amount {
		return fmt.Errorf("balance %d below transfer of %d", t.balances[from], amount)
	}
	t.allowances[from][t.holder] -= amount
	t.balances[from] -= amount
	t.balances[to] += amount
	return nil
}

func (t *MemoryToken) Transfer(to types.Address, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.balances[t.holder] < amount {
		return fmt.Errorf("balance %d below transfer of %d", t.balances[t.holder], amount)
	}
	t.balances[t.holder] -= amount
	t.balances[to] += amount
	return nil
}

// FixedRateRouter is a development exchange router that converts at a fixed
// units-per-native rate per token and mints the output into a MemoryToken.
type FixedRateRouter struct {
	mu     sync.Mutex
	rates  map[types.Address]uint64
	tokens map[types.Address]*MemoryToken
}

func NewFixedRateRouter() *FixedRateRouter {
	return &FixedRateRouter{
		rates:  make(map[types.Address]uint64),
		tokens: make(map[types.Address]*MemoryToken),
	}
}

// SetRate registers a token with its conversion rate.
func (r *FixedRateRouter) SetRate(token types.Address, t *MemoryToken, rate uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rates[token] = rate
	r.tokens[token] = t
}

func (r *FixedRateRouter) SwapExactNativeForToken(amountIn, minOut uint64, token, recipient types.Address, deadline time.Time) (uint64, error) {
	r.mu.Lock()
	rate, ok := r.rates[token]
	t := r.tokens[token]
	r.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("no route for token %s", token)
	}
	if time.Now().After(deadline) {
		return 0, fmt.Errorf("swap deadline passed")
	}
	out := amountIn * rate
	if out < minOut {
		return 0, fmt.Errorf("output %d below minimum %d", out, minOut)
	}
	t.Mint(recipient, out)
	return out, nil
}
