// Package server assembles the marketd daemon: ledger store, marketplace
// engine, trade history, event journal, and the JSON-RPC and WebSocket
// listeners.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/plip123/nft-marketplace/internal/collab"
	"github.com/plip123/nft-marketplace/internal/config"
	"github.com/plip123/nft-marketplace/internal/core/market"
	"github.com/plip123/nft-marketplace/internal/core/swap"
	"github.com/plip123/nft-marketplace/internal/core/types"
	"github.com/plip123/nft-marketplace/internal/rpc"
	"github.com/plip123/nft-marketplace/internal/storage/database"
	ldb "github.com/plip123/nft-marketplace/internal/storage/database/leveldb"
	mdb "github.com/plip123/nft-marketplace/internal/storage/database/memory"
	pdb "github.com/plip123/nft-marketplace/internal/storage/database/pebble"
	"github.com/plip123/nft-marketplace/internal/storage/history"
	"github.com/plip123/nft-marketplace/internal/store"
)

// Version is the marketd release string.
const Version = "0.1.0-dev"

// Node is the assembled daemon. Engine applies are serialized by mu; the
// engine itself is not safe for concurrent use.
type Node struct {
	cfg     *config.Config
	manager database.Manager

	store   *store.Store
	journal *store.Journal
	engine  *market.Engine
	history history.Repository
	hub     *rpc.Hub
	split   *swap.Splitter

	editions *collab.MemoryEditions
	tokens   map[types.Address]*collab.MemoryToken
	router   *collab.FixedRateRouter

	clock   market.Clock
	started time.Time

	mu         sync.Mutex
	httpServer *http.Server
}

// NewNode builds a node from configuration. Collaborators are the in-memory
// reference implementations; a deployment against real contracts swaps them
// at this seam.
func NewNode(cfg *config.Config) (*Node, error) {
	n := &Node{
		cfg:    cfg,
		hub:    rpc.NewHub(),
		clock:  market.SystemClock(),
		tokens: make(map[types.Address]*collab.MemoryToken),
	}

	admin := types.MustParseAddress(cfg.Market.Admin)
	feeRecipient := admin
	if cfg.Market.FeeRecipient != "" {
		feeRecipient = types.MustParseAddress(cfg.Market.FeeRecipient)
	}
	marketAddr := admin
	if cfg.Market.MarketplaceAddress != "" {
		marketAddr = types.MustParseAddress(cfg.Market.MarketplaceAddress)
	}
	var editionContract types.Address
	if cfg.Market.EditionContract != "" {
		editionContract = types.MustParseAddress(cfg.Market.EditionContract)
	}

	db, err := n.openDatabase()
	if err != nil {
		return nil, err
	}
	st, err := store.New(db)
	if err != nil {
		return nil, err
	}
	n.store = st
	journal, err := store.OpenJournal(db)
	if err != nil {
		return nil, err
	}
	n.journal = journal

	n.editions = collab.NewMemoryEditions(marketAddr)
	rails := make(map[types.Address]market.FungibleToken)
	for _, raw := range cfg.Market.AcceptedTokens {
		addr := types.MustParseAddress(raw)
		token := collab.NewMemoryToken(marketAddr)
		n.tokens[addr] = token
		rails[addr] = token
	}

	engine, err := market.NewEngine(st, market.EngineConfig{
		Admin:              admin,
		MarketplaceAddress: marketAddr,
		EditionContract:    editionContract,
		FeeRecipient:       feeRecipient,
		FeePercent:         cfg.Market.FeePercent,
		Clock:              n.clock,
	}, n.editions, rails)
	if err != nil {
		return nil, err
	}
	n.engine = engine

	n.router = collab.NewFixedRateRouter()
	for raw, rate := range cfg.Swap.Rates {
		addr := types.MustParseAddress(raw)
		token, ok := n.tokens[addr]
		if !ok {
			token = collab.NewMemoryToken(marketAddr)
			n.tokens[addr] = token
		}
		n.router.SetRate(addr, token, rate)
	}
	n.split, err = swap.NewSplitter(n.router, n.clock, marketAddr, func(addr types.Address) (market.FungibleToken, bool) {
		token, ok := n.tokens[addr]
		return token, ok
	})
	if err != nil {
		return nil, err
	}

	if cfg.History.Driver != "" {
		repo, err := history.NewSQLRepository(cfg.History.Driver, cfg.History.DSN)
		if err != nil {
			return nil, err
		}
		n.history = repo
	}
	return n, nil
}

func (n *Node) openDatabase() (database.DB, error) {
	switch n.cfg.Database.Backend {
	case "memory":
		return mdb.NewDB(), nil
	case "pebble":
		n.manager = pdb.NewManager(n.cfg.Database.Path)
	case "leveldb":
		n.manager = ldb.NewManager(n.cfg.Database.Path)
	default:
		return nil, fmt.Errorf("unknown database backend %q", n.cfg.Database.Backend)
	}
	return n.manager.OpenDB("market")
}

// Run starts the listeners and blocks until ctx is cancelled or a listener
// fails.
func (n *Node) Run(ctx context.Context) error {
	if n.history != nil {
		if err := n.history.Open(ctx); err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
	}
	n.started = n.clock.Now()

	mux := http.NewServeMux()
	rpcServer := newRPCServer(n)
	mux.Handle("/", rpcServer)
	mux.Handle("/rpc", rpcServer)
	mux.Handle("/ws", rpc.NewWebSocketServer(n.hub))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"marketd"}`))
	})

	addr := fmt.Sprintf("%s:%d", n.cfg.Server.Host, n.cfg.Server.Port)
	n.httpServer = &http.Server{Addr: addr, Handler: mux}

	zap.L().Info("marketd listening",
		zap.String("addr", addr),
		zap.String("backend", n.cfg.Database.Backend),
		zap.String("history", n.cfg.History.Driver))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := n.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return n.httpServer.Shutdown(shutdownCtx)
	})
	err := g.Wait()
	n.close()
	return err
}

func (n *Node) close() {
	if n.history != nil {
		if cerr := n.history.Close(); cerr != nil {
			zap.L().Warn("failed to close history store", zap.Error(cerr))
		}
	}
	if n.manager != nil {
		if cerr := n.manager.Close(); cerr != nil {
			zap.L().Warn("failed to close database", zap.Error(cerr))
		}
	}
}

// apply runs an operation through the engine and, when applied, journals
// and publishes its events.
func (n *Node) apply(op market.Operation) market.ApplyResult {
	n.mu.Lock()
	defer n.mu.Unlock()

	res := n.engine.Apply(op)
	if !res.Applied {
		return res
	}

	now := n.clock.Now()
	seq, err := n.journal.Append(op.OpName(), now, res.Metadata.Events)
	if err != nil {
		// The ledger write already committed; a journal failure loses the
		// event record but not marketplace state.
		zap.L().Error("failed to journal events", zap.String("op", op.OpName()), zap.Error(err))
	} else {
		n.hub.PublishEvents(op.OpName(), seq, now, res.Metadata.Events)
	}
	n.recordHistory(op, res.Metadata.Events, now)
	return res
}

func (n *Node) recordHistory(op market.Operation, events []market.Event, now time.Time) {
	if n.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, ev := range events {
		var err error
		switch e := ev.(type) {
		case market.SellItemEvent:
			listing, res := n.engine.Listing(e.ListingID)
			if res != market.Success {
				continue
			}
			err = n.history.RecordListing(ctx, history.ListingRow{
				ListingID: e.ListingID,
				Seller:    e.Seller,
				TokenID:   e.TokenID,
				UnitPrice: listing.UnitPrice,
				Quantity:  e.Quantity,
				Expiry:    time.Unix(listing.Expiry, 0).UTC(),
				CreatedAt: now,
			})
		case market.BuyItemEvent:
			currency := ""
			if buy, ok := op.(*market.BuyItem); ok {
				currency = buy.Currency.String()
			}
			err = n.history.RecordSale(ctx, history.SaleRow{
				ListingID:  e.ListingID,
				Seller:     e.Seller,
				Buyer:      e.Buyer,
				Quantity:   e.Quantity,
				PricePaid:  e.PricePaid,
				Currency:   currency,
				OccurredAt: now,
			})
		case market.CancelOfferEvent:
			err = n.history.RecordCancellation(ctx, history.CancellationRow{
				ListingID:  e.ListingID,
				Seller:     e.Seller,
				OccurredAt: now,
			})
		}
		if err != nil {
			zap.L().Error("failed to record history", zap.String("event", ev.EventName()), zap.Error(err))
		}
	}
}
