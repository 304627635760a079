package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/plip123/nft-marketplace/internal/core/market"
	"github.com/plip123/nft-marketplace/internal/core/market/entry"
	"github.com/plip123/nft-marketplace/internal/core/swap"
	"github.com/plip123/nft-marketplace/internal/core/types"
	"github.com/plip123/nft-marketplace/internal/server/api/jsonrpc"
)

func newRPCServer(n *Node) *jsonrpc.Server {
	h := jsonrpc.NewHandler()

	h.Register("market.sell", n.handleSell)
	h.Register("market.buy", n.handleBuy)
	h.Register("market.cancel", n.handleCancel)
	h.Register("market.listing", n.handleListing)
	h.Register("market.fee_config", n.handleFeeConfig)
	h.Register("market.set_fee", n.handleSetFee)
	h.Register("market.set_fee_recipient", n.handleSetFeeRecipient)
	h.Register("market.balance", n.handleBalance)
	h.Register("market.sales", n.handleSales)
	h.Register("market.listings_by_seller", n.handleListingsBySeller)
	h.Register("swap.split", n.handleSwapSplit)
	h.Register("server.info", n.handleServerInfo)

	// Development methods for exercising the reference collaborators. Only
	// meaningful in standalone runs; they exist whenever the in-memory
	// collaborators are wired, which is always today.
	h.Register("dev.fund", n.handleDevFund)
	h.Register("dev.create_edition", n.handleDevCreateEdition)
	h.Register("dev.approve_editions", n.handleDevApproveEditions)
	h.Register("dev.mint_token", n.handleDevMintToken)
	h.Register("dev.approve_token", n.handleDevApproveToken)

	return jsonrpc.NewServer(h)
}

func decodeParams(params json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return &jsonrpc.MethodError{Code: jsonrpc.CodeInvalidParams, Message: "params required"}
	}
	if err := json.Unmarshal(params, v); err != nil {
		return &jsonrpc.MethodError{Code: jsonrpc.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

func parseAddr(field, raw string) (types.Address, error) {
	addr, err := types.ParseAddress(raw)
	if err != nil {
		return types.Address{}, &jsonrpc.MethodError{
			Code:    jsonrpc.CodeInvalidParams,
			Message: field + ": " + err.Error(),
		}
	}
	return addr, nil
}

// resultData carries the typed result code alongside the JSON-RPC error.
type resultData struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

func applyResponse(res market.ApplyResult) (interface{}, error) {
	if !res.Applied {
		code := jsonrpc.CodeOperationFailed
		if res.Result.IsMalformed() {
			code = jsonrpc.CodeInvalidParams
		}
		return nil, &jsonrpc.MethodError{
			Code:    code,
			Message: res.Message,
			Data:    resultData{Code: int(res.Result), Name: res.Result.String()},
		}
	}
	out := map[string]interface{}{
		"result":  res.Result.String(),
		"applied": true,
	}
	if res.Metadata != nil && len(res.Metadata.Events) > 0 {
		events := make([]map[string]interface{}, 0, len(res.Metadata.Events))
		for _, ev := range res.Metadata.Events {
			events = append(events, map[string]interface{}{
				"type":  ev.EventName(),
				"event": ev,
			})
		}
		out["events"] = events
	}
	return out, nil
}

type sellParams struct {
	Seller          string `json:"seller"`
	TokenID         uint64 `json:"token_id"`
	Quantity        uint64 `json:"quantity"`
	UnitPrice       uint64 `json:"unit_price"`
	DurationSeconds int64  `json:"duration_seconds"`
}

func (n *Node) handleSell(params json.RawMessage) (interface{}, error) {
	var p sellParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	seller, err := parseAddr("seller", p.Seller)
	if err != nil {
		return nil, err
	}
	return applyResponse(n.apply(&market.SellItem{
		Seller:    seller,
		TokenID:   p.TokenID,
		Quantity:  p.Quantity,
		UnitPrice: p.UnitPrice,
		Duration:  time.Duration(p.DurationSeconds) * time.Second,
	}))
}

type buyParams struct {
	Buyer        string `json:"buyer"`
	ListingID    uint64 `json:"listing_id"`
	Seller       string `json:"seller"`
	Quantity     uint64 `json:"quantity"`
	Currency     string `json:"currency,omitempty"`
	PaymentValue uint64 `json:"payment_value"`
}

func (n *Node) handleBuy(params json.RawMessage) (interface{}, error) {
	var p buyParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	buyer, err := parseAddr("buyer", p.Buyer)
	if err != nil {
		return nil, err
	}
	seller, err := parseAddr("seller", p.Seller)
	if err != nil {
		return nil, err
	}
	currency := market.NativeCurrency()
	if p.Currency != "" && p.Currency != "native" {
		addr, err := parseAddr("currency", p.Currency)
		if err != nil {
			return nil, err
		}
		currency = market.ParseCurrency(addr)
	}
	return applyResponse(n.apply(&market.BuyItem{
		Buyer:        buyer,
		ListingID:    p.ListingID,
		SellerHint:   seller,
		Quantity:     p.Quantity,
		Currency:     currency,
		PaymentValue: p.PaymentValue,
	}))
}

type cancelParams struct {
	Seller    string `json:"seller"`
	ListingID uint64 `json:"listing_id"`
}

func (n *Node) handleCancel(params json.RawMessage) (interface{}, error) {
	var p cancelParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	seller, err := parseAddr("seller", p.Seller)
	if err != nil {
		return nil, err
	}
	return applyResponse(n.apply(&market.CancelOffer{Seller: seller, ListingID: p.ListingID}))
}

type listingParams struct {
	ListingID uint64 `json:"listing_id"`
}

type listingInfo struct {
	ListingID uint64 `json:"listing_id"`
	Seller    string `json:"seller"`
	TokenID   uint64 `json:"token_id"`
	UnitPrice uint64 `json:"unit_price"`
	Remaining uint64 `json:"remaining"`
	Expiry    int64  `json:"expiry"`
	Status    string `json:"status"`
}

func listingStatus(l *entry.Listing, now time.Time) string {
	switch {
	case l.IsCancelled():
		return "cancelled"
	case l.IsClosed():
		return "sold_out"
	case now.Unix() >= l.Expiry:
		return "expired"
	default:
		return "active"
	}
}

func (n *Node) handleListing(params json.RawMessage) (interface{}, error) {
	var p listingParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	n.mu.Lock()
	listing, res := n.engine.Listing(p.ListingID)
	n.mu.Unlock()
	if res != market.Success {
		return nil, &jsonrpc.MethodError{
			Code:    jsonrpc.CodeOperationFailed,
			Message: res.Message(),
			Data:    resultData{Code: int(res), Name: res.String()},
		}
	}
	return listingInfo{
		ListingID: listing.ID,
		Seller:    listing.Seller.String(),
		TokenID:   listing.TokenID,
		UnitPrice: listing.UnitPrice,
		Remaining: listing.Remaining,
		Expiry:    listing.Expiry,
		Status:    listingStatus(listing, n.clock.Now()),
	}, nil
}

func (n *Node) handleFeeConfig(json.RawMessage) (interface{}, error) {
	n.mu.Lock()
	recipient, percent, err := n.engine.FeeConfig()
	n.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"recipient": recipient.String(),
		"percent":   percent,
	}, nil
}

type setFeeParams struct {
	Caller  string `json:"caller"`
	Percent uint8  `json:"percent"`
}

func (n *Node) handleSetFee(params json.RawMessage) (interface{}, error) {
	var p setFeeParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddr("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	return applyResponse(n.apply(&market.SetFee{Caller: caller, Percent: p.Percent}))
}

type setFeeRecipientParams struct {
	Caller    string `json:"caller"`
	Recipient string `json:"recipient"`
}

func (n *Node) handleSetFeeRecipient(params json.RawMessage) (interface{}, error) {
	var p setFeeRecipientParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddr("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	recipient, err := parseAddr("recipient", p.Recipient)
	if err != nil {
		return nil, err
	}
	return applyResponse(n.apply(&market.SetRecipientFee{Caller: caller, Recipient: recipient}))
}

type balanceParams struct {
	Account string `json:"account"`
	Token   string `json:"token,omitempty"`
}

func (n *Node) handleBalance(params json.RawMessage) (interface{}, error) {
	var p balanceParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	account, err := parseAddr("account", p.Account)
	if err != nil {
		return nil, err
	}
	if p.Token != "" && p.Token != "native" {
		tokenAddr, err := parseAddr("token", p.Token)
		if err != nil {
			return nil, err
		}
		token, ok := n.tokens[tokenAddr]
		if !ok {
			return nil, &jsonrpc.MethodError{Code: jsonrpc.CodeInvalidParams, Message: "unknown token " + p.Token}
		}
		balance, err := token.BalanceOf(account)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"account": account.String(), "token": tokenAddr.String(), "balance": balance}, nil
	}
	n.mu.Lock()
	balance, err := n.engine.NativeBalance(account)
	n.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"account": account.String(), "token": "native", "balance": balance}, nil
}

type salesParams struct {
	Account   string `json:"account,omitempty"`
	ListingID uint64 `json:"listing_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

func (n *Node) handleSales(params json.RawMessage) (interface{}, error) {
	if n.history == nil {
		return nil, &jsonrpc.MethodError{Code: jsonrpc.CodeOperationFailed, Message: "history store is disabled"}
	}
	var p salesParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if p.Account != "" {
		account, err := parseAddr("account", p.Account)
		if err != nil {
			return nil, err
		}
		limit := p.Limit
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		return n.history.SalesByAccount(ctx, account, limit)
	}
	return n.history.SalesByListing(ctx, p.ListingID)
}

type listingsBySellerParams struct {
	Seller string `json:"seller"`
	Limit  int    `json:"limit,omitempty"`
}

func (n *Node) handleListingsBySeller(params json.RawMessage) (interface{}, error) {
	if n.history == nil {
		return nil, &jsonrpc.MethodError{Code: jsonrpc.CodeOperationFailed, Message: "history store is disabled"}
	}
	var p listingsBySellerParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	seller, err := parseAddr("seller", p.Seller)
	if err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return n.history.ListingsBySeller(ctx, seller, limit)
}

type swapSplitParams struct {
	Caller       string   `json:"caller"`
	AmountIn     uint64   `json:"amount_in"`
	PaymentValue uint64   `json:"payment_value"`
	Weights      []uint8  `json:"weights"`
	Destinations []string `json:"destinations"`
}

func (n *Node) handleSwapSplit(params json.RawMessage) (interface{}, error) {
	var p swapSplitParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddr("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	destinations := make([]types.Address, 0, len(p.Destinations))
	for _, raw := range p.Destinations {
		addr, err := parseAddr("destinations", raw)
		if err != nil {
			return nil, err
		}
		destinations = append(destinations, addr)
	}
	legs, res := n.split.Split(swap.Request{
		Caller:       caller,
		AmountIn:     p.AmountIn,
		PaymentValue: p.PaymentValue,
		Weights:      p.Weights,
		Destinations: destinations,
	})
	if res != market.Success {
		code := jsonrpc.CodeOperationFailed
		if res.IsMalformed() {
			code = jsonrpc.CodeInvalidParams
		}
		return nil, &jsonrpc.MethodError{
			Code:    code,
			Message: res.Message(),
			Data:    resultData{Code: int(res), Name: res.String()},
		}
	}
	return map[string]interface{}{"legs": legs}, nil
}

func (n *Node) handleServerInfo(json.RawMessage) (interface{}, error) {
	n.mu.Lock()
	journalSeq := n.journal.NextSeq()
	n.mu.Unlock()
	return map[string]interface{}{
		"version":         Version,
		"uptime_seconds":  int64(n.clock.Now().Sub(n.started).Seconds()),
		"journal_seq":     journalSeq,
		"subscribers":     n.hub.SubscriberCount(),
		"backend":         n.cfg.Database.Backend,
		"history_driver":  n.cfg.History.Driver,
		"accepted_tokens": n.cfg.Market.AcceptedTokens,
	}, nil
}

type devFundParams struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

func (n *Node) handleDevFund(params json.RawMessage) (interface{}, error) {
	var p devFundParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	account, err := parseAddr("account", p.Account)
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	err = n.engine.CreditNative(account, p.Amount)
	n.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"funded": true}, nil
}

type devCreateEditionParams struct {
	Name     string `json:"name"`
	Quantity uint64 `json:"quantity"`
	To       string `json:"to"`
}

func (n *Node) handleDevCreateEdition(params json.RawMessage) (interface{}, error) {
	var p devCreateEditionParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	to, err := parseAddr("to", p.To)
	if err != nil {
		return nil, err
	}
	id, err := n.editions.CreateToken(p.Name, p.Quantity, to)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"token_id": id}, nil
}

type devApproveEditionsParams struct {
	Owner    string `json:"owner"`
	Approved bool   `json:"approved"`
}

func (n *Node) handleDevApproveEditions(params json.RawMessage) (interface{}, error) {
	var p devApproveEditionsParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	owner, err := parseAddr("owner", p.Owner)
	if err != nil {
		return nil, err
	}
	n.editions.SetApprovalForAll(owner, n.engine.MarketplaceAddress(), p.Approved)
	return map[string]interface{}{"approved": p.Approved}, nil
}

type devMintTokenParams struct {
	Token  string `json:"token"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

func (n *Node) handleDevMintToken(params json.RawMessage) (interface{}, error) {
	var p devMintTokenParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	tokenAddr, err := parseAddr("token", p.Token)
	if err != nil {
		return nil, err
	}
	to, err := parseAddr("to", p.To)
	if err != nil {
		return nil, err
	}
	token, ok := n.tokens[tokenAddr]
	if !ok {
		return nil, &jsonrpc.MethodError{Code: jsonrpc.CodeInvalidParams, Message: "unknown token " + p.Token}
	}
	token.Mint(to, p.Amount)
	return map[string]interface{}{"minted": p.Amount}, nil
}

type devApproveTokenParams struct {
	Token  string `json:"token"`
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`
}

func (n *Node) handleDevApproveToken(params json.RawMessage) (interface{}, error) {
	var p devApproveTokenParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	tokenAddr, err := parseAddr("token", p.Token)
	if err != nil {
		return nil, err
	}
	owner, err := parseAddr("owner", p.Owner)
	if err != nil {
		return nil, err
	}
	token, ok := n.tokens[tokenAddr]
	if !ok {
		return nil, &jsonrpc.MethodError{Code: jsonrpc.CodeInvalidParams, Message: "unknown token " + p.Token}
	}
	token.Approve(owner, n.engine.MarketplaceAddress(), p.Amount)
	return map[string]interface{}{"approved": p.Amount}, nil
}
