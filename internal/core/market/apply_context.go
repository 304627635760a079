package market

import "time"

// Metadata records what a successful operation did: the ledger entries it
// touched and the events it emitted.
type Metadata struct {
	AffectedEntries []AffectedEntry `json:"affected_entries"`
	Events          []Event         `json:"events"`
}

// ApplyContext carries everything an operation needs while applying: the
// buffered view, the engine configuration, the operation timestamp, and the
// metadata sink.
type ApplyContext struct {
	// View is the apply state table the operation mutates. Changes reach the
	// base view only if the operation succeeds.
	View LedgerView

	// Config is the engine configuration.
	Config EngineConfig

	// Now is the operation timestamp. All expiry math uses this single
	// observation so one operation cannot straddle an expiry boundary.
	Now time.Time

	// Metadata collects events emitted by the operation.
	Metadata *Metadata

	// Engine grants access to collaborators (edition ledger, payment rails).
	Engine *Engine
}

// Emit records an event in the operation metadata.
func (ctx *ApplyContext) Emit(ev Event) {
	ctx.Metadata.Events = append(ctx.Metadata.Events, ev)
}
