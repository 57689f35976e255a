// Package chain defines the capability-set adapters that let the core
// watcher/submitter engine stay generic over the destination chain kind
// (EVM or SVM), per spec.md §9 "Polymorphic chain adapters": each adapter
// exposes {poll_events, send_release, simulate, get_latest_block}; the
// engine in internal/bridge/direction is written once against these
// interfaces and instantiated twice.
package chain

import (
	"context"

	"github.com/usdc-bridge/relayer/internal/bridge/event"
)

// WatcherAdapter polls a source chain for StakeEvents.
type WatcherAdapter interface {
	// LatestBlock returns the latest finalized block/slot observable on
	// the source chain (spec.md §4.1: "head = latest_finalized_block").
	LatestBlock(ctx context.Context) (uint64, error)

	// PollEvents decodes every StakeEvent emitted by the configured
	// contract in the inclusive range [fromBlock, toBlock]. Logs that fail
	// strict ABI/IDL decoding are dropped with a warning, not returned as
	// an error (spec.md §4.1).
	PollEvents(ctx context.Context, fromBlock, toBlock uint64) ([]event.StakeEvent, error)
}

// SubmittedTx describes a destination-chain release transaction's result.
type SubmittedTx struct {
	TxHash  string
	LogText string
}

// SubmitterAdapter builds, simulates, sends, and confirms the destination
// release transaction for one StakeEvent.
type SubmitterAdapter interface {
	// Simulate dry-runs the release transaction and returns its logs (or
	// an error carrying the simulation logs for classification).
	Simulate(ctx context.Context, ev event.StakeEvent, signature []byte) (logText string, err error)

	// Send submits the transaction after a successful simulation.
	Send(ctx context.Context, ev event.StakeEvent, signature []byte) (*SubmittedTx, error)

	// Confirm reports whether the transaction was included, returning its
	// final log text for classification. The EVM adapter polls until a
	// receipt appears; the SVM adapter checks the signature status once.
	Confirm(ctx context.Context, txHash string) (logText string, err error)

	// WalletBalance reports the relayer's destination-chain wallet
	// balance, used for the GAS__MIN_*_BALANCE monitor.
	WalletBalance(ctx context.Context) (uint64, error)
}
