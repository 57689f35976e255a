// Package receiver models the destination receiver protocol from spec.md
// §4.5: threshold-signature aggregation with nonce-based replay protection,
// per-(nonce, relayer) signature uniqueness, and atomic release-once
// semantics. On a real deployment this state machine runs on-chain (an EVM
// contract or an Anchor program); here it is the in-memory reference model
// and the oracle the property tests in spec.md §8 are checked against. The
// submitter's Simulate step dry-runs against the destination chain's RPC
// and does not use this package.
package receiver

import "fmt"

// Protocol error codes, matching the names used in spec.md §4.5 and the
// classifier's contract-rejection table in errors.Classify.
type ProtocolError string

const (
	ErrUnauthorized          ProtocolError = "Unauthorized"
	ErrInvalidSourceContract ProtocolError = "InvalidSourceContract"
	ErrInvalidChainId        ProtocolError = "InvalidChainId"
	ErrInvalidNonce          ProtocolError = "InvalidNonce"
	ErrInvalidEvent          ProtocolError = "InvalidEvent"
	ErrDuplicateSignature    ProtocolError = "DuplicateSignature"
	ErrInvalidSignature      ProtocolError = "InvalidSignature"
)

func (e ProtocolError) Error() string { return string(e) }

// State is the destination-side ReceiverState from spec.md §3, one per
// direction.
type State struct {
	Admin              string
	PeerSourceContract [32]byte
	SourceChainID      uint64
	TargetChainID      uint64
	RelayerSet         map[string]struct{}
	LastNonce          uint64
	VaultBalance       uint64
	Requests           map[uint64]*Request
}

// NewState constructs a ReceiverState with the given whitelist.
func NewState(admin string, peerSourceContract [32]byte, sourceChainID, targetChainID uint64, relayers []string, vaultBalance uint64) *State {
	set := make(map[string]struct{}, len(relayers))
	for _, r := range relayers {
		set[r] = struct{}{}
	}
	return &State{
		Admin:              admin,
		PeerSourceContract: peerSourceContract,
		SourceChainID:      sourceChainID,
		TargetChainID:      targetChainID,
		RelayerSet:         set,
		VaultBalance:       vaultBalance,
		Requests:           make(map[uint64]*Request),
	}
}

// Threshold computes T = ceil(2N/3), implemented as the integer expression
// (2N+2)/3 per spec.md §4.5 step 8. N must be >= 1.
func (s *State) Threshold() (int, error) {
	n := len(s.RelayerSet)
	if n < 1 {
		return 0, fmt.Errorf("receiver: relayer set must be non-empty")
	}
	return (2*n + 2) / 3, nil
}

// Request is the per-nonce CrossChainRequest from spec.md §3. It is created
// lazily on the first submitSignature call for a nonce.
type Request struct {
	Nonce         uint64
	EventSnapshot eventSnapshot
	Signed        map[string]struct{}
	IsUnlocked    bool
}

// eventSnapshot is the subset of StakeEvent fields the receiver compares
// for byte-identical-event enforcement (spec.md §4.5 step 4); declared here
// rather than importing event.StakeEvent so this package stays independent
// of the off-chain wire types, the way an on-chain program would only see
// the fields passed as call arguments.
type eventSnapshot struct {
	SourceContract  [32]byte
	TargetContract  [32]byte
	SourceChainID   uint64
	TargetChainID   uint64
	BlockHeight     uint64
	Amount          uint64
	ReceiverAddress string
	Nonce           uint64
}
