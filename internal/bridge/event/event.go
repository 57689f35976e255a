// Package event defines the single cross-chain payload carried by the
// bridge and its two canonical encodings (JSON for the EVM signing/verify
// path, Borsh for the SVM signing/verify path).
package event

import "fmt"

// MaxReceiverAddressLen is the maximum length, in bytes, of ReceiverAddress.
const MaxReceiverAddressLen = 64

// StakeEvent is the sole cross-chain payload. It is emitted once by a lock
// on the source chain and carried, unmodified, through the queue, the
// signer, and the submitter to the destination chain's submitSignature
// call.
type StakeEvent struct {
	SourceContract  [32]byte `json:"source_contract"`
	TargetContract  [32]byte `json:"target_contract"`
	SourceChainID   uint64   `json:"source_chain_id"`
	TargetChainID   uint64   `json:"target_chain_id"`
	BlockHeight     uint64   `json:"block_height"`
	Amount          uint64   `json:"amount"`
	ReceiverAddress string   `json:"receiver_address"`
	Nonce           uint64   `json:"nonce"`
}

// Validate checks the data-model invariants from the spec (amount bounds,
// receiver address length). Nonce monotonicity and (source_contract, nonce)
// uniqueness are enforced by the source contract and, independently, by the
// destination receiver protocol — not locally, since a single event cannot
// prove either property about itself.
func (e StakeEvent) Validate() error {
	if e.Amount == 0 {
		return fmt.Errorf("stake event: amount must be > 0")
	}
	if len(e.ReceiverAddress) == 0 {
		return fmt.Errorf("stake event: receiver_address must not be empty")
	}
	if len(e.ReceiverAddress) > MaxReceiverAddressLen {
		return fmt.Errorf("stake event: receiver_address exceeds %d bytes", MaxReceiverAddressLen)
	}
	return nil
}

// Key uniquely identifies an event for its lifetime: (source_contract, nonce).
type Key struct {
	SourceContract [32]byte
	Nonce          uint64
}

// KeyOf returns the lifetime-unique key of e.
func KeyOf(e StakeEvent) Key {
	return Key{SourceContract: e.SourceContract, Nonce: e.Nonce}
}
