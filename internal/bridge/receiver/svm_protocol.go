package receiver

import (
	"bytes"
	"fmt"

	"github.com/usdc-bridge/relayer/internal/bridge/event"
)

// PrecompileInstruction models the (pubkey, signature, message) triple the
// real Anchor program reads from the preceding Ed25519-precompile
// instruction in the same transaction (spec.md §4.4, §4.5 SVM branch). In
// this in-memory model it is supplied directly by the caller instead of
// being scanned out of a transaction's instruction list.
type PrecompileInstruction struct {
	Pubkey    [32]byte
	Signature []byte
	Message   []byte
}

// SVMVerifier builds the Verifier for the SVM receiver: because the
// Ed25519 precompile has already run cryptographically at transaction
// entry, verification here is a byte-for-byte equality check between the
// precompile instruction's triple and (relayer_pubkey, provided_signature,
// Borsh(event)) — spec.md §4.5 step 6, SVM branch.
func SVMVerifier(relayerPubkeys map[string][32]byte, precompile PrecompileInstruction) Verifier {
	return func(relayer string, snapshot eventSnapshot, signature []byte) error {
		pubkey, ok := relayerPubkeys[relayer]
		if !ok {
			return fmt.Errorf("no registered Ed25519 public key for relayer %s", relayer)
		}

		ev := event.StakeEvent{
			SourceContract:  snapshot.SourceContract,
			TargetContract:  snapshot.TargetContract,
			SourceChainID:   snapshot.SourceChainID,
			TargetChainID:   snapshot.TargetChainID,
			BlockHeight:     snapshot.BlockHeight,
			Amount:          snapshot.Amount,
			ReceiverAddress: snapshot.ReceiverAddress,
			Nonce:           snapshot.Nonce,
		}
		message, err := event.CanonicalBorsh(ev)
		if err != nil {
			return fmt.Errorf("borsh encode: %w", err)
		}

		if precompile.Pubkey != pubkey {
			return fmt.Errorf("precompile pubkey does not match relayer's registered key")
		}
		if !bytes.Equal(precompile.Signature, signature) {
			return fmt.Errorf("precompile signature does not match submitted signature")
		}
		if !bytes.Equal(precompile.Message, message) {
			return fmt.Errorf("precompile message does not match canonical Borsh encoding")
		}
		return nil
	}
}
