package receiver

import (
	"fmt"

	"github.com/usdc-bridge/relayer/internal/bridge/event"
	"github.com/usdc-bridge/relayer/internal/bridge/signer"
)

// EVMVerifier builds the Verifier for the EVM receiver: it recomputes the
// canonical-JSON digest from the call-argument snapshot and asserts that
// ecrecover(hash, signature) equals the whitelisted relayer address
// (spec.md §4.5 step 6, EVM branch).
func EVMVerifier() Verifier {
	return func(relayer string, snapshot eventSnapshot, signature []byte) error {
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
		recovered, err := signer.Recover(ev, signature)
		if err != nil {
			return fmt.Errorf("ecrecover failed: %w", err)
		}
		if recovered != relayer {
			return fmt.Errorf("recovered address %s does not match claimed relayer %s", recovered, relayer)
		}
		return nil
	}
}
