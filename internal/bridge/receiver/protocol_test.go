package receiver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usdc-bridge/relayer/internal/bridge/event"
	"github.com/usdc-bridge/relayer/internal/bridge/signer"
)

func eventFromFields(f Fields) event.StakeEvent {
	return event.StakeEvent{
		SourceContract:  f.SourceContract,
		TargetContract:  f.TargetContract,
		SourceChainID:   f.SourceChainID,
		TargetChainID:   f.TargetChainID,
		BlockHeight:     f.BlockHeight,
		Amount:          f.Amount,
		ReceiverAddress: f.ReceiverAddress,
		Nonce:           f.Nonce,
	}
}

// acceptAllVerifier is used where the test is about the state machine's
// bookkeeping, not the cryptographic check itself.
func acceptAllVerifier() Verifier {
	return func(relayer string, snapshot eventSnapshot, signature []byte) error { return nil }
}

func baseFields(nonce, amount uint64) Fields {
	return Fields{
		SourceContract:  [32]byte{0xaa},
		TargetContract:  [32]byte{0xbb},
		SourceChainID:   421614,
		TargetChainID:   900,
		BlockHeight:     1,
		Amount:          amount,
		ReceiverAddress: "recv",
		Nonce:           nonce,
	}
}

// S1 — happy path, N=3, T=2.
func TestHappyPathThreshold(t *testing.T) {
	s := NewState("admin", [32]byte{0xaa}, 421614, 900, []string{"R1", "R2", "R3"}, 1000)

	released, err := SubmitSignature(s, "R1", baseFields(1, 100), nil, acceptAllVerifier())
	require.NoError(t, err)
	require.False(t, released)
	require.Equal(t, uint64(0), s.LastNonce)

	released, err = SubmitSignature(s, "R2", baseFields(1, 100), nil, acceptAllVerifier())
	require.NoError(t, err)
	require.True(t, released)
	require.Equal(t, uint64(1), s.LastNonce)
	require.Equal(t, uint64(900), s.VaultBalance)
}

// S2 — late third signature after release must fail InvalidNonce.
func TestLateSignatureAfterRelease(t *testing.T) {
	s := NewState("admin", [32]byte{0xaa}, 421614, 900, []string{"R1", "R2", "R3"}, 1000)
	_, _ = SubmitSignature(s, "R1", baseFields(1, 100), nil, acceptAllVerifier())
	_, _ = SubmitSignature(s, "R2", baseFields(1, 100), nil, acceptAllVerifier())

	_, err := SubmitSignature(s, "R3", baseFields(1, 100), nil, acceptAllVerifier())
	require.ErrorIs(t, err, ErrInvalidNonce)
	require.Equal(t, uint64(1), s.LastNonce)
	require.Equal(t, uint64(900), s.VaultBalance)
}

// S3 — duplicate signer.
func TestDuplicateSigner(t *testing.T) {
	s := NewState("admin", [32]byte{0xaa}, 421614, 900, []string{"R1", "R2", "R3"}, 1000)

	released, err := SubmitSignature(s, "R1", baseFields(2, 50), nil, acceptAllVerifier())
	require.NoError(t, err)
	require.False(t, released)

	_, err = SubmitSignature(s, "R1", baseFields(2, 50), nil, acceptAllVerifier())
	require.ErrorIs(t, err, ErrDuplicateSignature)
	require.Len(t, s.Requests[2].Signed, 1)
}

// S4 — chain-id mismatch.
func TestChainIDMismatch(t *testing.T) {
	s := NewState("admin", [32]byte{0xaa}, 421614, 900, []string{"R1", "R2", "R3"}, 1000)

	fields := baseFields(1, 100)
	fields.SourceChainID = 999

	_, err := SubmitSignature(s, "R1", fields, nil, acceptAllVerifier())
	require.ErrorIs(t, err, ErrInvalidChainId)
	_, created := s.Requests[1]
	require.False(t, created, "no CrossChainRequest should be created on a binding failure")
}

func TestUnauthorizedRelayer(t *testing.T) {
	s := NewState("admin", [32]byte{0xaa}, 421614, 900, []string{"R1"}, 1000)
	_, err := SubmitSignature(s, "Rx", baseFields(1, 1), nil, acceptAllVerifier())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestInvalidSourceContract(t *testing.T) {
	s := NewState("admin", [32]byte{0xaa}, 421614, 900, []string{"R1"}, 1000)
	fields := baseFields(1, 1)
	fields.SourceContract = [32]byte{0xff}
	_, err := SubmitSignature(s, "R1", fields, nil, acceptAllVerifier())
	require.ErrorIs(t, err, ErrInvalidSourceContract)
}

func TestMismatchedEventSnapshotRejected(t *testing.T) {
	s := NewState("admin", [32]byte{0xaa}, 421614, 900, []string{"R1", "R2"}, 1000)
	_, err := SubmitSignature(s, "R1", baseFields(1, 100), nil, acceptAllVerifier())
	require.NoError(t, err)

	mutated := baseFields(1, 999) // same nonce, different amount
	_, err = SubmitSignature(s, "R2", mutated, nil, acceptAllVerifier())
	require.ErrorIs(t, err, ErrInvalidEvent)
}

func TestThresholdRounding(t *testing.T) {
	s1 := NewState("admin", [32]byte{0xaa}, 1, 1, []string{"R1"}, 0)
	th, err := s1.Threshold()
	require.NoError(t, err)
	require.Equal(t, 1, th) // ceil(2*1/3) = 1

	s4 := NewState("admin", [32]byte{0xaa}, 1, 1, []string{"R1", "R2", "R3", "R4"}, 0)
	th, err = s4.Threshold()
	require.NoError(t, err)
	require.Equal(t, 3, th) // ceil(2*4/3) = 3
}

func TestThresholdRequiresNonEmptyRelayerSet(t *testing.T) {
	s := NewState("admin", [32]byte{0xaa}, 1, 1, nil, 0)
	_, err := s.Threshold()
	require.Error(t, err)
}

// Invariant: release occurs at most once per nonce across any sequence of
// accepted calls (spec.md §8 invariant 1, 3, 4).
func TestNoDoubleRelease(t *testing.T) {
	s := NewState("admin", [32]byte{0xaa}, 1, 1, []string{"R1", "R2", "R3"}, 1000)
	releaseCount := 0
	for _, r := range []string{"R1", "R2", "R3"} {
		released, err := SubmitSignature(s, r, baseFields(5, 10), nil, acceptAllVerifier())
		if err == nil && released {
			releaseCount++
		}
	}
	require.Equal(t, 1, releaseCount)
	require.Equal(t, uint64(5), s.LastNonce)
}

func TestEVMVerifierAcceptsAndRejects(t *testing.T) {
	key, err := signer.DecodeKeyMaterial("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318", 32)
	require.NoError(t, err)
	s, err := signer.NewSecp256k1Signer(key)
	require.NoError(t, err)

	state := NewState("admin", [32]byte{0xaa}, 421614, 900, []string{s.RelayerID()}, 1000)
	fields := baseFields(1, 50)

	ev := eventFromFields(fields)
	sig, err := s.Sign(ev)
	require.NoError(t, err)

	released, err := SubmitSignature(state, s.RelayerID(), fields, sig, EVMVerifier())
	require.NoError(t, err)
	require.True(t, released) // N=1, T=1

	// a tampered copy of the signature for the same event must fail InvalidSignature
	state2 := NewState("admin", [32]byte{0xaa}, 421614, 900, []string{s.RelayerID()}, 1000)
	forged := make([]byte, len(sig))
	copy(forged, sig)
	forged[0] ^= 0xff
	_, err = SubmitSignature(state2, s.RelayerID(), fields, forged, EVMVerifier())
	require.Error(t, err)
}
