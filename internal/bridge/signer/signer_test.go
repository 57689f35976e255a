package signer

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usdc-bridge/relayer/internal/bridge/event"
)

func sampleEvent() event.StakeEvent {
	return event.StakeEvent{
		SourceContract:  [32]byte{0x01},
		TargetContract:  [32]byte{0x02},
		SourceChainID:   421614,
		TargetChainID:   900,
		BlockHeight:     10,
		Amount:          100,
		ReceiverAddress: "receiver",
		Nonce:           1,
	}
}

func TestSecp256k1SignAndRecover(t *testing.T) {
	keyHex := "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	raw, err := DecodeKeyMaterial(keyHex, 32)
	require.NoError(t, err)

	s, err := NewSecp256k1Signer(raw)
	require.NoError(t, err)

	ev := sampleEvent()
	sig, err := s.Sign(ev)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.Contains(t, []byte{27, 28}, sig[64])

	recovered, err := Recover(ev, sig)
	require.NoError(t, err)
	require.Equal(t, s.RelayerID(), recovered)

	// mutating the event must invalidate recovery against the original signer
	mutated := ev
	mutated.Amount = 999
	recoveredMutated, err := Recover(mutated, sig)
	require.NoError(t, err)
	require.NotEqual(t, s.RelayerID(), recoveredMutated)
}

func TestEd25519SignVerifies(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	s, err := NewEd25519Signer(priv)
	require.NoError(t, err)
	require.Equal(t, hex.EncodeToString(pub), hex.EncodeToString(s.PublicKey()[:]))

	ev := sampleEvent()
	sig, err := s.Sign(ev)
	require.NoError(t, err)
	require.Len(t, sig, 64)

	message, err := event.CanonicalBorsh(ev)
	require.NoError(t, err)
	require.True(t, ed25519.Verify(pub, message, sig))
}

func TestDecodeKeyMaterialFormats(t *testing.T) {
	hexKey := "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	out, err := DecodeKeyMaterial(hexKey, 32)
	require.NoError(t, err)
	require.Len(t, out, 32)

	byteList := "1,2,3,4"
	out, err = DecodeKeyMaterial(byteList, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, out)

	_, err = DecodeKeyMaterial("", 32)
	require.Error(t, err)

	_, err = DecodeKeyMaterial("changeme", 32)
	require.Error(t, err)
}
