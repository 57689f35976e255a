package signer

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/usdc-bridge/relayer/internal/bridge/event"
)

// Ed25519Signer implements the SVM-destination signing scheme: the signer
// signs the raw Borsh encoding of the event (no pre-hashing) with its
// Ed25519 key; the 64-byte signature is later presented to the SVM
// Ed25519 precompile on-chain (spec.md §4.3, §4.4).
type Ed25519Signer struct {
	key solana.PrivateKey
}

// NewEd25519Signer constructs a signer from a 64-byte Ed25519 private key
// (seed||public, the conventional Solana keypair layout).
func NewEd25519Signer(keyBytes []byte) (*Ed25519Signer, error) {
	if len(keyBytes) != 64 {
		return nil, fmt.Errorf("ed25519 signer: private key must be 64 bytes, got %d", len(keyBytes))
	}
	key := solana.PrivateKey(keyBytes)
	return &Ed25519Signer{key: key}, nil
}

// Sign implements Signer.
func (s *Ed25519Signer) Sign(ev event.StakeEvent) ([]byte, error) {
	message, err := event.CanonicalBorsh(ev)
	if err != nil {
		return nil, fmt.Errorf("ed25519 signer: canonical encoding: %w", err)
	}
	sig, err := s.key.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("ed25519 signer: sign: %w", err)
	}
	return sig[:], nil
}

// RelayerID implements Signer.
func (s *Ed25519Signer) RelayerID() string {
	return s.key.PublicKey().String()
}

// PublicKey returns the raw 32-byte Ed25519 public key, used when building
// the Ed25519-precompile instruction in the SVM submitter.
func (s *Ed25519Signer) PublicKey() [32]byte {
	return [32]byte(s.key.PublicKey())
}

// WalletKey exposes the underlying solana.PrivateKey so the SVM submitter
// can sign the fee-payer transaction envelope with the same relayer key
// used for the Ed25519-precompile event signature.
func (s *Ed25519Signer) WalletKey() solana.PrivateKey {
	return s.key
}
