package signer

import "github.com/usdc-bridge/relayer/internal/bridge/event"

// Signer produces a chain-appropriate signature over the canonical
// encoding of a StakeEvent. Two variants exist (Secp256k1Recoverable,
// Ed25519), selected at construction per the direction's destination chain
// (spec.md §9, "Signer polymorphism").
type Signer interface {
	// Sign returns the raw signature bytes for ev: 65 bytes (r||s||v) for
	// the secp256k1-recoverable scheme, 64 bytes for Ed25519.
	Sign(ev event.StakeEvent) ([]byte, error)

	// RelayerID returns a stable identifier for this relayer in the
	// destination chain's native form: a hex-encoded Ethereum address for
	// the secp256k1 scheme, a base58-encoded public key for Ed25519.
	RelayerID() string
}
