package signer

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/usdc-bridge/relayer/internal/bridge/event"
)

// ethSignedMessagePrefix is the fixed prefix ecrecover-compatible wallets
// and contracts prepend before hashing an arbitrary 32-byte digest, per
// EIP-191 personal_sign and spec.md §4.3.
const ethSignedMessagePrefix = "\x19Ethereum Signed Message:\n32"

// Secp256k1Signer implements the EVM-destination signing scheme: h =
// SHA-256(canonical JSON), h' = Keccak256(prefix || h), sig = r||s||v with
// v in {27,28}, recoverable via go-ethereum's ecrecover-compatible helpers.
type Secp256k1Signer struct {
	key     *ecdsa.PrivateKey
	address string
}

// NewSecp256k1Signer constructs a signer from raw secp256k1 private key
// bytes (32 bytes).
func NewSecp256k1Signer(keyBytes []byte) (*Secp256k1Signer, error) {
	key, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("secp256k1 signer: invalid private key: %w", err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	return &Secp256k1Signer{key: key, address: addr.Hex()}, nil
}

// DigestForSigning computes h' = Keccak256(prefix || SHA256(json)) — the
// exact digest both the relayer and the EVM receiver's ecrecover compute.
func DigestForSigning(ev event.StakeEvent) [32]byte {
	h := sha256.Sum256([]byte(event.CanonicalJSON(ev)))
	return crypto.Keccak256Hash([]byte(ethSignedMessagePrefix), h[:])
}

// Sign implements Signer.
func (s *Secp256k1Signer) Sign(ev event.StakeEvent) ([]byte, error) {
	digest := DigestForSigning(ev)
	sig, err := crypto.Sign(digest[:], s.key)
	if err != nil {
		return nil, fmt.Errorf("secp256k1 signer: sign: %w", err)
	}
	// crypto.Sign returns a 65-byte signature with recovery id (0 or 1) in
	// the last byte; ecrecover-compatible consumers expect v in {27,28}.
	sig[64] += 27
	return sig, nil
}

// RelayerID implements Signer.
func (s *Secp256k1Signer) RelayerID() string { return s.address }

// Recover recovers the signer address from a signature produced by Sign,
// for use by the EVM receiver model (ecrecover) and tests asserting
// spec.md §8 invariant 7.
func Recover(ev event.StakeEvent, sig []byte) (string, error) {
	if len(sig) != 65 {
		return "", fmt.Errorf("secp256k1 recover: signature must be 65 bytes, got %d", len(sig))
	}
	digest := DigestForSigning(ev)
	normalized := make([]byte, 65)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	pub, err := crypto.SigToPub(digest[:], normalized)
	if err != nil {
		return "", fmt.Errorf("secp256k1 recover: %w", err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}
