// Package signer implements the two chain-appropriate signing schemes from
// spec.md §4.3: secp256k1-recoverable for the EVM receiver's ecrecover, and
// Ed25519 for the SVM receiver's native precompile. Key ingestion is
// grounded on the base58/hex conventions used throughout
// universalClient/chains/svm/event_parser.go.
package signer

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// placeholders are values real deployments sometimes leave in env files by
// mistake; key ingestion rejects them outright rather than silently loading
// a zero/dummy key.
var placeholders = map[string]struct{}{
	"":              {},
	"changeme":      {},
	"your-key-here": {},
	"0x0":           {},
	"0x":            {},
}

// DecodeKeyMaterial ingests a private key given in hex (with or without a
// "0x" prefix), base58, or a comma-separated byte list, and returns its raw
// bytes. The format is detected first (by content, not by a caller-supplied
// hint); decoding itself is then branchless given the detected format, per
// spec.md §4.3.
func DecodeKeyMaterial(raw string, wantLen int) ([]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if _, bad := placeholders[strings.ToLower(trimmed)]; bad {
		return nil, fmt.Errorf("signer: key material is empty or a placeholder value")
	}

	var out []byte
	var err error

	switch format := detectFormat(trimmed); format {
	case formatByteList:
		out, err = decodeByteList(trimmed)
	case formatHex:
		out, err = hex.DecodeString(strings.TrimPrefix(trimmed, "0x"))
	case formatBase58:
		out, err = base58.Decode(trimmed)
	}
	if err != nil {
		return nil, fmt.Errorf("signer: decode key material: %w", err)
	}

	if wantLen > 0 && len(out) != wantLen {
		return nil, fmt.Errorf("signer: key material has wrong length: got %d want %d", len(out), wantLen)
	}
	return out, nil
}

type keyFormat int

const (
	formatHex keyFormat = iota
	formatBase58
	formatByteList
)

func detectFormat(s string) keyFormat {
	if strings.Contains(s, ",") {
		return formatByteList
	}
	body := strings.TrimPrefix(s, "0x")
	if isHex(body) {
		return formatHex
	}
	return formatBase58
}

func isHex(s string) bool {
	if len(s) == 0 || len(s)%2 != 0 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

func decodeByteList(s string) ([]byte, error) {
	parts := strings.Split(s, ",")
	out := make([]byte, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("byte list: %w", err)
		}
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("byte list: value %d out of byte range", n)
		}
		out = append(out, byte(n))
	}
	return out, nil
}
