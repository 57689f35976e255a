package event

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// CanonicalJSON renders e in the bit-exact ASCII JSON form signed by
// relayers on the EVM path and re-derived on-chain by the EVM receiver for
// ecrecover. Field order, quoting, and key names are fixed by spec.md §6:
//
//	{"sourceContract":"<hex>","targetContract":"<hex>","chainId":"<dec>",
//	 "blockHeight":"<dec>","amount":"<dec>","receiverAddress":"<utf8>","nonce":"<dec>"}
//
// No whitespace is emitted; numeric fields are decimal strings; contract
// fields are lowercase 64-char hex without a "0x" prefix. "chainId" carries
// SourceChainID only; TargetChainID is not part of the signed JSON (see
// DESIGN.md, "Open Question decisions"), and the receiver model's binding
// checks compare only the source contract and SourceChainID.
func CanonicalJSON(e StakeEvent) string {
	var b strings.Builder
	b.Grow(256)
	b.WriteString(`{"sourceContract":"`)
	b.WriteString(hexLower(e.SourceContract))
	b.WriteString(`","targetContract":"`)
	b.WriteString(hexLower(e.TargetContract))
	b.WriteString(`","chainId":"`)
	b.WriteString(strconv.FormatUint(e.SourceChainID, 10))
	b.WriteString(`","blockHeight":"`)
	b.WriteString(strconv.FormatUint(e.BlockHeight, 10))
	b.WriteString(`","amount":"`)
	b.WriteString(strconv.FormatUint(e.Amount, 10))
	b.WriteString(`","receiverAddress":"`)
	b.WriteString(e.ReceiverAddress)
	b.WriteString(`","nonce":"`)
	b.WriteString(strconv.FormatUint(e.Nonce, 10))
	b.WriteString(`"}`)
	return b.String()
}

func hexLower(id [32]byte) string {
	return hex.EncodeToString(id[:])
}

// ParseContractHex decodes a lowercase 64-char hex string (no 0x prefix)
// into a 32-byte contract identifier, as produced by CanonicalJSON and
// consumed by test fixtures and CLI tooling.
func ParseContractHex(s string) ([32]byte, error) {
	var out [32]byte
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("parse contract hex: %w", err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("parse contract hex: want 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
