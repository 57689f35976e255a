package event

import (
	"fmt"

	borsh "github.com/near/borsh-go"
)

// CanonicalBorsh serializes e in the exact field order required by spec.md
// §6 for the SVM signing path: source_contract(32), target_contract(32),
// source_chain_id(u64 LE), target_chain_id(u64 LE), block_height(u64 LE),
// amount(u64 LE), receiver_address(u32 LE length + UTF-8), nonce(u64 LE).
//
// StakeEvent's field declaration order matches this layout exactly, so
// borsh-go's struct-order serialization produces the canonical bytes
// without a shadow wire type.
func CanonicalBorsh(e StakeEvent) ([]byte, error) {
	b, err := borsh.Serialize(e)
	if err != nil {
		return nil, fmt.Errorf("borsh encode stake event: %w", err)
	}
	return b, nil
}

// DecodeBorsh is the inverse of CanonicalBorsh; used by tests asserting
// decode(encode(e)) == e (spec.md §8 invariant 6) and by the SVM chain
// adapter when decoding a Staked event from "Program data:" logs.
func DecodeBorsh(b []byte) (StakeEvent, error) {
	var e StakeEvent
	if err := borsh.Deserialize(&e, b); err != nil {
		return e, fmt.Errorf("borsh decode stake event: %w", err)
	}
	return e, nil
}
