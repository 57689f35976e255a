package event

import "testing"

func TestCanonicalJSONIsDeterministic(t *testing.T) {
	e := StakeEvent{
		SourceContract:  [32]byte{0x11},
		TargetContract:  [32]byte{0x22},
		SourceChainID:   421614,
		TargetChainID:   900,
		BlockHeight:     12345,
		Amount:          100,
		ReceiverAddress: "receiver-1",
		Nonce:           1,
	}

	want := `{"sourceContract":"1100000000000000000000000000000000000000000000000000000000000000","targetContract":"2200000000000000000000000000000000000000000000000000000000000000","chainId":"421614","blockHeight":"12345","amount":"100","receiverAddress":"receiver-1","nonce":"1"}`

	got := CanonicalJSON(e)
	if got != want {
		t.Fatalf("canonical JSON mismatch:\n got:  %s\n want: %s", got, want)
	}

	// Encoding is a pure function of the event (spec.md §8 invariant 5).
	if CanonicalJSON(e) != CanonicalJSON(e) {
		t.Fatal("canonical JSON must be deterministic")
	}
}

func TestParseContractHexRoundTrip(t *testing.T) {
	var id [32]byte
	id[0] = 0xde
	id[31] = 0xad

	hexStr := hexLower(id)
	parsed, err := ParseContractHex(hexStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != id {
		t.Fatalf("round trip mismatch: got %x want %x", parsed, id)
	}

	if _, err := ParseContractHex("not-hex"); err == nil {
		t.Fatal("expected error for malformed hex")
	}
	if _, err := ParseContractHex("ab"); err == nil {
		t.Fatal("expected error for short hex")
	}
}
