package event

import "testing"

func TestBorshRoundTrip(t *testing.T) {
	e := StakeEvent{
		SourceContract:  [32]byte{0xaa},
		TargetContract:  [32]byte{0xbb},
		SourceChainID:   1,
		TargetChainID:   2,
		BlockHeight:     99,
		Amount:          500,
		ReceiverAddress: "svm-receiver-address",
		Nonce:           7,
	}

	encoded, err := CanonicalBorsh(e)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodeBorsh(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded != e {
		t.Fatalf("round trip mismatch: got %+v want %+v", decoded, e)
	}
}

func TestBorshEncodingIsDeterministic(t *testing.T) {
	e := StakeEvent{SourceChainID: 1, Amount: 1, ReceiverAddress: "x", Nonce: 1}

	a, err := CanonicalBorsh(e)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := CanonicalBorsh(e)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(a) != string(b) {
		t.Fatal("borsh encoding must be deterministic")
	}
}
