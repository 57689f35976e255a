package event

import "testing"

func TestValidate(t *testing.T) {
	base := StakeEvent{Amount: 100, ReceiverAddress: "0xabc", Nonce: 1}

	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}

	zero := base
	zero.Amount = 0
	if err := zero.Validate(); err == nil {
		t.Fatal("expected error for zero amount")
	}

	empty := base
	empty.ReceiverAddress = ""
	if err := empty.Validate(); err == nil {
		t.Fatal("expected error for empty receiver address")
	}

	tooLong := base
	tooLong.ReceiverAddress = string(make([]byte, MaxReceiverAddressLen+1))
	longStr := ""
	for i := 0; i < MaxReceiverAddressLen+1; i++ {
		longStr += "a"
	}
	tooLong.ReceiverAddress = longStr
	if err := tooLong.Validate(); err == nil {
		t.Fatal("expected error for oversized receiver address")
	}
}

func TestKeyOf(t *testing.T) {
	a := StakeEvent{SourceContract: [32]byte{1}, Nonce: 5}
	b := StakeEvent{SourceContract: [32]byte{1}, Nonce: 5}
	c := StakeEvent{SourceContract: [32]byte{2}, Nonce: 5}

	if KeyOf(a) != KeyOf(b) {
		t.Fatal("expected identical keys for identical (source_contract, nonce)")
	}
	if KeyOf(a) == KeyOf(c) {
		t.Fatal("expected distinct keys for distinct source_contract")
	}
}
