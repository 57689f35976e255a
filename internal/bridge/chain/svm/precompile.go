package svm

import (
	"encoding/binary"
	"fmt"
)

// ed25519ProgramID is the native Solana Ed25519 signature-verification
// program, invoked as a precompile instruction preceding submit_signature
// (spec.md §4.4, §4.5 SVM branch).
var ed25519ProgramID = [32]byte{
	0x03, 0x7d, 0x46, 0xd6, 0x7c, 0x93, 0xfb, 0xbe,
	0x12, 0xf9, 0x42, 0x8f, 0x83, 0x8d, 0x40, 0xff,
	0x05, 0x70, 0x74, 0x49, 0x27, 0xf4, 0x8a, 0x64,
	0xfc, 0xca, 0x70, 0x44, 0x80, 0x00, 0x00, 0x00,
}

// offsetsHeaderLen is the fixed 14-byte "offsets struct" the precompile
// reads before the pubkey/signature/message payload, per spec.md §4.4:
// signature_offset, signature_instruction_index, public_key_offset,
// public_key_instruction_index, message_data_offset, message_data_size,
// message_instruction_index — each a u16, 7*2 = 14 bytes.
const offsetsHeaderLen = 14

// thisInstruction is the sentinel (u16::MAX) meaning "the instruction
// currently being processed", per spec.md §4.4.
const thisInstruction uint16 = 0xFFFF

// BuildEd25519PrecompileInstructionData lays out the Ed25519-precompile
// instruction data bit-exactly per spec.md §4.4:
// [num_sigs=1, pad=0, offsets_struct(14 bytes), pubkey(32), signature(64), message(N)].
func BuildEd25519PrecompileInstructionData(pubkey [32]byte, signature, message []byte) ([]byte, error) {
	if len(signature) != 64 {
		return nil, fmt.Errorf("svm: ed25519 signature must be 64 bytes, got %d", len(signature))
	}

	const headerLen = 2 // num_sigs + pad
	pubkeyOffset := uint16(headerLen + offsetsHeaderLen)
	signatureOffset := pubkeyOffset + 32
	messageOffset := signatureOffset + 64
	messageSize := uint16(len(message))

	buf := make([]byte, 0, int(messageOffset)+len(message))
	buf = append(buf, 1, 0) // num_signatures=1, padding=0

	offsets := make([]byte, offsetsHeaderLen)
	binary.LittleEndian.PutUint16(offsets[0:2], signatureOffset)
	binary.LittleEndian.PutUint16(offsets[2:4], thisInstruction)
	binary.LittleEndian.PutUint16(offsets[4:6], pubkeyOffset)
	binary.LittleEndian.PutUint16(offsets[6:8], thisInstruction)
	binary.LittleEndian.PutUint16(offsets[8:10], messageOffset)
	binary.LittleEndian.PutUint16(offsets[10:12], messageSize)
	binary.LittleEndian.PutUint16(offsets[12:14], thisInstruction)
	buf = append(buf, offsets...)

	buf = append(buf, pubkey[:]...)
	buf = append(buf, signature...)
	buf = append(buf, message...)
	return buf, nil
}

// ParseEd25519PrecompileInstructionData is the watcher/verifier-side
// inverse of BuildEd25519PrecompileInstructionData, used when reconstructing
// the (pubkey, signature, message) triple the on-chain program reads.
func ParseEd25519PrecompileInstructionData(data []byte) (pubkey [32]byte, signature, message []byte, err error) {
	const headerLen = 2
	if len(data) < headerLen+offsetsHeaderLen {
		return pubkey, nil, nil, fmt.Errorf("svm: precompile instruction data too short")
	}
	offsets := data[headerLen : headerLen+offsetsHeaderLen]
	signatureOffset := binary.LittleEndian.Uint16(offsets[0:2])
	pubkeyOffset := binary.LittleEndian.Uint16(offsets[4:6])
	messageOffset := binary.LittleEndian.Uint16(offsets[8:10])
	messageSize := binary.LittleEndian.Uint16(offsets[10:12])

	if int(pubkeyOffset)+32 > len(data) {
		return pubkey, nil, nil, fmt.Errorf("svm: pubkey out of bounds")
	}
	copy(pubkey[:], data[pubkeyOffset:int(pubkeyOffset)+32])

	if int(signatureOffset)+64 > len(data) {
		return pubkey, nil, nil, fmt.Errorf("svm: signature out of bounds")
	}
	signature = data[signatureOffset : int(signatureOffset)+64]

	if int(messageOffset)+int(messageSize) > len(data) {
		return pubkey, nil, nil, fmt.Errorf("svm: message out of bounds")
	}
	message = data[messageOffset : int(messageOffset)+int(messageSize)]

	return pubkey, signature, message, nil
}
