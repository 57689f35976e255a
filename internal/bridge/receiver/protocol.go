package receiver

// Verifier performs the cryptographic-verification step that differs
// between destinations (spec.md §4.5 step 6): ecrecover against the
// canonical JSON hash on EVM, or an equality check against a preceding
// Ed25519-precompile instruction on SVM. It reports nil on success or a
// descriptive error, which SubmitSignature turns into ErrInvalidSignature.
type Verifier func(relayer string, snapshot eventSnapshot, signature []byte) error

// Fields is the call-argument view of a StakeEvent a submitSignature
// invocation carries; kept independent of event.StakeEvent per state.go's
// eventSnapshot rationale.
type Fields struct {
	SourceContract  [32]byte
	TargetContract  [32]byte
	SourceChainID   uint64
	TargetChainID   uint64
	BlockHeight     uint64
	Amount          uint64
	ReceiverAddress string
	Nonce           uint64
}

func snapshotOf(f Fields) eventSnapshot {
	return eventSnapshot{
		SourceContract:  f.SourceContract,
		TargetContract:  f.TargetContract,
		SourceChainID:   f.SourceChainID,
		TargetChainID:   f.TargetChainID,
		BlockHeight:     f.BlockHeight,
		Amount:          f.Amount,
		ReceiverAddress: f.ReceiverAddress,
		Nonce:           f.Nonce,
	}
}

// SubmitSignature runs the full submitSignature transition from spec.md
// §4.5 against s, using verify for the destination-specific cryptographic
// check. It returns (released, error): released is true exactly when this
// call transitioned the request to Released and performed the transfer.
func SubmitSignature(s *State, relayer string, fields Fields, signature []byte, verify Verifier) (bool, error) {
	// 1. Whitelist check.
	if _, ok := s.RelayerSet[relayer]; !ok {
		return false, ErrUnauthorized
	}

	// 2. Binding checks.
	if fields.SourceContract != s.PeerSourceContract {
		return false, ErrInvalidSourceContract
	}
	if fields.SourceChainID != s.SourceChainID {
		return false, ErrInvalidChainId
	}

	// 3. Replay check.
	if fields.Nonce <= s.LastNonce {
		return false, ErrInvalidNonce
	}

	snapshot := snapshotOf(fields)

	// 4. Request creation (lazy) / snapshot equality.
	req, exists := s.Requests[fields.Nonce]
	if !exists {
		req = &Request{
			Nonce:         fields.Nonce,
			EventSnapshot: snapshot,
			Signed:        make(map[string]struct{}),
		}
		s.Requests[fields.Nonce] = req
	} else if req.EventSnapshot != snapshot {
		return false, ErrInvalidEvent
	}

	// 5. Duplicate-signer check.
	if _, signed := req.Signed[relayer]; signed {
		return false, ErrDuplicateSignature
	}

	// 6. Cryptographic verification.
	if err := verify(relayer, snapshot, signature); err != nil {
		return false, ErrInvalidSignature
	}

	// 7. Accumulate.
	req.Signed[relayer] = struct{}{}

	// 8. Threshold check.
	threshold, err := s.Threshold()
	if err != nil {
		return false, err
	}

	// 9. Release.
	if len(req.Signed) >= threshold && !req.IsUnlocked {
		req.IsUnlocked = true
		s.VaultBalance -= fields.Amount
		s.LastNonce = fields.Nonce
		return true, nil
	}
	return false, nil
}
