package errors

import (
	"regexp"
	"strconv"
	"strings"
)

// programErrorLow/High bound the conventional Anchor program-error range
// from spec.md §7: codes in [6000, 7000) are contract rejections and are
// never retryable.
const (
	programErrorLow  = 6000
	programErrorHigh = 7000
)

var (
	customErrRe  = regexp.MustCompile(`(?i)custom\(\s*(\d+)\s*\)`)
	hexErrRe     = regexp.MustCompile(`(?i)0x([0-9a-f]+)`)
	errNumberRe  = regexp.MustCompile(`(?i)error\s+number:\s*(\d+)`)
	customPhrase = "custom program error"
)

// Classify is the pure function (error_string, transport_error) ->
// SubmitError described in spec.md §9 "Error classification". transportErr
// is the raw error returned by the RPC layer (nil if the transaction was
// accepted and only its on-chain logs indicate rejection); logText is the
// simulation/execution log text to scan for program-error codes.
//
// A contract error never retries; a network error always retries — this
// function never returns an ambiguous classification.
func Classify(nonce uint64, transportErr error, logText string) *SubmitError {
	if code, ok := extractProgramErrorCode(logText); ok {
		return New(CodeContract, nonce, programErrorMessage(code), transportErr)
	}
	if strings.Contains(strings.ToLower(logText), customPhrase) {
		return New(CodeContract, nonce, "destination contract rejected: "+customPhrase, transportErr)
	}

	if transportErr == nil {
		return nil
	}

	msg := strings.ToLower(transportErr.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return New(CodeTimeout, nonce, "transaction pending without receipt within wait window", transportErr)
	case strings.Contains(msg, "gas"), strings.Contains(msg, "fee"):
		return New(CodeGasEstimation, nonce, "gas/fee estimation failed", transportErr)
	case strings.Contains(msg, "connection"), strings.Contains(msg, "network"),
		strings.Contains(msg, "eof"), strings.Contains(msg, "502"),
		strings.Contains(msg, "503"), strings.Contains(msg, "504"):
		return New(CodeNetwork, nonce, "transport/RPC failure", transportErr)
	default:
		// Unknown transport failures are treated as retryable network
		// errors per spec.md §7 ("failure is treated as a retryable
		// error" when no hard timeout classification applies).
		return New(CodeNetwork, nonce, "unclassified transport failure", transportErr)
	}
}

// extractProgramErrorCode scans log for any of the three documented
// encodings of an Anchor program error code and reports whether the
// extracted code falls in the conventional program-error range.
func extractProgramErrorCode(log string) (int, bool) {
	if m := customErrRe.FindStringSubmatch(log); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && inRange(n) {
			return n, true
		}
	}
	if m := errNumberRe.FindStringSubmatch(log); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && inRange(n) {
			return n, true
		}
	}
	if m := hexErrRe.FindStringSubmatch(log); m != nil {
		if n, err := strconv.ParseInt(m[1], 16, 64); err == nil && inRange(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func inRange(n int) bool {
	return n >= programErrorLow && n < programErrorHigh
}

// programErrorMessage maps the well-known offsets from spec.md §4.5 to a
// human-readable message; unknown offsets in range still classify as
// CodeContract but keep a generic message.
func programErrorMessage(code int) string {
	switch code {
	case programErrorLow:
		return "Unauthorized: relayer not in whitelist"
	case programErrorLow + 1:
		return "InvalidNonce: nonce already released or out of order"
	case programErrorLow + 2:
		return "InvalidSourceContract: event does not match configured peer"
	case programErrorLow + 3:
		return "InvalidChainId: event chain binding mismatch"
	case programErrorLow + 4:
		return "DuplicateSignature: relayer already signed this nonce"
	case programErrorLow + 5:
		return "InvalidEvent: event does not match stored snapshot"
	case programErrorLow + 6:
		return "InvalidSignature: cryptographic verification failed"
	default:
		return "destination contract rejected the submission"
	}
}
