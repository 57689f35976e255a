package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyContractRejectionNeverRetries(t *testing.T) {
	cases := []string{
		"execution reverted: Custom(6000)",
		"program log: Error Number: 6004. Error Message: DuplicateSignature.",
		"program failed: 0x1770", // 0x1770 == 6000
		"simulation failed: custom program error: unknown",
	}
	for _, logText := range cases {
		se := Classify(1, errors.New("some rpc wrapper error"), logText)
		require.NotNil(t, se)
		require.Equal(t, CodeContract, se.Code)
		require.False(t, se.IsRetryable(), "contract errors must never retry: %s", logText)
	}
}

func TestClassifyNetworkErrorsAlwaysRetry(t *testing.T) {
	cases := []error{
		errors.New("dial tcp: connection refused"),
		errors.New("context deadline exceeded"),
		errors.New("timeout waiting for receipt"),
		errors.New("unexpected EOF"),
	}
	for _, err := range cases {
		se := Classify(2, err, "")
		require.NotNil(t, se)
		require.True(t, se.IsRetryable(), "network errors must always retry: %v", err)
	}
}

func TestClassifyNoErrorIsNil(t *testing.T) {
	require.Nil(t, Classify(3, nil, ""))
}

func TestClassifyOutOfRangeCodeIsNotContract(t *testing.T) {
	// 8000 is outside [6000,7000) and should not be mistaken for a program error.
	se := Classify(4, errors.New("connection reset"), "Custom(8000)")
	require.Equal(t, CodeNetwork, se.Code)
	require.True(t, se.IsRetryable())
}
