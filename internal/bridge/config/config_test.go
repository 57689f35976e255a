package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDirectionRequiresRPCURLs(t *testing.T) {
	t.Setenv("E2S__SOURCE_CHAIN__RPC_URLS", "")
	cfg, err := Load("")
	require.NoError(t, err)
	_, present := cfg.Directions["e2s"]
	require.False(t, present)
}

func TestLoadDirectionSucceeds(t *testing.T) {
	t.Setenv("E2S__SOURCE_CHAIN__RPC_URLS", "https://rpc1,https://rpc2")
	t.Setenv("E2S__SOURCE_CHAIN__CHAIN_ID", "421614")
	t.Setenv("E2S__TARGET_CHAIN__RPC_URLS", "https://svm-rpc")
	t.Setenv("E2S__TARGET_CHAIN__CHAIN_ID", "900")
	t.Setenv("E2S__RELAYER__ED25519_PRIVATE_KEY", "1,2,3,4")
	t.Setenv("E2S__QUEUE__MAX_SIZE", "500")

	cfg, err := Load("")
	require.NoError(t, err)
	dc, ok := cfg.Directions["e2s"]
	require.True(t, ok)
	require.Equal(t, []string{"https://rpc1", "https://rpc2"}, dc.Source.RPCURLs)
	require.Equal(t, uint64(421614), dc.Source.ChainID)
	require.Equal(t, 500, dc.Queue.MaxSize)
}

func TestLoadDirectionRequiresAKey(t *testing.T) {
	t.Setenv("S2E__SOURCE_CHAIN__RPC_URLS", "https://svm-rpc")
	t.Setenv("S2E__TARGET_CHAIN__RPC_URLS", "https://evm-rpc")

	_, err := Load("")
	require.Error(t, err)
}

func TestDefaultPort(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
}
