package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	gethereum "github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"

	"github.com/usdc-bridge/relayer/internal/bridge/chain"
	"github.com/usdc-bridge/relayer/internal/bridge/chain/rpcpool"
	bridgeerrors "github.com/usdc-bridge/relayer/internal/bridge/errors"
	"github.com/usdc-bridge/relayer/internal/bridge/event"
)

// maxBlockRange bounds a single FilterLogs query, mirroring the teacher's
// chains/evm/event_watcher.go chunking (9000, safely under common provider
// limits of 10000).
const maxBlockRange uint64 = 9000

// Adapter implements chain.WatcherAdapter and chain.SubmitterAdapter against
// a single EVM-compatible chain, pooling RPC endpoints via rpcpool and
// decoding/encoding through the embedded GatewayABI.
type Adapter struct {
	pool          *rpcpool.Pool
	gatewayAddr   ethcommon.Address
	sourceChainID uint64
	signerKey     string // hex-encoded ECDSA private key, empty if this adapter is source-only
	logger        zerolog.Logger
}

// NewAdapter builds an Adapter. signerHexKey may be empty for a
// watcher-only (source-side) instance.
func NewAdapter(pool *rpcpool.Pool, gatewayAddr ethcommon.Address, chainID uint64, signerHexKey string, logger zerolog.Logger) *Adapter {
	return &Adapter{
		pool:          pool,
		gatewayAddr:   gatewayAddr,
		sourceChainID: chainID,
		signerKey:     signerHexKey,
		logger:        logger.With().Str("component", "evm_adapter").Logger(),
	}
}

// withClient dials a pooled endpoint and runs fn against it, retrying the
// whole dial-and-call with exponential backoff via errors.RetryWithConfig
// (grounded on universalClient/errors/retry.go). This covers a single RPC
// call's own transient failures (a momentary dial refusal, a provider
// hiccup on one endpoint) and is distinct from direction.Runner's
// tick-based queue retry, which only re-attempts a whole
// sign/simulate/send/confirm pipeline on the next poll interval.
func (a *Adapter) withClient(ctx context.Context, fn func(*ethclient.Client) error) error {
	return bridgeerrors.RetryWithConfig(ctx, func(ctx context.Context) error {
		return a.pool.Do(ctx, func(ctx context.Context, url string) error {
			client, err := ethclient.DialContext(ctx, url)
			if err != nil {
				return fmt.Errorf("dial %s: %w", url, err)
			}
			defer client.Close()
			return fn(client)
		})
	}, bridgeerrors.DefaultRetryConfig())
}

// LatestBlock implements chain.WatcherAdapter, returning the number of the
// latest finalized block.
func (a *Adapter) LatestBlock(ctx context.Context) (uint64, error) {
	var latest uint64
	err := a.withClient(ctx, func(client *ethclient.Client) error {
		header, innerErr := client.HeaderByNumber(ctx, big.NewInt(int64(gethrpc.FinalizedBlockNumber)))
		if innerErr != nil {
			return innerErr
		}
		latest = header.Number.Uint64()
		return nil
	})
	return latest, err
}

// PollEvents implements chain.WatcherAdapter, chunking the block range per
// maxBlockRange and decoding each Staked log against GatewayABI.
func (a *Adapter) PollEvents(ctx context.Context, fromBlock, toBlock uint64) ([]event.StakeEvent, error) {
	var out []event.StakeEvent

	for from := fromBlock; from <= toBlock; {
		to := from + maxBlockRange - 1
		if to > toBlock {
			to = toBlock
		}

		query := gethereum.FilterQuery{
			FromBlock: big.NewInt(int64(from)),
			ToBlock:   big.NewInt(int64(to)),
			Addresses: []ethcommon.Address{a.gatewayAddr},
			Topics:    [][]ethcommon.Hash{{StakedEventSignature}},
		}

		var logs []types.Log
		err := a.withClient(ctx, func(client *ethclient.Client) error {
			var innerErr error
			logs, innerErr = client.FilterLogs(ctx, query)
			return innerErr
		})
		if err != nil {
			return nil, fmt.Errorf("evm: filter logs %d-%d: %w", from, to, err)
		}

		for _, lg := range logs {
			ev, decodeErr := a.decodeStaked(lg)
			if decodeErr != nil {
				a.logger.Warn().Err(decodeErr).
					Str("tx_hash", lg.TxHash.Hex()).
					Msg("dropping log that failed Staked decoding")
				continue
			}
			out = append(out, ev)
		}

		from = to + 1
	}

	return out, nil
}

func (a *Adapter) decodeStaked(lg types.Log) (event.StakeEvent, error) {
	unpacked, err := ParsedGatewayABI.Unpack("Staked", lg.Data)
	if err != nil {
		return event.StakeEvent{}, fmt.Errorf("unpack Staked: %w", err)
	}
	if len(unpacked) != 8 {
		return event.StakeEvent{}, fmt.Errorf("unexpected Staked field count %d", len(unpacked))
	}

	sourceContract, ok := unpacked[0].([32]byte)
	if !ok {
		return event.StakeEvent{}, fmt.Errorf("sourceContract: unexpected type")
	}
	targetContract, ok := unpacked[1].([32]byte)
	if !ok {
		return event.StakeEvent{}, fmt.Errorf("targetContract: unexpected type")
	}
	sourceChainID, ok := unpacked[2].(uint64)
	if !ok {
		return event.StakeEvent{}, fmt.Errorf("sourceChainId: unexpected type")
	}
	targetChainID, ok := unpacked[3].(uint64)
	if !ok {
		return event.StakeEvent{}, fmt.Errorf("targetChainId: unexpected type")
	}
	blockHeight, ok := unpacked[4].(uint64)
	if !ok {
		return event.StakeEvent{}, fmt.Errorf("blockHeight: unexpected type")
	}
	amount, ok := unpacked[5].(uint64)
	if !ok {
		return event.StakeEvent{}, fmt.Errorf("amount: unexpected type")
	}
	receiverAddress, ok := unpacked[6].(string)
	if !ok {
		return event.StakeEvent{}, fmt.Errorf("receiverAddress: unexpected type")
	}
	nonce, ok := unpacked[7].(uint64)
	if !ok {
		return event.StakeEvent{}, fmt.Errorf("nonce: unexpected type")
	}

	ev := event.StakeEvent{
		SourceContract:  sourceContract,
		TargetContract:  targetContract,
		SourceChainID:   sourceChainID,
		TargetChainID:   targetChainID,
		BlockHeight:     blockHeight,
		Amount:          amount,
		ReceiverAddress: receiverAddress,
		Nonce:           nonce,
	}
	if err := ev.Validate(); err != nil {
		return event.StakeEvent{}, fmt.Errorf("decoded event failed validation: %w", err)
	}
	return ev, nil
}

// Simulate implements chain.SubmitterAdapter via eth_call against the
// pending/latest state, returning the revert reason as logText on failure
// (so internal/bridge/errors.Classify can inspect it).
func (a *Adapter) Simulate(ctx context.Context, ev event.StakeEvent, signature []byte) (string, error) {
	calldata, err := a.packSubmitSignature(ev, signature)
	if err != nil {
		return "", err
	}

	fromAddr, err := a.signerAddress()
	if err != nil {
		return "", err
	}

	var result []byte
	callErr := a.withClient(ctx, func(client *ethclient.Client) error {
		msg := gethereum.CallMsg{
			From: fromAddr,
			To:   &a.gatewayAddr,
			Data: calldata,
		}
		var innerErr error
		result, innerErr = client.CallContract(ctx, msg, nil)
		return innerErr
	})
	if callErr != nil {
		return callErr.Error(), fmt.Errorf("evm: simulate submitSignature: %w", callErr)
	}
	return fmt.Sprintf("%x", result), nil
}

// Send implements chain.SubmitterAdapter.
func (a *Adapter) Send(ctx context.Context, ev event.StakeEvent, signature []byte) (*chain.SubmittedTx, error) {
	calldata, err := a.packSubmitSignature(ev, signature)
	if err != nil {
		return nil, err
	}

	privKey, err := crypto.HexToECDSA(strings.TrimPrefix(a.signerKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("evm: parse signer key: %w", err)
	}
	fromAddr := crypto.PubkeyToAddress(privKey.PublicKey)

	var signedTx *types.Transaction
	err = a.withClient(ctx, func(client *ethclient.Client) error {
		nonce, innerErr := client.PendingNonceAt(ctx, fromAddr)
		if innerErr != nil {
			return innerErr
		}
		gasPrice, innerErr := client.SuggestGasPrice(ctx)
		if innerErr != nil {
			return innerErr
		}
		gasLimit, innerErr := client.EstimateGas(ctx, gethereum.CallMsg{
			From: fromAddr,
			To:   &a.gatewayAddr,
			Data: calldata,
		})
		if innerErr != nil {
			return innerErr
		}

		chainID := new(big.Int).SetUint64(a.sourceChainID)
		tx := types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			To:       &a.gatewayAddr,
			Value:    big.NewInt(0),
			Gas:      gasLimit + gasLimit/5, // 20% buffer
			GasPrice: gasPrice,
			Data:     calldata,
		})
		signed, signErr := types.SignTx(tx, types.NewEIP155Signer(chainID), privKey)
		if signErr != nil {
			return signErr
		}
		signedTx = signed
		return client.SendTransaction(ctx, signed)
	})
	if err != nil {
		return nil, fmt.Errorf("evm: send submitSignature: %w", err)
	}

	return &chain.SubmittedTx{TxHash: signedTx.Hash().Hex()}, nil
}

// Confirm implements chain.SubmitterAdapter, polling for the transaction
// receipt (the pooled equivalent of go-ethereum's bind.WaitMined, which
// cannot be reused directly since it owns its own single-client retry loop).
func (a *Adapter) Confirm(ctx context.Context, txHash string) (string, error) {
	hash := ethcommon.HexToHash(txHash)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		var receipt *types.Receipt
		err := a.withClient(ctx, func(client *ethclient.Client) error {
			var innerErr error
			receipt, innerErr = client.TransactionReceipt(ctx, hash)
			return innerErr
		})
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return fmt.Sprintf("tx %s reverted", txHash), fmt.Errorf("evm: transaction reverted")
			}
			return fmt.Sprintf("tx %s included in block %d", txHash, receipt.BlockNumber.Uint64()), nil
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("evm: confirm %s: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// WalletBalance implements chain.SubmitterAdapter.
func (a *Adapter) WalletBalance(ctx context.Context) (uint64, error) {
	fromAddr, err := a.signerAddress()
	if err != nil {
		return 0, err
	}
	var balance *big.Int
	err = a.withClient(ctx, func(client *ethclient.Client) error {
		var innerErr error
		balance, innerErr = client.BalanceAt(ctx, fromAddr, nil)
		return innerErr
	})
	if err != nil {
		return 0, err
	}
	return balance.Uint64(), nil
}

func (a *Adapter) signerAddress() (ethcommon.Address, error) {
	if a.signerKey == "" {
		return ethcommon.Address{}, fmt.Errorf("evm: no signer key configured on this adapter")
	}
	privKey, err := crypto.HexToECDSA(strings.TrimPrefix(a.signerKey, "0x"))
	if err != nil {
		return ethcommon.Address{}, fmt.Errorf("evm: parse signer key: %w", err)
	}
	return crypto.PubkeyToAddress(privKey.PublicKey), nil
}

func (a *Adapter) packSubmitSignature(ev event.StakeEvent, signature []byte) ([]byte, error) {
	tuple := struct {
		SourceContract  [32]byte
		TargetContract  [32]byte
		SourceChainID   uint64
		TargetChainID   uint64
		BlockHeight     uint64
		Amount          uint64
		ReceiverAddress string
		Nonce           uint64
	}{
		SourceContract:  ev.SourceContract,
		TargetContract:  ev.TargetContract,
		SourceChainID:   ev.SourceChainID,
		TargetChainID:   ev.TargetChainID,
		BlockHeight:     ev.BlockHeight,
		Amount:          ev.Amount,
		ReceiverAddress: ev.ReceiverAddress,
		Nonce:           ev.Nonce,
	}
	return ParsedGatewayABI.Pack("submitSignature", tuple, signature)
}
