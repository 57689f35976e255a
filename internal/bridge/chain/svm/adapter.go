// Package svm implements the SVM chain adapter: signature-based polling
// and Program-data log decoding via gagliardetto/solana-go/rpc, grounded
// on universalClient/chains/svm (event_watcher.go's GetSignaturesForAddress
// loop, event_parser.go's base64 "Program data:" log decoding), and the
// Ed25519-precompile instruction construction from spec.md §4.4.
package svm

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/usdc-bridge/relayer/internal/bridge/chain"
	"github.com/usdc-bridge/relayer/internal/bridge/chain/rpcpool"
	bridgeerrors "github.com/usdc-bridge/relayer/internal/bridge/errors"
	"github.com/usdc-bridge/relayer/internal/bridge/event"
	"github.com/usdc-bridge/relayer/internal/bridge/signer"
)

// stakedDiscriminator is the 8-byte Anchor event discriminator for the
// Staked event, derived from sha256("event:Staked")[:8] per Anchor
// convention (spec.md §4.1 SVM branch).
const stakedDiscriminator = "0b922dcde63ad5f0"

// Adapter implements chain.WatcherAdapter and chain.SubmitterAdapter
// against a single SVM-compatible chain.
type Adapter struct {
	pool        *rpcpool.Pool
	gatewayAddr solana.PublicKey
	signer      *signer.Ed25519Signer // nil on a watcher-only (source-side) instance
	logger      zerolog.Logger
}

// NewAdapter builds an Adapter. ed25519Signer may be nil for a watcher-only
// (source-side) instance.
func NewAdapter(pool *rpcpool.Pool, gatewayAddr solana.PublicKey, ed25519Signer *signer.Ed25519Signer, logger zerolog.Logger) *Adapter {
	return &Adapter{
		pool:        pool,
		gatewayAddr: gatewayAddr,
		signer:      ed25519Signer,
		logger:      logger.With().Str("component", "svm_adapter").Logger(),
	}
}

// withClient runs fn against a pooled endpoint, retrying the whole call
// with exponential backoff via errors.RetryWithConfig (grounded on
// universalClient/errors/retry.go). This covers a single RPC call's own
// transient failures and is distinct from direction.Runner's tick-based
// queue retry, which only re-attempts a whole pipeline on the next poll
// interval.
func (a *Adapter) withClient(ctx context.Context, fn func(*rpc.Client) error) error {
	return bridgeerrors.RetryWithConfig(ctx, func(ctx context.Context) error {
		return a.pool.Do(ctx, func(ctx context.Context, url string) error {
			client := rpc.New(url)
			return fn(client)
		})
	}, bridgeerrors.DefaultRetryConfig())
}

// LatestBlock implements chain.WatcherAdapter, returning the latest
// finalized slot.
func (a *Adapter) LatestBlock(ctx context.Context) (uint64, error) {
	var slot uint64
	err := a.withClient(ctx, func(client *rpc.Client) error {
		var innerErr error
		slot, innerErr = client.GetSlot(ctx, rpc.CommitmentFinalized)
		return innerErr
	})
	return slot, err
}

// PollEvents implements chain.WatcherAdapter by listing confirmed
// signatures for the gateway program address and decoding each
// transaction's "Program data:" logs for a Staked event, mirroring the
// teacher's EventWatcher.WatchEvents SVM loop. fromBlock/toBlock are slots;
// GetSignaturesForAddress returns the most recent signatures first and is
// not range-queryable, so PollEvents keeps only the returned signatures
// whose slot lies in [fromBlock, toBlock].
func (a *Adapter) PollEvents(ctx context.Context, fromBlock, toBlock uint64) ([]event.StakeEvent, error) {
	var sigs []*rpc.TransactionSignature
	err := a.withClient(ctx, func(client *rpc.Client) error {
		var innerErr error
		sigs, innerErr = client.GetSignaturesForAddress(ctx, a.gatewayAddr)
		return innerErr
	})
	if err != nil {
		return nil, fmt.Errorf("svm: get signatures for address: %w", err)
	}

	var out []event.StakeEvent
	for _, sig := range sigs {
		if sig.Slot < fromBlock || sig.Slot > toBlock {
			continue
		}
		if sig.Err != nil {
			continue
		}

		var tx *rpc.GetTransactionResult
		err := a.withClient(ctx, func(client *rpc.Client) error {
			maxVersion := uint64(0)
			var innerErr error
			tx, innerErr = client.GetTransaction(ctx, sig.Signature, &rpc.GetTransactionOpts{
				MaxSupportedTransactionVersion: &maxVersion,
			})
			return innerErr
		})
		if err != nil {
			a.logger.Warn().Err(err).Str("signature", sig.Signature.String()).Msg("failed to fetch transaction")
			continue
		}
		if tx == nil || tx.Meta == nil {
			continue
		}

		ev, ok, decodeErr := decodeStakedFromLogs(tx.Meta.LogMessages)
		if decodeErr != nil {
			a.logger.Warn().Err(decodeErr).Str("signature", sig.Signature.String()).Msg("dropping log that failed Staked decoding")
			continue
		}
		if !ok {
			continue
		}
		if err := ev.Validate(); err != nil {
			a.logger.Warn().Err(err).Str("signature", sig.Signature.String()).Msg("decoded event failed validation")
			continue
		}
		out = append(out, ev)
	}

	return out, nil
}

// decodeStakedFromLogs scans a transaction's log lines for a "Program
// data:" entry whose 8-byte discriminator matches the Staked event, then
// decodes the Borsh-serialized payload that follows it.
func decodeStakedFromLogs(logs []string) (event.StakeEvent, bool, error) {
	for _, line := range logs {
		if !strings.HasPrefix(line, "Program data: ") {
			continue
		}
		raw := strings.TrimPrefix(line, "Program data: ")
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			continue
		}
		if len(decoded) < 8 {
			continue
		}
		disc := fmt.Sprintf("%x", decoded[:8])
		if disc != stakedDiscriminator {
			continue
		}
		ev, err := event.DecodeBorsh(decoded[8:])
		if err != nil {
			return event.StakeEvent{}, false, fmt.Errorf("borsh decode Staked payload: %w", err)
		}
		return ev, true, nil
	}
	return event.StakeEvent{}, false, nil
}

// Simulate implements chain.SubmitterAdapter via simulateTransaction
// against a constructed, fee-payer-signed transaction carrying both the
// Ed25519-precompile instruction and the submit_signature call.
func (a *Adapter) Simulate(ctx context.Context, ev event.StakeEvent, signature []byte) (string, error) {
	tx, err := a.buildSignedTransaction(ctx, ev, signature)
	if err != nil {
		return "", err
	}

	var result *rpc.SimulateTransactionResponse
	err = a.withClient(ctx, func(client *rpc.Client) error {
		var innerErr error
		result, innerErr = client.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
			SigVerify: false,
		})
		return innerErr
	})
	if err != nil {
		return "", fmt.Errorf("svm: simulate submit_signature: %w", err)
	}
	logText := strings.Join(result.Value.Logs, "\n")
	if result.Value.Err != nil {
		return logText, fmt.Errorf("svm: simulation failed: %v", result.Value.Err)
	}
	return logText, nil
}

// Send implements chain.SubmitterAdapter.
func (a *Adapter) Send(ctx context.Context, ev event.StakeEvent, signature []byte) (*chain.SubmittedTx, error) {
	if a.signer == nil {
		return nil, fmt.Errorf("svm: adapter has no signer configured, cannot send")
	}

	tx, err := a.buildSignedTransaction(ctx, ev, signature)
	if err != nil {
		return nil, err
	}

	var sig solana.Signature
	err = a.withClient(ctx, func(client *rpc.Client) error {
		var innerErr error
		sig, innerErr = client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{})
		return innerErr
	})
	if err != nil {
		return nil, fmt.Errorf("svm: send submit_signature: %w", err)
	}
	return &chain.SubmittedTx{TxHash: sig.String()}, nil
}

// Confirm implements chain.SubmitterAdapter with a single
// GetSignatureStatuses lookup: it returns an error when the signature has
// not been observed yet or the transaction failed, and otherwise reports
// success at whatever commitment the node returned. It does not poll and
// does not wait for finalized commitment.
func (a *Adapter) Confirm(ctx context.Context, txHash string) (string, error) {
	sig, err := solana.SignatureFromBase58(txHash)
	if err != nil {
		return "", fmt.Errorf("svm: parse signature %q: %w", txHash, err)
	}

	var statuses *rpc.GetSignatureStatusesResult
	err = a.withClient(ctx, func(client *rpc.Client) error {
		var innerErr error
		statuses, innerErr = client.GetSignatureStatuses(ctx, true, sig)
		return innerErr
	})
	if err != nil {
		return "", fmt.Errorf("svm: get signature statuses: %w", err)
	}
	if len(statuses.Value) == 0 || statuses.Value[0] == nil {
		return "", fmt.Errorf("svm: signature %s not yet observed", txHash)
	}
	status := statuses.Value[0]
	if status.Err != nil {
		return fmt.Sprintf("tx %s failed: %v", txHash, status.Err), fmt.Errorf("svm: transaction failed")
	}
	return fmt.Sprintf("tx %s confirmed at slot %d", txHash, status.Slot), nil
}

// WalletBalance implements chain.SubmitterAdapter.
func (a *Adapter) WalletBalance(ctx context.Context) (uint64, error) {
	if a.signer == nil {
		return 0, fmt.Errorf("svm: adapter has no signer configured")
	}
	pub := solana.PublicKey(a.signer.PublicKey())

	var balance *rpc.GetBalanceResult
	err := a.withClient(ctx, func(client *rpc.Client) error {
		var innerErr error
		balance, innerErr = client.GetBalance(ctx, pub, rpc.CommitmentFinalized)
		return innerErr
	})
	if err != nil {
		return 0, err
	}
	return balance.Value, nil
}

// buildSignedTransaction assembles the two-instruction transaction spec.md
// §4.2 requires (the Ed25519-precompile instruction followed by the
// submit_signature program call), stamps it with a fresh blockhash, and
// signs it with the relayer's wallet key as fee payer.
func (a *Adapter) buildSignedTransaction(ctx context.Context, ev event.StakeEvent, signature []byte) (*solana.Transaction, error) {
	if a.signer == nil {
		return nil, fmt.Errorf("svm: adapter has no signer configured")
	}

	message, err := event.CanonicalBorsh(ev)
	if err != nil {
		return nil, fmt.Errorf("svm: canonical borsh encoding: %w", err)
	}

	precompileData, err := BuildEd25519PrecompileInstructionData(a.signer.PublicKey(), signature, message)
	if err != nil {
		return nil, err
	}
	precompileIx := solana.NewInstruction(solana.PublicKey(ed25519ProgramID), solana.AccountMetaSlice{}, precompileData)

	submitData, err := packSubmitSignature(ev, signature)
	if err != nil {
		return nil, err
	}
	payer := solana.PublicKey(a.signer.PublicKey())
	submitIx := solana.NewInstruction(a.gatewayAddr, solana.AccountMetaSlice{
		solana.NewAccountMeta(payer, true, true),
	}, submitData)

	var recent *rpc.GetLatestBlockhashResult
	err = a.withClient(ctx, func(client *rpc.Client) error {
		var innerErr error
		recent, innerErr = client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		return innerErr
	})
	if err != nil {
		return nil, fmt.Errorf("svm: get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{precompileIx, submitIx},
		recent.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, fmt.Errorf("svm: build transaction: %w", err)
	}

	walletKey := a.signer.WalletKey()
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &walletKey
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("svm: sign transaction: %w", err)
	}

	return tx, nil
}

// submitSignatureDiscriminator is the 8-byte Anchor instruction
// discriminator for submit_signature, derived from
// sha256("global:submit_signature")[:8] per Anchor convention.
const submitSignatureDiscriminator = "cde0500eef773481"

// packSubmitSignature Borsh-encodes the submit_signature instruction
// arguments: nonce, event, signature (spec.md §6).
func packSubmitSignature(ev event.StakeEvent, signature []byte) ([]byte, error) {
	disc, err := decodeHexDiscriminator(submitSignatureDiscriminator)
	if err != nil {
		return nil, err
	}

	eventBytes, err := event.CanonicalBorsh(ev)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 8+8+len(eventBytes)+4+len(signature))
	buf = append(buf, disc...)

	nonceBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(nonceBytes, ev.Nonce)
	buf = append(buf, nonceBytes...)

	buf = append(buf, eventBytes...)

	sigLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(sigLen, uint32(len(signature)))
	buf = append(buf, sigLen...)
	buf = append(buf, signature...)

	return buf, nil
}

func decodeHexDiscriminator(hexStr string) ([]byte, error) {
	out, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("svm: decode discriminator: %w", err)
	}
	return out, nil
}
