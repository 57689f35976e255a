// Package gateway implements the external-collaborator call surface from
// spec.md §4.6: an HTTP endpoint that accepts a user's
// {amount, target_address} request, approves the source ERC-20 contract's
// allowance, and invokes stake(amount, target_address) under a
// wallet-scoped mutex that serializes nonce assignment and the
// approval-race (spec.md §5). Grounded on the teacher's gorilla/mux HTTP
// wiring (universalClient/api) and go-ethereum ABI call pattern
// (x/crosschain/types/abi.go), generalized to the gateway's narrower
// surface; the gateway's internal accounting (liquidity, admin) is out of
// scope per spec.md §1 — only its call surface is implemented.
package gateway

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// erc20ApproveStakeABI embeds only the two function signatures the
// gateway calls: the standard ERC-20 approve and the bridge's stake entry
// point, mirroring the teacher's inline-ABI-JSON convention.
const erc20ApproveStakeABI = `[
	{
		"constant": false,
		"inputs": [
			{"name": "spender", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "amount", "type": "uint64"},
			{"name": "targetAddress", "type": "string"}
		],
		"name": "stake",
		"outputs": [],
		"type": "function"
	}
]`

var parsedABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20ApproveStakeABI))
	if err != nil {
		panic("gateway: invalid embedded ABI: " + err.Error())
	}
	parsedABI = parsed
}

// StakeRequest is the user-facing request body: {amount, target_address}.
// amount is carried as a JSON string since it may arrive larger than
// uint64 and must be explicitly rejected (spec.md edge case S5), not
// silently truncated by json.Unmarshal into a numeric type.
type StakeRequest struct {
	Amount        string `json:"amount"`
	TargetAddress string `json:"target_address"`
}

// stakeResponse is the success-path response body.
type stakeResponse struct {
	Success bool   `json:"success"`
	TxHash  string `json:"tx_hash"`
}

// errorResponse is the failure-path response body (spec.md §6:
// "HTTP 500 with a JSON body {success: false, message: <explanation>}").
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Server serves the gateway's single stake endpoint.
type Server struct {
	router          *mux.Router
	client          *ethclient.Client
	usdcAddr        common.Address
	bridgeAddr      common.Address
	privateKeyHex   string
	chainID         uint64
	corsAllowOrigin string
	logger          zerolog.Logger

	// mu is the wallet-scoped mutex from spec.md §5: it serializes
	// (balance check, approval, stake send, receipt wait) so concurrent
	// requests never race on the wallet's nonce.
	mu sync.Mutex
}

// New builds a Server. client must be connected to the source chain RPC.
func New(client *ethclient.Client, usdcAddr, bridgeAddr common.Address, privateKeyHex string, chainID uint64, corsAllowOrigin string, logger zerolog.Logger) *Server {
	s := &Server{
		router:          mux.NewRouter(),
		client:          client,
		usdcAddr:        usdcAddr,
		bridgeAddr:      bridgeAddr,
		privateKeyHex:   privateKeyHex,
		chainID:         chainID,
		corsAllowOrigin: corsAllowOrigin,
		logger:          logger.With().Str("component", "gateway_server").Logger(),
	}
	s.router.HandleFunc("/stake", s.handleStake).Methods(http.MethodPost, http.MethodOptions)
	return s
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.corsAllowOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", s.corsAllowOrigin)
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var req StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		s.writeError(w, "amount must be a base-10 integer")
		return
	}
	if amount.Sign() <= 0 {
		s.writeError(w, "amount must be > 0")
		return
	}
	maxUint64 := new(big.Int).SetUint64(^uint64(0))
	if amount.Cmp(maxUint64) > 0 {
		s.writeError(w, "amount exceeds uint64::MAX")
		return
	}
	if req.TargetAddress == "" {
		s.writeError(w, "target_address is required")
		return
	}

	txHash, err := s.stake(r.Context(), amount.Uint64(), req.TargetAddress)
	if err != nil {
		s.writeError(w, err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(stakeResponse{Success: true, TxHash: txHash})
}

func (s *Server) writeError(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(errorResponse{Success: false, Message: message})
}

// stake performs (balance check, approval, stake send, receipt wait) under
// s.mu, per spec.md §5's gateway mutual-exclusion requirement.
func (s *Server) stake(ctx context.Context, amount uint64, targetAddress string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	privKey, err := crypto.HexToECDSA(strings.TrimPrefix(s.privateKeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("parse wallet key: %w", err)
	}
	fromAddr := crypto.PubkeyToAddress(privKey.PublicKey)

	balance, err := s.client.BalanceAt(ctx, fromAddr, nil)
	if err != nil {
		return "", fmt.Errorf("check wallet balance: %w", err)
	}
	if balance.Sign() <= 0 {
		return "", fmt.Errorf("wallet has no native balance for gas")
	}

	approveData, err := parsedABI.Pack("approve", s.bridgeAddr, new(big.Int).SetUint64(amount))
	if err != nil {
		return "", fmt.Errorf("encode approve call: %w", err)
	}
	if _, err := s.sendAndWait(ctx, privKey, fromAddr, s.usdcAddr, approveData); err != nil {
		return "", fmt.Errorf("approve: %w", err)
	}

	stakeData, err := parsedABI.Pack("stake", amount, targetAddress)
	if err != nil {
		return "", fmt.Errorf("encode stake call: %w", err)
	}
	txHash, err := s.sendAndWait(ctx, privKey, fromAddr, s.bridgeAddr, stakeData)
	if err != nil {
		return "", fmt.Errorf("stake: %w", err)
	}

	return txHash, nil
}

// sendAndWait signs and submits one call with data as its payload, then
// polls for the receipt before returning, matching the "stake send,
// receipt wait" steps spec.md §5 requires the wallet mutex to cover.
func (s *Server) sendAndWait(ctx context.Context, privKey *ecdsa.PrivateKey, fromAddr, to common.Address, data []byte) (string, error) {
	nonce, err := s.client.PendingNonceAt(ctx, fromAddr)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}
	gasLimit, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From: fromAddr,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return "", fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(0),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.NewEIP155Signer(new(big.Int).SetUint64(s.chainID)), privKey)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}

	if err := s.waitMined(ctx, signed.Hash()); err != nil {
		return "", fmt.Errorf("wait for receipt: %w", err)
	}

	return signed.Hash().Hex(), nil
}

// waitMined polls for a transaction receipt every two seconds, in the same
// style as the evm chain adapter's manual Confirm loop.
func (s *Server) waitMined(ctx context.Context, hash common.Hash) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		receipt, err := s.client.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return fmt.Errorf("transaction %s reverted", hash.Hex())
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
