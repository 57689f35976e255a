// Package evm implements the EVM chain adapter: event decoding via
// ethclient log filtering and submitSignature transaction building via
// go-ethereum's abi package, grounded on universalClient/chains/evm and
// x/crosschain/types/abi.go's inline-JSON-ABI convention.
package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// GatewayABI is the minimal ABI surface the relayer needs: the Staked
// event the watcher decodes, and the submitSignature function the
// submitter calls. The destination contract's full surface (admin,
// whitelist, liquidity) is out of scope per spec.md §1.
const GatewayABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "internalType": "bytes32", "name": "sourceContract", "type": "bytes32"},
			{"indexed": false, "internalType": "bytes32", "name": "targetContract", "type": "bytes32"},
			{"indexed": false, "internalType": "uint64",  "name": "sourceChainId",  "type": "uint64"},
			{"indexed": false, "internalType": "uint64",  "name": "targetChainId",  "type": "uint64"},
			{"indexed": false, "internalType": "uint64",  "name": "blockHeight",    "type": "uint64"},
			{"indexed": false, "internalType": "uint64",  "name": "amount",         "type": "uint64"},
			{"indexed": false, "internalType": "string",  "name": "receiverAddress","type": "string"},
			{"indexed": false, "internalType": "uint64",  "name": "nonce",          "type": "uint64"}
		],
		"name": "Staked",
		"type": "event"
	},
	{
		"inputs": [
			{
				"components": [
					{"internalType": "bytes32", "name": "sourceContract", "type": "bytes32"},
					{"internalType": "bytes32", "name": "targetContract", "type": "bytes32"},
					{"internalType": "uint64",  "name": "sourceChainId",  "type": "uint64"},
					{"internalType": "uint64",  "name": "targetChainId",  "type": "uint64"},
					{"internalType": "uint64",  "name": "blockHeight",    "type": "uint64"},
					{"internalType": "uint64",  "name": "amount",         "type": "uint64"},
					{"internalType": "string",  "name": "receiverAddress","type": "string"},
					{"internalType": "uint64",  "name": "nonce",          "type": "uint64"}
				],
				"internalType": "struct IGateway.StakeEvent",
				"name": "event",
				"type": "tuple"
			},
			{"internalType": "bytes", "name": "signature", "type": "bytes"}
		],
		"name": "submitSignature",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// ParsedGatewayABI is parsed once at package init for reuse across watcher
// and submitter instances.
var ParsedGatewayABI abi.ABI

// StakedEventSignature is the Keccak-256 topic0 the watcher filters logs
// on (spec.md §4.1: "matching the stake-event topic/discriminator").
var StakedEventSignature = crypto.Keccak256Hash(
	[]byte("Staked(bytes32,bytes32,uint64,uint64,uint64,uint64,string,uint64)"),
)

// SubmitSignatureSelector is the first four bytes of Keccak-256 of the
// submitSignature function signature, per spec.md §6.
var SubmitSignatureSelector = crypto.Keccak256(
	[]byte("submitSignature((bytes32,bytes32,uint64,uint64,uint64,uint64,string,uint64),bytes)"),
)[:4]

func init() {
	parsed, err := abi.JSON(strings.NewReader(GatewayABI))
	if err != nil {
		panic("evm: invalid embedded gateway ABI: " + err.Error())
	}
	ParsedGatewayABI = parsed
}
