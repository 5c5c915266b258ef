package contract

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const accountFactoryABIJSON = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "salt", "type": "uint256"},
			{"internalType": "bytes", "name": "initializer", "type": "bytes"}
		],
		"name": "deployAccount",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes32", "name": "salt", "type": "bytes32"}
		],
		"name": "getAddressForSalt",
		"outputs": [
			{"internalType": "address", "name": "accountAddress", "type": "address"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

const accountImplementationABIJSON = `[
	{
		"inputs": [
			{"internalType": "bytes", "name": "initialR1Owner", "type": "bytes"},
			{"internalType": "address", "name": "initialR1Validator", "type": "address"},
			{"internalType": "bytes[]", "name": "modules", "type": "bytes[]"},
			{
				"components": [
					{"internalType": "address", "name": "target", "type": "address"},
					{"internalType": "bool", "name": "allowFailure", "type": "bool"},
					{"internalType": "uint256", "name": "value", "type": "uint256"},
					{"internalType": "bytes", "name": "callData", "type": "bytes"}
				],
				"internalType": "struct Call",
				"name": "initCall",
				"type": "tuple"
			}
		],
		"name": "initialize",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

const paymasterFlowABIJSON = `[
	{
		"inputs": [
			{"internalType": "bytes", "name": "input", "type": "bytes"}
		],
		"name": "general",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "_token", "type": "address"},
			{"internalType": "uint256", "name": "_minAllowance", "type": "uint256"},
			{"internalType": "bytes", "name": "_innerInput", "type": "bytes"}
		],
		"name": "approvalBased",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

var (
	// AccountFactoryABI is the factory deploying smart-wallet proxies.
	AccountFactoryABI = mustParseABI(accountFactoryABIJSON)
	// AccountImplementationABI is the account implementation initializer.
	AccountImplementationABI = mustParseABI(accountImplementationABIJSON)
	// PaymasterFlowABI encodes the paymaster input of ZKsync transactions.
	PaymasterFlowABI = mustParseABI(paymasterFlowABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
