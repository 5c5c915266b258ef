// Package transaction builds, passkey-signs and submits ZKsync EIP-712 transactions from smart wallets.
package transaction

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EIP712TxType is the ZKsync typed transaction envelope.
const EIP712TxType = 0x71

// DefaultGasPerPubdata is used when CustomData.GasPerPubdata is unset.
var DefaultGasPerPubdata = big.NewInt(50000)

// PaymasterParams sponsors a transaction through a paymaster contract.
type PaymasterParams struct {
	Paymaster      common.Address `json:"paymaster"`
	PaymasterInput []byte         `json:"paymasterInput"`
}

// CustomData holds the ZKsync specific fields of a transaction.
type CustomData struct {
	GasPerPubdata   *big.Int         `json:"gasPerPubdata,omitempty"`
	FactoryDeps     [][]byte         `json:"factoryDeps,omitempty"`
	CustomSignature []byte           `json:"customSignature,omitempty"`
	PaymasterParams *PaymasterParams `json:"paymasterParams,omitempty"`
}

// Request is a draft transaction sent from a smart-wallet account.
type Request struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Nonce                uint64          `json:"nonce"`
	Value                *big.Int        `json:"value,omitempty"`
	Data                 []byte          `json:"data,omitempty"`
	GasLimit             uint64          `json:"gasLimit"`
	MaxFeePerGas         *big.Int        `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *big.Int        `json:"maxPriorityFeePerGas,omitempty"`
	ChainID              *big.Int        `json:"chainId"`
	CustomData           CustomData      `json:"customData"`
}

// Copy returns a deep copy of r.
func (r *Request) Copy() *Request {
	cpy := *r
	if r.To != nil {
		to := *r.To
		cpy.To = &to
	}
	cpy.Value = copyBig(r.Value)
	cpy.MaxFeePerGas = copyBig(r.MaxFeePerGas)
	cpy.MaxPriorityFeePerGas = copyBig(r.MaxPriorityFeePerGas)
	cpy.ChainID = copyBig(r.ChainID)
	cpy.Data = common.CopyBytes(r.Data)

	cpy.CustomData.GasPerPubdata = copyBig(r.CustomData.GasPerPubdata)
	cpy.CustomData.CustomSignature = common.CopyBytes(r.CustomData.CustomSignature)
	if r.CustomData.FactoryDeps != nil {
		cpy.CustomData.FactoryDeps = make([][]byte, len(r.CustomData.FactoryDeps))
		for i, dep := range r.CustomData.FactoryDeps {
			cpy.CustomData.FactoryDeps[i] = common.CopyBytes(dep)
		}
	}
	if r.CustomData.PaymasterParams != nil {
		cpy.CustomData.PaymasterParams = &PaymasterParams{
			Paymaster:      r.CustomData.PaymasterParams.Paymaster,
			PaymasterInput: common.CopyBytes(r.CustomData.PaymasterParams.PaymasterInput),
		}
	}
	return &cpy
}

func (r *Request) gasPerPubdata() *big.Int {
	if r.CustomData.GasPerPubdata == nil {
		return DefaultGasPerPubdata
	}
	return r.CustomData.GasPerPubdata
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
