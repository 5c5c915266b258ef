package transaction

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var envelopeLayout = func() abi.Arguments {
	bytesT, _ := abi.NewType("bytes", "", nil)
	addressT, _ := abi.NewType("address", "", nil)
	bytesArrayT, _ := abi.NewType("bytes[]", "", nil)
	return abi.Arguments{{Type: bytesT}, {Type: addressT}, {Type: bytesArrayT}}
}()

// EncodeSignatureEnvelope returns abi.encode(bytes signature, address validator, bytes[] extras),
// the layout the account decodes in validateTransaction.
func EncodeSignatureEnvelope(signature []byte, validator common.Address, extras [][]byte) ([]byte, error) {
	if extras == nil {
		extras = [][]byte{}
	}
	if signature == nil {
		signature = []byte{}
	}
	return envelopeLayout.Pack(signature, validator, extras)
}

// DecodeSignatureEnvelope reverses EncodeSignatureEnvelope.
func DecodeSignatureEnvelope(envelope []byte) ([]byte, common.Address, [][]byte, error) {
	values, err := envelopeLayout.Unpack(envelope)
	if err != nil {
		return nil, common.Address{}, nil, fmt.Errorf("failed to decode signature envelope: %w", err)
	}
	return values[0].([]byte), values[1].(common.Address), values[2].([][]byte), nil
}
