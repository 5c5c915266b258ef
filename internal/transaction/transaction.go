package transaction

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/asgarovf/smart-wallet/internal/chain"
	errs "github.com/asgarovf/smart-wallet/internal/errors"
	"github.com/asgarovf/smart-wallet/internal/passkey"
)

// DefaultConfirmationTimeout bounds how long Send waits for a receipt.
const DefaultConfirmationTimeout = 2 * time.Minute

// Backend submits raw transactions and fetches their receipts.
type Backend interface {
	chain.ReceiptBackend
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
}

// StateBackend reads the chain state Populate needs.
type StateBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Props configures a Transaction.
type Props struct {
	Request *Request
	Backend Backend
	Signer  passkey.Signer

	ValidatorAddress        common.Address
	GaslessPaymasterAddress common.Address
	// Sponsored makes SignAndSend attach the gasless paymaster.
	Sponsored bool

	ConfirmationTimeout time.Duration
	PollInterval        time.Duration
}

// Transaction is a single-use builder: Draft, optional paymaster, signed, then sent.
type Transaction struct {
	props Props

	mu       sync.Mutex
	req      *Request
	consumed bool
}

// New returns a builder over a copy of props.Request.
func New(props Props) (*Transaction, error) {
	if props.Request == nil {
		return nil, errors.New("transaction request is required")
	}
	if props.Backend == nil {
		return nil, errors.New("transaction backend is required")
	}
	if props.Signer == nil {
		return nil, errors.New("passkey signer is required")
	}
	if props.ConfirmationTimeout <= 0 {
		props.ConfirmationTimeout = DefaultConfirmationTimeout
	}
	if props.PollInterval <= 0 {
		props.PollInterval = chain.DefaultPollInterval
	}
	return &Transaction{props: props, req: props.Request.Copy()}, nil
}

// Request returns a copy of the current draft.
func (t *Transaction) Request() *Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.req.Copy()
}

// Populate fills the nonce, fee caps, chain id and gas per pubdata that are still unset.
func (t *Transaction) Populate(ctx context.Context, state StateBackend) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.consumed {
		return errs.ErrTransactionConsumed
	}

	if t.req.ChainID == nil {
		chainID, err := state.ChainID(ctx)
		if err != nil {
			return &errs.NetworkError{Op: "eth_chainId", Err: err}
		}
		t.req.ChainID = chainID
	}
	if t.req.Nonce == 0 {
		nonce, err := state.PendingNonceAt(ctx, t.req.From)
		if err != nil {
			return &errs.NetworkError{Op: "eth_getTransactionCount", Err: err}
		}
		t.req.Nonce = nonce
	}
	if t.req.MaxFeePerGas == nil {
		gasPrice, err := state.SuggestGasPrice(ctx)
		if err != nil {
			return &errs.NetworkError{Op: "eth_gasPrice", Err: err}
		}
		t.req.MaxFeePerGas = gasPrice
	}
	if t.req.MaxPriorityFeePerGas == nil {
		t.req.MaxPriorityFeePerGas = new(big.Int)
	}
	if t.req.CustomData.GasPerPubdata == nil {
		t.req.CustomData.GasPerPubdata = new(big.Int).Set(DefaultGasPerPubdata)
	}
	return nil
}

// AppendPaymaster routes the draft through the gasless paymaster using the general flow.
func (t *Transaction) AppendPaymaster() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.consumed {
		return errs.ErrTransactionConsumed
	}
	return t.appendPaymaster()
}

func (t *Transaction) appendPaymaster() error {
	params, err := GeneralPaymasterParams(t.props.GaslessPaymasterAddress, nil)
	if err != nil {
		return err
	}
	t.req.CustomData.PaymasterParams = params
	return nil
}

// Sign asks the passkey to sign the EIP-712 digest of the draft and returns the signature envelope.
func (t *Transaction) Sign(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	req := t.req.Copy()
	consumed := t.consumed
	t.mu.Unlock()
	if consumed {
		return nil, errs.ErrTransactionConsumed
	}
	return t.sign(ctx, req)
}

func (t *Transaction) sign(ctx context.Context, req *Request) ([]byte, error) {
	digest, err := SignedDigest(req)
	if err != nil {
		return nil, err
	}
	challenge, err := passkey.HexToBase64URL(digest.Hex())
	if err != nil {
		return nil, err
	}

	signature, err := t.props.Signer.Sign(ctx, challenge)
	if err != nil {
		return nil, &errs.SigningError{Err: err}
	}

	envelope, err := EncodeSignatureEnvelope(signature, t.props.ValidatorAddress, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signature envelope: %w", err)
	}
	log.Debug("Signed transaction", "from", req.From.Hex(), "nonce", req.Nonce, "digest", digest.Hex())
	return envelope, nil
}

// Send submits req and waits for its receipt, bounded by the confirmation timeout.
// The builder is consumed once the node accepts the transaction.
func (t *Transaction) Send(ctx context.Context, req *Request) (*types.Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.send(ctx, req)
}

func (t *Transaction) send(ctx context.Context, req *Request) (*types.Receipt, error) {
	if t.consumed {
		return nil, errs.ErrTransactionConsumed
	}

	raw, err := Serialize(req)
	if err != nil {
		return nil, &errs.SubmissionError{Err: err}
	}
	hash, err := t.props.Backend.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, &errs.SubmissionError{Err: err}
	}
	t.consumed = true
	log.Info("Transaction submitted", "tx", hash.Hex(), "from", req.From.Hex(), "nonce", req.Nonce)

	waitCtx, cancel := context.WithTimeout(ctx, t.props.ConfirmationTimeout)
	defer cancel()
	receipt, err := chain.WaitMined(waitCtx, t.props.Backend, hash, t.props.PollInterval)
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// SignAndSend signs the draft, attaching the gasless paymaster first when sponsored, and sends it.
func (t *Transaction) SignAndSend(ctx context.Context) (*types.Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.consumed {
		return nil, errs.ErrTransactionConsumed
	}

	if t.props.Sponsored {
		if err := t.appendPaymaster(); err != nil {
			return nil, err
		}
	}

	envelope, err := t.sign(ctx, t.req)
	if err != nil {
		return nil, err
	}
	t.req.CustomData.CustomSignature = envelope
	return t.send(ctx, t.req)
}
