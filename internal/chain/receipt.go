package chain

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	goretry "github.com/sethvargo/go-retry"

	errs "github.com/asgarovf/smart-wallet/internal/errors"
)

// DefaultPollInterval is how often WaitMined asks the node for a receipt.
const DefaultPollInterval = time.Second

// ReceiptBackend fetches transaction receipts.
type ReceiptBackend interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// WaitMined polls backend until the receipt of hash is available or ctx ends.
// A context deadline is reported as *errors.ConfirmationTimeoutError.
func WaitMined(ctx context.Context, backend ReceiptBackend, hash common.Hash, interval time.Duration) (*types.Receipt, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	var receipt *types.Receipt
	err := goretry.Do(ctx, goretry.NewConstant(interval), func(ctx context.Context) error {
		r, err := backend.TransactionReceipt(ctx, hash)
		if err == nil {
			receipt = r
			return nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			log.Debug("Failed to fetch receipt, polling again", "tx", hash.Hex(), "error", err)
		}
		return goretry.RetryableError(err)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &errs.ConfirmationTimeoutError{TxHash: hash, Err: err}
		}
		return nil, err
	}

	log.Debug("Transaction mined", "tx", hash.Hex(), "status", receipt.Status, "block", receipt.BlockNumber)
	return receipt, nil
}
