package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/asgarovf/smart-wallet/internal/errors"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// newRPCServer answers JSON-RPC calls from a method->result table.
func newRPCServer(t *testing.T, results map[string]interface{}, seen *[]rpcRequest) *httptest.Server {
	var mu sync.Mutex
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if seen != nil {
			mu.Lock()
			*seen = append(*seen, req)
			mu.Unlock()
		}
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if result, ok := results[req.Method]; ok {
			resp["result"] = result
		} else {
			resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestConfigFor(t *testing.T) {
	t.Run("KnownChains", func(t *testing.T) {
		expected := map[int64]string{
			324: "https://mainnet.era.zksync.io",
			300: "https://sepolia.era.zksync.dev",
			260: "http://127.0.0.1:8011",
		}
		for id, url := range expected {
			cfg, err := ConfigFor(id)
			require.NoError(t, err)
			assert.Equal(t, id, cfg.ChainID)
			assert.Equal(t, url, cfg.RPCURL)
		}
	})

	t.Run("UnsupportedChain", func(t *testing.T) {
		for _, id := range []int64{0, 1, 280, 534352} {
			_, err := ConfigFor(id)
			var cfgErr *errs.ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
			assert.ErrorIs(t, err, errs.ErrUnsupportedChain)
		}

		p, err := GetChainProvider(context.Background(), 1)
		assert.Nil(t, p)
		assert.ErrorIs(t, err, errs.ErrUnsupportedChain)
	})

	t.Run("ProviderPointsAtDocumentedURL", func(t *testing.T) {
		p, err := GetChainProvider(context.Background(), SepoliaChainID)
		require.NoError(t, err)
		defer p.Close()
		assert.Equal(t, "https://sepolia.era.zksync.dev", p.ChainConfig().RPCURL)
		assert.Equal(t, int64(300), p.ChainIDBig().Int64())
	})
}

func TestProvider(t *testing.T) {
	hash := common.HexToHash("0xabc0000000000000000000000000000000000000000000000000000000000def")

	t.Run("SendRawTransaction", func(t *testing.T) {
		var seen []rpcRequest
		srv := newRPCServer(t, map[string]interface{}{"eth_sendRawTransaction": hash.Hex()}, &seen)
		defer srv.Close()

		p, err := NewProvider(context.Background(), Config{ChainID: 300, RPCURL: srv.URL})
		require.NoError(t, err)
		defer p.Close()

		got, err := p.SendRawTransaction(context.Background(), []byte{0x71, 0xc0})
		require.NoError(t, err)
		assert.Equal(t, hash, got)

		require.Len(t, seen, 1)
		assert.Equal(t, "eth_sendRawTransaction", seen[0].Method)
		assert.JSONEq(t, `"0x71c0"`, string(seen[0].Params[0]))
	})

	t.Run("VerifyChainID", func(t *testing.T) {
		srv := newRPCServer(t, map[string]interface{}{"eth_chainId": "0x12c"}, nil)
		defer srv.Close()

		p, err := NewProvider(context.Background(), Config{ChainID: 300, RPCURL: srv.URL})
		require.NoError(t, err)
		defer p.Close()
		assert.NoError(t, p.Verify(context.Background()))

		mismatched, err := NewProvider(context.Background(), Config{ChainID: 324, RPCURL: srv.URL})
		require.NoError(t, err)
		defer mismatched.Close()
		err = mismatched.Verify(context.Background())
		var cfgErr *errs.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("EmptyURL", func(t *testing.T) {
		_, err := NewProvider(context.Background(), Config{ChainID: 300})
		var cfgErr *errs.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})
}

type fakeReceipts struct {
	missing int
	calls   int
}

func (f *fakeReceipts) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.calls++
	if f.calls <= f.missing {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{TxHash: hash, Status: types.ReceiptStatusSuccessful}, nil
}

func TestWaitMined(t *testing.T) {
	hash := common.HexToHash("0x01")

	t.Run("PollsUntilMined", func(t *testing.T) {
		backend := &fakeReceipts{missing: 2}
		receipt, err := WaitMined(context.Background(), backend, hash, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, hash, receipt.TxHash)
		assert.Equal(t, 3, backend.calls)
	})

	t.Run("Timeout", func(t *testing.T) {
		backend := &fakeReceipts{missing: 1 << 30}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := WaitMined(ctx, backend, hash, time.Millisecond)
		var timeoutErr *errs.ConfirmationTimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		assert.Equal(t, hash, timeoutErr.TxHash)
	})
}
