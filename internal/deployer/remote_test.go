package deployer

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/asgarovf/smart-wallet/internal/errors"
	apitypes "github.com/asgarovf/smart-wallet/internal/types"
)

func TestRemoteClientDeploy(t *testing.T) {
	salt := big.NewInt(0x42)
	initializer := common.FromHex("0xdeadbeef")
	account := testPredictor.AccountAddress(salt)

	var (
		mu     sync.Mutex
		status int
		body   interface{}
	)
	respond := func(s int, b interface{}) {
		mu.Lock()
		defer mu.Unlock()
		status, body = s, b
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/deploy", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req apitypes.DeployRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "0x42", req.Salt)
		assert.Equal(t, hexutil.Encode(initializer), req.Initializer)

		mu.Lock()
		defer mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		assert.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	defer srv.Close()

	client := NewRemoteClient(srv.URL+"/", "secret", New(nil, nil, Config{Predictor: &testPredictor}))

	addr, err := client.AccountAddress(context.Background(), salt)
	require.NoError(t, err)
	assert.Equal(t, account, addr)

	t.Run("Success", func(t *testing.T) {
		respond(http.StatusOK, &types.Receipt{
			Status:      types.ReceiptStatusSuccessful,
			TxHash:      common.HexToHash("0xabc"),
			BlockNumber: big.NewInt(10),
			Logs:        []*types.Log{},
		})

		result, err := client.Deploy(context.Background(), salt, initializer)
		require.NoError(t, err)
		assert.Equal(t, account, result.Address)
		assert.Equal(t, common.HexToHash("0xabc"), result.Receipt.TxHash)
	})

	t.Run("AlreadyDeployed", func(t *testing.T) {
		respond(http.StatusConflict, apitypes.ErrorResponse{Message: "already deployed", Address: account.Hex()})

		_, err := client.Deploy(context.Background(), salt, initializer)
		var deployedErr *errs.AlreadyDeployedError
		require.ErrorAs(t, err, &deployedErr)
		assert.Equal(t, account, deployedErr.Address)
	})

	t.Run("MissingDeployerKey", func(t *testing.T) {
		respond(http.StatusInternalServerError, apitypes.ErrorResponse{Message: "DEPLOYER_PRIVATE_KEY is not set"})

		_, err := client.Deploy(context.Background(), salt, initializer)
		assert.ErrorIs(t, err, errs.ErrMissingDeployerKey)
	})

	t.Run("Unavailable", func(t *testing.T) {
		respond(http.StatusServiceUnavailable, apitypes.ErrorResponse{Message: "node down"})

		_, err := client.Deploy(context.Background(), salt, initializer)
		var netErr *errs.NetworkError
		assert.ErrorAs(t, err, &netErr)
		assert.True(t, errs.IsRetryable(err))
	})
}

func TestRemoteClientWithoutResolver(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewRemoteClient(srv.URL, "", nil)

	addr, err := client.AccountAddress(context.Background(), big.NewInt(1))
	var cfgErr *errs.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, common.Address{}, addr)

	_, err = client.Deploy(context.Background(), big.NewInt(1), []byte{0x01})
	require.ErrorAs(t, err, &cfgErr)
	assert.Zero(t, requests)

	signer := &cancellingPasskey{}
	flow := &Flow{Deployer: client, Passkey: signer}
	_, err = flow.Run(context.Background())
	require.ErrorAs(t, err, &cfgErr)
	assert.Zero(t, signer.registered)
}

func TestRemoteClientResolvesThroughFactory(t *testing.T) {
	salt := big.NewInt(7)
	resolver := New(&fakeFactory{}, nil, Config{Retry: fastRetry})
	client := NewRemoteClient("http://127.0.0.1:0", "", resolver)

	addr, err := client.AccountAddress(context.Background(), salt)
	require.NoError(t, err)
	assert.Equal(t, testPredictor.AccountAddress(salt), addr)
}
