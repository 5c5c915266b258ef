package deployer

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asgarovf/smart-wallet/internal/contract"
	errs "github.com/asgarovf/smart-wallet/internal/errors"
	"github.com/asgarovf/smart-wallet/internal/passkey"
	"github.com/asgarovf/smart-wallet/internal/retry"
)

var (
	testContracts = contract.DefaultSets[300]
	testPredictor = Predictor{
		Factory:           testContracts.AccountFactory,
		Implementation:    testContracts.Implementation,
		ProxyBytecodeHash: common.HexToHash("0x010000a5f1f0a6e37a5e6cb38d1b93adff5bb3e2c85b0b0c6c4d5e6f7a8b9c0d"),
	}
	fastRetry = retry.Config{MaxAttempts: 5, DelayMs: 1}
)

// fakeChain is an in-memory chain: account code and receipts.
type fakeChain struct {
	mu       sync.Mutex
	code     map[common.Address][]byte
	receipts map[common.Hash]*types.Receipt
}

func newFakeChain() *fakeChain {
	return &fakeChain{code: map[common.Address][]byte{}, receipts: map[common.Hash]*types.Receipt{}}
}

func (c *fakeChain) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code[account], nil
}

func (c *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// fakeFactory deploys into fakeChain.
type fakeFactory struct {
	chain *fakeChain

	mu           sync.Mutex
	calls        int
	transient    int
	sendErr      error
	revert       bool
	deployOnFail bool
	lastInit     []byte
	lastGasLimit uint64
}

func (f *fakeFactory) Address() common.Address { return testPredictor.Factory }

func (f *fakeFactory) AddressForSalt(_ context.Context, salt [32]byte) (common.Address, error) {
	return testPredictor.AccountAddress(new(big.Int).SetBytes(salt[:])), nil
}

func (f *fakeFactory) DeployAccount(_ context.Context, gasLimit uint64, salt *big.Int, initializer []byte) (*types.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastInit = initializer
	f.lastGasLimit = gasLimit

	account := testPredictor.AccountAddress(salt)
	if f.transient > 0 {
		f.transient--
		return nil, errors.New("connection reset by peer")
	}
	if f.sendErr != nil {
		if f.deployOnFail {
			f.chain.mu.Lock()
			f.chain.code[account] = []byte{0x01}
			f.chain.mu.Unlock()
		}
		return nil, f.sendErr
	}

	tx := types.NewTx(&types.LegacyTx{Nonce: uint64(f.calls), Gas: gasLimit, Data: initializer, GasPrice: big.NewInt(1)})
	status := types.ReceiptStatusSuccessful
	if f.revert {
		status = types.ReceiptStatusFailed
	}

	f.chain.mu.Lock()
	defer f.chain.mu.Unlock()
	if status == types.ReceiptStatusSuccessful {
		f.chain.code[account] = []byte{0x01}
	}
	f.chain.receipts[tx.Hash()] = &types.Receipt{Status: status, TxHash: tx.Hash(), BlockNumber: big.NewInt(int64(f.calls)), Logs: []*types.Log{}}
	return tx, nil
}

func newTestDeployer(factory *fakeFactory, chain *fakeChain, predictor *Predictor) *Deployer {
	return New(factory, chain, Config{
		Predictor:           predictor,
		Retry:               fastRetry,
		ConfirmationTimeout: time.Second,
		PollInterval:        time.Millisecond,
	})
}

func TestComputeAddress(t *testing.T) {
	deployer := common.HexToAddress("0x36615Cf349d7F6344891B1e7CA7C72883F5dc049")
	salt := SaltBytes(big.NewInt(1))
	hash := common.HexToHash("0x010001cb6a6e8d5f6829522f19fa9568660e0a9cd53b2e8be4deb0a679452e41")
	input := []byte{0xab}

	base := ComputeAddress(deployer, salt, hash, input)
	assert.Equal(t, common.HexToAddress("0xfc4a6022f0b0764c15b3794f0dba5e3be7625fb0"), base)
	assert.Equal(t, common.HexToAddress("0x5328c1eb4458b1a267908b76dd6dfabd73edf3b7"), testPredictor.AccountAddress(big.NewInt(1)))

	assert.NotEqual(t, base, ComputeAddress(common.HexToAddress("0x01"), salt, hash, input))
	assert.NotEqual(t, base, ComputeAddress(deployer, SaltBytes(big.NewInt(2)), hash, input))
	assert.NotEqual(t, base, ComputeAddress(deployer, salt, common.HexToHash("0x01"), input))
	assert.NotEqual(t, base, ComputeAddress(deployer, salt, hash, []byte{0xac}))

	seen := map[common.Address]struct{}{}
	for i := int64(0); i < 64; i++ {
		seen[testPredictor.AccountAddress(big.NewInt(i))] = struct{}{}
	}
	assert.Len(t, seen, 64)
}

func TestSalt(t *testing.T) {
	entropy := bytes.Repeat([]byte{0x01}, 32)
	salt, err := GetSalt(bytes.NewReader(entropy))
	require.NoError(t, err)
	saltBytes := SaltBytes(salt)
	assert.Equal(t, entropy, saltBytes[:])

	_, err = GetSalt(bytes.NewReader([]byte{0x01}))
	assert.Error(t, err)

	random1, err := GetSalt(nil)
	require.NoError(t, err)
	random2, err := GetSalt(nil)
	require.NoError(t, err)
	assert.NotEqual(t, random1, random2)

	t.Run("Parse", func(t *testing.T) {
		for input, expected := range map[string]int64{"0x10": 16, "16": 16, " 0X0a ": 10, "0": 0} {
			got, err := ParseSalt(input)
			require.NoError(t, err, input)
			assert.Equal(t, expected, got.Int64())
		}
		for _, input := range []string{"", "0x", "-1", "abc", "0x" + string(bytes.Repeat([]byte{'f'}, 65))} {
			_, err := ParseSalt(input)
			assert.Error(t, err, input)
		}
	})
}

func TestBuildInitializer(t *testing.T) {
	publicKey := bytes.Repeat([]byte{0x07}, 64)
	data, err := BuildInitializer(publicKey, testContracts.PasskeyValidator)
	require.NoError(t, err)

	method := contract.AccountImplementationABI.Methods["initialize"]
	assert.Equal(t, method.ID, data[:4])

	values, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, publicKey, values[0])
	assert.Equal(t, testContracts.PasskeyValidator, values[1])
	assert.Empty(t, values[2])

	_, err = BuildInitializer(nil, testContracts.PasskeyValidator)
	assert.Error(t, err)
}

func TestDeployerDeploy(t *testing.T) {
	salt, err := ParseSalt("0x0101010101010101010101010101010101010101010101010101010101010101")
	require.NoError(t, err)
	initializer := common.FromHex("0xdeadbeef")

	t.Run("DeployThenAlreadyDeployed", func(t *testing.T) {
		chain := newFakeChain()
		factory := &fakeFactory{chain: chain}
		d := newTestDeployer(factory, chain, &testPredictor)

		result, err := d.Deploy(context.Background(), salt, initializer)
		require.NoError(t, err)
		assert.Equal(t, types.ReceiptStatusSuccessful, result.Receipt.Status)
		assert.Equal(t, testPredictor.AccountAddress(salt), result.Address)
		assert.Equal(t, initializer, factory.lastInit)
		assert.Equal(t, DefaultGasLimit, factory.lastGasLimit)

		_, err = d.Deploy(context.Background(), salt, initializer)
		var deployedErr *errs.AlreadyDeployedError
		require.ErrorAs(t, err, &deployedErr)
		assert.Equal(t, result.Address, deployedErr.Address)
		assert.Equal(t, 1, factory.calls)
	})

	t.Run("RetriesTransientFailures", func(t *testing.T) {
		chain := newFakeChain()
		factory := &fakeFactory{chain: chain, transient: 2}
		d := newTestDeployer(factory, chain, &testPredictor)

		_, err := d.Deploy(context.Background(), salt, initializer)
		require.NoError(t, err)
		assert.Equal(t, 3, factory.calls)
	})

	t.Run("RetryExhausted", func(t *testing.T) {
		chain := newFakeChain()
		factory := &fakeFactory{chain: chain, transient: 10}
		d := newTestDeployer(factory, chain, &testPredictor)

		_, err := d.Deploy(context.Background(), salt, initializer)
		var exhausted *errs.RetryExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 5, exhausted.Attempts)
		assert.Equal(t, 5, factory.calls)
	})

	t.Run("RevertIsNotRetried", func(t *testing.T) {
		chain := newFakeChain()
		factory := &fakeFactory{chain: chain, sendErr: errors.New("execution reverted: invalid initializer")}
		d := newTestDeployer(factory, chain, &testPredictor)

		_, err := d.Deploy(context.Background(), salt, initializer)
		require.Error(t, err)
		assert.Equal(t, 1, factory.calls)
	})

	t.Run("ConcurrentDeployment", func(t *testing.T) {
		chain := newFakeChain()
		factory := &fakeFactory{chain: chain, sendErr: errors.New("execution reverted"), deployOnFail: true}
		d := newTestDeployer(factory, chain, &testPredictor)

		_, err := d.Deploy(context.Background(), salt, initializer)
		var deployedErr *errs.AlreadyDeployedError
		assert.ErrorAs(t, err, &deployedErr)
	})

	t.Run("RevertedReceipt", func(t *testing.T) {
		chain := newFakeChain()
		factory := &fakeFactory{chain: chain, revert: true}
		d := newTestDeployer(factory, chain, &testPredictor)

		_, err := d.Deploy(context.Background(), salt, initializer)
		var failedErr *errs.DeploymentFailedError
		require.ErrorAs(t, err, &failedErr)
		require.NotNil(t, failedErr.Receipt)
		assert.Equal(t, types.ReceiptStatusFailed, failedErr.Receipt.Status)
	})

	t.Run("AddressFromFactory", func(t *testing.T) {
		chain := newFakeChain()
		factory := &fakeFactory{chain: chain}
		d := newTestDeployer(factory, chain, nil)

		addr, err := d.AccountAddress(context.Background(), salt)
		require.NoError(t, err)
		assert.Equal(t, testPredictor.AccountAddress(salt), addr)
	})
}

type cancellingPasskey struct {
	passkey.Signer
	registered int
}

func (p *cancellingPasskey) Register(context.Context, common.Address) (*passkey.Credential, error) {
	p.registered++
	return nil, context.Canceled
}

func TestFlowRun(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		chain := newFakeChain()
		factory := &fakeFactory{chain: chain}
		auth := passkey.NewSoftwareAuthenticator("localhost", "http://localhost:3000")
		flow := &Flow{
			Deployer:       newTestDeployer(factory, chain, &testPredictor),
			Passkey:        auth,
			Validator:      testContracts.PasskeyValidator,
			Entropy:        bytes.NewReader(bytes.Repeat([]byte{0x02}, 32)),
			PasskeyTimeout: time.Second,
		}

		account, err := flow.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, testPredictor.AccountAddress(account.Salt), account.Address)
		require.Len(t, account.PublicKey, 64)
		pub := auth.PublicKey()
		assert.Equal(t, pub.X.FillBytes(make([]byte, 32)), account.PublicKey[:32])

		expected, err := BuildInitializer(account.PublicKey, testContracts.PasskeyValidator)
		require.NoError(t, err)
		assert.Equal(t, expected, factory.lastInit)
	})

	t.Run("RegistrationCancelled", func(t *testing.T) {
		chain := newFakeChain()
		factory := &fakeFactory{chain: chain}
		signer := &cancellingPasskey{}
		flow := &Flow{
			Deployer:  newTestDeployer(factory, chain, &testPredictor),
			Passkey:   signer,
			Validator: testContracts.PasskeyValidator,
		}

		_, err := flow.Run(context.Background())
		var regErr *errs.RegistrationError
		require.ErrorAs(t, err, &regErr)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, signer.registered)
		assert.Zero(t, factory.calls)
		assert.Empty(t, chain.code)
	})

	t.Run("CancelledBeforeStart", func(t *testing.T) {
		chain := newFakeChain()
		factory := &fakeFactory{chain: chain}
		signer := &cancellingPasskey{}
		flow := &Flow{Deployer: newTestDeployer(factory, chain, &testPredictor), Passkey: signer}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := flow.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, signer.registered)
		assert.Zero(t, factory.calls)
	})
}
