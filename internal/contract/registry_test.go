package contract

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/backends"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/asgarovf/smart-wallet/internal/errors"
)

func testSet() Set {
	return DefaultSets[300]
}

func TestSet(t *testing.T) {
	t.Run("DefaultSetsAreComplete", func(t *testing.T) {
		for chainID, set := range DefaultSets {
			assert.NoError(t, set.Validate(), "chain %d", chainID)
		}
	})

	t.Run("MissingAddress", func(t *testing.T) {
		set := testSet()
		set.PasskeyValidator = common.Address{}
		err := set.Validate()
		var cfgErr *errs.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
		assert.ErrorIs(t, err, errs.ErrInvalidContractSet)

		_, err = New(set, nil)
		assert.ErrorIs(t, err, errs.ErrInvalidContractSet)
	})
}

func TestRegistry(t *testing.T) {
	set := testSet()
	registry, err := New(set, nil)
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(300))
	require.NoError(t, err)

	t.Run("GetContract", func(t *testing.T) {
		for _, name := range Names {
			expected, err := set.Address(name)
			require.NoError(t, err)

			h, err := registry.GetContract(name, AccountFactoryABI)
			require.NoError(t, err)
			assert.Equal(t, expected, h.Address)
			assert.Equal(t, name, h.Name)
			assert.False(t, h.Writable())
		}
	})

	t.Run("GetContractWithSigner", func(t *testing.T) {
		for _, name := range Names {
			expected, err := set.Address(name)
			require.NoError(t, err)

			h, err := registry.GetContractWithSigner(name, AccountFactoryABI, wallet)
			require.NoError(t, err)
			assert.Equal(t, expected, h.Address)
			assert.True(t, h.Writable())
		}

		_, err := registry.GetContractWithSigner(AccountFactory, AccountFactoryABI, nil)
		assert.ErrorIs(t, err, errs.ErrMissingDeployerKey)
	})

	t.Run("UnknownName", func(t *testing.T) {
		h, err := registry.GetContract("vault", AccountFactoryABI)
		assert.Nil(t, h)
		assert.ErrorIs(t, err, errs.ErrUnknownContractName)

		h, err = registry.GetContractWithSigner("", AccountFactoryABI, wallet)
		assert.Nil(t, h)
		assert.ErrorIs(t, err, errs.ErrUnknownContractName)
	})

	t.Run("ReadOnlyTransact", func(t *testing.T) {
		h, err := registry.GetContract(AccountFactory, AccountFactoryABI)
		require.NoError(t, err)
		_, err = h.Transact(context.Background(), 100000, "deployAccount", big.NewInt(1), []byte{})
		assert.ErrorIs(t, err, errs.ErrReadOnlyHandle)
		var cfgErr *errs.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
		assert.False(t, errs.IsRetryable(err))
	})

	t.Run("RegistryContract", func(t *testing.T) {
		h, err := registry.GetContract(RegistryContract, AccountFactoryABI)
		require.NoError(t, err)
		assert.Equal(t, registry.Contracts().Registry, h.Address)
	})
}

func TestFactoryOnSimulatedBackend(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	deployer := crypto.PubkeyToAddress(key.PublicKey)

	sim := backends.NewSimulatedBackend(core.GenesisAlloc{
		deployer: {Balance: new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18))},
	}, 30_000_000)
	defer sim.Close()

	wallet, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(1337))
	require.NoError(t, err)

	registry, err := New(testSet(), sim)
	require.NoError(t, err)

	factory, err := NewFactory(registry, wallet)
	require.NoError(t, err)
	assert.Equal(t, testSet().AccountFactory, factory.Address())

	salt := big.NewInt(1)
	initializer := common.FromHex("0xdeadbeef")
	tx, err := factory.DeployAccount(context.Background(), 1_000_000, salt, initializer)
	require.NoError(t, err)
	sim.Commit()

	expectedData, err := AccountFactoryABI.Pack("deployAccount", salt, initializer)
	require.NoError(t, err)
	assert.Equal(t, expectedData, tx.Data())
	assert.Equal(t, uint64(1_000_000), tx.Gas())
	assert.Equal(t, testSet().AccountFactory, *tx.To())

	receipt, err := sim.TransactionReceipt(context.Background(), tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Status)

	// The factory has no code on the simulated chain.
	_, err = factory.AddressForSalt(context.Background(), [32]byte{1})
	assert.Error(t, err)
}
