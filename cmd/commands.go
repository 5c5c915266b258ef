package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/asgarovf/smart-wallet/internal/chain"
	"github.com/asgarovf/smart-wallet/internal/config"
	"github.com/asgarovf/smart-wallet/internal/contract"
	"github.com/asgarovf/smart-wallet/internal/deployer"
	"github.com/asgarovf/smart-wallet/internal/passkey"
	"github.com/asgarovf/smart-wallet/internal/signer"
	"github.com/asgarovf/smart-wallet/internal/utils"
)

const (
	softwarePasskeyRPID   = "localhost"
	softwarePasskeyOrigin = "http://localhost"
)

var addressCommand = &cli.Command{
	Name:   "address",
	Usage:  "Print the account address of a salt",
	Flags:  []cli.Flag{&utils.SaltFlag},
	Action: addressAction,
}

var deployCommand = &cli.Command{
	Name:   "deploy",
	Usage:  "Deploy an account for a salt and initializer",
	Flags:  utils.DeployFlags,
	Action: deployAction,
}

var createCommand = &cli.Command{
	Name:   "create",
	Usage:  "Register a development passkey and deploy an account owned by it",
	Flags:  []cli.Flag{&utils.ServerURLFlag, &utils.APIKeyFlag},
	Action: createAction,
}

func addressAction(ctx *cli.Context) error {
	cfg, err := config.NewConfig(ctx.String(utils.ConfigFileFlag.Name))
	if err != nil {
		return err
	}
	salt, err := saltFromFlag(ctx)
	if err != nil {
		return err
	}

	var address common.Address
	if predictor := predictorFor(cfg); predictor != nil {
		address = predictor.AccountAddress(salt)
	} else {
		provider, dialErr := chain.NewProvider(ctx.Context, cfg.ChainConfig())
		if dialErr != nil {
			return dialErr
		}
		defer provider.Close()
		d, newErr := newDeployer(ctx.Context, cfg, provider, false)
		if newErr != nil {
			return newErr
		}
		if address, err = d.AccountAddress(ctx.Context, salt); err != nil {
			return err
		}
	}
	fmt.Printf("salt:    %s\naddress: %s\n", hexutil.EncodeBig(salt), address.Hex())
	return nil
}

func deployAction(ctx *cli.Context) error {
	cfg, err := config.NewConfig(ctx.String(utils.ConfigFileFlag.Name))
	if err != nil {
		return err
	}
	salt, err := saltFromFlag(ctx)
	if err != nil {
		return err
	}
	initializer, err := hexutil.Decode(ctx.String(utils.InitializerFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid initializer: %w", err)
	}

	d, closeFn, err := accountDeployer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := d.Deploy(ctx.Context, salt, initializer)
	if err != nil {
		return err
	}
	return printJSON(result.Receipt)
}

func createAction(ctx *cli.Context) error {
	cfg, err := config.NewConfig(ctx.String(utils.ConfigFileFlag.Name))
	if err != nil {
		return err
	}
	d, closeFn, err := accountDeployer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	flow := &deployer.Flow{
		Deployer:       d,
		Passkey:        passkey.NewSoftwareAuthenticator(softwarePasskeyRPID, softwarePasskeyOrigin),
		Validator:      cfg.Contracts.PasskeyValidator,
		PasskeyTimeout: cfg.PasskeyTimeout(),
	}
	account, err := flow.Run(ctx.Context)
	if err != nil {
		return err
	}

	log.Info("Account created", "address", account.Address.Hex(), "salt", account.Salt.String())
	return printJSON(map[string]interface{}{
		"address":    account.Address,
		"salt":       hexutil.EncodeBig(account.Salt),
		"credential": hexutil.Bytes(account.Credential.ID),
		"public_key": hexutil.Encode(account.PublicKey),
		"tx_hash":    account.Receipt.TxHash,
	})
}

// accountDeployer returns a client of the deployment server when --server is set, a local Deployer otherwise.
// Both resolve account addresses on the configured chain.
func accountDeployer(ctx *cli.Context, cfg *config.Config) (deployer.AccountDeployer, func(), error) {
	provider, err := chain.NewProvider(ctx.Context, cfg.ChainConfig())
	if err != nil {
		return nil, nil, err
	}

	server := ctx.String(utils.ServerURLFlag.Name)
	d, err := newDeployer(ctx.Context, cfg, provider, server == "")
	if err != nil {
		provider.Close()
		return nil, nil, err
	}
	if server != "" {
		return deployer.NewRemoteClient(server, ctx.String(utils.APIKeyFlag.Name), d), provider.Close, nil
	}
	return d, provider.Close, nil
}

// newDeployer binds the account factory on provider. A writable deployer signs with the configured key.
func newDeployer(ctx context.Context, cfg *config.Config, provider *chain.Provider, writable bool) (*deployer.Deployer, error) {
	registry, err := contract.New(*cfg.Contracts, provider)
	if err != nil {
		return nil, err
	}

	var factory *contract.Factory
	if writable {
		s, signerErr := signer.New(ctx, cfg.DeployerPrivateKey, cfg.AWSKMSKeyID)
		if signerErr != nil {
			return nil, signerErr
		}
		log.Info("Deployer signer initialized", "address", s.Address().Hex())
		factory, err = contract.NewFactory(registry, signer.TransactOpts(context.Background(), s, provider.ChainIDBig()))
	} else {
		factory, err = contract.NewFactory(registry, nil)
	}
	if err != nil {
		return nil, err
	}

	return deployer.New(factory, provider, deployer.Config{
		GasLimit:            cfg.DeployGasLimit,
		Predictor:           predictorFor(cfg),
		Retry:               cfg.Retry,
		ConfirmationTimeout: cfg.ConfirmationTimeout(),
	}), nil
}

func predictorFor(cfg *config.Config) *deployer.Predictor {
	if cfg.ProxyBytecodeHash == (common.Hash{}) {
		return nil
	}
	return &deployer.Predictor{
		Factory:           cfg.Contracts.AccountFactory,
		Implementation:    cfg.Contracts.Implementation,
		ProxyBytecodeHash: cfg.ProxyBytecodeHash,
	}
}

// saltFromFlag parses --salt, drawing a random salt when it is empty.
func saltFromFlag(ctx *cli.Context) (*big.Int, error) {
	if raw := ctx.String(utils.SaltFlag.Name); raw != "" {
		return deployer.ParseSalt(raw)
	}
	return deployer.GetSalt(nil)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
