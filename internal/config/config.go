// Package config provides the configuration for the smart-wallet deployment service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/asgarovf/smart-wallet/internal/chain"
	"github.com/asgarovf/smart-wallet/internal/contract"
	errs "github.com/asgarovf/smart-wallet/internal/errors"
	"github.com/asgarovf/smart-wallet/internal/retry"
	"github.com/asgarovf/smart-wallet/internal/utils/database"
)

// DeployerPrivateKeyEnv overrides Config.DeployerPrivateKey when set.
const DeployerPrivateKeyEnv = "DEPLOYER_PRIVATE_KEY"

const (
	defaultDeployGasLimit         = 1_000_000_000
	defaultConfirmationTimeoutSec = 120
	defaultPasskeyTimeoutSec      = 60
	defaultRateLimiterQPS         = 10
)

// Config represents the configuration of one deployment environment.
type Config struct {
	ChainID   int64         `json:"chain_id"`
	RPCURL    string        `json:"rpc_url"`
	Contracts *contract.Set `json:"contracts"`

	DeployerPrivateKey string      `json:"deployer_private_key"`
	AWSKMSKeyID        string      `json:"aws_kms_key_id"`
	DeployGasLimit     uint64      `json:"deploy_gas_limit"`
	ProxyBytecodeHash  common.Hash `json:"proxy_bytecode_hash"`

	Retry                  retry.Config `json:"retry"`
	ConfirmationTimeoutSec int64        `json:"confirmation_timeout_sec"`
	PasskeyTimeoutSec      int64        `json:"passkey_timeout_sec"`

	APIKeys        []string        `json:"api_keys"`
	RateLimiterQPS int64           `json:"rate_limiter_qps"`
	DBConfig       database.Config `json:"db_config"`
}

// NewConfig return an unmarshalled config instance with defaults applied.
func NewConfig(file string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(file))
	if err != nil {
		return nil, err
	}
	cfg := Config{}
	err = json.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}
	if err = cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if key := os.Getenv(DeployerPrivateKeyEnv); key != "" {
		c.DeployerPrivateKey = key
	}

	chainCfg, err := chain.ConfigFor(c.ChainID)
	if err != nil {
		return err
	}
	if c.RPCURL == "" {
		c.RPCURL = chainCfg.RPCURL
	}

	if c.Contracts == nil {
		set, ok := contract.DefaultSets[c.ChainID]
		if !ok {
			return &errs.ConfigurationError{Err: fmt.Errorf("%w: no default contracts for chain %d", errs.ErrInvalidContractSet, c.ChainID)}
		}
		c.Contracts = &set
	}
	if err = c.Contracts.Validate(); err != nil {
		return err
	}

	if c.DeployGasLimit == 0 {
		c.DeployGasLimit = defaultDeployGasLimit
	}
	if c.Retry.MaxAttempts == 0 && c.Retry.DelayMs == 0 {
		c.Retry = retry.DefaultConfig()
	}
	if c.ConfirmationTimeoutSec <= 0 {
		c.ConfirmationTimeoutSec = defaultConfirmationTimeoutSec
	}
	if c.PasskeyTimeoutSec <= 0 {
		c.PasskeyTimeoutSec = defaultPasskeyTimeoutSec
	}
	if c.RateLimiterQPS <= 0 {
		c.RateLimiterQPS = defaultRateLimiterQPS
	}
	return nil
}

// ChainConfig returns the chain the service talks to.
func (c *Config) ChainConfig() chain.Config {
	return chain.Config{ChainID: c.ChainID, RPCURL: c.RPCURL}
}

// HasDeployerKey reports whether a deployer signer is configured.
func (c *Config) HasDeployerKey() bool {
	return c.DeployerPrivateKey != "" || c.AWSKMSKeyID != ""
}

// ConfirmationTimeout bounds the wait for deployment receipts.
func (c *Config) ConfirmationTimeout() time.Duration {
	return time.Duration(c.ConfirmationTimeoutSec) * time.Second
}

// PasskeyTimeout bounds passkey prompts.
func (c *Config) PasskeyTimeout() time.Duration {
	return time.Duration(c.PasskeyTimeoutSec) * time.Second
}
