// Package chain resolves chain ids to RPC endpoints and provides connected network handles.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	errs "github.com/asgarovf/smart-wallet/internal/errors"
)

const (
	// MainnetChainID is ZKsync Era mainnet.
	MainnetChainID int64 = 324
	// SepoliaChainID is ZKsync Era Sepolia testnet.
	SepoliaChainID int64 = 300
	// LocalChainID is the local in-memory node.
	LocalChainID int64 = 260
)

var knownRPCURLs = map[int64]string{
	MainnetChainID: "https://mainnet.era.zksync.io",
	SepoliaChainID: "https://sepolia.era.zksync.dev",
	LocalChainID:   "http://127.0.0.1:8011",
}

// Config pairs a chain id with its single RPC endpoint.
type Config struct {
	ChainID int64
	RPCURL  string
}

// ConfigFor returns the built-in Config for chainID.
func ConfigFor(chainID int64) (Config, error) {
	url, ok := knownRPCURLs[chainID]
	if !ok {
		return Config{}, errs.NewUnsupportedChainError(chainID)
	}
	return Config{ChainID: chainID, RPCURL: url}, nil
}

// Provider is a connected read/write handle to one chain.
type Provider struct {
	*ethclient.Client

	rpc    *rpc.Client
	config Config
}

// GetChainProvider dials the built-in endpoint of chainID.
func GetChainProvider(ctx context.Context, chainID int64) (*Provider, error) {
	cfg, err := ConfigFor(chainID)
	if err != nil {
		return nil, err
	}
	return NewProvider(ctx, cfg)
}

// NewProvider dials cfg.RPCURL.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.RPCURL == "" {
		return nil, &errs.ConfigurationError{Err: fmt.Errorf("empty RPC URL for chain %d", cfg.ChainID)}
	}
	rpcClient, err := rpc.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, &errs.NetworkError{Op: "dial", Err: fmt.Errorf("failed to dial %s: %w", cfg.RPCURL, err)}
	}
	log.Debug("Chain provider connected", "chain_id", cfg.ChainID, "url", cfg.RPCURL)
	return &Provider{
		Client: ethclient.NewClient(rpcClient),
		rpc:    rpcClient,
		config: cfg,
	}, nil
}

// ChainConfig returns the configuration this provider was built from.
func (p *Provider) ChainConfig() Config {
	return p.config
}

// ChainIDBig returns the configured chain id.
func (p *Provider) ChainIDBig() *big.Int {
	return big.NewInt(p.config.ChainID)
}

// SendRawTransaction submits an already serialized transaction and returns its hash.
// The payload is passed through untouched so non-standard envelopes (type 0x71) are accepted.
func (p *Provider) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := p.rpc.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Bytes(raw)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Verify checks the endpoint URL and that the node serves the configured chain.
func (p *Provider) Verify(ctx context.Context) error {
	url := p.config.RPCURL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") &&
		!strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
		return &errs.ConfigurationError{Err: fmt.Errorf("RPC URL has invalid format: %s", url)}
	}

	chainID, err := p.ChainID(ctx)
	if err != nil {
		return &errs.NetworkError{Op: "eth_chainId", Err: fmt.Errorf("failed to query chain id from %s: %w", url, err)}
	}
	if chainID.Int64() != p.config.ChainID {
		return &errs.ConfigurationError{Err: fmt.Errorf("chain ID mismatch for %s: got %d, expected %d", url, chainID.Int64(), p.config.ChainID)}
	}

	log.Info("RPC endpoint verified", "url", url, "chainId", chainID.Int64())
	return nil
}
