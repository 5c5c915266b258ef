package deployer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	errs "github.com/asgarovf/smart-wallet/internal/errors"
	apitypes "github.com/asgarovf/smart-wallet/internal/types"
)

// AddressResolver returns the address the account for salt is deployed to.
type AddressResolver interface {
	AccountAddress(ctx context.Context, salt *big.Int) (common.Address, error)
}

// RemoteClient deploys accounts through the deployment server's POST /deploy.
type RemoteClient struct {
	baseURL    string
	apiKey     string
	addresses  AddressResolver
	httpClient *http.Client
}

// NewRemoteClient returns a client for the server at baseURL. apiKey may be empty.
// addresses is usually a read-only Deployer on the same chain as the server.
func NewRemoteClient(baseURL, apiKey string, addresses AddressResolver) *RemoteClient {
	return &RemoteClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		addresses:  addresses,
		httpClient: &http.Client{Timeout: 3 * time.Minute},
	}
}

// AccountAddress resolves the account address of salt.
func (c *RemoteClient) AccountAddress(ctx context.Context, salt *big.Int) (common.Address, error) {
	if c.addresses == nil {
		return common.Address{}, &errs.ConfigurationError{Err: errors.New("no account address resolver configured")}
	}
	return c.addresses.AccountAddress(ctx, salt)
}

// Deploy asks the server to deploy the account for salt.
func (c *RemoteClient) Deploy(ctx context.Context, salt *big.Int, initializer []byte) (*Result, error) {
	address, err := c.AccountAddress(ctx, salt)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(apitypes.DeployRequest{
		Salt:        hexutil.EncodeBig(salt),
		Initializer: hexutil.Encode(initializer),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/deploy", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errs.NetworkError{Op: "POST /deploy", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.NetworkError{Op: "POST /deploy", Err: err}
	}

	if resp.StatusCode == http.StatusOK {
		var receipt types.Receipt
		if err = json.Unmarshal(payload, &receipt); err != nil {
			return nil, fmt.Errorf("failed to decode deployment receipt: %w", err)
		}
		if receipt.Status != types.ReceiptStatusSuccessful {
			return nil, &errs.DeploymentFailedError{Receipt: &receipt}
		}
		return &Result{Address: address, Salt: salt, Receipt: &receipt}, nil
	}

	var errResp apitypes.ErrorResponse
	if err = json.Unmarshal(payload, &errResp); err != nil || errResp.Message == "" {
		errResp.Message = strings.TrimSpace(string(payload))
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		return nil, &errs.AlreadyDeployedError{Address: common.HexToAddress(errResp.Address), Salt: salt}
	case errResp.Message == errs.ErrMissingDeployerKey.Error():
		return nil, &errs.ConfigurationError{Err: errs.ErrMissingDeployerKey}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusBadGateway:
		return nil, &errs.NetworkError{Op: "POST /deploy", Err: fmt.Errorf("status %d: %s", resp.StatusCode, errResp.Message)}
	default:
		return nil, fmt.Errorf("deploy request failed with status %d: %s", resp.StatusCode, errResp.Message)
	}
}
