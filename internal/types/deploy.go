package types

import (
	"time"
)

// DeployRequest is the body of POST /deploy.
type DeployRequest struct {
	// Salt is a decimal or 0x-prefixed hex uint256.
	Salt string `json:"salt" binding:"required"`
	// Initializer is the 0x-prefixed calldata of the account's initialize call.
	Initializer string `json:"initializer" binding:"required"`
}

// StatusResponse is the body of GET /deploy.
type StatusResponse struct {
	Status string `json:"status"`
}

// Deployment is the stored view of a deployment, returned by GET /deploy/:salt.
type Deployment struct {
	RequestID       string    `json:"request_id"`
	Salt            string    `json:"salt"`
	Address         string    `json:"address"`
	InitializerHash string    `json:"initializer_hash"`
	TxHash          string    `json:"tx_hash,omitempty"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DeploymentStats counts recorded deployments by status, returned by GET /deployments/stats.
type DeploymentStats struct {
	ChainID int64            `json:"chain_id"`
	Counts  map[string]int64 `json:"counts"`
	Total   int64            `json:"total"`
}
