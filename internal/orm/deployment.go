// Package orm provides the ORM layer for deployment records of the smart-wallet service.
package orm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeploymentStatus is the outcome of a deployment request.
type DeploymentStatus string

const (
	// DeploymentStatusPending is set once deployAccount is about to be sent
	DeploymentStatusPending DeploymentStatus = "pending"
	// DeploymentStatusSucceeded is set when the receipt status is 1
	DeploymentStatusSucceeded DeploymentStatus = "succeeded"
	// DeploymentStatusFailed is set when the deployment errored or reverted
	DeploymentStatusFailed DeploymentStatus = "failed"
	// DeploymentStatusAlreadyDeployed is set when the account had code before the request
	DeploymentStatusAlreadyDeployed DeploymentStatus = "already_deployed"
)

// DeploymentStatuses lists every status a record can be in.
var DeploymentStatuses = []DeploymentStatus{
	DeploymentStatusPending,
	DeploymentStatusSucceeded,
	DeploymentStatusFailed,
	DeploymentStatusAlreadyDeployed,
}

// Deployment represents the data structure for an account deployment request
type Deployment struct {
	db *gorm.DB `gorm:"column:-"`

	ID              uint64           `gorm:"column:id;primaryKey"`
	RequestID       string           `gorm:"column:request_id;uniqueIndex"`
	ChainID         int64            `gorm:"column:chain_id;uniqueIndex:unique_chain_salt"`
	Salt            string           `gorm:"column:salt;uniqueIndex:unique_chain_salt"`
	Address         string           `gorm:"column:address;index"`
	InitializerHash string           `gorm:"column:initializer_hash"`
	TxHash          string           `gorm:"column:tx_hash"`
	Status          DeploymentStatus `gorm:"column:status"`
	Error           string           `gorm:"column:error"`
	CreatedAt       time.Time        `gorm:"column:created_at"`
	UpdatedAt       time.Time        `gorm:"column:updated_at"`
}

// TableName returns the database table name for Deployment
func (*Deployment) TableName() string {
	return "deployment"
}

// NewDeployment creates a new instance of Deployment
func NewDeployment(db *gorm.DB) *Deployment {
	return &Deployment{db: db}
}

// CreateOrUpdate records a deployment, replacing the outcome of an earlier request for the same salt.
// A succeeded record is final and is left untouched.
func (d *Deployment) CreateOrUpdate(ctx context.Context, record *Deployment) error {
	row := *record
	row.db = nil
	row.ID = 0
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "chain_id"}, {Name: "salt"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"request_id", "address", "initializer_hash", "tx_hash", "status", "error", "updated_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "deployment.status <> ?", Vars: []interface{}{DeploymentStatusSucceeded}},
			}},
		}).
		Create(&row).Error
}

// GetBySalt returns the deployment of salt on chainID, or nil when none is recorded
func (d *Deployment) GetBySalt(ctx context.Context, chainID int64, salt string) (*Deployment, error) {
	var result Deployment
	err := d.db.WithContext(ctx).
		Where("chain_id = ?", chainID).
		Where("salt = ?", salt).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	result.db = d.db
	return &result, nil
}

// CountByStatus returns how many deployments on chainID are in status
func (d *Deployment) CountByStatus(ctx context.Context, chainID int64, status DeploymentStatus) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&Deployment{}).
		Where("chain_id = ?", chainID).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
