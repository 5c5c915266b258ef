// Package controller provides the HTTP controllers of the smart-wallet deployment service.
package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/asgarovf/smart-wallet/internal/config"
	"github.com/asgarovf/smart-wallet/internal/deployer"
)

// DeployCtl the deploy controller
var DeployCtl *DeployController

// InitAPI init the api controller
func InitAPI(cfg *config.Config, d deployer.AccountDeployer, db *gorm.DB) {
	DeployCtl = NewDeployController(cfg, d, db, prometheus.DefaultRegisterer)
}
