package controller

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gin-gonic/gin"

	"github.com/asgarovf/smart-wallet/internal/orm"
	"github.com/asgarovf/smart-wallet/internal/types"
)

// GetStats returns the recorded deployments of the configured chain, counted by status.
func (dc *DeployController) GetStats(c *gin.Context) {
	if dc.deploymentOrm == nil {
		types.RenderJSON(c, http.StatusNotFound, types.StorageDisabledErrorCode, errors.New("deployment records are disabled"), nil)
		return
	}

	stats := types.DeploymentStats{
		ChainID: dc.cfg.ChainID,
		Counts:  make(map[string]int64, len(orm.DeploymentStatuses)),
	}
	for _, status := range orm.DeploymentStatuses {
		count, err := dc.deploymentOrm.CountByStatus(c.Request.Context(), dc.cfg.ChainID, status)
		if err != nil {
			log.Error("Failed to count deployments", "chain_id", dc.cfg.ChainID, "status", status, "error", err)
			types.RenderJSON(c, http.StatusInternalServerError, types.InternalServerError, errors.New("failed to get deployment stats"), nil)
			return
		}
		stats.Counts[string(status)] = count
		stats.Total += count
	}

	types.RenderSuccess(c, stats)
}
