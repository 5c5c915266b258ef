package controller

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"

	"github.com/asgarovf/smart-wallet/internal/config"
	"github.com/asgarovf/smart-wallet/internal/deployer"
	errs "github.com/asgarovf/smart-wallet/internal/errors"
	"github.com/asgarovf/smart-wallet/internal/orm"
	"github.com/asgarovf/smart-wallet/internal/types"
)

// DeployController serves account deployments.
type DeployController struct {
	cfg           *config.Config
	deployer      deployer.AccountDeployer
	deploymentOrm *orm.Deployment

	deploymentsTotal *prometheus.CounterVec
}

// NewDeployController creates a DeployController. d is nil when no deployer key is configured
// and db is nil when deployments are not recorded.
func NewDeployController(cfg *config.Config, d deployer.AccountDeployer, db *gorm.DB, reg prometheus.Registerer) *DeployController {
	dc := &DeployController{
		cfg:      cfg,
		deployer: d,
		deploymentsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "smart_wallet_deployments_total",
			Help: "The total number of account deployment requests by outcome.",
		}, []string{"status"}),
	}
	if db != nil {
		dc.deploymentOrm = orm.NewDeployment(db)
	}
	return dc
}

// Status is the liveness endpoint of the deploy route.
func (dc *DeployController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, types.StatusResponse{Status: "ok"})
}

// Deploy deploys the account for the requested salt and returns the receipt.
func (dc *DeployController) Deploy(c *gin.Context) {
	if dc.deployer == nil {
		dc.deploymentsTotal.WithLabelValues("misconfigured").Inc()
		types.RenderError(c, http.StatusInternalServerError, errs.ErrMissingDeployerKey.Error())
		return
	}

	var req types.DeployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		types.RenderError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	salt, err := deployer.ParseSalt(req.Salt)
	if err != nil {
		types.RenderError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !strings.HasPrefix(req.Initializer, "0x") {
		req.Initializer = "0x" + req.Initializer
	}
	initializer, err := hexutil.Decode(req.Initializer)
	if err != nil {
		types.RenderError(c, http.StatusBadRequest, "invalid initializer: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	requestID := uuid.NewString()
	logger := log.New("request_id", requestID, "salt", hexutil.EncodeBig(salt))

	address, err := dc.deployer.AccountAddress(ctx, salt)
	if err != nil {
		logger.Error("Failed to resolve account address", "error", err)
		dc.deploymentsTotal.WithLabelValues("failed").Inc()
		types.RenderError(c, http.StatusInternalServerError, err.Error())
		return
	}

	record := &orm.Deployment{
		RequestID:       requestID,
		ChainID:         dc.cfg.ChainID,
		Salt:            hexutil.EncodeBig(salt),
		Address:         address.Hex(),
		InitializerHash: crypto.Keccak256Hash(initializer).Hex(),
		Status:          orm.DeploymentStatusPending,
	}
	dc.record(ctx, logger, record)

	logger.Info("Deploying account", "address", address.Hex())
	result, err := dc.deployer.Deploy(ctx, salt, initializer)
	if err != nil {
		var deployedErr *errs.AlreadyDeployedError
		if errors.As(err, &deployedErr) {
			logger.Info("Account already deployed", "address", deployedErr.Address.Hex())
			record.Status = orm.DeploymentStatusAlreadyDeployed
			dc.record(ctx, logger, record)
			dc.deploymentsTotal.WithLabelValues(string(orm.DeploymentStatusAlreadyDeployed)).Inc()
			c.AbortWithStatusJSON(http.StatusConflict, types.ErrorResponse{
				Message: err.Error(),
				Address: deployedErr.Address.Hex(),
			})
			return
		}

		logger.Error("Account deployment failed", "error", err)
		record.Status = orm.DeploymentStatusFailed
		record.Error = err.Error()
		var failedErr *errs.DeploymentFailedError
		if errors.As(err, &failedErr) && failedErr.Receipt != nil {
			record.TxHash = failedErr.Receipt.TxHash.Hex()
		}
		dc.record(ctx, logger, record)
		dc.deploymentsTotal.WithLabelValues(string(orm.DeploymentStatusFailed)).Inc()

		message := err.Error()
		if errors.Is(err, errs.ErrMissingDeployerKey) {
			message = errs.ErrMissingDeployerKey.Error()
		}
		types.RenderError(c, http.StatusInternalServerError, message)
		return
	}

	record.Status = orm.DeploymentStatusSucceeded
	record.TxHash = result.Receipt.TxHash.Hex()
	dc.record(ctx, logger, record)
	dc.deploymentsTotal.WithLabelValues(string(orm.DeploymentStatusSucceeded)).Inc()

	c.JSON(http.StatusOK, result.Receipt)
}

// GetDeployment returns the recorded deployment of a salt.
func (dc *DeployController) GetDeployment(c *gin.Context) {
	if dc.deploymentOrm == nil {
		types.RenderJSON(c, http.StatusNotFound, types.StorageDisabledErrorCode, errors.New("deployment records are disabled"), nil)
		return
	}

	salt, err := deployer.ParseSalt(c.Param("salt"))
	if err != nil {
		types.RenderJSON(c, http.StatusBadRequest, types.InternalServerError, err, nil)
		return
	}

	record, err := dc.deploymentOrm.GetBySalt(c.Request.Context(), dc.cfg.ChainID, hexutil.EncodeBig(salt))
	if err != nil {
		log.Error("Failed to query deployment", "salt", hexutil.EncodeBig(salt), "error", err)
		types.RenderJSON(c, http.StatusInternalServerError, types.InternalServerError, err, nil)
		return
	}
	if record == nil {
		types.RenderJSON(c, http.StatusNotFound, types.NotFoundErrorCode, errors.New("deployment not found"), nil)
		return
	}

	types.RenderSuccess(c, types.Deployment{
		RequestID:       record.RequestID,
		Salt:            record.Salt,
		Address:         record.Address,
		InitializerHash: record.InitializerHash,
		TxHash:          record.TxHash,
		Status:          string(record.Status),
		Error:           record.Error,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	})
}

// record stores the deployment when storage is enabled; storage failures never fail the request.
func (dc *DeployController) record(ctx context.Context, logger log.Logger, record *orm.Deployment) {
	if dc.deploymentOrm == nil {
		return
	}
	if err := dc.deploymentOrm.CreateOrUpdate(ctx, record); err != nil {
		logger.Warn("Failed to record deployment", "status", record.Status, "error", err)
	}
}
