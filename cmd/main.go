package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/asgarovf/smart-wallet/internal/chain"
	"github.com/asgarovf/smart-wallet/internal/config"
	"github.com/asgarovf/smart-wallet/internal/controller"
	"github.com/asgarovf/smart-wallet/internal/deployer"
	"github.com/asgarovf/smart-wallet/internal/orm"
	"github.com/asgarovf/smart-wallet/internal/route"
	"github.com/asgarovf/smart-wallet/internal/utils"
	"github.com/asgarovf/smart-wallet/internal/utils/database"
	"github.com/asgarovf/smart-wallet/internal/utils/observability"
)

func action(ctx *cli.Context) error {
	cfgFile := ctx.String(utils.ConfigFileFlag.Name)
	cfg, err := config.NewConfig(cfgFile)
	if err != nil {
		log.Crit("failed to load config file", "config file", cfgFile, "error", err)
	}

	provider, err := chain.NewProvider(ctx.Context, cfg.ChainConfig())
	if err != nil {
		log.Crit("failed to connect to chain", "chain_id", cfg.ChainID, "error", err)
	}
	defer provider.Close()

	// RPC sanity check
	if err = provider.Verify(ctx.Context); err != nil {
		log.Crit("RPC sanity check failed", "error", err)
	}

	// The controller answers every POST /deploy with a configuration error while no key is set.
	var deployCtl deployer.AccountDeployer
	if cfg.HasDeployerKey() {
		d, newErr := newDeployer(ctx.Context, cfg, provider, true)
		if newErr != nil {
			log.Crit("failed to initialize deployer", "error", newErr)
		}
		deployCtl = d
	} else {
		log.Warn("No deployer key configured, deployments are disabled", "env", config.DeployerPrivateKeyEnv)
	}

	db, err := setupDB(ctx, cfg)
	if err != nil {
		log.Crit("failed to initialize database", "error", err)
	}
	if db != nil {
		defer func() {
			if closeErr := database.CloseDB(db); closeErr != nil {
				log.Error("failed to close database", "error", closeErr)
			}
		}()
	}

	ready := func(c *gin.Context) error {
		return provider.Verify(c.Request.Context())
	}
	observability.Server(ctx, ready)

	router := gin.New()
	controller.InitAPI(cfg, deployCtl, db)
	route.Route(router, cfg, prometheus.DefaultRegisterer, ready)

	// Deployments wait for confirmation inside the request.
	addr := fmt.Sprintf("%s:%d", ctx.String(utils.HTTPListenAddrFlag.Name), ctx.Int(utils.HTTPPortFlag.Name))
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.ConfirmationTimeout() + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if runServerErr := srv.ListenAndServe(); runServerErr != nil && !errors.Is(runServerErr, http.ErrServerClosed) {
			log.Crit("run deployment http server failure", "error", runServerErr)
		}
	}()

	log.Info("Start smart-wallet deployment server success...", "version", utils.Version, "address", addr, "chain_id", cfg.ChainID)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt

	log.Info("Start shutdown deployment server...")

	closeCtx, cancelExit := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelExit()
	if err = srv.Shutdown(closeCtx); err != nil {
		log.Warn("shutdown deployment server failure", "error", err)
		return nil
	}

	log.Info("deployment server exiting success")
	return nil
}

// setupDB opens the database when --db is set, resetting or migrating the schema on request.
func setupDB(ctx *cli.Context, cfg *config.Config) (*gorm.DB, error) {
	if !ctx.Bool(utils.DBFlag.Name) {
		return nil, nil
	}
	db, err := database.InitDB(&cfg.DBConfig)
	if err != nil {
		return nil, err
	}

	if ctx.Bool(utils.DBResetFlag.Name) {
		log.Info("Resetting database")
		if err = db.Migrator().DropTable(&orm.Deployment{}); err != nil {
			return nil, fmt.Errorf("failed to drop deployments table: %w", err)
		}
	}
	if ctx.Bool(utils.DBResetFlag.Name) || ctx.Bool(utils.DBMigrateFlag.Name) {
		if err = db.AutoMigrate(&orm.Deployment{}); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("Database migrated")
	}
	return db, nil
}

func main() {
	app := cli.NewApp()
	app.Action = action
	app.Name = "smart-wallet"
	app.Usage = "Passkey smart wallet deployment service"
	app.Version = utils.Version
	app.Flags = append(app.Flags, utils.CommonFlags...)
	app.Commands = []*cli.Command{
		addressCommand,
		deployCommand,
		createCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		return utils.LogSetup(ctx)
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
