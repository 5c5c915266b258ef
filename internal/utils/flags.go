// Package utils provides flags, logging and versioning shared by the smart-wallet commands.
package utils

import (
	"github.com/urfave/cli/v2"
)

var (
	// CommonFlags is used for app common flags in different modules
	CommonFlags = []cli.Flag{
		&ConfigFileFlag,

		&HTTPListenAddrFlag,
		&HTTPPortFlag,

		&verbosityFlag,
		&logDebugFlag,

		&MetricsEnabled,
		&MetricsAddr,
		&MetricsPort,

		&DBFlag,
		&DBMigrateFlag,
		&DBResetFlag,
	}
	// DeployFlags are used by the address and deploy commands
	DeployFlags = []cli.Flag{
		&SaltFlag,
		&InitializerFlag,
		&ServerURLFlag,
		&APIKeyFlag,
	}
	// ConfigFileFlag load json type config file.
	ConfigFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "JSON configuration file.",
		Value: "./conf/config.json",
	}

	// HTTPListenAddrFlag set the http address.
	HTTPListenAddrFlag = cli.StringFlag{
		Name:  "http.addr",
		Usage: "HTTP server listening interface.",
		Value: "localhost",
	}
	// HTTPPortFlag set http.port.
	HTTPPortFlag = cli.IntFlag{
		Name:  "http.port",
		Usage: "HTTP server listening port.",
		Value: 8750,
	}

	// verbosityFlag log level.
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail.",
		Value: 3,
	}

	// logDebugFlag make log messages with call-site location
	logDebugFlag = cli.BoolFlag{
		Name:  "log.debug",
		Usage: "Prepends log messages with call-site location (file and line number).",
	}

	// MetricsEnabled enable metrics collection and reporting
	MetricsEnabled = cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Enable metrics collection and reporting.",
		Category: "METRICS",
		Value:    false,
	}
	// MetricsAddr is listening address of Metrics reporting server
	MetricsAddr = cli.StringFlag{
		Name:     "metrics.addr",
		Usage:    "Metrics reporting server listening address.",
		Category: "METRICS",
		Value:    "127.0.0.1",
	}
	// MetricsPort is listening port of Metrics reporting server
	MetricsPort = cli.IntFlag{
		Name:     "metrics.port",
		Usage:    "Metrics reporting server listening port.",
		Category: "METRICS",
		Value:    6060,
	}

	// DBFlag enable db operation.
	DBFlag = cli.BoolFlag{
		Name:  "db",
		Usage: "Enable db operation.",
		Value: false,
	}
	// DBMigrateFlag migrate db.
	DBMigrateFlag = cli.BoolFlag{
		Name:  "db.migrate",
		Usage: "Migrate the database to the latest version.",
		Value: false,
	}
	// DBResetFlag reset db.
	DBResetFlag = cli.BoolFlag{
		Name:  "db.reset",
		Usage: "Clean and reset database.",
		Value: false,
	}

	// SaltFlag is the account salt, decimal or 0x-prefixed hex.
	SaltFlag = cli.StringFlag{
		Name:  "salt",
		Usage: "Account salt (decimal or 0x-prefixed hex). A random salt is used when empty.",
	}
	// InitializerFlag is the account initializer calldata.
	InitializerFlag = cli.StringFlag{
		Name:  "initializer",
		Usage: "0x-prefixed initialize calldata of the account.",
	}
	// ServerURLFlag deploys through a running deployment server instead of the local key.
	ServerURLFlag = cli.StringFlag{
		Name:  "server",
		Usage: "Base URL of a deployment server, e.g. http://localhost:8750.",
	}
	// APIKeyFlag authenticates against the deployment server.
	APIKeyFlag = cli.StringFlag{
		Name:    "api-key",
		Usage:   "API key of the deployment server.",
		EnvVars: []string{"SMART_WALLET_API_KEY"},
	}
)
