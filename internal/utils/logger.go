package utils

import (
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

// LogSetup configures the root logger from the verbosity and log.debug flags
func LogSetup(ctx *cli.Context) error {
	output := io.Writer(os.Stderr)
	usecolor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	if usecolor {
		output = colorable.NewColorableStderr()
	}

	log.PrintOrigins(ctx.Bool(logDebugFlag.Name))
	handler := log.StreamHandler(output, log.TerminalFormat(usecolor))
	handler = log.LvlFilterHandler(log.Lvl(ctx.Int(verbosityFlag.Name)), handler)
	log.Root().SetHandler(handler)
	return nil
}
