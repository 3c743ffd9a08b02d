package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/reach-hq/reach-payments/internal/app"
	"github.com/reach-hq/reach-payments/internal/config"
	"github.com/reach-hq/reach-payments/internal/logger"
	"github.com/shopspring/decimal"
)

func main() {
	// Amounts render as JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true

	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "paymentctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return fmt.Errorf("missing command")
	}
	name, rest := args[0], args[1:]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage(stdout)
		return nil
	}

	cmd, ok := commandByName(name)
	if !ok {
		printUsage(stdout)
		return fmt.Errorf("unknown command %q", name)
	}

	inv, err := cmd.parse(rest)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	if cmd.offline != nil {
		return cmd.offline(inv, stdout)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	inv.common.apply(cfg)

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if len(inv.args) > 0 {
		log.DebugObj("paymentctl command", "command", map[string]any{"name": name, "args": inv.args})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	payments, err := app.NewPayments(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize payments runtime", "error", err.Error())
		return err
	}
	defer func() {
		if err := payments.Close(); err != nil {
			log.ErrorObj("payments runtime close failed", "error", err.Error())
		}
	}()

	out, err := cmd.exec(ctx, payments, inv)
	if err != nil {
		log.ErrorObj("command failed", "command_error", map[string]any{
			"command": name,
			"error":   err.Error(),
		})
		return err
	}
	return writeJSON(stdout, out)
}
