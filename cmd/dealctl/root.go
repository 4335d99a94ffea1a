package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dealhub/dealhub/internal/app"
	"github.com/dealhub/dealhub/internal/config"
	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

type rootOptions struct {
	DrainTimeout time.Duration
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	cmd := &cobra.Command{
		Use:           "dealctl",
		Short:         "Operator tool for deal requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().DurationVar(&opts.DrainTimeout, "drain-timeout", 30*time.Second, "how long to wait for follow-up work before exiting")
	cmd.AddCommand(newSweepCmd(&opts))
	cmd.AddCommand(newUncancelCmd(&opts))
	cmd.AddCommand(newCheckAllowanceCmd(&opts))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// withApp runs fn against a started app and drains queued follow-up work
// before returning.
func withApp(ctx context.Context, opts *rootOptions, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := app.NewLogger(cfg.LogLevel)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	a, err := app.New(runCtx, cfg, logger)
	if err != nil {
		return err
	}
	a.Start(runCtx)

	runErr := fn(runCtx, a)

	drainCtx, drainCancel := context.WithTimeout(ctx, opts.DrainTimeout)
	defer drainCancel()
	if err := a.Shutdown(drainCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func parseKey(dealID, accountID string) (dealrequest.Key, error) {
	d, err := uuid.Parse(dealID)
	if err != nil {
		return dealrequest.Key{}, fmt.Errorf("invalid --deal: %w", err)
	}
	p, err := uuid.Parse(accountID)
	if err != nil {
		return dealrequest.Key{}, fmt.Errorf("invalid --account: %w", err)
	}
	return dealrequest.Key{DealID: d, PublisherAccountID: p}, nil
}
