package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dealhub/dealhub/internal/app"
)

type requestOptions struct {
	DealID    string
	AccountID string
}

func (o *requestOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.DealID, "deal", "", "deal id")
	cmd.Flags().StringVar(&o.AccountID, "account", "", "requesting publisher account id")
	_ = cmd.MarkFlagRequired("deal")
	_ = cmd.MarkFlagRequired("account")
}

func newSweepCmd(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sweep [--limit N]",
		Short: "Cancel requests that outstayed their allowed time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return errors.New("--limit must not be negative")
			}
			return withApp(cmd.Context(), root, func(ctx context.Context, a *app.App) error {
				n, err := a.Watchdog.Sweep(ctx, limit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cancelled %d request(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 200, "maximum candidates to check; 0 checks all")
	return cmd
}

func newUncancelCmd(root *rootOptions) *cobra.Command {
	var (
		opts     requestOptions
		operator string
	)
	cmd := &cobra.Command{
		Use:   "uncancel --deal <uuid> --account <uuid> --operator <uuid>",
		Short: "Restore a cancelled request to its previous status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := parseKey(opts.DealID, opts.AccountID)
			if err != nil {
				return err
			}
			op, err := uuid.Parse(operator)
			if err != nil {
				return fmt.Errorf("invalid --operator: %w", err)
			}
			return withApp(cmd.Context(), root, func(ctx context.Context, a *app.App) error {
				msg, err := a.Engine.Uncancel(ctx, key, op)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&operator, "operator", "", "operator account id recorded on the restore")
	_ = cmd.MarkFlagRequired("operator")
	return cmd
}

func newCheckAllowanceCmd(root *rootOptions) *cobra.Command {
	var opts requestOptions
	cmd := &cobra.Command{
		Use:   "check-allowance --deal <uuid> --account <uuid>",
		Short: "Check one request against its allowed time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := parseKey(opts.DealID, opts.AccountID)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), root, func(ctx context.Context, a *app.App) error {
				out, err := a.Watchdog.CheckAllowance(ctx, key)
				if err != nil && !out.Committed() {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", out.Kind, out.From, out.To)
				return nil
			})
		},
	}
	opts.bind(cmd)
	return cmd
}
