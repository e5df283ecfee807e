package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hylla/sudsboard/internal/adapters/identity"
	"github.com/hylla/sudsboard/internal/coverage"
	"github.com/hylla/sudsboard/internal/domain"
)

// pivotCmd prints the cross-asset coverage summary.
func pivotCmd(opts *rootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "pivot",
		Short: "Summarize status and validation across every asset type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withRuntime(cmd, "pivot", func(ctx context.Context, rt *runtime) error {
				pivot, err := rt.api.Pivot(ctx, category)
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return printJSON(cmd.OutOrStdout(), pivot)
				}
				printPivot(cmd.OutOrStdout(), pivot)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only activities of this category")
	return cmd
}

// printPivot renders per-asset counts followed by the overall tallies.
func printPivot(w io.Writer, p coverage.Pivot) {
	statuses := domain.Statuses()
	header := []any{"Asset"}
	for _, s := range statuses {
		header = append(header, s.Label())
	}
	header = append(header, "Validated", "Pending", "Rejected")

	tw := newTable(w, header...)
	for _, row := range p.Rows {
		cells := []any{row.AssetName}
		for _, s := range statuses {
			cells = append(cells, row.StatusCounts[s.Key()])
		}
		cells = append(cells,
			row.ValidationCounts[string(domain.ValidationValidated)],
			row.ValidationCounts[string(domain.ValidationPending)],
			row.ValidationCounts[string(domain.ValidationRejected)],
		)
		tw.AppendRow(cells)
	}
	tw.Render()

	scope := "all categories"
	if strings.TrimSpace(p.Category) != "" {
		scope = p.Category
	}
	_, _ = fmt.Fprintf(w, "\n%s · %d applicable activities\n", scope, p.Total)
	tally := newTable(w, "Tally", "Count", "%")
	for _, entry := range p.StatusTally {
		tally.AppendRow([]any{entry.Label, entry.Count, fmt.Sprintf("%.1f", entry.Percent)})
	}
	tally.AppendSeparator()
	for _, entry := range p.ValidationTally {
		tally.AppendRow([]any{entry.Label, entry.Count, fmt.Sprintf("%.1f", entry.Percent)})
	}
	tally.Render()
}

// tokenCmd issues a bearer token for the serve transports.
func tokenCmd(opts *rootOptions) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <actor-id>",
		Short: "Issue a bearer token signed with identity.jwt_secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, "token", func(_ context.Context, rt *runtime) error {
				if rt.cfg.Identity.JWTSecret == "" {
					return errors.New("identity.jwt_secret is not configured")
				}
				issuer, err := identity.NewJWT(rt.cfg.Identity.JWTSecret)
				if err != nil {
					return err
				}
				token, err := issuer.Issue(args[0], ttl)
				if err != nil {
					return fmt.Errorf("issue token: %w", err)
				}
				if opts.jsonOut {
					return printJSON(cmd.OutOrStdout(), map[string]any{"token": token, "subject": args[0], "ttl": ttl.String()})
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
				return err
			})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
