package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hylla/sudsboard/internal/adapters/server/common"
)

// recordCmd manages activity records.
func recordCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "record", Short: "Manage activity records"}
	cmd.AddCommand(
		recordAppliesCmd(opts),
		&cobra.Command{
			Use:   "set <record-id> <field> <value>",
			Short: "Set one proposal field (status, comment, frequency, involvedContracts, dependentActivities)",
			Long: "Set one proposal field of a record. List fields take a comma-separated value,\n" +
				"and an empty value clears the field.",
			Args: cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "record set", func(ctx context.Context, rt *runtime) error {
					rec, err := rt.api.UpdateField(ctx, common.UpdateFieldRequest{RecordID: args[0], Field: args[1], Value: args[2]})
					if err != nil {
						return err
					}
					return opts.printRecord(cmd.OutOrStdout(), rec)
				})
			},
		},
		recordValidateCmd(opts),
		&cobra.Command{
			Use:   "show <record-id>",
			Short: "Show one activity record",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "record show", func(ctx context.Context, rt *runtime) error {
					rec, err := rt.api.GetRecord(ctx, args[0])
					if err != nil {
						return err
					}
					return opts.printRecord(cmd.OutOrStdout(), rec)
				})
			},
		},
		recordListCmd(opts),
		&cobra.Command{
			Use:   "draft <record-id>",
			Short: "Draft an analysis comment for a record with the completion backend",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "record draft", func(ctx context.Context, rt *runtime) error {
					draft, err := rt.api.DraftActivityAnalysis(ctx, args[0])
					if err != nil {
						return err
					}
					return opts.printDraft(cmd.OutOrStdout(), draft)
				})
			},
		},
	)
	return cmd
}

func recordAppliesCmd(opts *rootOptions) *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   "applies <asset-id> <category> <activity>",
		Short: "Mark an activity as applicable to an asset type (or not, with --off)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, "record applies", func(ctx context.Context, rt *runtime) error {
				res, err := rt.api.SetApplies(ctx, common.SetAppliesRequest{
					AssetTypeID:  args[0],
					Category:     args[1],
					ActivityName: args[2],
					Applies:      !off,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOut {
					return printJSON(out, res)
				}
				switch {
				case res.Record == nil:
					_, err = fmt.Fprintln(out, "no record for that activity")
				case res.Created:
					_, err = fmt.Fprintf(out, "created record %s (applies=%t)\n", res.Record.ID, res.Record.Applies)
				default:
					_, err = fmt.Fprintf(out, "updated record %s (applies=%t)\n", res.Record.ID, res.Record.Applies)
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "mark the activity as not applicable")
	return cmd
}

func recordValidateCmd(opts *rootOptions) *cobra.Command {
	var comment, by string
	cmd := &cobra.Command{
		Use:   "validate <record-id> <pending|validated|rejected>",
		Short: "Record a reviewer decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, "record validate", func(ctx context.Context, rt *runtime) error {
				rec, err := rt.api.SetValidation(ctx, common.SetValidationRequest{
					RecordID:    args[0],
					Status:      args[1],
					Comment:     comment,
					ValidatedBy: by,
				})
				if err != nil {
					return err
				}
				return opts.printRecord(cmd.OutOrStdout(), rec)
			})
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "validator comment")
	cmd.Flags().StringVar(&by, "by", "", "validator id (defaults to the configured actor)")
	return cmd
}

func recordListCmd(opts *rootOptions) *cobra.Command {
	var assetID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activity records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withRuntime(cmd, "record list", func(ctx context.Context, rt *runtime) error {
				records, err := rt.api.ListRecords(ctx, assetID)
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return printJSON(cmd.OutOrStdout(), records)
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "Asset", "Category", "Activity", "Applies", "Status", "Validation")
				for _, r := range records {
					tw.AppendRow([]any{r.ID, r.AssetTypeID, r.Category, r.ActivityName, r.Applies, orDash(r.StatusLabel), r.ValidationStatus})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&assetID, "asset", "", "only records of this asset type")
	return cmd
}

// printRecord renders one record as a field/value table.
func (o *rootOptions) printRecord(w io.Writer, r common.Record) error {
	if o.jsonOut {
		return printJSON(w, r)
	}
	tw := newTable(w, "Field", "Value")
	tw.AppendRows([]table.Row{
		{"id", r.ID},
		{"asset", r.AssetTypeID},
		{"category", r.Category},
		{"activity", r.ActivityName},
		{"applies", r.Applies},
		{"status", orDash(r.StatusLabel)},
		{"comment", orDash(r.Comment)},
		{"frequency", orDash(r.Frequency)},
		{"contracts", joinOrDash(r.InvolvedContracts)},
		{"dependents", joinOrDash(r.DependentActivities)},
		{"validation", r.ValidationStatus},
		{"validator comment", orDash(r.ValidatorComment)},
		{"validated by", orDash(r.ValidatedBy)},
		{"last updated by", orDash(r.LastUpdatedBy)},
		{"timestamp", r.Timestamp.Format(time.RFC3339)},
	})
	tw.Render()
	return nil
}
