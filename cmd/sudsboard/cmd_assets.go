package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hylla/sudsboard/internal/adapters/server/common"
	"github.com/hylla/sudsboard/internal/domain"
)

// assetCmd manages the asset-type registry.
func assetCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "asset", Short: "Manage SUDS asset types"}
	cmd.AddCommand(
		assetListCmd(opts),
		assetAddCmd(opts),
		assetUpdateCmd(opts),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete an asset type (its records stay stored but hidden)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "asset delete", func(ctx context.Context, rt *runtime) error {
					if err := rt.api.DeleteAsset(ctx, args[0]); err != nil {
						return err
					}
					if opts.jsonOut {
						return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted asset %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "move <id> <up|down>",
			Short: "Swap an asset type with its neighbour in display order",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "asset move", func(ctx context.Context, rt *runtime) error {
					res, err := rt.api.MoveAsset(ctx, args[0], args[1])
					if err != nil {
						return err
					}
					return opts.printMove(cmd.OutOrStdout(), "asset", args[0], res)
				})
			},
		},
		assetDraftCmd(opts),
		&cobra.Command{
			Use:   "activities <id>",
			Short: "Show the resolved activity sequence of an asset type",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "asset activities", func(ctx context.Context, rt *runtime) error {
					items, err := rt.api.ResolveAsset(ctx, args[0])
					if err != nil {
						return err
					}
					if opts.jsonOut {
						return printJSON(cmd.OutOrStdout(), items)
					}
					printResolved(cmd.OutOrStdout(), items)
					return nil
				})
			},
		},
	)
	return cmd
}

func assetListCmd(opts *rootOptions) *cobra.Command {
	var locations []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List asset types in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withRuntime(cmd, "asset list", func(ctx context.Context, rt *runtime) error {
				assets, err := rt.api.ListAssets(ctx, locations)
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return printJSON(cmd.OutOrStdout(), assets)
				}
				printAssets(cmd.OutOrStdout(), assets)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&locations, "location", nil, "keep assets tagged with any of these locations")
	return cmd
}

func assetAddCmd(opts *rootOptions) *cobra.Command {
	var in common.AssetRequest
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register an asset type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			return opts.withRuntime(cmd, "asset add", func(ctx context.Context, rt *runtime) error {
				asset, err := rt.api.AddAsset(ctx, in)
				if err != nil {
					return err
				}
				return opts.printAsset(cmd.OutOrStdout(), "added", asset)
			})
		},
	}
	cmd.Flags().StringVar(&in.Description, "description", "", "asset description")
	cmd.Flags().StringSliceVar(&in.ImageURLs, "image", nil, "image URL (repeatable)")
	cmd.Flags().StringSliceVar(&in.LocationTypes, "location", nil, "location tag (acera, zona_verde, viario, infraestructura)")
	return cmd
}

func assetUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		name, description string
		images, locations []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the fields of an asset type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch common.AssetPatchRequest
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("image") {
				patch.ImageURLs = &images
			}
			if cmd.Flags().Changed("location") {
				patch.LocationTypes = &locations
			}
			return opts.withRuntime(cmd, "asset update", func(ctx context.Context, rt *runtime) error {
				asset, err := rt.api.UpdateAsset(ctx, args[0], patch)
				if err != nil {
					return err
				}
				return opts.printAsset(cmd.OutOrStdout(), "updated", asset)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "asset name")
	cmd.Flags().StringVar(&description, "description", "", "asset description")
	cmd.Flags().StringSliceVar(&images, "image", nil, "image URLs (replaces the list)")
	cmd.Flags().StringSliceVar(&locations, "location", nil, "location tags (replaces the list)")
	return cmd
}

func assetDraftCmd(opts *rootOptions) *cobra.Command {
	var locations []string
	cmd := &cobra.Command{
		Use:   "draft <name>",
		Short: "Draft an asset description with the completion backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, "asset draft", func(ctx context.Context, rt *runtime) error {
				draft, err := rt.api.DraftAssetDescription(ctx, common.DraftAssetRequest{Name: args[0], LocationTypes: locations})
				if err != nil {
					return err
				}
				return opts.printDraft(cmd.OutOrStdout(), draft)
			})
		},
	}
	cmd.Flags().StringSliceVar(&locations, "location", nil, "location tags to mention")
	return cmd
}

// printAssets renders the asset registry in display order.
func printAssets(w io.Writer, assets []common.Asset) {
	tw := newTable(w, "#", "ID", "Name", "Locations", "Images")
	for _, a := range assets {
		tw.AppendRow([]any{a.Order, a.ID, a.Name, locationLabels(a.LocationTypes), len(a.ImageURLs)})
	}
	tw.Render()
}

// printAsset reports one asset after a mutation.
func (o *rootOptions) printAsset(w io.Writer, verb string, a common.Asset) error {
	if o.jsonOut {
		return printJSON(w, a)
	}
	_, err := fmt.Fprintf(w, "%s asset %s %q\n", verb, a.ID, a.Name)
	return err
}

// printDraft writes generated text as-is.
func (o *rootOptions) printDraft(w io.Writer, d common.Draft) error {
	if o.jsonOut {
		return printJSON(w, d)
	}
	_, err := fmt.Fprintln(w, d.Text)
	return err
}

// printResolved renders an asset's activity sequence with dependents indented.
func printResolved(w io.Writer, items []common.ResolvedActivity) {
	tw := newTable(w, "Record", "Category", "Activity", "Status", "Validation", "Contracts")
	for _, item := range items {
		name := item.Record.ActivityName
		if item.IsDependent {
			name = strings.Repeat("  ", item.Depth-1) + "↳ " + name
		}
		tw.AppendRow([]any{
			item.Record.ID,
			item.Record.Category,
			name,
			orDash(item.Record.StatusLabel),
			item.Record.ValidationStatus,
			joinOrDash(item.Record.InvolvedContracts),
		})
	}
	tw.Render()
}

// locationLabels maps stored tags to their display labels.
func locationLabels(tags []string) string {
	labels := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag, err := domain.ParseLocationTag(raw)
		if err != nil {
			labels = append(labels, raw)
			continue
		}
		labels = append(labels, tag.Info().Label)
	}
	return joinOrDash(labels)
}

// joinOrDash joins values for a table cell.
func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

// orDash fills blank table cells.
func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
