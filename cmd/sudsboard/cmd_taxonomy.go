package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hylla/sudsboard/internal/adapters/server/common"
)

// categoryCmd manages maintenance categories.
func categoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "category", Short: "Manage maintenance categories"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List categories and their activity names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return opts.withRuntime(cmd, "category list", func(ctx context.Context, rt *runtime) error {
					tax, err := rt.api.Taxonomy(ctx)
					if err != nil {
						return err
					}
					if opts.jsonOut {
						return printJSON(cmd.OutOrStdout(), tax)
					}
					printTaxonomy(cmd.OutOrStdout(), tax)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Append a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "category add", func(ctx context.Context, rt *runtime) error {
					name, err := rt.api.AddCategory(ctx, args[0])
					if err != nil {
						return err
					}
					return opts.printName(cmd.OutOrStdout(), "added category", name)
				})
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a category and every record under it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "category delete", func(ctx context.Context, rt *runtime) error {
					res, err := rt.api.DeleteCategory(ctx, args[0])
					if err != nil {
						return err
					}
					return opts.printCascade(cmd.OutOrStdout(), "deleted category", res)
				})
			},
		},
		&cobra.Command{
			Use:   "move <name> <up|down>",
			Short: "Swap a category with its neighbour",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "category move", func(ctx context.Context, rt *runtime) error {
					res, err := rt.api.MoveCategory(ctx, args[0], args[1])
					if err != nil {
						return err
					}
					return opts.printMove(cmd.OutOrStdout(), "category", args[0], res)
				})
			},
		},
	)
	return cmd
}

// activityNameCmd manages the activity names defined under each category.
func activityNameCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "activity-name", Short: "Manage activity names within a category"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <category> <name>",
			Short: "Append an activity name to a category",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "activity-name add", func(ctx context.Context, rt *runtime) error {
					name, err := rt.api.AddActivityName(ctx, args[0], args[1])
					if err != nil {
						return err
					}
					return opts.printName(cmd.OutOrStdout(), "added activity name", name)
				})
			},
		},
		&cobra.Command{
			Use:   "delete <category> <name>",
			Short: "Delete an activity name and its records",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "activity-name delete", func(ctx context.Context, rt *runtime) error {
					res, err := rt.api.DeleteActivityName(ctx, args[0], args[1])
					if err != nil {
						return err
					}
					return opts.printCascade(cmd.OutOrStdout(), "deleted activity name", res)
				})
			},
		},
		&cobra.Command{
			Use:   "rename <category> <old> <new>",
			Short: "Rename an activity name and the records that use it",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "activity-name rename", func(ctx context.Context, rt *runtime) error {
					name, err := rt.api.RenameActivityName(ctx, args[0], args[1], args[2])
					if err != nil {
						return err
					}
					return opts.printName(cmd.OutOrStdout(), "renamed activity name to", name)
				})
			},
		},
		&cobra.Command{
			Use:   "move <category> <name> <up|down>",
			Short: "Swap an activity name with its neighbour",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "activity-name move", func(ctx context.Context, rt *runtime) error {
					res, err := rt.api.MoveActivityName(ctx, args[0], args[1], args[2])
					if err != nil {
						return err
					}
					return opts.printMove(cmd.OutOrStdout(), "activity name", args[1], res)
				})
			},
		},
	)
	return cmd
}

// printTaxonomy renders one row per category with its ordered activity names.
func printTaxonomy(w io.Writer, tax common.Taxonomy) {
	tw := newTable(w, "#", "Category", "Activities")
	for i, category := range tax.Categories {
		names := tax.Activities[category]
		tw.AppendRow([]any{i + 1, category, joinOrDash(names)})
	}
	tw.Render()
}

// printName reports a created or renamed entry.
func (o *rootOptions) printName(w io.Writer, verb, name string) error {
	if o.jsonOut {
		return printJSON(w, map[string]string{"name": name})
	}
	_, err := fmt.Fprintf(w, "%s %q\n", verb, name)
	return err
}

// printCascade reports a deletion and how many records went with it.
func (o *rootOptions) printCascade(w io.Writer, verb string, res common.CascadeResult) error {
	if o.jsonOut {
		return printJSON(w, res)
	}
	_, err := fmt.Fprintf(w, "%s %q (%d records removed)\n", verb, res.Name, res.RemovedRecords)
	return err
}

// printMove reports whether a reorder changed anything.
func (o *rootOptions) printMove(w io.Writer, kind, name string, res common.MoveResult) error {
	if o.jsonOut {
		return printJSON(w, res)
	}
	if !res.Moved {
		_, err := fmt.Fprintf(w, "%s %q already at the edge\n", kind, name)
		return err
	}
	_, err := fmt.Fprintf(w, "moved %s %q\n", kind, name)
	return err
}
