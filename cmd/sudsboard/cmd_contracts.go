package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hylla/sudsboard/internal/adapters/server/common"
)

// contractCmd manages maintenance contracts.
func contractCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "contract", Short: "Manage maintenance contracts"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List contracts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return opts.withRuntime(cmd, "contract list", func(ctx context.Context, rt *runtime) error {
					contracts, err := rt.api.ListContracts(ctx)
					if err != nil {
						return err
					}
					if opts.jsonOut {
						return printJSON(cmd.OutOrStdout(), contracts)
					}
					tw := newTable(cmd.OutOrStdout(), "ID", "Name", "Responsible", "Summary")
					for _, c := range contracts {
						tw.AppendRow([]any{c.ID, c.Name, orDash(c.Responsible), orDash(c.Summary)})
					}
					tw.Render()
					return nil
				})
			},
		},
		contractAddCmd(opts),
		contractUpdateCmd(opts),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a contract (records keep naming it)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "contract delete", func(ctx context.Context, rt *runtime) error {
					if err := rt.api.DeleteContract(ctx, args[0]); err != nil {
						return err
					}
					if opts.jsonOut {
						return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted contract %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "report <id>",
			Short: "Print the activities a contract covers as markdown",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRuntime(cmd, "contract report", func(ctx context.Context, rt *runtime) error {
					view, err := rt.api.ContractView(ctx, args[0], true)
					if err != nil {
						return err
					}
					if opts.jsonOut {
						return printJSON(cmd.OutOrStdout(), view)
					}
					_, err = io.WriteString(cmd.OutOrStdout(), view.Markdown)
					return err
				})
			},
		},
	)
	return cmd
}

func contractAddCmd(opts *rootOptions) *cobra.Command {
	var in common.ContractRequest
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			return opts.withRuntime(cmd, "contract add", func(ctx context.Context, rt *runtime) error {
				contract, err := rt.api.AddContract(ctx, in)
				if err != nil {
					return err
				}
				return opts.printContract(cmd.OutOrStdout(), "added", contract)
			})
		},
	}
	cmd.Flags().StringVar(&in.Responsible, "responsible", "", "responsible party")
	cmd.Flags().StringVar(&in.Summary, "summary", "", "scope summary")
	cmd.Flags().StringVar(&in.LogoURL, "logo", "", "logo URL")
	return cmd
}

func contractUpdateCmd(opts *rootOptions) *cobra.Command {
	var name, responsible, summary, logo string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the fields of a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch common.ContractPatchRequest
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("responsible") {
				patch.Responsible = &responsible
			}
			if cmd.Flags().Changed("summary") {
				patch.Summary = &summary
			}
			if cmd.Flags().Changed("logo") {
				patch.LogoURL = &logo
			}
			return opts.withRuntime(cmd, "contract update", func(ctx context.Context, rt *runtime) error {
				contract, err := rt.api.UpdateContract(ctx, args[0], patch)
				if err != nil {
					return err
				}
				return opts.printContract(cmd.OutOrStdout(), "updated", contract)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "contract name")
	cmd.Flags().StringVar(&responsible, "responsible", "", "responsible party")
	cmd.Flags().StringVar(&summary, "summary", "", "scope summary")
	cmd.Flags().StringVar(&logo, "logo", "", "logo URL")
	return cmd
}

// printContract reports one contract after a mutation.
func (o *rootOptions) printContract(w io.Writer, verb string, c common.Contract) error {
	if o.jsonOut {
		return printJSON(w, c)
	}
	_, err := fmt.Fprintf(w, "%s contract %s %q\n", verb, c.ID, c.Name)
	return err
}
