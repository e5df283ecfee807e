package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hylla/sudsboard/internal/app"
)

// exportCmd writes the namespace snapshot to stdout or a file.
func exportCmd(opts *rootOptions) *cobra.Command {
	var outPath, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the namespace as a JSON or YAML snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withRuntime(cmd, "export", func(ctx context.Context, rt *runtime) error {
				snapFormat, err := app.ParseSnapshotFormat(format)
				if err != nil {
					return err
				}
				snap, err := rt.svc.ExportSnapshot(ctx)
				if err != nil {
					return fmt.Errorf("export snapshot: %w", err)
				}
				var buf bytes.Buffer
				if err := app.EncodeSnapshot(&buf, snap, snapFormat); err != nil {
					return err
				}

				target := strings.TrimSpace(outPath)
				switch target {
				case "", "-":
					if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
						return fmt.Errorf("write snapshot to stdout: %w", err)
					}
					return nil
				case "auto":
					target = rt.paths.SnapshotFile(rt.cfg.Namespace, string(snapFormat), time.Now())
				}
				if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
					return fmt.Errorf("create export output dir: %w", err)
				}
				if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write export file: %w", err)
				}
				rt.logger.Info("snapshot exported", "path", target, "assets", len(snap.Assets), "records", len(snap.Records))
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %s\n", target)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout, 'auto' for the snapshot dir)")
	cmd.Flags().StringVar(&format, "format", "json", "snapshot format (json, yaml)")
	return cmd
}

// importCmd replaces the namespace content with a snapshot file.
func importCmd(opts *rootOptions) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON or YAML snapshot into the namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return fmt.Errorf("--in is required")
			}
			return opts.withRuntime(cmd, "import", func(ctx context.Context, rt *runtime) error {
				f, err := os.Open(inPath)
				if err != nil {
					return fmt.Errorf("read import file: %w", err)
				}
				defer func() { _ = f.Close() }()
				snap, err := app.DecodeSnapshot(f)
				if err != nil {
					return err
				}
				if err := rt.svc.ImportSnapshot(ctx, snap); err != nil {
					return fmt.Errorf("import snapshot: %w", err)
				}
				rt.logger.Info("snapshot imported", "path", inPath, "assets", len(snap.Assets), "records", len(snap.Records))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot file (JSON or YAML)")
	return cmd
}
