package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hylla/sudsboard/internal/adapters/identity"
	"github.com/hylla/sudsboard/internal/adapters/server"
	"github.com/hylla/sudsboard/internal/config"
)

// serveCmd starts the REST and MCP transports.
func serveCmd(opts *rootOptions) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and MCP endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withRuntime(cmd, "serve", func(ctx context.Context, rt *runtime) error {
				return runServe(ctx, cmd, rt, bind)
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (overrides server.http_bind)")
	return cmd
}

// runServe serves until ctx ends while reloading the config file on change.
func runServe(ctx context.Context, cmd *cobra.Command, rt *runtime, bind string) error {
	cfg := server.Config{
		HTTPBind:      rt.cfg.Server.HTTPBind,
		APIEndpoint:   rt.cfg.Server.APIEndpoint,
		MCPEndpoint:   rt.cfg.Server.MCPEndpoint,
		ServerName:    "sudsboard",
		ServerVersion: version,
	}
	if bind = strings.TrimSpace(bind); bind != "" {
		cfg.HTTPBind = bind
	}

	deps := server.Dependencies{
		Service: rt.api,
		Ready:   rt.repo.Ping,
		OnListen: func(addr string) {
			rt.logger.Info("server listening", "addr", addr, "api", cfg.APIEndpoint, "mcp", cfg.MCPEndpoint)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", addr)
		},
	}
	if secret := rt.cfg.Identity.JWTSecret; secret != "" {
		verifier, err := identity.NewJWT(secret)
		if err != nil {
			return fmt.Errorf("configure jwt: %w", err)
		}
		deps.JWT = verifier
		rt.logger.Info("bearer authentication enabled")
	}

	group, gctx := errgroup.WithContext(ctx)
	watchCtx, stopWatch := context.WithCancel(gctx)
	defer stopWatch()
	group.Go(func() error {
		defer stopWatch()
		return serveCommandRunner(gctx, cfg, deps)
	})
	group.Go(func() error {
		if err := config.EnsureConfigDir(rt.configPath); err != nil {
			rt.logger.Warn("config watch disabled", "config_path", rt.configPath, "err", err)
			return nil
		}
		err := config.Watch(watchCtx, rt.configPath, config.Default(rt.cfg.Database.Path),
			func(next config.Config) {
				if err := rt.logger.SetLevel(next.Logging.Level); err != nil {
					rt.logger.Warn("config reload rejected", "config_path", rt.configPath, "err", err)
					return
				}
				rt.logger.Info("config reloaded", "config_path", rt.configPath, "log_level", next.Logging.Level)
			},
			func(err error) {
				rt.logger.Warn("config reload failed", "config_path", rt.configPath, "err", err)
			},
		)
		if err != nil {
			rt.logger.Warn("config watch stopped", "config_path", rt.configPath, "err", err)
		}
		return nil
	})
	return group.Wait()
}
