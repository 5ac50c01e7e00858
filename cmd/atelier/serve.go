package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/atelier"
	"pkt.systems/atelier/core"
	"pkt.systems/atelier/httpapi"
	"pkt.systems/atelier/internal/appconfig"
	"pkt.systems/atelier/schema"
	"pkt.systems/pslog"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the atelier orchestration server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}

			serverCfg := toServerConfig(cfg)
			server, err := atelier.New(serverCfg, atelier.ServerDeps{
				ServiceDeps: core.ServiceDeps{Logger: logger},
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			logger.Info("http server listening", "addr", serverCfg.HTTP.Addr)
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}

func toServerConfig(cfg appconfig.Config) atelier.ServerConfig {
	return atelier.ServerConfig{
		Service: schema.ServiceConfig{
			UnknownTypePolicy:    schema.UnknownTypePolicy(cfg.Service.UnknownTypePolicy),
			FallbackTitle:        schema.PanelTitle(cfg.Service.FallbackTitle),
			FallbackRenderTarget: cfg.Service.FallbackRenderTarget,
			PanelTitleMax:        cfg.Service.PanelTitleMax,
			QueueDepth:           cfg.Service.QueueDepth,
		},
		HTTP: httpapi.Config{
			Addr:          cfg.HTTP.Addr,
			BaseURL:       cfg.HTTP.BaseURL,
			BasePath:      cfg.HTTP.BasePath,
			StreamHistory: cfg.HTTP.StreamHistory,
		},
		CatalogFile: cfg.Catalog.File,
		HubHistory:  cfg.HTTP.StreamHistory,
		Workspaces:  toSeedWorkspaces(cfg.Workspaces),
	}
}

func toSeedWorkspaces(seeds []appconfig.SeedWorkspace) []atelier.SeedWorkspace {
	if len(seeds) == 0 {
		return nil
	}
	out := make([]atelier.SeedWorkspace, 0, len(seeds))
	for _, seed := range seeds {
		ws := atelier.SeedWorkspace{Name: seed.Name}
		for _, panel := range seed.Panels {
			ws.Panels = append(ws.Panels, atelier.SeedPanel{
				Type:  panel.Type,
				Title: panel.Title,
				NoTab: panel.NoTab,
			})
		}
		out = append(out, ws)
	}
	return out
}
