package main

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/api"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, closeSvc, err := initService(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeSvc() //nolint:errcheck

		if cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		port := cfg.Server.Port
		if servePort > 0 {
			port = servePort
		}

		ln, bound, err := api.Listen(port, cfg.Server.PortAttempts)
		if err != nil {
			return err
		}

		zap.L().Info("server is running",
			zap.Int("port", bound),
			zap.String("llm_provider", cfg.LLM.Provider),
			zap.Strings("cors_origins", cfg.Server.CORSOrigins),
		)

		return api.Serve(ctx, ln, api.NewRouter(cfg.Server, api.NewHandler(svc)))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
