package cmd

import (
	"github.com/aqlanhadi/rekon/api"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long:  `Starts the HTTP API server that accepts the four exports as a multipart upload and returns the reconciliation as JSON or xlsx.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Server mode always logs requests.
		if !verbose {
			zap.ReplaceGlobals(zap.New(zapcore.NewTee(newLogger(false, logFile).Core(), serverCore())))
		}

		cfg := api.DefaultConfig()
		if servePort != "" {
			cfg.Port = ":" + servePort
		}

		server, err := api.New(cfg)
		if err != nil {
			return err
		}
		return server.Start()
	},
}

func serverCore() zapcore.Core {
	logger, err := zap.NewProduction()
	if err != nil {
		return zapcore.NewNopCore()
	}
	return logger.Core()
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&servePort, "port", "p", "8080", "Port to run the API server on")
}
