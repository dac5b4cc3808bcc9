package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/aqlanhadi/rekon/config"
	"github.com/aqlanhadi/rekon/extractor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	cfgFile string
	verbose bool
	logFile string
	rootCmd = &cobra.Command{
		Use:   "rekon [folder]",
		Short: "Reconcile ferry ticket sales, invoices and bank receipts",
		Long: `rekon matches the ticket sales export, the invoice export, the boarding
pass ticket summary and the bank statement (rekening koran) per invoice,
validates every row and summarises revenue per port.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				viper.Set("target", args[0])
				return runReconcile(reconcileCmd, []string{})
			}
			return cmd.Help()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		// Missing inputs were already reported by the command.
		var missing *extractor.MissingSourceError
		if !errors.As(err, &missing) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.rekon.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file, rotated")
}

func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		os.Exit(1)
	}
}

// initLogging installs the global logger. Logging is off unless --verbose or
// --log-file is given.
func initLogging() {
	zap.ReplaceGlobals(newLogger(verbose, logFile))
}

func newLogger(verbose bool, logFile string) *zap.Logger {
	var cores []zapcore.Core

	if verbose {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.Lock(os.Stderr),
			zapcore.DebugLevel,
		))
	}
	if logFile != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     28,
			}),
			zapcore.InfoLevel,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop()
	}
	return zap.New(zapcore.NewTee(cores...))
}
