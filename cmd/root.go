package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Alturino/bookstore/internal/constants"
	"github.com/Alturino/bookstore/internal/log"
)

func Start() {
	logger := log.Get("/var/log/bookstore.log", os.Getenv("APP_ENV")).
		With().
		Str(log.KeyAppName, constants.AppName).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{Use: constants.AppName}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "server",
		Short: "Run the bookstore http server",
		Run: func(cmd *cobra.Command, args []string) {
			RunServer(cmd.Context())
		},
	})
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
