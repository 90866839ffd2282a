package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2beens/wodlog/internal"
	"github.com/2beens/wodlog/internal/config"
	"github.com/2beens/wodlog/internal/db"
	"github.com/2beens/wodlog/internal/logging"
)

var (
	flagEnv        string
	flagConfigPath string
	flagEnvFile    string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "wodctl",
	Short: "Maintenance tool for the wodlog service",
	Long: `wodctl runs maintenance tasks against the wodlog database.

  $ wodctl migrate up
  $ wodctl seed --users 5 --workouts 30 --logs 100
  $ wodctl hash-password 'S3cret!pass'

The postgres password is read from WODLOG_POSTGRES_PASS.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "hash-password" || cmd.Name() == "help" {
			return nil
		}

		if err := godotenv.Load(flagEnvFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", flagEnvFile, err)
		}

		var err error
		cfg, err = config.Load(flagEnv, flagConfigPath)
		if err != nil {
			return err
		}

		logging.Setup(logging.LoggerSetupParams{
			LogToStdout: true,
			LogLevel:    cfg.LogLevel,
			Environment: cfg.Environment,
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "development", "environment [prod | production | dev | development]")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "./config.toml", "path for the TOML config file")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "envfile", ".env", "optional env file with secrets")

	rootCmd.AddCommand(migrateCmd, seedCmd, hashPasswordCmd)
}

func dbPoolParams() db.NewDBPoolParams {
	return internal.DBPoolParams(cfg, os.Getenv("WODLOG_POSTGRES_PASS"), false)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Errorln(err)
		os.Exit(1)
	}
}
