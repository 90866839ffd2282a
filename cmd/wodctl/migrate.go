package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2beens/wodlog/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back the database migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbURL := db.ConnString(dbPoolParams())
		switch args[0] {
		case "up":
			if err := db.RunMigrations(dbURL); err != nil {
				return err
			}
		case "down":
			if err := db.RollbackAll(dbURL); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrate %s done\n", args[0])
		return nil
	},
}
