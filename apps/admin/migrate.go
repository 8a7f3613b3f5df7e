package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// commands taking a version argument
var versionCommands = map[string]bool{"up-to": true, "down-to": true}

var migrateCommands = map[string]bool{
	"up": true, "up-by-one": true, "up-to": true, "down": true, "down-to": true, "redo": true,
	"reset": true, "status": true, "version": true, "create": true, "fix": true,
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS]",
		Short: "Run database migrations",
		Long: `Run database migrations. COMMAND is one of:
  up                   migrate to the most recent version
  up-by-one            migrate up by a single version
  up-to VERSION        migrate up to a specific version
  down                 roll back by one version
  down-to VERSION      roll back to a specific version
  redo                 re-run the latest migration
  reset                roll back all migrations
  status               print the status of all migrations
  version              print the current version
  create NAME [sql|go] create a new migration file
  fix                  apply sequential ordering to migrations`,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: cli.requireDB,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMigrateArgs(args); err != nil {
				return err
			}
			return runMigrationsFunc(cmd.Context(), cli.db, args[0], args[1:]...)
		},
	}
}

func checkMigrateArgs(args []string) error {
	command := args[0]
	if !migrateCommands[command] {
		return fmt.Errorf("unknown migrate command %q", command)
	}
	switch {
	case versionCommands[command]:
		if len(args) < 2 {
			return fmt.Errorf("%s must be of form: migrate %s VERSION", command, command)
		}
		if _, err := strconv.ParseInt(args[1], 10, 64); err != nil {
			return fmt.Errorf("version must be a number (got '%s')", args[1])
		}
	case command == "create":
		if len(args) < 2 {
			return fmt.Errorf("create must be of form: migrate create NAME [sql|go]")
		}
		if len(args) > 2 && args[2] != "sql" && args[2] != "go" {
			return fmt.Errorf("migration type must be sql or go (got '%s')", args[2])
		}
	}
	return nil
}
