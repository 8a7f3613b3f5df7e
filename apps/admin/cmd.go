package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/seed"
	"github.com/koinonia-app/koinonia/core/user"
	"github.com/koinonia-app/koinonia/storage/database"
)

var (
	readPasswordFunc  = term.ReadPassword         // mockable
	runMigrationsFunc = database.RunMigrations    // mockable
	createDBFunc      = database.CreateIfNotExist // mockable
	pingDBFunc        = database.Ping             // mockable

	errEmptyPassword = errors.New("password cannot be empty")
)

type commandLine struct {
	conf    *core.Config
	db      *sqlx.DB
	usrRepo user.Repository
	seeder  *seed.Seeder
	logger  core.Logger
	stdout  io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         cli.conf.AppName + " administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cli.stdout)
	root.AddCommand(
		cli.migrateCmd(),
		cli.createDBCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.seedCmd(),
	)
	return root
}

// run executes the command in args (without the program name).
func (cli *commandLine) run(ctx context.Context, args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// requireDB waits for the database before commands that use it.
func (cli *commandLine) requireDB(cmd *cobra.Command, _ []string) error {
	if err := pingDBFunc(cmd.Context(), cli.db); err != nil {
		return errors.Wrap(err, "connecting to database")
	}
	return nil
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.stdout, format, args...)
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword() (string, error) {
	cli.printf("Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	cli.printf("\n")
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return "", errEmptyPassword
	}
	return string(pwd), nil
}

func (cli *commandLine) createDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "createdb",
		Short: "Create the app database role & database (Postgres only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := createDBFunc(cmd.Context(), cli.conf); err != nil {
				return err
			}
			cli.printf("database %q ready\n", cli.conf.Database.Name)
			return nil
		},
	}
}
