package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/user"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var uname string
	cmd := &cobra.Command{
		Use:     "resetpassword",
		Short:   "Reset a user's password. The password is prompted.",
		Args:    cobra.NoArgs,
		PreRunE: cli.requireDB,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			if err := cli.resetPassword(cmd.Context(), uname, pwd); err != nil {
				return err
			}
			cli.printf("password of %q reset\n", uname)
			return nil
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "The user's username or email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd string) error {
	uname = core.CleanString(uname, true /* lower */)
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: uname})
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = core.NowFunc().UTC()
	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return err
}
