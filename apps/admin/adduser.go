package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var (
		uname, email, name string
		roles              []string
		isAdmin            bool
	)
	cmd := &cobra.Command{
		Use:     "adduser",
		Short:   "Create a user, or update the one with this username or email. The password is prompted.",
		Args:    cobra.NoArgs,
		PreRunE: cli.requireDB,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if uname == "" && email == "" {
				return errors.New("--username or --email is required")
			}
			for _, r := range roles {
				if user.RolePriority(r) == 0 {
					return errors.Errorf("unknown role %q", r)
				}
			}
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			usr, err := cli.addUser(cmd.Context(), name, uname, email, pwd, roles, isAdmin)
			if err != nil {
				return err
			}
			cli.printf("user %q saved (id %s)\n", usr.Username, usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "The user's username")
	cmd.Flags().StringVar(&email, "email", "", "The user's email")
	cmd.Flags().StringVar(&name, "name", "", "The user's full name")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "Roles to grant, e.g. finance: (repeatable)")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "Grant every role")
	return cmd
}

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(ctx context.Context, name, uname, email, pwd string, roles []string, isAdmin bool) (user.User, error) {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	now := core.NowFunc().UTC()

	var filter user.GetFilter
	if uname != "" {
		filter.Username = uname
	} else {
		filter.Email = email
	}
	usr, err := cli.usrRepo.GetUser(ctx, filter)
	if err != nil {
		if !core.IsNotFound(err) {
			return user.User{}, err
		}
		usr = user.User{CreatedAt: now}
	}

	if uname != "" {
		usr.Username = uname
	}
	if email != "" {
		usr.Email = email
	}
	if name = core.CleanString(name); name != "" {
		usr.Name = name
	} else if usr.Name == "" {
		usr.Name = usr.Username
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	} else if len(roles) > 0 {
		usr.Roles = roles
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return user.User{}, errors.Wrap(err, "setting password")
	}
	return cli.usrRepo.UpdateOrCreateUser(ctx, usr)
}
