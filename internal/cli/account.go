package cli

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/tui"
)

// passwordSource reads a password from a flag, from stdin or from a prompt.
type passwordSource struct {
	value string
	stdin bool
}

func (p *passwordSource) register(cmd *cobra.Command, name string) {
	cmd.Flags().StringVar(&p.value, name, "", "password (prefer --"+name+"-stdin)")
	cmd.Flags().BoolVar(&p.stdin, name+"-stdin", false, "read the password from the first line of stdin")
	cmd.MarkFlagsMutuallyExclusive(name, name+"-stdin")
}

func (p *passwordSource) read(in io.Reader, prompt string) (string, error) {
	switch {
	case p.value != "":
		return p.value, nil
	case p.stdin:
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !stderrors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	case tui.Interactive():
		return tui.Password(prompt)
	default:
		return "", errors.NewExitCode2Error(fmt.Errorf("%w: pass --password-stdin", errors.ErrUserInputRequired))
	}
}

// addAccountCommands adds login, logout and whoami.
func addAccountCommands(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newLoginCmd(flags), newLogoutCmd(flags), newWhoamiCmd(flags))
}

func newLoginCmd(flags *GlobalFlags) *cobra.Command {
	pw := &passwordSource{}
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in as a user of the local directory",
		Long: `Log in as a user of the local directory.

A fresh install has one user, admin, whose password is the configured
bootstrap password. Change it with 'testmo users passwd admin'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				var username, password string
				if len(args) == 1 {
					username = args[0]
				}
				if username == "" && pw.value == "" && !pw.stdin && tui.Interactive() {
					var err error
					if username, password, err = tui.PromptLogin(app.Session.Username()); err != nil {
						return err
					}
				} else {
					if username == "" {
						return errors.NewExitCode2Error(fmt.Errorf("username %w", errors.ErrEmptyValue))
					}
					var err error
					if password, err = pw.read(cmd.InOrStdin(), "Password for "+username); err != nil {
						return err
					}
				}

				u, err := app.Users.Authenticate(ctx, username, password)
				if err != nil {
					return err
				}
				if err := app.Session.Login(ctx, u); err != nil {
					return err
				}
				if app.Out.IsJSON() {
					return app.Out.JSON(u)
				}
				app.Out.Success(fmt.Sprintf("Logged in as %s (%s)", u.Name, u.Role))
				return nil
			})
		},
	}
	pw.register(cmd, "password")
	return cmd
}

func newLogoutCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				name := app.Session.Username()
				if err := app.Session.Logout(ctx); err != nil {
					return err
				}
				if name == "" {
					app.Out.Info("Nobody was logged in.")
					return nil
				}
				app.Out.Success("Logged out " + name)
				return nil
			})
		},
	}
}

func newWhoamiCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(_ context.Context, app *App) error {
				u, err := app.Session.RequireUser()
				if err != nil {
					return err
				}
				if app.Out.IsJSON() {
					return app.Out.JSON(u)
				}
				_, err = fmt.Fprintf(app.W, "%s (%s, %s)\n", u.Username, u.Name, u.Role)
				return err
			})
		},
	}
}

// addUsersCommand adds user administration.
func addUsersCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage the local user directory",
	}
	cmd.AddCommand(
		newUsersListCmd(flags),
		newUsersAddCmd(flags),
		newUsersUpdateCmd(flags),
		newUsersDeleteCmd(flags),
		newUsersPasswdCmd(flags),
	)
	root.AddCommand(cmd)
}

func newUsersListCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(_ context.Context, app *App) error {
				users := app.Users.Users()
				if app.Out.IsJSON() {
					return app.Out.JSON(users)
				}
				app.Out.Table(tui.UserHeaders, tui.UserRows(users))
				return nil
			})
		},
	}
}

type userOptions struct {
	name     string
	role     string
	initials string
}

func (o *userOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.name, "name", "", "display name")
	cmd.Flags().StringVar(&o.role, "role", "", "role (admin, tester, viewer)")
	cmd.Flags().StringVar(&o.initials, "initials", "", "avatar initials")
}

func (o *userOptions) user(username string) (domain.User, error) {
	role, err := parseRole(o.role)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{Username: username, Name: o.name, Role: role, Initials: strings.ToUpper(o.initials)}, nil
}

func newUsersAddCmd(flags *GlobalFlags) *cobra.Command {
	opts := &userOptions{}
	pw := &passwordSource{}
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user (administrators only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				admin, err := app.RequireAdmin()
				if err != nil {
					return err
				}
				u, err := opts.user(args[0])
				if err != nil {
					return err
				}
				password, err := pw.read(cmd.InOrStdin(), "Password for "+u.Username)
				if err != nil {
					return err
				}
				created, err := app.Users.Add(ctx, u, password)
				if err != nil {
					return err
				}
				app.Journal.Record(ctx, admin.Username, constants.ActionCreate, "User "+created.Username, string(created.Role))
				if app.Out.IsJSON() {
					return app.Out.JSON(created)
				}
				app.Out.Success(fmt.Sprintf("Created %s (%s)", created.Username, created.Role))
				return nil
			})
		},
	}
	opts.register(cmd)
	pw.register(cmd, "password")
	return cmd
}

func newUsersUpdateCmd(flags *GlobalFlags) *cobra.Command {
	opts := &userOptions{}
	cmd := &cobra.Command{
		Use:   "update <username>",
		Short: "Change a user's name, role or initials (administrators only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				admin, err := app.RequireAdmin()
				if err != nil {
					return err
				}
				u, err := opts.user(args[0])
				if err != nil {
					return err
				}
				updated, err := app.Users.Update(ctx, u)
				if err != nil {
					return err
				}
				app.Journal.Record(ctx, admin.Username, constants.ActionUpdate, "User "+updated.Username, "Profile updated")
				if app.Out.IsJSON() {
					return app.Out.JSON(updated)
				}
				app.Out.Success("Updated " + updated.Username)
				return nil
			})
		},
	}
	opts.register(cmd)
	return cmd
}

func newUsersDeleteCmd(flags *GlobalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user (administrators only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				admin, err := app.RequireAdmin()
				if err != nil {
					return err
				}
				ok, err := confirmDestructive(yes, "Delete user "+args[0]+"?")
				if err != nil || !ok {
					return err
				}
				if err := app.Users.Delete(ctx, args[0]); err != nil {
					return err
				}
				app.Journal.Record(ctx, admin.Username, constants.ActionDelete, "User "+args[0], "")
				app.Out.Success("Deleted " + args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newUsersPasswdCmd(flags *GlobalFlags) *cobra.Command {
	pw := &passwordSource{}
	cmd := &cobra.Command{
		Use:   "passwd [username]",
		Short: "Change a password; administrators may change anyone's",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				me, err := app.Session.RequireUser()
				if err != nil {
					return err
				}
				target := me.Username
				if len(args) == 1 {
					target = args[0]
				}
				if target != me.Username {
					if _, err := app.RequireAdmin(); err != nil {
						return err
					}
				}
				password, err := pw.read(cmd.InOrStdin(), "New password for "+target)
				if err != nil {
					return err
				}
				if err := app.Users.SetPassword(ctx, target, password); err != nil {
					return err
				}
				app.Journal.Record(ctx, me.Username, constants.ActionUpdate, "User "+target, "Password changed")
				app.Out.Success("Password changed for " + target)
				return nil
			})
		},
	}
	pw.register(cmd, "password")
	return cmd
}
