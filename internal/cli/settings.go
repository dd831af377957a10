package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/errors"
)

type settingsOptions struct {
	projectName string
	description string
	systems     string
	urls        string
	release     string
}

// addSettingsCommand adds the project settings used as AI grounding context.
func addSettingsCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the project settings given to the AI",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the project settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				p, err := app.Settings(ctx)
				if err != nil {
					return err
				}
				if app.Out.IsJSON() {
					return app.Out.JSON(p)
				}
				if p.IsZero() {
					app.Out.Info("No project settings yet. Set them with 'testmo settings set --project-name ...'.")
					return nil
				}
				app.Out.Table([]string{"SETTING", "VALUE"}, [][]string{
					{"Project", p.ProjectName},
					{"Description", p.Description},
					{"Systems", p.Systems},
					{"URLs", p.URLs},
					{"Release", p.ReleaseVersion},
				})
				return nil
			})
		},
	}

	opts := &settingsOptions{}
	set := &cobra.Command{
		Use:   "set",
		Short: "Change project settings; unset flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				actor, err := app.Actor()
				if err != nil {
					return err
				}
				p, err := app.Settings(ctx)
				if err != nil {
					return err
				}
				f := cmd.Flags()
				changed := 0
				for name, apply := range map[string]func(){
					"project-name": func() { p.ProjectName = opts.projectName },
					"description":  func() { p.Description = opts.description },
					"systems":      func() { p.Systems = opts.systems },
					"urls":         func() { p.URLs = opts.urls },
					"release":      func() { p.ReleaseVersion = opts.release },
				} {
					if f.Changed(name) {
						apply()
						changed++
					}
				}
				if changed == 0 {
					return errors.NewExitCode2Error(fmt.Errorf("%w: nothing to change, pass at least one setting flag", errors.ErrInvalidArgument))
				}
				if err := app.Store.SaveSettings(ctx, p); err != nil {
					return err
				}
				app.Journal.Record(ctx, actor, constants.ActionUpdate, "Project Settings", "")
				if app.Out.IsJSON() {
					return app.Out.JSON(p)
				}
				app.Out.Success("Project settings saved")
				return nil
			})
		},
	}
	f := set.Flags()
	f.StringVar(&opts.projectName, "project-name", "", "project name")
	f.StringVar(&opts.description, "description", "", "what the system under test does")
	f.StringVar(&opts.systems, "systems", "", "systems and components involved")
	f.StringVar(&opts.urls, "urls", "", "environment URLs")
	f.StringVar(&opts.release, "release", "", "release version under test")

	cmd.AddCommand(show, set)
	root.AddCommand(cmd)
}

// addThemeCommand adds the theme switch stored with the session.
func addThemeCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(&cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the display theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(constants.ThemeLight), string(constants.ThemeDark), "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				theme := app.Session.Theme()
				if len(args) == 1 {
					var err error
					switch normalizeEnum(args[0]) {
					case "toggle":
						theme, err = app.Session.ToggleTheme(ctx)
					case string(constants.ThemeLight), string(constants.ThemeDark):
						theme = constants.Theme(normalizeEnum(args[0]))
						err = app.Session.SetTheme(ctx, theme)
					default:
						err = errors.NewExitCode2Error(fmt.Errorf("%w: theme %q (light, dark or toggle)", errors.ErrInvalidArgument, args[0]))
					}
					if err != nil {
						return err
					}
				}
				if app.Out.IsJSON() {
					return app.Out.JSON(map[string]string{"theme": string(theme)})
				}
				app.Out.Info("Theme: " + string(theme))
				return nil
			})
		},
	})
}
