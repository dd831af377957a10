package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/testmo/internal/collection"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/export"
)

type exportOptions struct {
	format string
	out    string
	dir    string
	status string
	tag    string
}

// addExportCommand adds the CSV export.
func addExportCommand(root *cobra.Command, flags *GlobalFlags) {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export cases as a semicolon-separated table",
		Long: `Export cases as a semicolon-separated table with one row per step.

Formats:
  standard   every case field repeated on each row
  external   the layout test-management importers expect

The file is named TestMo_<Format>_Export_<date>.csv unless --out is given.
Use --out - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(_ context.Context, app *App) error {
				return runExport(app, opts, time.Now())
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", string(export.FormatStandard), "table layout (standard, external)")
	f.StringVar(&opts.out, "out", "", "output file, or - for stdout")
	f.StringVar(&opts.dir, "dir", ".", "directory for the generated file name")
	f.StringVar(&opts.status, "status", "", "only cases with this effective status")
	f.StringVar(&opts.tag, "tag", "", "only cases with this tag")
	cmd.MarkFlagsMutuallyExclusive("out", "dir")
	root.AddCommand(cmd)
}

func runExport(app *App, opts *exportOptions, now time.Time) error {
	format := export.Format(opts.format)
	if !format.IsValid() {
		return errors.NewExitCode2Error(fmt.Errorf("%w: format %q (one of %s, %s)",
			errors.ErrInvalidArgument, opts.format, export.FormatStandard, export.FormatExternal))
	}
	st, err := parseCaseStatus(opts.status)
	if err != nil {
		return err
	}
	cases := app.Cases.List(collection.Filter{Status: st, Tag: opts.tag})
	table, err := export.Project(format, cases)
	if err != nil {
		return err
	}

	if opts.out == "-" {
		_, err = table.WriteTo(app.W)
		return err
	}
	path := opts.out
	if path == "" {
		path = filepath.Join(opts.dir, export.FileName(format, now))
	}
	f, err := os.Create(path) //nolint:gosec // user chosen export path
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	n, err := table.WriteTo(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	app.Logger.Debug().Str("path", path).Int64("bytes", n).Int("cases", len(cases)).Msg("export written")

	if app.Out.IsJSON() {
		return app.Out.JSON(map[string]any{"path": path, "cases": len(cases), "bytes": n})
	}
	app.Out.Success(fmt.Sprintf("Exported %d cases to %s", len(cases), path))
	return nil
}

// addImportCommand adds the AI-assisted CSV import.
func addImportCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(&cobra.Command{
		Use:   "import <csv-file>",
		Short: "Import cases from a CSV file of any layout with AI",
		Long: `Import cases from a CSV file of any layout.

The AI maps the columns to case fields. Large files are sent in batches that
all repeat the header row. Imported cases are added to the active collection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				actor, err := app.Actor()
				if err != nil {
					return err
				}
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("failed to read import file: %w", err)
				}
				parsed, err := spin(ctx, app, "Mapping "+filepath.Base(args[0]), func(ctx context.Context) ([]domain.TestCase, error) {
					return app.AI().ParseImport(ctx, string(data))
				})
				if err != nil {
					return err
				}
				saved, err := app.Cases.Import(ctx, actor, parsed)
				if err != nil {
					return err
				}
				if app.Out.IsJSON() {
					return app.Out.JSON(saved)
				}
				app.Out.Success(fmt.Sprintf("Imported %d cases", len(saved)))
				return nil
			})
		},
	})
}
