package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/testmo/internal/config"
	"github.com/mrz1836/testmo/internal/ctxutil"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/logging"
	"github.com/mrz1836/testmo/internal/tui"
)

// ConfigSource names where an effective configuration value came from.
type ConfigSource string

// Configuration sources, highest precedence first.
const (
	SourceFlag    ConfigSource = "flag"
	SourceEnv     ConfigSource = "env"
	SourceProject ConfigSource = "project"
	SourceGlobal  ConfigSource = "global"
	SourceDefault ConfigSource = "default"
)

// ConfigValue is one effective setting with its source.
type ConfigValue struct {
	Key    string       `json:"key"`
	Value  string       `json:"value"`
	Source ConfigSource `json:"source"`
}

// addConfigCommand adds config show and config path.
func addConfigCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration and where each value comes from",
		Long: `Display the effective configuration and where each value comes from:

  flag      command-line flag
  env       TESTMO_* environment variable
  project   .testmo/config.yaml in the working directory
  global    ~/.testmo/config.yaml
  default   built-in default

Secrets and connection credentials are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration, data and log locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigPath(cmd, flags)
		},
	})
	root.AddCommand(cmd)
}

func runConfigShow(ctx context.Context, w io.Writer, flags *GlobalFlags) error {
	cfg, err := config.LoadWithOverrides(ctxutil.OrBackground(ctx), flags.overrides())
	if err != nil {
		return errors.NewExitCode2Error(err)
	}
	values, err := annotate(cfg, flags)
	if err != nil {
		return err
	}

	out := tui.NewOutput(w, flags.Output)
	if out.IsJSON() {
		return out.JSON(values)
	}
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		rows = append(rows, []string{v.Key, v.Value, string(v.Source)})
	}
	out.Table([]string{"KEY", "VALUE", "SOURCE"}, rows)
	return nil
}

// annotate flattens cfg to dotted keys and attaches the source of each value.
func annotate(cfg *config.Config, flags *GlobalFlags) ([]ConfigValue, error) {
	effective, err := flatten(cfg)
	if err != nil {
		return nil, err
	}

	var global, project map[string]string
	if path, err := config.GlobalConfigPath(); err == nil {
		global = readFlatFile(path)
	}
	project = readFlatFile(config.ProjectConfigPath())
	fromFlags := flagKeys(flags)

	keys := make([]string, 0, len(effective))
	for k := range effective {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ConfigValue, 0, len(keys))
	for _, k := range keys {
		v := ConfigValue{Key: k, Value: effective[k], Source: SourceDefault}
		// Variable names are not secrets.
		if v.Value != "" && !strings.HasSuffix(k, "_env_var") {
			v.Value = logging.SafeValue(k, v.Value)
		}
		switch {
		case fromFlags[k]:
			v.Source = SourceFlag
		case os.Getenv(envKey(k)) != "":
			v.Source = SourceEnv
		case has(project, k):
			v.Source = SourceProject
		case has(global, k):
			v.Source = SourceGlobal
		}
		out = append(out, v)
	}
	return out, nil
}

func has(m map[string]string, k string) bool {
	_, ok := m[k]
	return ok
}

// envKey maps storage.redis_url to TESTMO_STORAGE_REDIS_URL.
func envKey(key string) string {
	return "TESTMO_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func flagKeys(flags *GlobalFlags) map[string]bool {
	return map[string]bool{
		"storage.backend": flags.Backend != "",
		"storage.dir":     flags.DataDir != "",
		"ui.theme":        flags.Theme != "",
	}
}

// flatten renders cfg through its yaml tags and returns leaf values by dotted key.
func flatten(cfg *config.Config) (map[string]string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	out := make(map[string]string)
	flattenInto(out, "", tree)
	return out, nil
}

func flattenInto(out map[string]string, prefix string, node any) {
	m, ok := node.(map[string]any)
	if !ok {
		if node == nil {
			out[prefix] = ""
		} else {
			out[prefix] = fmt.Sprint(node)
		}
		return
	}
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		flattenInto(out, key, v)
	}
}

// readFlatFile returns the dotted keys set in a YAML config file, or nil.
func readFlatFile(path string) map[string]string {
	data, err := os.ReadFile(path) //nolint:gosec // config file path
	if err != nil {
		return nil
	}
	var tree map[string]any
	if yaml.Unmarshal(data, &tree) != nil {
		return nil
	}
	out := make(map[string]string)
	flattenInto(out, "", tree)
	return out
}

func runConfigPath(cmd *cobra.Command, flags *GlobalFlags) error {
	home, err := config.Home()
	if err != nil {
		return err
	}
	global, err := config.GlobalConfigPath()
	if err != nil {
		return err
	}
	project, err := filepath.Abs(config.ProjectConfigPath())
	if err != nil {
		project = config.ProjectConfigPath()
	}
	logFile, err := LogFilePath()
	if err != nil {
		return err
	}

	out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
	if out.IsJSON() {
		return out.JSON(map[string]string{"home": home, "global": global, "project": project, "log": logFile})
	}
	out.Table([]string{"WHAT", "PATH"}, [][]string{
		{"home", home},
		{"global config", global},
		{"project config", project},
		{"log file", logFile},
	})
	return nil
}
