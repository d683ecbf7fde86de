// Package main provides the CLI entrypoint for statcalc.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gh674055/sports-compare-bots/internal/config"
	"github.com/gh674055/sports-compare-bots/internal/engine"
	"github.com/gh674055/sports-compare-bots/internal/registry"
	"github.com/gh674055/sports-compare-bots/internal/store"
)

const (
	defaultWorkers      = 4
	defaultFormulaCache = 256
	defaultLogLevel     = "warn"
	defaultTrendWindow  = 3
	defaultRankTop      = 10
)

var (
	rootDBPath   string
	rootRegistry string
	rootLogLevel string
	rootNoColor  bool
)

func main() {
	// Best-effort: a missing .env is the common case.
	_ = godotenv.Load()

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "statcalc",
		Short:         "Derived NFL stat calculator",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&rootDBPath, "db", "", "period database path (default: XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&rootRegistry, "registry", "", "stat table overriding the built-in one")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&rootNoColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newDropCmd())
	rootCmd.AddCommand(newEvalCmd())
	rootCmd.AddCommand(newFormulaCmd())
	rootCmd.AddCommand(newTrendCmd())
	rootCmd.AddCommand(newRankCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newSubjectsCmd())

	return rootCmd
}

// env is what most commands need: the loaded config, the stat registry and
// lazily opened storage.
type env struct {
	cfg config.FileConfig
	reg *registry.Registry
	st  *store.Store
}

// setup loads config, applies the shared flags and the log level, and loads
// the registry.
func setup(cmd *cobra.Command) (*env, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &rootDBPath, fileCfg.Store.Path)
	applyStringConfig(cmd, "registry", &rootRegistry, fileCfg.Registry.Path)
	applyStringConfig(cmd, "log-level", &rootLogLevel, fileCfg.Log.Level)

	level, err := logrus.ParseLevel(rootLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level value: %w", err)
	}
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(level)

	reg, err := loadRegistry(rootRegistry)
	if err != nil {
		return nil, err
	}
	return &env{cfg: fileCfg, reg: reg}, nil
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		reg, err := registry.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load stat table: %w", err)
		}
		return reg, nil
	}
	reg, err := registry.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load stat table %s: %w", path, err)
	}
	return reg, nil
}

func (e *env) openStore() (*store.Store, error) {
	if e.st != nil {
		return e.st, nil
	}
	st, err := store.Open(e.dbPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	e.st = st
	return st, nil
}

func (e *env) dbPath() string {
	if rootDBPath != "" {
		return rootDBPath
	}
	return config.DefaultDBPath()
}

func (e *env) close() {
	if e.st == nil {
		return
	}
	if cerr := e.st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func (e *env) evaluator() (*engine.Evaluator, error) {
	size := defaultFormulaCache
	if e.cfg.Engine.FormulaCache != nil {
		size = *e.cfg.Engine.FormulaCache
	}
	ev, err := engine.New(e.reg, engine.Options{FormulaCacheSize: size})
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluator: %w", err)
	}
	return ev, nil
}

func useColor() bool {
	if rootNoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.CommandContext(context.Background(), parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# statcalc configuration
# Uncomment a value to enable it. CLI flags override config values.

[engine]
# count-inconsistent = false  # Show stats in seasons where they were recorded incompletely
# hide-first-downs = false    # Treat first-down stats as not recorded
# workers = %d                 # Parallel subject evaluations
# formula-cache = %d         # Compiled custom formulas kept in memory

[store]
# path = %q                   # Period database (default: XDG data dir)

[registry]
# path = %q                   # Stat table overriding the built-in one

[log]
# level = %q              # debug, info, warn or error
`,
		defaultWorkers,
		defaultFormulaCache,
		"",
		"",
		defaultLogLevel,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
