// Command idwiden widens integer identifier declarations in C# data-model
// files to match a database whose keys have moved to 64 bits.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/koustreak/idwiden/internal/config"
	"github.com/koustreak/idwiden/internal/database"
	"github.com/koustreak/idwiden/internal/logger"
)

var version = "0.3.0-dev"

// Exit codes.
const (
	exitFailed  = 1
	exitPending = 2
)

// exitError carries a process exit code up to main.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configFile string
	envFile    string
	catalog    string
	extensions []string
	workers    int
	logLevel   string
	logFormat  string
	report     string
	dsn        string
	driver     string
}

type app struct {
	flags globalFlags
	cfg   *config.Config
	log   *logger.Logger
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		code := exitFailed
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		if ee == nil || ee.err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(code)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "idwiden",
		Short: "Widen int identifier declarations to long in C# models",
		Long: `idwiden scans C# entity, DTO, response and service files and rewrites the
declared type of identifier fields from int to long, for the entities whose
primary keys are 64-bit in the database. Running it twice is a no-op.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "Config file (default ./"+config.DefaultFile+" if present)")
	pf.StringVar(&a.flags.envFile, "env-file", "", "Dotenv file (default ./.env if present)")
	pf.StringVar(&a.flags.catalog, "catalog", "", "Catalog YAML with entities and rules (default: built-in)")
	pf.StringSliceVar(&a.flags.extensions, "ext", nil, "File extensions to scan (default .cs)")
	pf.IntVarP(&a.flags.workers, "workers", "j", 0, "Files processed concurrently (default: one per CPU)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&a.flags.logFormat, "log-format", "", "Log format: console|json")
	pf.StringVar(&a.flags.report, "report", "", "Write the JSON run summary to this path")
	pf.StringVar(&a.flags.dsn, "dsn", "", "Seed entity widths from this database")
	pf.StringVar(&a.flags.driver, "driver", "", "Database driver: postgres|mysql")

	rootCmd.AddCommand(
		newRunCmd(a),
		newCheckCmd(a),
		newCatalogCmd(a),
		newServeCmd(a),
	)
	return rootCmd
}

// setup loads the layered configuration, applies the flags the user set and
// builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.Options{File: a.flags.configFile, EnvFile: a.flags.envFile})
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("catalog") {
		cfg.Catalog = a.flags.catalog
	}
	if flags.Changed("ext") {
		cfg.Extensions = a.flags.extensions
	}
	if flags.Changed("workers") {
		cfg.Workers = a.flags.workers
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.flags.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.flags.logFormat
	}
	if flags.Changed("report") {
		cfg.Report.Path = a.flags.report
	}
	if flags.Changed("dsn") {
		cfg.Database.DSN = a.flags.dsn
	}
	if flags.Changed("driver") {
		cfg.Database.Driver = database.Driver(a.flags.driver)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}
