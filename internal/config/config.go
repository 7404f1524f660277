// Package config loads idwiden's run configuration.
//
// Sources are layered, later ones winning: built-in defaults, the YAML file
// (idwiden.yaml, or --config), a .env file, IDWIDEN_* environment variables,
// and finally command-line flags (applied by the caller).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"

	"github.com/koustreak/idwiden/internal/database"
	"github.com/koustreak/idwiden/internal/errs"
	"github.com/koustreak/idwiden/internal/filestore"
)

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "idwiden.yaml"

// Config is the full run configuration.
type Config struct {
	// Roots are the directories (or files) to scan.
	Roots []string `yaml:"roots"`

	// Extensions selects candidate files, e.g. [".cs"].
	Extensions []string `yaml:"extensions"`

	Workers int  `yaml:"workers"`
	DryRun  bool `yaml:"dryRun"`

	// Catalog is the path of the catalog YAML; empty uses the built-in one.
	Catalog string `yaml:"catalog"`

	// RebuildHint is printed after files were rewritten.
	RebuildHint string `yaml:"rebuildHint"`

	Log      LogConfig       `yaml:"log"`
	Database database.Config `yaml:"database"`
	Report   ReportConfig    `yaml:"report"`
	Server   ServerConfig    `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

type ReportConfig struct {
	// Path receives the JSON summary; empty disables the file report.
	Path  string           `yaml:"path"`
	Store filestore.Config `yaml:"store"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	CacheSize    int           `yaml:"cacheSize"`
	MaxBodyBytes int64         `yaml:"maxBodyBytes"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// Default returns the built-in configuration: the CMS backend layout, C#
// sources, one worker per CPU.
func Default() *Config {
	db := database.DefaultConfig("")
	store := filestore.DefaultConfig("", "", "")
	return &Config{
		Roots: []string{
			"backend/CMS.API/Data/Entities",
			"backend/CMS.API/Models/DTOs",
			"backend/CMS.API/Models/Responses",
			"backend/CMS.API/Services",
		},
		Extensions:  []string{".cs"},
		Workers:     runtime.NumCPU(),
		RebuildHint: "cd backend/CMS.API && dotnet build",
		Log:         LogConfig{Level: "info", Format: "console"},
		Database:    *db,
		Report:      ReportConfig{Store: *store},
		Server: ServerConfig{
			Addr:         ":8080",
			CacheSize:    256,
			MaxBodyBytes: 4 << 20,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Options tells Load where to look.
type Options struct {
	// File is the YAML config path. Empty means DefaultFile if present.
	File string

	// EnvFile is the dotenv file. Empty means ".env" if present.
	EnvFile string

	// LookupEnv reads environment variables; nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds the configuration from defaults, the YAML file, the dotenv
// file and the environment.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	path, explicit := opts.File, opts.File != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindConfiguration, "parsing "+path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, errs.Wrap(errs.ErrKindConfiguration, "reading "+path, err)
	}

	envFile, explicit := opts.EnvFile, opts.EnvFile != ""
	if !explicit {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "loading "+envFile, err)
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

const envPrefix = "IDWIDEN_"

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	env := &envReader{lookup: lookup}

	env.list("ROOTS", &cfg.Roots)
	env.list("EXTENSIONS", &cfg.Extensions)
	env.intVar("WORKERS", &cfg.Workers)
	env.boolVar("DRY_RUN", &cfg.DryRun)
	env.str("CATALOG", &cfg.Catalog)
	env.str("REBUILD_HINT", &cfg.RebuildHint)

	env.str("LOG_LEVEL", &cfg.Log.Level)
	env.str("LOG_FORMAT", &cfg.Log.Format)

	var driver string
	if env.str("DB_DRIVER", &driver) {
		cfg.Database.Driver = database.Driver(driver)
	}
	env.str("DB_DSN", &cfg.Database.DSN)
	env.str("DB_SCHEMA", &cfg.Database.Schema)

	env.str("REPORT_PATH", &cfg.Report.Path)
	env.str("S3_ENDPOINT", &cfg.Report.Store.Endpoint)
	env.str("S3_ACCESS_KEY", &cfg.Report.Store.AccessKey)
	env.str("S3_SECRET_KEY", &cfg.Report.Store.SecretKey)
	env.str("S3_BUCKET", &cfg.Report.Store.Bucket)
	env.str("S3_PREFIX", &cfg.Report.Store.Prefix)
	env.str("S3_REGION", &cfg.Report.Store.Region)
	env.boolVar("S3_USE_SSL", &cfg.Report.Store.UseSSL)

	env.str("SERVER_ADDR", &cfg.Server.Addr)
	env.intVar("CACHE_SIZE", &cfg.Server.CacheSize)

	return env.err
}

type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(envPrefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) str(key string, dst *string) bool {
	v, ok := e.get(key)
	if ok {
		*dst = v
	}
	return ok
}

func (e *envReader) list(key string, dst *[]string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (e *envReader) intVar(key string, dst *int) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = n
}

func (e *envReader) boolVar(key string, dst *bool) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		*dst = true
	case "0", "false", "no":
		*dst = false
	default:
		e.fail(key, v, errors.New("want true or false"))
	}
}

func (e *envReader) fail(key, val string, err error) {
	if e.err == nil {
		e.err = errs.Wrap(errs.ErrKindConfiguration, fmt.Sprintf("%s%s=%q", envPrefix, key, val), err)
	}
}

// Validate checks the settings a run depends on.
func (c *Config) Validate() error {
	if len(c.Roots) == 0 {
		return errs.New(errs.ErrKindConfiguration, "no roots to scan")
	}
	if c.Workers < 0 {
		return errs.Newf(errs.ErrKindConfiguration, "workers must not be negative, got %d", c.Workers)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errs.Newf(errs.ErrKindConfiguration, "log format %q (want console or json)", c.Log.Format)
	}
	if c.Database.Enabled() {
		switch c.Database.Driver {
		case database.DriverPostgres, database.DriverMySQL:
		default:
			return errs.Newf(errs.ErrKindConfiguration, "unsupported database driver %q", c.Database.Driver)
		}
	}
	if c.Report.Store.Endpoint != "" && c.Report.Store.Bucket == "" {
		return errs.New(errs.ErrKindConfiguration, "report store needs a bucket")
	}
	return nil
}
