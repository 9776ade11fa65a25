// Package config loads the sqlpatch YAML document: store, logging and the
// declared module.
package config

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/loykin/sqlpatch/internal/common"
	"github.com/loykin/sqlpatch/internal/constants"
	"github.com/loykin/sqlpatch/internal/migration"
	"github.com/loykin/sqlpatch/internal/model"
	"github.com/loykin/sqlpatch/internal/store"
	"github.com/loykin/sqlpatch/internal/store/postgresql"
	"github.com/loykin/sqlpatch/internal/store/sqlite"
	"github.com/loykin/sqlpatch/internal/util"
	"gopkg.in/yaml.v3"
)

type LoggingConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`                   // error, warn, info, debug
	Format        string `mapstructure:"format" yaml:"format"`                 // text, json
	MaskSensitive *bool  `mapstructure:"mask_sensitive" yaml:"mask_sensitive"` // enable/disable DSN masking
}

type StoreConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	// Driver sections are decoded by the driver packages.
	SQLite    map[string]interface{} `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres  map[string]interface{} `mapstructure:"postgres" yaml:"postgres"`
	Table     string                 `mapstructure:"table" yaml:"table"`
	Isolation string                 `mapstructure:"isolation" yaml:"isolation"`
}

type PatchConfig struct {
	Up       string `mapstructure:"up" yaml:"up"`
	Down     string `mapstructure:"down" yaml:"down"`
	UpFile   string `mapstructure:"up_file" yaml:"up_file"`
	DownFile string `mapstructure:"down_file" yaml:"down_file"`
	Tag      string `mapstructure:"tag" yaml:"tag"`
}

type VersionConfig struct {
	ID      string        `mapstructure:"id" yaml:"id"`
	Patches []PatchConfig `mapstructure:"patches" yaml:"patches"`
}

type ModuleConfig struct {
	ID string `mapstructure:"id" yaml:"id"`
	// Dir is the base directory for patch files. With no versions listed,
	// every NNN_name.up.sql / NNN_name.down.sql pair in it becomes a version.
	Dir      string          `mapstructure:"dir" yaml:"dir"`
	Versions []VersionConfig `mapstructure:"versions" yaml:"versions"`
}

type ConfigDoc struct {
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Module  ModuleConfig  `mapstructure:"module" yaml:"module"`

	// baseDir is the directory of the loaded file; relative paths resolve against it.
	baseDir string
}

func (c *ConfigDoc) Load(path string) error {
	clean := filepath.Clean(path)
	// Ensure path points to a regular file to avoid opening directories/special files
	if info, statErr := os.Stat(clean); statErr != nil || !info.Mode().IsRegular() {
		if statErr != nil {
			return statErr
		}
		return fmt.Errorf("not a regular file: %s", clean)
	}
	// #nosec G304 -- config path is provided intentionally by the user/CI; cleaned and validated above
	f, err := os.Open(clean)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decode %s: %w", clean, err)
	}
	c.baseDir = filepath.Dir(clean)
	return nil
}

// BaseDir is the directory relative paths in the document resolve against.
func (c *ConfigDoc) BaseDir() string {
	return c.baseDir
}

func (c *ConfigDoc) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// StoreConfig converts the store section into a store.Config. An empty type
// means SQLite; a relative SQLite path resolves against the config file.
func (c *ConfigDoc) StoreConfig() (store.Config, error) {
	sc := c.Store
	cfg := store.Config{Table: sc.Table}

	switch util.TrimAndLower(sc.Type) {
	case store.DriverSqlite, "":
		sq, err := sqlite.Load(sc.SQLite)
		if err != nil {
			return store.Config{}, err
		}
		if util.IsBlank(sq.DSN) && sq.Path != ":memory:" && !strings.HasPrefix(sq.Path, "file:") {
			sq.Path = c.resolve(util.TrimWithDefault(sq.Path, constants.DefaultSQLitePath))
		}
		cfg.Driver = store.DriverSqlite
		cfg.DriverConfig = sq
	case store.DriverPostgresql, "postgres":
		pg, err := postgresql.Load(sc.Postgres)
		if err != nil {
			return store.Config{}, err
		}
		cfg.Driver = store.DriverPostgresql
		cfg.DriverConfig = pg
	default:
		return store.Config{}, fmt.Errorf("%w: %q", store.ErrUnsupportedDriver, sc.Type)
	}
	return cfg, nil
}

// IsolationLevel parses store.isolation. Empty keeps the driver default.
func (c *ConfigDoc) IsolationLevel() (sql.IsolationLevel, error) {
	switch util.TrimAndLower(c.Store.Isolation) {
	case "", "default":
		return sql.LevelDefault, nil
	case "read_uncommitted", "read uncommitted":
		return sql.LevelReadUncommitted, nil
	case "read_committed", "read committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read", "repeatable read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return sql.LevelDefault, fmt.Errorf("invalid isolation level: %s (valid: read_uncommitted, read_committed, repeatable_read, serializable)", c.Store.Isolation)
	}
}

// BuildModule declares the module described by the document.
func (c *ConfigDoc) BuildModule() (model.Module, error) {
	mc := c.Module
	id, ok := util.TrimEmptyCheck(mc.ID)
	if !ok {
		return model.Module{}, fmt.Errorf("module: missing id")
	}
	dir := util.TrimWithDefault(c.resolve(mc.Dir), c.baseDir)
	if dir == "" {
		dir = "."
	}
	if len(mc.Versions) == 0 {
		if util.IsBlank(mc.Dir) {
			return model.NewModule(id)
		}
		return migration.ModuleFromFS(id, os.DirFS(dir), ".")
	}

	versions := make([]model.Version, 0, len(mc.Versions))
	for i, vc := range mc.Versions {
		patches := make([]model.Patch, 0, len(vc.Patches))
		for j, pc := range vc.Patches {
			p, err := pc.build(dir)
			if err != nil {
				return model.Module{}, fmt.Errorf("module.versions[%d] (%s) patches[%d]: %w", i, vc.ID, j, err)
			}
			patches = append(patches, p)
		}
		v, err := model.NewVersion(vc.ID, patches...)
		if err != nil {
			return model.Module{}, fmt.Errorf("module.versions[%d]: %w", i, err)
		}
		versions = append(versions, v)
	}
	return model.NewModule(id, versions...)
}

// build turns one patch entry into a patch. Relative up_file/down_file
// paths resolve against dir. Without down or down_file the patch is
// irreversible.
func (p PatchConfig) build(dir string) (model.Patch, error) {
	up, err := pick("up", p.Up, p.UpFile, dir)
	if err != nil {
		return nil, err
	}
	if util.IsBlank(up) {
		return nil, fmt.Errorf("missing up or up_file")
	}
	down, err := pick("down", p.Down, p.DownFile, dir)
	if err != nil {
		return nil, err
	}
	tag := model.WithTag(p.Tag)
	if util.IsBlank(down) {
		return model.NewUpSQLPatch(up, tag), nil
	}
	return model.NewSQLPatch(up, down, tag), nil
}

func pick(field, inline, file, dir string) (string, error) {
	if inline != "" && file != "" {
		return "", fmt.Errorf("%s and %s_file are mutually exclusive", field, field)
	}
	if file == "" {
		return inline, nil
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	// #nosec G304 -- patch files are named by the operator's own config
	b, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read %s_file: %w", field, err)
	}
	return string(b), nil
}

// SetupLogging configures the global logger from the logging section.
func (c *ConfigDoc) SetupLogging() error {
	level, err := common.ParseLogLevel(c.Logging.Level)
	if err != nil {
		return err
	}

	var logger *common.Logger
	format := util.TrimAndLower(c.Logging.Format)
	switch format {
	case "json":
		logger = common.NewJSONLogger(level)
	case "text", "":
		logger = common.NewLogger(level)
	default:
		return fmt.Errorf("invalid logging format: %s (valid: text, json)", c.Logging.Format)
	}

	maskingEnabled := true
	if c.Logging.MaskSensitive != nil {
		maskingEnabled = *c.Logging.MaskSensitive
	}
	common.EnableMasking(maskingEnabled)
	common.SetDefaultLogger(logger)

	logger.Debug("logging configured",
		"level", level.String(),
		"format", util.TrimWithDefault(format, "text"),
		"mask_sensitive", maskingEnabled)
	return nil
}
