package sqlite

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/loykin/sqlpatch/internal/constants"
	"github.com/loykin/sqlpatch/internal/util"
)

type Config struct {
	Path string `mapstructure:"path"`
	DSN  string `mapstructure:"dsn"`
}

func (c *Config) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"path": c.Path,
		"dsn":  c.DSN,
	}
}

// Load decodes a driver config map (as produced by ToMap or read from YAML).
func Load(m map[string]interface{}) (*Config, error) {
	var c Config
	if err := mapstructure.Decode(m, &c); err != nil {
		return nil, fmt.Errorf("decode sqlite config: %w", err)
	}
	return &c, nil
}

// ConnectionString returns the DSN handed to the driver. An explicit DSN wins;
// otherwise Path is opened with a busy timeout and foreign keys enabled.
func (c *Config) ConnectionString() string {
	if dsn, ok := util.TrimEmptyCheck(c.DSN); ok {
		return dsn
	}
	path := util.TrimWithDefault(c.Path, constants.DefaultSQLitePath)
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		path, constants.DefaultSQLiteBusyTimeoutMS)
}
