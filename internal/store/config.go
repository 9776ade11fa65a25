package store

import (
	"github.com/loykin/sqlpatch/internal/constants"
	"github.com/loykin/sqlpatch/internal/retry"
)

const (
	DriverSqlite     = constants.DriverSqlite
	DriverPostgresql = constants.DriverPostgresql
)

type Config struct {
	Driver       string `mapstructure:"driver"`
	Table        string `mapstructure:"table"`
	DriverConfig DriverConfig
	// Retry controls the connect/ping loop. nil uses retry.Default.
	Retry *retry.Config
}

type DriverConfig interface {
	ToMap() map[string]interface{}
}
