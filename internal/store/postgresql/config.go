package postgresql

import (
	"fmt"
	"net/url"

	"github.com/go-viper/mapstructure/v2"
	"github.com/loykin/sqlpatch/internal/constants"
	"github.com/loykin/sqlpatch/internal/util"
)

type Config struct {
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p *Config) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"dsn": p.ConnectionString(),
	}
}

// Load decodes a driver config map into a Config.
func Load(m map[string]interface{}) (*Config, error) {
	var c Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &c,
		WeaklyTypedInput: true, // port may arrive as a string from env vars
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("decode postgresql config: %w", err)
	}
	return &c, nil
}

// ConnectionString prefers an explicit DSN; otherwise it is built from the
// components when a host is provided.
func (p *Config) ConnectionString() string {
	dsn, hasDSN := util.TrimEmptyCheck(p.DSN)
	if hasDSN {
		return dsn
	}
	host, hasHost := util.TrimEmptyCheck(p.Host)
	if !hasHost {
		return ""
	}
	port := p.Port
	if port == 0 {
		port = constants.DefaultPostgresPort
	}
	ssl := util.TrimWithDefault(p.SSLMode, constants.DefaultPostgresSSLMode)

	fields := util.TrimSpaceFields(p.User, p.Password, p.DBName)
	user, password, dbname := fields[0], fields[1], fields[2]
	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", host, port),
		Path:     "/" + dbname,
		RawQuery: "sslmode=" + url.QueryEscape(ssl),
	}
	if user != "" {
		if password != "" {
			u.User = url.UserPassword(user, password)
		} else {
			u.User = url.User(user)
		}
	}
	return u.String()
}
