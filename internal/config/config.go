// Package config loads RethinkDB connection settings.
//
// Precedence, highest first:
//
//	RETHINKDB_* environment variables
//	.env.local
//	.env
//	.reqlbridge.yaml (in ., $HOME, or $HOME/.config/reqlbridge)
//	defaults
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "RETHINKDB"

// Config holds connection settings.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// Timeout bounds dialing a connection; zero means the client default.
	Timeout time.Duration

	// ReadyTimeout bounds the wait after creating a table; zero waits
	// until the server reports the table ready.
	ReadyTimeout time.Duration

	// IDKey is the primary key field of every table.
	IDKey string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Host:     "localhost",
		Port:     28015,
		Database: "test",
		Username: "admin",
		IDKey:    "id",
	}
}

// Load reads configuration from fs and the process environment.
func Load(fs afero.Fs) (Config, error) {
	v := viper.New()
	v.SetFs(fs)

	v.SetConfigName(".reqlbridge")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "reqlbridge"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("host", def.Host)
	v.SetDefault("port", def.Port)
	v.SetDefault("database", def.Database)
	v.SetDefault("username", def.Username)
	v.SetDefault("password", def.Password)
	v.SetDefault("timeout", "0s")
	v.SetDefault("ready_timeout", "0s")
	v.SetDefault("id_key", def.IDKey)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	dotenv, err := readDotenv(fs)
	if err != nil {
		return Config{}, err
	}
	for key, value := range dotenv {
		// Real environment variables win over .env files.
		if !envSet(key) {
			v.Set(key, value)
		}
	}

	cfg := Config{
		Host:         v.GetString("host"),
		Port:         v.GetInt("port"),
		Database:     v.GetString("database"),
		Username:     v.GetString("username"),
		Password:     v.GetString("password"),
		Timeout:      v.GetDuration("timeout"),
		ReadyTimeout: v.GetDuration("ready_timeout"),
		IDKey:        v.GetString("id_key"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// readDotenv parses .env and then .env.local, the latter overriding.
// Only RETHINKDB_* entries are kept, keyed by their viper name.
func readDotenv(fs afero.Fs) (map[string]string, error) {
	out := map[string]string{}
	for _, name := range []string{".env", ".env.local"} {
		if _, err := fs.Stat(name); err != nil {
			continue
		}
		f, err := fs.Open(name)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		values, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		for k, val := range values {
			key, ok := strings.CutPrefix(k, EnvPrefix+"_")
			if !ok {
				continue
			}
			out[strings.ToLower(key)] = val
		}
	}
	return out, nil
}

// envSet reports whether the environment variable bound to key is set.
func envSet(key string) bool {
	val, ok := os.LookupEnv(EnvPrefix + "_" + strings.ToUpper(key))
	return ok && val != ""
}

// Validate checks the settings are usable.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.IDKey == "" {
		return fmt.Errorf("id_key must not be empty")
	}
	if c.Timeout < 0 || c.ReadyTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ConnectOpts builds client options. UseJSONNumber keeps integers from
// being read back as doubles.
func (c Config) ConnectOpts() r.ConnectOpts {
	return r.ConnectOpts{
		Address:       c.Address(),
		Database:      c.Database,
		Username:      c.Username,
		Password:      c.Password,
		Timeout:       c.Timeout,
		UseJSONNumber: true,
	}
}
