// Package config loads server settings from defaults, an optional config
// file, a .env file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config keys. Each one is also read from the upper-cased environment
// variable of the same name (data_dir -> DATA_DIR).
const (
	KeyHost           = "host"
	KeyPort           = "port"
	KeyDataDir        = "data_dir"
	KeyStoreBackend   = "store_backend"
	KeyAllowedOrigins = "allowed_origins"
	KeyAdminUser      = "admin_user"
	KeyAdminPass      = "admin_pass"
	KeyCookieSecure   = "cookie_secure"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
)

// Config holds application configuration.
type Config struct {
	Host           string
	Port           string
	DataDir        string
	StoreBackend   string
	AllowedOrigins []string
	AdminUser      string
	AdminPass      string
	CookieSecure   bool
	LogLevel       string
	LogFormat      string
}

// Addr is the listen address.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyHost, "0.0.0.0")
	v.SetDefault(KeyPort, "8000")
	v.SetDefault(KeyDataDir, "./data")
	v.SetDefault(KeyStoreBackend, "json")
	v.SetDefault(KeyAllowedOrigins, "*")
	v.SetDefault(KeyAdminUser, "admin")
	v.SetDefault(KeyAdminPass, "admin123")
	v.SetDefault(KeyCookieSecure, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
}

// Load reads configuration. configFile may be empty; a named file that does
// not exist is an error, a missing .env is not.
func Load(configFile string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("config file %s not found", configFile)
			}
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Host:           strings.TrimSpace(v.GetString(KeyHost)),
		Port:           strings.TrimSpace(v.GetString(KeyPort)),
		DataDir:        strings.TrimSpace(v.GetString(KeyDataDir)),
		StoreBackend:   strings.ToLower(strings.TrimSpace(v.GetString(KeyStoreBackend))),
		AllowedOrigins: splitList(v.GetString(KeyAllowedOrigins)),
		AdminUser:      strings.TrimSpace(v.GetString(KeyAdminUser)),
		AdminPass:      v.GetString(KeyAdminPass),
		CookieSecure:   v.GetBool(KeyCookieSecure),
		LogLevel:       strings.TrimSpace(v.GetString(KeyLogLevel)),
		LogFormat:      strings.TrimSpace(v.GetString(KeyLogFormat)),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
