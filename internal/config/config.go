// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix for single value environment overrides,
	// e.g. STOREFRONT_WEBSERVER_SESSION_SECRET.
	EnvPrefix = "STOREFRONT"

	// EnvConfigJSON holds a JSON document merged over the whole config.
	EnvConfigJSON = "STOREFRONT_CONFIG_JSON"

	// MainConfigFile is the name of the main config file inside the config path.
	MainConfigFile = "main.toml"

	defaultShutDownTime  = 5
	defaultLoginMax      = 10
	defaultDBDriver      = DriverSQLite
	defaultSQLitePath    = "storefront.db"
	invalidErrMessage    = "invalid config"
	readErrMessage       = "failed to read main config file"
	mergeJSONErrMessage  = "failed to merge json config override"
	unmarshalErrMessage  = "failed to decode main config file"
	defaultLoginWindow   = time.Minute
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var c Config

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, MainConfigFile))
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, readErrMessage)
	}

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, unmarshalErrMessage)
	}

	// override it from env
	if configJSON := os.Getenv(EnvConfigJSON); configJSON != "" {
		var err error

		c, err = decodeAndMergeConfig(c, configJSON)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

// setDefaults registers every key that must be overridable from the environment.
// Viper only binds env vars for keys it knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("devmode", false)
	v.SetDefault("db.driver", defaultDBDriver)
	v.SetDefault("db.path", defaultSQLitePath)
	v.SetDefault("db.host", "")
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("webserver.shutdowntime", defaultShutDownTime)
	v.SetDefault("webserver.session.secret", "")
	v.SetDefault("webserver.loginlimit.max", defaultLoginMax)
	v.SetDefault("webserver.loginlimit.window", defaultLoginWindow)
	v.SetDefault("auth.local.enabled", true)
	v.SetDefault("auth.ldap.bindpassword", "")
	v.SetDefault("auth.oidc.clientsecret", "")
	v.SetDefault("webhook.secret", "")
	v.SetDefault("seed.adminpassword", "")
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, mergeJSONErrMessage)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	out, err := toml.Marshal(c)
	if err != nil {
		return "", err //nolint: wrapcheck
	}

	return string(out), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// IsProduction reports whether the service runs with production safeguards.
func (c *Config) IsProduction() bool {
	return !c.DevMode
}

// validate minimal config settings and fill in defaults the file may omit.
func validate(c *Config) error {
	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	switch c.DB.Driver {
	case "":
		c.DB.Driver = defaultDBDriver
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return errors.Wrapf(ErrUnknownDBDriver, "%s: %q", invalidErrMessage, c.DB.Driver)
	}

	if l := c.Auth.LDAP; l.Enabled && (l.Host == "" || l.BaseDN == "") {
		return errors.Wrap(ErrLDAPIncomplete, invalidErrMessage)
	}

	if o := c.Auth.OIDC; o.Enabled && (o.ProviderURL == "" || o.ClientID == "" || o.RedirectURL == "") {
		return errors.Wrap(ErrOIDCIncomplete, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime // set default of 5 seconds
	}

	if c.Webserver.LoginLimit.Max == 0 {
		c.Webserver.LoginLimit.Max = defaultLoginMax
	}

	if c.Webserver.LoginLimit.Window == 0 {
		c.Webserver.LoginLimit.Window = defaultLoginWindow
	}

	return nil
}
