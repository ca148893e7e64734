package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`
}

// Load reads a config file, with APP_* environment variables taking
// precedence over file values (app.env -> APP_APP_ENV,
// postgres.dsn -> APP_POSTGRES_DSN).
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about; bind the nested ones so
	// the env override works even when the file omits them.
	for _, key := range []string{"app.env", "postgres.dsn"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
