// Package config loads taskwire configuration from, in order of
// precedence: command-line flags (bound by the CLI), environment
// variables (TASKWIRE_*), a .env file, a config file
// (.taskwire.yaml in the working directory or $HOME), and defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all settings for the server and client sides.
type Config struct {
	// Server
	ListenAddr  string
	DBPath      string
	JWTSecret   string
	CORSOrigins []string
	RateLimit   float64
	RateBurst   int
	LogFile     string

	// Client
	ServerURL string
	Token     string
	PageSize  int
}

// Load reads configuration from all sources.
func Load(configFile string) (*Config, error) {
	// .env first so viper's env binding sees it
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TASKWIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":5000")
	v.SetDefault("db_path", ".taskwire/taskwire.db")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("rate_limit", 50.0)
	v.SetDefault("rate_burst", 100)
	v.SetDefault("server_url", "http://localhost:5000")
	v.SetDefault("page_size", 10)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(".taskwire")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		// Config file is optional
		_ = v.ReadInConfig()
	}

	cfg := &Config{
		ListenAddr:  v.GetString("listen_addr"),
		DBPath:      v.GetString("db_path"),
		JWTSecret:   v.GetString("jwt_secret"),
		CORSOrigins: v.GetStringSlice("cors_origins"),
		RateLimit:   v.GetFloat64("rate_limit"),
		RateBurst:   v.GetInt("rate_burst"),
		LogFile:     v.GetString("log_file"),
		ServerURL:   v.GetString("server_url"),
		Token:       v.GetString("token"),
		PageSize:    v.GetInt("page_size"),
	}

	return cfg, nil
}
