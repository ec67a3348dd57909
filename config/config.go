// Package config assembles runtime configuration from environment
// variables with flag overrides.
package config

import (
	"flag"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Address        string `env:"ADDRESS"          envDefault:"localhost:8080"`
	DataDir        string `env:"DATA_DIR"         envDefault:"./data"`
	Store          string `env:"STORE"            envDefault:"json"` // "json" or "sqlite"
	SQLitePath     string `env:"SQLITE_PATH"      envDefault:"./data/leave.db"`
	LogLvl         string `env:"LOG_LVL"          envDefault:"info"`
	AdminUsername  string `env:"ADMIN_USERNAME"   envDefault:"admin"`
	AdminPassword  string `env:"ADMIN_PASSWORD"   envDefault:"changeme"`
	MinAdvanceDays int    `env:"MIN_ADVANCE_DAYS" envDefault:"7"`
	MaxHorizonDays int    `env:"MAX_HORIZON_DAYS" envDefault:"365"`
}

func New() *Config {
	cfg := &Config{}

	env.Parse(cfg)

	flag.StringVar(&cfg.Address, "a", cfg.Address, "address and port to run server")
	flag.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory for JSON snapshots")
	flag.StringVar(&cfg.Store, "s", cfg.Store, "snapshot backend: json or sqlite")
	flag.StringVar(&cfg.SQLitePath, "db", cfg.SQLitePath, "SQLite database path")
	flag.StringVar(&cfg.LogLvl, "l", cfg.LogLvl, "log level")
	flag.Parse()

	return cfg
}
