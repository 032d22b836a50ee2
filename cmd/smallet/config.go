package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/iov-one/smallet/errors"
)

const (
	defaultHome     = ".smallet"
	defaultLogLevel = "info"
	configFileName  = "config.toml"
)

// globalOptions are accepted by every command that opens the store. Values
// left empty are taken from the configuration file and then from the
// defaults.
type globalOptions struct {
	Home        string `long:"home" env:"SMALLET_HOME" description:"Directory holding the state and the configuration file."`
	Config      string `long:"config" env:"SMALLET_CONFIG" description:"Path to the TOML configuration file. Defaults to <home>/config.toml."`
	LogLevel    string `long:"log-level" env:"SMALLET_LOG_LEVEL" description:"Log level, one of debug, info, error, none."`
	MetricsAddr string `long:"metrics-addr" env:"SMALLET_METRICS_ADDR" description:"If set, expose prometheus metrics on this address while the command runs."`
}

// fileConfig is the content of the configuration file.
type fileConfig struct {
	Home        string `toml:"home"`
	ChainID     string `toml:"chain_id"`
	LogLevel    string `toml:"log_level"`
	MetricsAddr string `toml:"metrics_addr"`
}

// config is the resolved configuration of a single run.
type config struct {
	Home        string
	ChainID     string
	LogLevel    string
	MetricsAddr string
}

// resolveConfig merges command line options with the configuration file.
// Command line options take precedence. A missing configuration file is not
// an error unless its path was given explicitly.
func resolveConfig(g globalOptions) (config, error) {
	cfg := config{
		Home:        strings.TrimSpace(g.Home),
		LogLevel:    strings.TrimSpace(g.LogLevel),
		MetricsAddr: strings.TrimSpace(g.MetricsAddr),
	}

	path := strings.TrimSpace(g.Config)
	explicit := path != ""
	if !explicit {
		home := cfg.Home
		if home == "" {
			home = defaultHomeDir()
		}
		path = filepath.Join(home, configFileName)
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	switch {
	case err == nil:
		if cfg.Home == "" && meta.IsDefined("home") {
			cfg.Home = strings.TrimSpace(raw.Home)
		}
		if meta.IsDefined("chain_id") {
			cfg.ChainID = strings.TrimSpace(raw.ChainID)
		}
		if cfg.LogLevel == "" && meta.IsDefined("log_level") {
			cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
		}
		if cfg.MetricsAddr == "" && meta.IsDefined("metrics_addr") {
			cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return config{}, errors.Wrapf(errors.ErrInput, "load config %q: %s", path, err)
	}

	if cfg.Home == "" {
		cfg.Home = defaultHomeDir()
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	return cfg, nil
}

func defaultHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, defaultHome)
	}
	return defaultHome
}
