// Package config loads the server's TOML configuration file, profile by
// profile. Environment variables and CLI flags layered on top in
// cmd/server take precedence over the values loaded here.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// AppConfig is one profile's worth of server configuration.
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Db     DbConfig     `toml:"db"`
}

// ProfileConfig is the top-level shape of config.toml: one AppConfig per
// run profile.
type ProfileConfig struct {
	Dev  AppConfig `toml:"dev"`
	Test AppConfig `toml:"test"`
}

// ServerConfig controls the HTTP listener, logging, and route suffixes.
type ServerConfig struct {
	Port                   uint16 `toml:"port"`
	LogLevel               string `toml:"log_level"`
	PingURLSuffix          string `toml:"ping_url_suffix"`
	CreateCollectionSuffix string `toml:"create_collection_url_suffix"`
	UpsertURLSuffix        string `toml:"upsert_url_suffix"`
	QueryURLSuffix         string `toml:"query_url_suffix"`
}

// DbConfig mirrors dbstate.DbStateConfig in a TOML-friendly shape; the
// VECTARAFT_ENABLE_WAL / VECTARAFT_WAL_PATH env vars and the --no-wal /
// --wal-path CLI flags still take precedence over these values.
type DbConfig struct {
	EnableWal bool   `toml:"enable_wal"`
	WalPath   string `toml:"wal_path"`
}

// LoadConfig loads the "dev" profile from config.toml.
func LoadConfig() (*AppConfig, error) {
	return LoadConfigWithProfile("dev")
}

// LoadConfigWithProfile loads the named profile ("dev" or "test") from
// config.toml.
func LoadConfigWithProfile(profile string) (*AppConfig, error) {
	var profileConfig ProfileConfig
	if _, err := toml.DecodeFile("config.toml", &profileConfig); err != nil {
		return nil, err
	}

	switch profile {
	case "dev":
		return &profileConfig.Dev, nil
	case "test":
		return &profileConfig.Test, nil
	default:
		return nil, fmt.Errorf("unknown profile: %s", profile)
	}
}
