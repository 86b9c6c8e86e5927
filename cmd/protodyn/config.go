package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/protodyn/protodyn"
)

// protodyn.toml key mapping to CLI runtime settings.
type fileConfig struct {
	ProtoDirs []string `toml:"proto_dirs"`
	Schemas   []string `toml:"schemas"`
	Enums     string   `toml:"enums"` // "ordinal" or "name"
	Longs     string   `toml:"longs"` // "native" or "string"
	Bytes     string   `toml:"bytes"` // "buffer", "array" or "base64"
	Defaults  bool     `toml:"defaults"`
	LogLevel  string   `toml:"log_level"`
}

type cliConfig struct {
	ProtoDirs []string
	Schemas   []string
	Convert   protodyn.ConvertOptions
	LogLevel  string
}

func defaultConfig() cliConfig {
	return cliConfig{
		Convert: protodyn.ConvertOptions{
			Enums: protodyn.EnumName,
			Longs: protodyn.LongString,
			Bytes: protodyn.BytesBase64,
			JSON:  true,
		},
		LogLevel: "info",
	}
}

// loadConfig reads a TOML config when present, overlaying the defaults.
// A missing file is not an error; everything has a sensible default.
func loadConfig(path string) (cliConfig, error) {
	cfg := defaultConfig()

	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load config: %w", err)
	}

	cfg.ProtoDirs = raw.ProtoDirs
	cfg.Schemas = raw.Schemas
	if meta.IsDefined("enums") {
		switch raw.Enums {
		case "ordinal":
			cfg.Convert.Enums = protodyn.EnumOrdinal
		case "name":
			cfg.Convert.Enums = protodyn.EnumName
		default:
			return cliConfig{}, fmt.Errorf("load config: invalid enums mode %q", raw.Enums)
		}
	}
	if meta.IsDefined("longs") {
		switch raw.Longs {
		case "native":
			cfg.Convert.Longs = protodyn.LongNative
		case "string":
			cfg.Convert.Longs = protodyn.LongString
		default:
			return cliConfig{}, fmt.Errorf("load config: invalid longs mode %q", raw.Longs)
		}
	}
	if meta.IsDefined("bytes") {
		switch raw.Bytes {
		case "buffer":
			cfg.Convert.Bytes = protodyn.BytesBuffer
		case "array":
			cfg.Convert.Bytes = protodyn.BytesArray
		case "base64":
			cfg.Convert.Bytes = protodyn.BytesBase64
		default:
			return cliConfig{}, fmt.Errorf("load config: invalid bytes mode %q", raw.Bytes)
		}
	}
	if meta.IsDefined("defaults") {
		cfg.Convert.Defaults = raw.Defaults
		cfg.Convert.Arrays = raw.Defaults
		cfg.Convert.Objects = raw.Defaults
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = raw.LogLevel
	}
	return cfg, nil
}
