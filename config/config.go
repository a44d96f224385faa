/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config assembles the application configuration from defaults, an
// optional .env file, an optional YAML file and REPRO_* variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/tomoncle/hookrepro/database"
	"github.com/tomoncle/hookrepro/scenario"
	"github.com/tomoncle/hookrepro/utils"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"` // text or json
	QueryLog bool   `yaml:"query_log"`
}

type Config struct {
	Database database.Config  `yaml:"database"`
	Log      LogConfig        `yaml:"log"`
	Scenario scenario.Options `yaml:"scenario"`
}

// Default returns the zero-argument configuration: in-memory SQLite with
// tables recreated on startup and the default scenario.
func Default() *Config {
	return &Config{
		Database: *database.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Scenario: scenario.DefaultOptions(),
	}
}

// Load builds the configuration. Values from path override the defaults and
// REPRO_* variables override both. An empty path skips the file; a missing
// .env file is ignored.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DefaultEnvFile, err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Log.Level = utils.EnvDefaultString("REPRO_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = utils.EnvDefaultString("REPRO_LOG_FORMAT", cfg.Log.Format)
	cfg.Log.QueryLog = utils.EnvDefaultBool("REPRO_QUERY_LOG", cfg.Log.QueryLog)
	cfg.Scenario.FirstName = utils.EnvDefaultString("REPRO_FIRST_NAME", cfg.Scenario.FirstName)
	cfg.Scenario.LastName = utils.EnvDefaultString("REPRO_LAST_NAME", cfg.Scenario.LastName)
	cfg.Scenario.DeepEqual = utils.EnvDefaultBool("REPRO_DEEP_EQUAL", cfg.Scenario.DeepEqual)
	cfg.Database.DataInitConfig.Filepath = utils.EnvDefaultString("REPRO_SEED_DIR", cfg.Database.DataInitConfig.Filepath)
}
