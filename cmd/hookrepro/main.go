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

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tomoncle/hookrepro"
	"github.com/tomoncle/hookrepro/config"
	"github.com/tomoncle/hookrepro/database"
	"github.com/tomoncle/hookrepro/models"
	"github.com/tomoncle/hookrepro/scenario"
	"github.com/tomoncle/hookrepro/utils"
)

type flags struct {
	configPath string
	logLevel   string
	queryLog   bool
	deepEqual  bool
	seedDir    string
	dialect    string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "hookrepro",
		Short: "Reproduce an after-insert hook mutating the inserted record",
		Long: `hookrepro creates the Person, Animal, Movie and Person_Movie tables in a
fresh in-memory SQLite database, inserts one Person with insert-and-fetch,
looks it up by first name and checks what the after-insert hook did to the
returned record. It logs "success" when every expectation holds.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "YAML config file (optional)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().BoolVar(&f.queryLog, "query-log", false, "Print every SQL statement")
	cmd.Flags().BoolVar(&f.deepEqual, "deep-equal", false, "Also require the inserted and fetched records to be deeply equal")
	cmd.Flags().StringVar(&f.seedDir, "seed-dir", "", "Directory of NNN_name.sql files run after the schema is created")
	cmd.Flags().StringVar(&f.dialect, "dialect", "", "Database type: sqlite, postgres or mysql")
	return cmd
}

func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if cmd.Flags().Changed("query-log") {
		cfg.Log.QueryLog = f.queryLog
	}
	if cmd.Flags().Changed("deep-equal") {
		cfg.Scenario.DeepEqual = f.deepEqual
	}
	if cmd.Flags().Changed("seed-dir") {
		cfg.Database.DataInitConfig.Filepath = f.seedDir
	}
	if cmd.Flags().Changed("dialect") {
		cfg.Database.ConnectionConfig.Type = f.dialect
	}
	return cfg, nil
}

func run(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	utils.ConfigureLogLevel(cfg.Log.Level)
	utils.ConfigureConsoleLogFormat(cfg.Log.Format)
	log := database.GetLogger()

	report, err := reproduce(cmd.Context(), cfg, cmd.OutOrStdout())
	logReport(log, report)
	if err != nil {
		fields := []interface{}{"error", err}
		if is, kind := database.IsSqlError(err); is {
			fields = append(fields, "sql_error", kind.String())
		}
		log.Error("Reproduction failed", fields...)
		return err
	}
	log.Info("success", "run_id", report.RunID.String())
	return nil
}

// reproduce opens the database, runs the scenario and always closes the
// database again, also when opening it failed half way.
func reproduce(ctx context.Context, cfg *config.Config, out io.Writer) (report *scenario.Report, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	models.Register(database.DefaultRegistry())

	var w io.Writer
	if cfg.Log.QueryLog {
		w = out
	}
	recorder := database.NewQueryRecorder(w)

	defer func() {
		if cerr := database.CloseDB(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close database: %w", cerr)
		}
	}()
	if _, err := database.InitDB(ctx, &cfg.Database, recorder); err != nil {
		return nil, err
	}

	people := hookrepro.NewService[models.Person]()
	return scenario.NewRunner(people, nil, cfg.Scenario, recorder).Run(ctx)
}

func logReport(log database.Logger, report *scenario.Report) {
	if report == nil {
		return
	}
	for _, e := range report.Expectations {
		if e.Passed {
			log.Info("Expectation passed", "expectation", e.Name)
			continue
		}
		log.Warn("Expectation failed", "expectation", e.Name, "detail", e.Detail)
	}
	log.Debug("Run finished", "run_id", report.RunID.String(), "duration", report.Duration.String(),
		"queries", len(report.Queries))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
