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

package database

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

const unorderedSeedFile = 999

var seedOrderPattern = regexp.MustCompile(`^(\d+)_`)

// SeedManager executes the *.sql files of one directory against the db.
type SeedManager struct {
	db     *bun.DB
	dir    string
	logger Logger
}

// SeedFile describes a SQL file to be executed.
type SeedFile struct {
	Path  string
	Name  string
	Order int
}

// SeedResult contains the outcome of executing a single SQL file.
type SeedResult struct {
	File         string
	Statements   int
	RowsAffected int64
	Duration     time.Duration
}

// NewSeedManager creates a seeder for dir.
func NewSeedManager(db *bun.DB, dir string, logger Logger) *SeedManager {
	return &SeedManager{db: db, dir: dir, logger: logger}
}

// Files lists the *.sql files of the directory ordered by their numeric
// "NNN_" prefix, then by name. Files without a prefix run last.
func (s *SeedManager) Files() ([]SeedFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed directory %s: %w", s.dir, err)
	}

	var files []SeedFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			continue
		}
		files = append(files, SeedFile{
			Path:  filepath.Join(s.dir, e.Name()),
			Name:  e.Name(),
			Order: parseSeedOrder(e.Name()),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// Run executes every seed file, each in its own transaction, and stops at
// the first failing file.
func (s *SeedManager) Run(ctx context.Context) ([]SeedResult, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		if s.logger != nil {
			s.logger.Info("No seed files found", "dir", s.dir)
		}
		return nil, nil
	}

	results := make([]SeedResult, 0, len(files))
	for _, file := range files {
		result, err := s.executeFile(ctx, file)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("Seed file execution failed", "file", file.Name, "error", err)
			}
			return results, fmt.Errorf("seed file %s: %w", file.Name, err)
		}
		results = append(results, result)
		if s.logger != nil {
			s.logger.Info("Seed file executed", "file", file.Name, "statements", result.Statements,
				"rows_affected", result.RowsAffected, "duration", result.Duration.String())
		}
	}
	return results, nil
}

func (s *SeedManager) executeFile(ctx context.Context, file SeedFile) (SeedResult, error) {
	start := time.Now()
	result := SeedResult{File: file.Path}

	content, err := os.ReadFile(file.Path)
	if err != nil {
		return result, fmt.Errorf("failed to read file: %w", err)
	}

	statements, err := SplitSQLStatements(string(content))
	if err != nil {
		return result, fmt.Errorf("failed to split file: %w", err)
	}
	result.Statements = len(statements)
	if len(statements) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, stmt := range statements {
			res, execErr := tx.ExecContext(ctx, stmt)
			if execErr != nil {
				return fmt.Errorf("failed to execute SQL statement: %s, error: %w", stmt, execErr)
			}
			rows, _ := res.RowsAffected()
			result.RowsAffected += rows
		}
		return nil
	})
	result.Duration = time.Since(start)
	return result, err
}

func parseSeedOrder(filename string) int {
	matches := seedOrderPattern.FindStringSubmatch(filename)
	if len(matches) > 1 {
		if order, err := strconv.Atoi(matches[1]); err == nil {
			return order
		}
	}
	return unorderedSeedFile
}

// maxSeedLine bounds a single line of a seed script, such as a bulk INSERT.
const maxSeedLine = 16 << 20

// SplitSQLStatements splits a script into statements on lines ending with
// ';'. Blank lines and "--" comment lines are dropped; a trailing statement
// without ';' is kept. Lines longer than 16 MiB are an error.
func SplitSQLStatements(content string) ([]string, error) {
	var statements []string
	var current strings.Builder

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxSeedLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		current.WriteString(line)
		current.WriteString(" ")

		if strings.HasSuffix(line, ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements, nil
}
