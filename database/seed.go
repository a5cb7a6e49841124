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
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	commonSeedEnv   = "common"
	defaultSeedRoot = "configs/seed"
	unorderedSeed   = 999
)

var seedOrderPattern = regexp.MustCompile(`^(\d+)_(.+)\.json$`)

// Seeder discovers Extended JSON seed files and inserts their documents.
// Files live in <root>/common and <root>/environments/<env> and are named
// NN_<collection>.json, each holding an array of documents. Inserts are
// unordered and documents whose key already exists are skipped, so running
// the same seed again only adds what is missing.
type Seeder struct {
	db          *mongo.Database
	environment string
	rootPath    string
	logger      Logger
	history     []ExecutionResult
}

// SeedFile describes a seed file to be loaded.
type SeedFile struct {
	Path        string
	Name        string
	Collection  string
	Order       int
	Environment string
	ModTime     time.Time
}

// ExecutionResult contains the outcome of loading a single seed file.
// SkippedCount counts documents rejected as duplicate keys, which lets a seed
// with fixed identifiers run on every start.
type ExecutionResult struct {
	File          string
	Collection    string
	Success       bool
	Error         error
	Duration      time.Duration
	InsertedCount int64
	SkippedCount  int64
}

func NewSeeder(db *mongo.Database, environment string) *Seeder {
	return &Seeder{
		db:          db,
		environment: environment,
		rootPath:    defaultSeedRoot,
		logger:      GetLogger(),
	}
}

func (s *Seeder) SetRootPath(path string) {
	s.rootPath = path
}

func (s *Seeder) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Run loads every discovered file in order and stops at the first failure.
func (s *Seeder) Run(ctx context.Context) error {
	s.logger.Info("Starting data seeding", "environment", s.environment, "seed_path", s.rootPath)

	files, err := s.Files()
	if err != nil {
		return fmt.Errorf("failed to get seed files: %w", err)
	}
	if len(files) == 0 {
		s.logger.Info("No seed files found to load")
		return nil
	}

	for _, file := range files {
		result := s.loadFile(ctx, file)
		s.history = append(s.history, result)

		if !result.Success {
			s.logger.Error("Seed file failed", "file", result.File, "error", result.Error)
			return fmt.Errorf("seed file %s failed: %w", result.File, result.Error)
		}
		s.logger.Info("Seed file loaded",
			"file", result.File,
			"collection", result.Collection,
			"duration", result.Duration.String(),
			"inserted", result.InsertedCount,
		)
	}

	s.logger.Info("Data seeding completed", "total_files", len(files), "environment", s.environment)
	return nil
}

// History returns the results recorded by Run.
func (s *Seeder) History() []ExecutionResult {
	out := make([]ExecutionResult, len(s.history))
	copy(out, s.history)
	return out
}

// Files returns the seed files of the common directory followed by those of
// the current environment, each group sorted by numeric prefix.
func (s *Seeder) Files() ([]SeedFile, error) {
	var files []SeedFile

	commonPath := filepath.Join(s.rootPath, commonSeedEnv)
	if _, err := os.Stat(commonPath); err == nil {
		commonFiles, err := s.filesFromDir(commonPath, commonSeedEnv)
		if err != nil {
			return nil, fmt.Errorf("failed to get common seed files: %w", err)
		}
		files = append(files, commonFiles...)
	}

	if s.environment != "" {
		envPath := filepath.Join(s.rootPath, "environments", s.environment)
		if _, err := os.Stat(envPath); err == nil {
			envFiles, err := s.filesFromDir(envPath, s.environment)
			if err != nil {
				return nil, fmt.Errorf("failed to get environment seed files: %w", err)
			}
			files = append(files, envFiles...)
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Environment != files[j].Environment {
			return files[i].Environment == commonSeedEnv
		}
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

func (s *Seeder) filesFromDir(dir, environment string) ([]SeedFile, error) {
	var files []SeedFile

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		order, collection := parseSeedName(d.Name())
		files = append(files, SeedFile{
			Path:        path,
			Name:        d.Name(),
			Collection:  collection,
			Order:       order,
			Environment: environment,
			ModTime:     info.ModTime(),
		})
		return nil
	})
	return files, err
}

// parseSeedName splits "NN_collection.json" into its order and collection.
// Names without a numeric prefix sort last.
func parseSeedName(name string) (int, string) {
	if m := seedOrderPattern.FindStringSubmatch(name); len(m) == 3 {
		if order, err := strconv.Atoi(m[1]); err == nil {
			return order, m[2]
		}
	}
	return unorderedSeed, strings.TrimSuffix(name, filepath.Ext(name))
}

func (s *Seeder) loadFile(ctx context.Context, file SeedFile) ExecutionResult {
	start := time.Now()
	result := ExecutionResult{File: file.Path, Collection: file.Collection}

	content, err := os.ReadFile(file.Path)
	if err != nil {
		result.Error = fmt.Errorf("failed to read file: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	docs, err := s.decodeDocuments(content)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}
	if len(docs) == 0 {
		result.Success = true
		result.Duration = time.Since(start)
		return result
	}

	res, err := s.db.Collection(file.Collection).InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if res != nil {
		result.InsertedCount = int64(len(res.InsertedIDs))
	}
	switch skipped, dup := duplicateWrites(err); {
	case err == nil:
		result.Success = true
	case dup:
		result.SkippedCount = skipped
		result.InsertedCount -= skipped
		result.Success = true
	default:
		result.Error = err
	}
	result.Duration = time.Since(start)
	return result
}

// decodeDocuments renders content as a template over the environment and
// parses it as an Extended JSON array of documents.
func (s *Seeder) decodeDocuments(content []byte) ([]interface{}, error) {
	rendered, err := s.replaceEnvVariables(string(content))
	if err != nil {
		return nil, err
	}
	rendered = strings.TrimSpace(rendered)
	if rendered == "" {
		return nil, nil
	}

	var wrapper struct {
		Documents []bson.D `bson:"documents"`
	}
	if err := bson.UnmarshalExtJSON([]byte(`{"documents":`+rendered+`}`), false, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse documents: %w", err)
	}
	docs := make([]interface{}, len(wrapper.Documents))
	for i, d := range wrapper.Documents {
		docs[i] = d
	}
	return docs, nil
}

func (s *Seeder) replaceEnvVariables(content string) (string, error) {
	tmpl, err := template.New("seed").Option("missingkey=zero").Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	envVars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envVars[k] = v
		}
	}
	envVars["ENVIRONMENT"] = s.environment
	envVars["TIMESTAMP"] = time.Now().Format("2006-01-02 15:04:05")

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, envVars); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
