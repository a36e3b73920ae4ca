package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/candle-downloader/pkg/marketdata"
)

const (
	schemaName       = "download-config.json"
	sampleConfigName = "download-config.yaml"
)

// sampleConfig is written as a starting point for users.
func sampleConfig() marketdata.FileConfig {
	config := marketdata.FileConfig{Client: marketdata.DefaultClientConfig()}
	config.Client.TokenCachePath = "token.json"
	config.Client.SmartAPI.APIKey = "your-api-key"
	config.Client.SmartAPI.ClientCode = "your-client-code"
	config.Client.SmartAPI.Password = "your-pin"
	config.Client.SmartAPI.TOTPSecret = "your-totp-secret"
	config.Download = marketdata.DownloadConfig{
		Exchange:  "NSE",
		Symbol:    "SBIN",
		FromDate:  "01-01-2024",
		ToDate:    marketdata.Today,
		Intervals: []string{"15m", "1d"},
	}

	return config
}

func validatePaths(schemaPath, sampleConfigPath string) error {
	var problems []string

	if schemaPath == "" {
		problems = append(problems, "schema path cannot be empty")
	}

	if sampleConfigPath == "" {
		problems = append(problems, "sample config path cannot be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid paths: %s", strings.Join(problems, "; "))
	}

	return nil
}

func validateSchemaName(name string) error {
	if name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}

	if filepath.Ext(name) != ".json" {
		return fmt.Errorf("schema name %q must have .json extension", name)
	}

	return nil
}

func getSchemaReference(name string) string {
	return "# yaml-language-server: $schema=" + name + "\n"
}

// generateSchemaFile writes the config file schema to schemaPath, creating its directory.
func generateSchemaFile(schemaPath string) error {
	schemaJSON, err := marketdata.GetFileConfigSchema()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(schemaPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0o644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// generateSampleConfig writes config to samplePath unless the file already exists.
func generateSampleConfig(config marketdata.FileConfig, samplePath, schemaName string) error {
	if _, err := os.Stat(samplePath); err == nil {
		return nil
	}

	yamlBytes, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte(getSchemaReference(schemaName)), yamlBytes...)

	if err := os.WriteFile(samplePath, yamlBytes, 0o600); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	return nil
}

func run(dir string) error {
	schemaPath := filepath.Join(dir, schemaName)
	sampleConfigPath := filepath.Join(dir, sampleConfigName)

	if err := validatePaths(schemaPath, sampleConfigPath); err != nil {
		return err
	}

	if err := validateSchemaName(schemaName); err != nil {
		return err
	}

	if err := generateSchemaFile(schemaPath); err != nil {
		return err
	}

	if err := generateSampleConfig(sampleConfig(), sampleConfigPath, schemaName); err != nil {
		return err
	}

	log.Printf("Schema successfully generated at %s", schemaPath)

	return nil
}

func main() {
	if err := run("./config"); err != nil {
		log.Fatal(err)
	}
}
