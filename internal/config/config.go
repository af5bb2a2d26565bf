// Package config reads runtime settings from the environment, optionally
// populated from a .env file. Command-line flags override these values.
package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration shared by all commands
type Config struct {
	DataDir     string
	Host        string
	Port        string
	CatalogPath string // optional YAML/JSON catalog; empty means the built-in seed
}

// Load reads TECHHUB_* variables, loading .env first if it exists
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	return Config{
		DataDir:     getEnv("TECHHUB_DATA_DIR", "./data"),
		Host:        getEnv("TECHHUB_HOST", "localhost"),
		Port:        getEnv("TECHHUB_PORT", "6894"),
		CatalogPath: os.Getenv("TECHHUB_CATALOG"),
	}
}

// DBPath is the SQLite catalog store inside the data directory
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "techhub.db")
}

// IndexPath is the bleve index directory inside the data directory
func (c Config) IndexPath() string {
	return filepath.Join(c.DataDir, "bleve")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
