package config

import (
	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Blob    BlobConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type BlobConfig struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server:  ServerConfig{Port: 5000},
		Storage: StorageConfig{DataDir: defaultDataDir()},
		Blob:    BlobConfig{Region: "us-east-1"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/jobtrack/config.json, then applies JOBTRACK_* environment
// overrides. A .env file in the working directory is loaded first so local
// setups can keep credentials out of the shell profile. Secrets (AWS keys)
// are environment-only.
func Load() (Config, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()
	return loadWith(newFileBackend())
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
