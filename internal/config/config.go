package config

import (
	"fmt"
	"os"
	"strconv"

	"go-krea-generate/internal/models"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus" // Use logrus
)

// LoadConfig reads the configuration from the specified TOML path (defaulting
// to "config.toml"), then overlays credentials from a .env file and the
// process environment. Environment values win over the TOML file so that
// secrets never need to live in config.toml.
func LoadConfig(configFilePath, envFilePath string) (models.Config, error) {
	if configFilePath == "" {
		configFilePath = "config.toml" // Default path
	}
	var cfg models.Config
	if _, err := os.Stat(configFilePath); err == nil {
		if _, err := toml.DecodeFile(configFilePath, &cfg); err != nil {
			return models.Config{}, fmt.Errorf("error loading config file %s: %w", configFilePath, err)
		}
		log.Infof("Configuration loaded from %s", configFilePath)
	} else {
		log.Debugf("Config file %s not found, relying on environment", configFilePath)
	}

	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			log.WithError(err).Debugf("No .env file loaded from %s", envFilePath)
		}
	} else if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found in working directory")
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *models.Config) {
	if v := os.Getenv("KREA_API_KEY"); v != "" {
		cfg.ApiKey = v
	}
	if v := os.Getenv("KREA_BASE_URL"); v != "" {
		cfg.BaseUrl = v
	}
	if v := os.Getenv("FTP_HOST"); v != "" {
		cfg.FtpHost = v
	}
	if v := os.Getenv("FTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			log.Warnf("Ignoring invalid FTP_PORT value %q", v)
		} else {
			cfg.FtpPort = port
		}
	}
	if v := os.Getenv("FTP_USER"); v != "" {
		cfg.FtpUser = v
	}
	if v := os.Getenv("FTP_PASS"); v != "" {
		cfg.FtpPass = v
	}
	if v := os.Getenv("FTP_REMOTE_PATH"); v != "" {
		cfg.FtpRemotePath = v
	}
	if v := os.Getenv("FTP_PUBLIC_URL"); v != "" {
		cfg.FtpPublicUrl = v
	}
}

func applyDefaults(cfg *models.Config) {
	if cfg.OutputPath == "" {
		cfg.OutputPath = "images"
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = "."
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = "history.bleve"
	}
	if cfg.FtpPort <= 0 {
		cfg.FtpPort = 21
	}
	if cfg.FtpRemotePath == "" {
		cfg.FtpRemotePath = "/"
	}
	if cfg.ApiClientTimeoutSec <= 0 {
		cfg.ApiClientTimeoutSec = 30
	}
	if cfg.DownloadTimeoutSec <= 0 {
		cfg.DownloadTimeoutSec = 120
	}
}
