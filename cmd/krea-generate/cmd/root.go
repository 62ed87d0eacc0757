package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-krea-generate/internal/api"
	"go-krea-generate/internal/config"
	"go-krea-generate/internal/downloader"
	"go-krea-generate/internal/history"
	"go-krea-generate/internal/models"
	"go-krea-generate/internal/operations"
	"go-krea-generate/internal/uploader"
)

// cfgFile holds the path to the config file specified by the user
var cfgFile string

// envFile holds the path to the optional .env file
var envFile string

// logApiFlag holds the value of the --log-api flag
var logApiFlag bool

// outputDirFlag holds the value of the --output-dir flag
var outputDirFlag string

// logLevelFlag holds the value of the --log-level flag
var logLevelFlag string

// globalConfig holds the loaded configuration
var globalConfig models.Config

// globalHttpTransport holds the globally configured HTTP transport (base or logging-wrapped)
var globalHttpTransport http.RoundTripper

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "krea-generate",
	Short: "Generate, edit, and upscale images through the Krea API",
	Long: `krea-generate drives the Krea image service from the command line:
text-to-image generation, image editing, and two upscaling engines.
Every result is saved under a dated folder and recorded in a local
history log so operations can chain on the last image.`,
	PersistentPreRunE: loadGlobalConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()

	// Close before any os.Exit so the api.log buffer always lands on disk.
	closeLoggingTransport()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func closeLoggingTransport() {
	if loggingTransport, ok := globalHttpTransport.(*api.LoggingTransport); ok && loggingTransport != nil {
		if err := loggingTransport.Close(); err != nil {
			log.WithError(err).Error("Error closing API log file")
		}
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.toml", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Env file with KREA_API_KEY and FTP credentials")
	rootCmd.PersistentFlags().BoolVar(&logApiFlag, "log-api", false, "Log API requests/responses to api.log (overrides config)")
	rootCmd.PersistentFlags().StringVar(&outputDirFlag, "output-dir", "", "Directory to save images (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "Log level (debug, info, warn, error)")
}

// loadGlobalConfig loads the configuration, applies flag overrides, and sets
// up the global HTTP transport based on logging settings.
func loadGlobalConfig(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(logLevelFlag)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", logLevelFlag)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	globalConfig, err = config.LoadConfig(cfgFile, envFile)
	if err != nil {
		// Commands check the fields they need; a missing config file is
		// fine when the environment carries the credentials.
		log.WithError(err).Warnf("Failed to load configuration from %s", cfgFile)
	}

	// Feed the same file to viper so bound keys (generate.model,
	// upscale.engine, ...) can come from config.toml as well as flags.
	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("toml")
	if err := viper.ReadInConfig(); err != nil {
		log.WithError(err).Debugf("No viper config loaded from %s", cfgFile)
	}

	if cmd.Flags().Changed("log-api") {
		globalConfig.LogApiRequests = logApiFlag
	}
	if cmd.Flags().Changed("output-dir") && outputDirFlag != "" {
		globalConfig.OutputPath = outputDirFlag
	}

	globalHttpTransport = http.DefaultTransport
	if globalConfig.LogApiRequests {
		logFilePath := "api.log"
		if globalConfig.HistoryPath != "" {
			if _, statErr := os.Stat(globalConfig.HistoryPath); statErr == nil {
				logFilePath = filepath.Join(globalConfig.HistoryPath, logFilePath)
			}
		}
		log.Infof("API logging to file: %s", logFilePath)
		loggingTransport, err := api.NewLoggingTransport(http.DefaultTransport, logFilePath)
		if err != nil {
			log.WithError(err).Error("Failed to initialize API logging transport, logging disabled.")
		} else {
			globalHttpTransport = loggingTransport
		}
	}

	return nil
}

// openStore opens the provenance store at the configured history location.
func openStore() (*history.Store, error) {
	indexPath := globalConfig.IndexPath
	if indexPath != "" && !filepath.IsAbs(indexPath) {
		indexPath = filepath.Join(globalConfig.HistoryPath, indexPath)
	}
	return history.Open(globalConfig.HistoryPath, indexPath)
}

// newRunner wires the collaborators for one invocation. The caller owns the
// returned store and must close it.
func newRunner() (*operations.Runner, *history.Store, error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history store: %w", err)
	}

	timeout := time.Duration(globalConfig.ApiClientTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	apiClient := api.NewClient(globalConfig, &http.Client{
		Timeout:   timeout,
		Transport: globalHttpTransport,
	})

	downloadTimeout := time.Duration(globalConfig.DownloadTimeoutSec) * time.Second
	if downloadTimeout <= 0 {
		downloadTimeout = 120 * time.Second
	}
	materializer := downloader.NewMaterializer(&http.Client{
		Timeout:   downloadTimeout,
		Transport: globalHttpTransport,
	}, globalConfig.OutputPath)

	runner := &operations.Runner{
		Client:       apiClient,
		Materializer: materializer,
		Store:        store,
		Resolver:     &uploader.Resolver{Uploader: uploader.NewUploader(globalConfig)},
	}
	return runner, store, nil
}
