package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriChat/internal/app"
	"github.com/Rorical/RoriChat/internal/config"
	"github.com/Rorical/RoriChat/internal/logging"
)

var (
	configPath  string
	profileFlag string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "rorichat",
	Short: "Chat with a local language model in the terminal",
	Long:  `RoriChat is a terminal chat client for language models served on your own machine.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if profileFlag != "" {
			if err := cfg.UseProfile(profileFlag); err != nil {
				log.Fatalf("%v", err)
			}
		}
		if err := runChat(cfg); err != nil {
			log.Fatalf("Application error: %v", err)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution error: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (.json, .yaml or .toml); default ~/.rorichat/config.json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "file log level (debug, info, warn, error)")
	rootCmd.Flags().StringVarP(&profileFlag, "profile", "p", "", "profile to use for this session only")

	rootCmd.AddCommand(profileCmd)
}

// loadConfig honours --config and --log-level.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func runChat(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.Setup(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	defer logger.Close()

	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer application.Stop()

	return application.Start()
}
