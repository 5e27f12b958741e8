package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"darkroom/internal/config"
	"darkroom/internal/logging"
)

var (
	configPath string
	logLevel   string
	serverURL  string

	cfg    *config.Config
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "darkroom",
	Short: "darkroom - edit RAW photos on a rendering server",
	Long: "darkroom drives a RAW rendering server: it loads and edits photo settings, " +
		"keeps a preview up to date while you edit, and saves or exports the result.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations["skipConfigLoad"] == "true" {
			return nil
		}
		loaded, path, exists, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			loaded.Logging.Level = logLevel
		}
		if serverURL != "" {
			loaded.ServerURL = serverURL
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		cfg = loaded
		logger = logging.Init(cfg.Logging.Level, cfg.Logging.Format)
		logger.Debug().Str("config", path).Bool("exists", exists).Str("server", cfg.ServerURL).Msg("configuration loaded")
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default ~/.config/darkroom/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Editing server URL")
}
