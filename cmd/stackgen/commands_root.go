package main

import (
	"github.com/rs/zerolog/log"
	"github.com/sourceplane/stackgen/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configFile   string
	settings     *Config
	longFormat   bool
	viewManifest string
	debugMode    bool
	applyExecute bool
)

var rootCmd = &cobra.Command{
	Use:           "stackgen",
	Short:         "Resolver engine: Schema + Configuration → Manifest",
	Long:          "stackgen validates a service configuration against its schema, resolves the active services and their startup order, and renders every deployment artifact into a manifest",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configFile, cmd)
		if err != nil {
			return err
		}
		settings = cfg

		logger.Setup(cfg.Log.Level, cfg.Log.Format)
		log.Debug().Str("schema", cfg.Schema).Str("config", cfg.Config).Msg("Configuration loaded")
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config-file", "", "stackgen settings file (default: ./stackgen.yaml or $HOME/.config/stackgen/stackgen.yaml)")
	flags.StringP("schema", "s", "schema.yaml", "Schema file path")
	flags.StringP("config", "c", "", "User configuration file path (empty: schema defaults only)")
	flags.String("log-level", "info", "Log level (debug/info/warn/error)")
	flags.String("log-format", "console", "Log format (console/json)")

	registerValidateCommand(rootCmd)
	registerResolveCommand(rootCmd)
	registerApplyCommand(rootCmd)
	registerServicesCommand(rootCmd)
	registerDebugCommand(rootCmd)
}
