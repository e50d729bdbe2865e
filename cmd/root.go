package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/km-arc/go-registry/framework/app"
	"github.com/km-arc/go-registry/framework/builder"
	"github.com/km-arc/go-registry/framework/config"
)

var (
	version  = app.Version
	envFiles []string
	defsFile string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "registry",
	Short: "Hierarchical service registry",
	Long: `Build a tree of service containers from a definitions file and inspect it.

Configuration comes from REGISTRY_* environment variables (and .env files);
flags override them.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load(envFiles...)
		if defsFile != "" {
			cfg.Registry.Definitions = defsFile
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil,
		"dotenv files to load (default: .env)")
	rootCmd.PersistentFlags().StringVarP(&defsFile, "definitions", "d", "",
		"definitions file, yaml/json/toml (default: $REGISTRY_DEFINITIONS)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"debug | info | warn | error (default: $REGISTRY_LOG_LEVEL)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// newApplication builds the application and applies the definitions file.
func newApplication() (*app.Application, error) {
	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	if path := cfg.Registry.Definitions; path != "" {
		def, err := loadDefinitions(path)
		if err != nil {
			return nil, err
		}
		if err := a.Load(def); err != nil {
			return nil, err
		}
	}
	if err := a.Boot(); err != nil {
		return nil, err
	}
	return a, nil
}

// loadDefinitions reads a definitions file of any format viper knows.
// Service names commonly contain dots, so "::" is the key delimiter.
func loadDefinitions(path string) (*builder.Definition, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading definitions %s: %w", path, err)
	}
	var def builder.Definition
	if err := v.Unmarshal(&def); err != nil {
		return nil, fmt.Errorf("decoding definitions %s: %w", path, err)
	}
	return &def, nil
}
