package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
)

var (
	cfgFile    string
	envFile    string
	appVersion string

	// v holds the merged flags, environment, .env and yaml settings. It is
	// rebuilt for every command run.
	v *viper.Viper
)

// flagKeys maps command-line flags onto settings keys.
var flagKeys = map[string]string{
	"port":     "server.port",
	"host":     "server.host",
	"data-dir": "database.data_dir",
	"dsn":      "database.dsn",
	"driver":   "database.driver",
}

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brightcoders",
		Short: "Bright Coders academy API server",
		Long: `Bright Coders: the API behind the academy website.

Serves the admin sign-in (with optional email two-factor), step-up
verification, and the course, blog, testimonial and student registration
endpoints used by the site.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./brightcoders.yaml)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.PersistentFlags().String("data-dir", "", "data directory for the SQLite database (default: ~/.brightcoders)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

// initConfig loads .env, builds the settings viper and binds the flags of
// the command being run.
func initConfig(cmd *cobra.Command) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v = config.NewViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("brightcoders")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.brightcoders")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	return bindErr
}

// settings decodes the current configuration without validating it.
func settings() (*config.Settings, error) {
	return config.DecodeSettings(v)
}
