package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage server configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default brightcoders.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	cmd.Flags().StringVar(&path, "path", "brightcoders.yaml", "Where to write the file")

	return cmd
}

func runConfigInit(cmd *cobra.Command, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := config.WriteSettingsTemplate(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", path)
	fmt.Fprintln(out, "Set auth.jwt_secret (or JWT_SECRET), then run 'brightcoders serve'.")
	return nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, asYAML)
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as YAML")

	return cmd
}

func runConfigShow(cmd *cobra.Command, asYAML bool) error {
	s, err := settings()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if asYAML {
		return yaml.NewEncoder(out).Encode(s.Masked())
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		fmt.Fprintf(out, "Config file: %s\n", configFile)
	} else {
		fmt.Fprintln(out, "Config file: (none found, using defaults and environment)")
	}
	fmt.Fprintln(out)

	flat := config.Flatten(s.Masked())
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %v\n", k, flat[k])
	}

	if err := s.Validate(); err != nil {
		fmt.Fprintf(out, "\nProblems:\n  %v\n", err)
	}
	return nil
}
