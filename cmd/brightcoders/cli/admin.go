package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
	"github.com/brightcoderske/Bright-Coders-Website/internal/mailer"
	"github.com/brightcoderske/Bright-Coders-Website/internal/service"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the admin account",
		Long:  "Create or inspect the single administrator account that signs in to the dashboard.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the admin account",
		Example: `  brightcoders admin create --email admin@brightcoders.co.ke --name "Jane Doe" --password secret123
  brightcoders admin create --email admin@brightcoders.co.ke --name "Jane Doe"  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(cmd, email, password, name)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Admin full name (required)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runAdminCreate(cmd *cobra.Command, email, password, name string) error {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %q", email)
	}

	// Prompt for password if not provided
	if password == "" {
		var err error
		if password, err = promptPassword(); err != nil {
			return err
		}
	}

	return withStore(func(store *config.Store) error {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		auth := service.NewAuthService(store, mailer.NewLogSender(logger), nil, logger, "", 0)

		u, err := auth.Register(context.Background(), service.RegisterInput{
			FullName: name,
			Email:    email,
			Password: password,
		})
		switch {
		case errors.Is(err, service.ErrRegistrationClosed):
			return fmt.Errorf("an admin account already exists; only one is allowed")
		case errors.Is(err, service.ErrWeakPassword):
			return fmt.Errorf("password must be at least %d characters", service.MinPasswordLength)
		case err != nil:
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created admin %q (id %d)\n", u.Email, u.ID)
		return nil
	})
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Println()

	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(cmd *cobra.Command, jsonOutput bool) error {
	return withStore(func(store *config.Store) error {
		users, err := store.ListUsers(context.Background())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(users)
		}

		if len(users) == 0 {
			fmt.Fprintln(out, "No admin account yet. Use 'brightcoders admin create' to create one.")
			return nil
		}

		fmt.Fprintf(out, "%-4s %-30s %-24s %-5s %-20s\n", "ID", "EMAIL", "NAME", "2FA", "LAST LOGIN")
		fmt.Fprintf(out, "%-4s %-30s %-24s %-5s %-20s\n", "--", "-----", "----", "---", "----------")
		for _, u := range users {
			twoFA := "off"
			if u.TwoFactorEnabled {
				twoFA = "on"
			}
			lastLogin := "never"
			if u.LastLoginAt != nil {
				lastLogin = u.LastLoginAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(out, "%-4d %-30s %-24s %-5s %-20s\n", u.ID, u.Email, u.FullName, twoFA, lastLogin)
		}
		return nil
	})
}
