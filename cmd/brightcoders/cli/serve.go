package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
	"github.com/brightcoderske/Bright-Coders-Website/internal/mailer"
	"github.com/brightcoderske/Bright-Coders-Website/internal/metrics"
	"github.com/brightcoderske/Bright-Coders-Website/internal/server"
	"github.com/brightcoderske/Bright-Coders-Website/internal/storage"
)

const banner = `
 ___      _      _   _      ___         _
| _ )_ _ (_)__ _| |_| |_   / __|___  __| |___ _ _ ___
| _ \ '_|| / _' | ' \  _| | (__/ _ \/ _' / -_) '_(_-<
|___/_|  |_\__, |_||_\__|  \___\___/\__,_\___|_| /__/
           |___/
`

func newServeCmd() *cobra.Command {
	var dev bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP server that backs the Bright Coders website and admin dashboard.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dev)
		},
	}

	cmd.Flags().IntP("port", "p", 5000, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().String("driver", "", "database driver: pgx or sqlite (default: pgx when a DSN is set)")
	cmd.Flags().String("dsn", "", "Postgres connection string")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging)")

	return cmd
}

func runServe(dev bool) error {
	s, err := config.LoadSettings(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Print(banner)
	fmt.Println()

	logger := newLogger(os.Stderr, s.Log, dev)
	ctx := context.Background()

	// 1. Database
	store, err := openStore(s)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()
	logger.Info("database ready", "database", describeDatabase(s))

	n, err := store.CountUsers(ctx)
	if err != nil {
		logger.Warn("failed to check for admin", "error", err)
	} else if n == 0 {
		logger.Warn("no admin account found - register through the site or run: brightcoders admin create")
	}

	// 2. Uploads and mail
	files, uploadsDir, err := newStorage(ctx, s)
	if err != nil {
		return err
	}
	logger.Info("upload storage ready", "backend", s.Uploads.Backend)

	mail := mailer.New(s.Mail.ResendAPIKey, s.Mail.From, logger)
	if s.Mail.ResendAPIKey == "" {
		logger.Warn("mail.resend_api_key not set - emails will be logged, not sent")
	}

	// 3. HTTP server
	srvCfg := server.DefaultConfig()
	srvCfg.Host = s.Server.Host
	srvCfg.Port = s.Server.Port
	srvCfg.ShutdownTimeout = s.Server.ShutdownTimeout
	srvCfg.CORSOrigins = s.Server.CORSOrigins
	srvCfg.MaxBodySize = s.Server.MaxBodySize
	srvCfg.Production = s.IsProduction()
	srvCfg.JWTSecret = s.Auth.JWTSecret
	srvCfg.SessionTTL = s.Auth.SessionTTL
	srvCfg.AdminEmail = s.Mail.AdminEmail
	srvCfg.AlertsFrom = s.Mail.AlertsFrom
	srvCfg.UploadsDir = uploadsDir
	srvCfg.TrustProxy = s.Server.TrustProxy
	srvCfg.MetricsToken = s.Metrics.Token

	srv := server.New(srvCfg, server.Deps{
		Store:   store,
		Mailer:  mail,
		Storage: files,
		Metrics: metrics.New(),
	}, logger)

	fmt.Printf("→ Bright Coders API %s (%s)\n", versionString(), s.Env)
	fmt.Printf("→ Listening on http://%s:%d\n", s.Server.Host, s.Server.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", s.Server.Host, s.Server.Port)
	if s.Metrics.Token != "" {
		fmt.Printf("→ Metrics:    http://%s:%d/metrics (bearer token)\n", s.Server.Host, s.Server.Port)
	}
	fmt.Println()

	return srv.ListenAndServe()
}

// newStorage builds the upload backend. For local storage it also returns
// the directory the server should serve at /uploads.
func newStorage(ctx context.Context, s *config.Settings) (storage.Storage, string, error) {
	if s.Uploads.Backend == "s3" {
		st, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:          s.Uploads.S3.Bucket,
			Region:          s.Uploads.S3.Region,
			Endpoint:        s.Uploads.S3.Endpoint,
			AccessKeyID:     s.Uploads.S3.AccessKeyID,
			SecretAccessKey: s.Uploads.S3.SecretAccessKey,
			PublicBaseURL:   s.Uploads.PublicBaseURL,
		})
		if err != nil {
			return nil, "", fmt.Errorf("init s3 storage: %w", err)
		}
		return st, "", nil
	}

	st, err := storage.NewLocal(s.Uploads.Dir, s.Uploads.PublicBaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("init local storage: %w", err)
	}
	return st, s.Uploads.Dir, nil
}
