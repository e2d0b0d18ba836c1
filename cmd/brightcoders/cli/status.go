package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether the API server is up",
		Long:  "Query the liveness and readiness probes of a running server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, url)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Base URL of the server (default: from server.host and server.port)")

	return cmd
}

func runStatus(cmd *cobra.Command, base string) error {
	if base == "" {
		s, err := settings()
		if err != nil {
			return err
		}
		host := s.Server.Host
		if host == "" || host == "0.0.0.0" {
			host = "127.0.0.1"
		}
		base = fmt.Sprintf("http://%s:%d", host, s.Server.Port)
	}

	out := cmd.OutOrStdout()
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(base + "/healthz")
	if err != nil {
		fmt.Fprintf(out, "Server is not responding at %s\n", base)
		return nil
	}
	resp.Body.Close()
	fmt.Fprintf(out, "Server is running at %s\n", base)
	fmt.Fprintf(out, "  Health:  %d\n", resp.StatusCode)

	resp, err = client.Get(base + "/readyz")
	if err != nil {
		fmt.Fprintf(out, "  Ready:   unknown (%v)\n", err)
		return nil
	}
	defer resp.Body.Close()

	var ready struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ready); err != nil {
		fmt.Fprintf(out, "  Ready:   %d\n", resp.StatusCode)
		return nil
	}
	fmt.Fprintf(out, "  Ready:   %s\n", ready.Status)
	for name, state := range ready.Checks {
		fmt.Fprintf(out, "    %-10s %s\n", name, state)
	}
	return nil
}
