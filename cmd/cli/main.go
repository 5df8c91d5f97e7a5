package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/remitdesk/internal/adapter/apiclient"
)

type options struct {
	baseURL string
	token   string
	timeout time.Duration
	retries uint64
	verbose bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "remitdesk-cli",
		Short:         "remitdesk CLI tool",
		Long:          `A command line interface for previewing settlements and managing transaction groups through the remitdesk API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("REMITDESK_URL", "http://localhost:8080"), "Base URL of the remitdesk API (env REMITDESK_URL)")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("REMITDESK_TOKEN"), "Bearer token (env REMITDESK_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().Uint64Var(&opts.retries, "retries", 3, "Retries of failed read requests")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log requests to stderr")

	rootCmd.AddCommand(
		quoteCmd(),
		previewCmd(opts),
		commissionByDayCmd(opts),
		groupsCmd(opts),
		tokenCmd(),
	)

	return rootCmd
}

func (o *options) logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if o.verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func (o *options) client() (*apiclient.Client, error) {
	return apiclient.New(apiclient.Config{
		BaseURL:    o.baseURL,
		Token:      o.token,
		Timeout:    o.timeout,
		MaxRetries: o.retries,
		Logger:     o.logger(),
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
