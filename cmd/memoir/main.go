package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pbaille/memoir/internal/config"
	"github.com/pbaille/memoir/internal/logging"
	"github.com/pbaille/memoir/internal/metrics"
	"github.com/pbaille/memoir/internal/store"
	"github.com/pbaille/memoir/internal/stories"
)

var (
	cfg     *config.Config
	logger  *zap.Logger
	dbPath  string
	verbose bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "memoir",
		Short: "Life stories sorted into chapters and placed on a timeline",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			level := cfg.LogLevel
			if verbose {
				level = "debug"
			}
			logger, err = logging.New(level)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(tagsCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(reclassifyCmd())
	rootCmd.AddCommand(timelineCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(datesCmd())
	rootCmd.AddCommand(periodCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())

	return rootCmd
}

func getStore() (*store.Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(cfg.DBPath)
}

// withService opens the store and runs fn with a story service over it
func withService(fn func(*stories.Service) error) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(stories.New(s, logger, metrics.New(s, logger)))
}

// readText joins args, or reads stdin when there are none or the only arg is "-"
func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
