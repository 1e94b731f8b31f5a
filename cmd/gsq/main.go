package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gsquant/marquee-go/internal/cache"
	"github.com/gsquant/marquee-go/internal/config"
	"github.com/gsquant/marquee-go/internal/session"
)

const (
	appName = "gsq"
	version = "v1.0.0"
)

var (
	flagConfig  string
	flagEnv     string
	flagToken   string
	flagVerbose bool
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Marquee workspace toolkit",
		Version: version,
		Long: `gsq manages Marquee dashboard workspaces from the command line:
fetch and push workspace definitions, inspect their grid layout, run
report jobs and preview a workspace locally before publishing it.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if flagVerbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "", "Marquee environment (prod|qa|dev)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "API bearer token (defaults to MARQUEE_TOKEN)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newWorkspaceCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newPreviewCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagEnv != "" {
		cfg.Environment = flagEnv
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func newSession(cfg config.Config) (*session.Session, error) {
	token := flagToken
	if token == "" {
		token = os.Getenv("MARQUEE_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("no API token: pass --token or set MARQUEE_TOKEN")
	}
	sc := cfg.NewSessionConfig(token)
	sc.Cache = cache.NewAuto(cfg.Cache.RedisAddr)
	return session.New(sc), nil
}
