// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the papercast CLI.
// Implements: prd001-search, prd002-ingestion, prd003-classification,
//             prd004-summaries, prd005-synthesis, prd006-audio,
//             prd007-episodes (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/papercast/internal/logging"
	"github.com/pdiddy/papercast/internal/secrets"
)

// Build metadata, set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// defaultUserAgent identifies papercast to the public academic APIs.
const defaultUserAgent = "papercast/0.1"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Store

// logger carries structured stage diagnostics on stderr. User-facing
// progress lines go to stdout through each batch operation's writer.
var logger = zap.NewNop()

// rootCmd is the base command for the papercast CLI.
var rootCmd = &cobra.Command{
	Use:   "papercast",
	Short: "Turn research papers into topical podcast episodes",
	Long: `papercast builds podcast episodes from academic papers. It searches the
public paper APIs, ingests the results, classifies each paper against a fixed
topic list, summarizes, synthesizes one narrated segment per topic, and
renders the segments to audio.

Each pipeline stage is reachable on its own (search, audio) and the run
command composes the whole session into one episode directory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		lg, err := logging.New(viper.GetString("log.level"), viper.GetString("log.format"))
		if err != nil {
			return err
		}
		logger = lg
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./papercast.yaml or ~/.config/papercast/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("log-format", "console", "log encoding: console or json")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("papercast")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "papercast"))
		}
	}

	viper.SetEnvPrefix("PAPERCAST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	setConfigDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setConfigDefaults registers the default value for every papercast.yaml
// key. Config file values and PAPERCAST_* environment variables override
// them; per-run flags override both.
func setConfigDefaults() {
	viper.SetDefault("http.user_agent", defaultUserAgent)

	viper.SetDefault("search.timeout", 30*time.Second)
	viper.SetDefault("search.max_results", 20)
	viper.SetDefault("search.arxiv", true)
	viper.SetDefault("search.semantic_scholar", true)
	viper.SetDefault("search.openalex", true)
	viper.SetDefault("search.backend_delay", 1*time.Second)
	viper.SetDefault("search.recency_window", 2*365*24*time.Hour)

	viper.SetDefault("ingest.timeout", 60*time.Second)
	viper.SetDefault("ingest.delay", 1*time.Second)
	viper.SetDefault("ingest.work_dir", "papers")
	viper.SetDefault("ingest.max_pdf_bytes", int64(50<<20))

	viper.SetDefault("llm.provider", "anthropic")
	viper.SetDefault("llm.model", "claude-sonnet-4-5")
	viper.SetDefault("llm.max_retries", 3)
	viper.SetDefault("llm.requests_per_minute", 0)

	viper.SetDefault("classify.workers", 4)
	viper.SetDefault("classify.max_input_chars", 2000)

	viper.SetDefault("summary.workers", 4)
	viper.SetDefault("summary.max_input_chars", 4000)

	viper.SetDefault("synthesis.max_input_chars", 6000)
	viper.SetDefault("synthesis.citations", "apa")

	viper.SetDefault("audio.timeout", 120*time.Second)
	viper.SetDefault("audio.model", "tts-1")
	viper.SetDefault("audio.voice", "alloy")
	viper.SetDefault("audio.format", "mp3")
	viper.SetDefault("audio.dir", "output/audio")

	viper.SetDefault("output.dir", "output/episodes")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
