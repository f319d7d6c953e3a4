package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/papercast/internal/httputil"
	"github.com/pdiddy/papercast/internal/search"
	"github.com/pdiddy/papercast/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search academic databases for papers",
	Long: `Search queries arXiv, Semantic Scholar, and OpenAlex concurrently,
merges duplicate listings, and prints the ranked results. A free-text query
can be combined with structured filters (--author, --keyword, --from, --to).

Use -o to save the run to a results file; a reviewed results file feeds
papercast run --results without re-querying the APIs.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("author", "", "filter by author name")
	searchCmd.Flags().StringSlice("keyword", nil, "keyword filter (repeatable)")
	searchCmd.Flags().String("from", "", "earliest publication date (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "latest publication date (YYYY-MM-DD)")
	searchCmd.Flags().Int("max-results", 0, "maximum results after merging (default 20)")
	searchCmd.Flags().String("format", "table", "output format: table, json, or csl")
	searchCmd.Flags().StringP("output", "o", "", "save results to a YAML file for papercast run --results")
	searchCmd.Flags().Bool("recency-bias", false, "boost papers published inside the recency window")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, err := queryFromFlags(cmd, args)
	if err != nil {
		return err
	}

	cfg := searchConfig()
	if maxResults, _ := cmd.Flags().GetInt("max-results"); maxResults > 0 {
		cfg.MaxResults = maxResults
	}
	recencyBias, _ := cmd.Flags().GetBool("recency-bias")

	// Warnings go to stderr so json and csl output stays parseable.
	out, err := search.Search(cmd.Context(), query, searchBackends(cfg), cfg, recencyBias, os.Stderr)
	if err != nil {
		return err
	}
	logger.Info("search finished",
		zap.Int("results", len(out.Results)),
		zap.Int("duplicates_removed", out.DupsRemoved),
		zap.Int("backend_errors", len(out.BackendErrors)))

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table":
		search.FormatTable(out, os.Stdout)
	case "json":
		if err := search.FormatJSON(out, os.Stdout); err != nil {
			return err
		}
	case "csl":
		if err := search.FormatCSL(out, os.Stdout); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q: use table, json, or csl", format)
	}

	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		if err := search.WriteResultsFile(outPath, query, cfg, recencyBias, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d result(s) to %s\n", len(out.Results), outPath)
	}
	return nil
}

// queryFromFlags assembles the search query from positional free text and
// the structured filter flags. Date parsing and the non-empty check come
// with QueryParams.ToQuery.
func queryFromFlags(cmd *cobra.Command, args []string) (search.Query, error) {
	author, _ := cmd.Flags().GetString("author")
	keywords, _ := cmd.Flags().GetStringSlice("keyword")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	params := search.QueryParams{
		FreeText: strings.Join(args, " "),
		Author:   author,
		Keywords: keywords,
		DateFrom: from,
		DateTo:   to,
	}
	return params.ToQuery()
}

// searchConfig builds the search stage configuration from viper and the
// loaded secrets.
func searchConfig() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("search.timeout"),
			UserAgent: viper.GetString("http.user_agent"),
		},
		MaxResults:            viper.GetInt("search.max_results"),
		EnableArxiv:           viper.GetBool("search.arxiv"),
		EnableSemanticScholar: viper.GetBool("search.semantic_scholar"),
		EnableOpenAlex:        viper.GetBool("search.openalex"),
		SemanticScholarAPIKey: loadedSecrets.Default("semantic-scholar-api-key", viper.GetString("search.semantic_scholar_api_key")),
		OpenAlexEmail:         loadedSecrets.Default("openalex-email", viper.GetString("search.openalex_email")),
		InterBackendDelay:     viper.GetDuration("search.backend_delay"),
		RecencyBiasWindow:     viper.GetDuration("search.recency_window"),
	}
}

// searchBackends builds the enabled backend set. Unauthenticated Semantic
// Scholar access is limited to about one request per second, so a limiter
// is attached when no API key is configured.
func searchBackends(cfg types.SearchConfig) []search.Backend {
	client := httputil.NewClient(cfg.Timeout)

	var backends []search.Backend
	if cfg.EnableArxiv {
		backends = append(backends, &search.ArxivBackend{Client: client})
	}
	if cfg.EnableSemanticScholar {
		b := &search.SemanticScholarBackend{Client: client, APIKey: cfg.SemanticScholarAPIKey}
		if b.APIKey == "" {
			b.Limiter = rate.NewLimiter(rate.Every(time.Second), 1)
		}
		backends = append(backends, b)
	}
	if cfg.EnableOpenAlex {
		backends = append(backends, &search.OpenAlexBackend{Client: client, Email: cfg.OpenAlexEmail})
	}
	return backends
}
