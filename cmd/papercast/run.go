// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/papercast/internal/audio"
	"github.com/pdiddy/papercast/internal/httputil"
	"github.com/pdiddy/papercast/internal/ingest"
	"github.com/pdiddy/papercast/internal/llm"
	"github.com/pdiddy/papercast/internal/search"
	"github.com/pdiddy/papercast/internal/session"
	"github.com/pdiddy/papercast/internal/summary"
	"github.com/pdiddy/papercast/internal/synthesis"
	"github.com/pdiddy/papercast/internal/topics"
	"github.com/pdiddy/papercast/pkg/types"
)

// corpusFileName is where the run command saves the ingested corpus inside
// the work directory, for later --papers runs.
const corpusFileName = "corpus.yaml"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build one podcast episode end to end",
	Long: `Run drives a full papercast session: assemble a paper corpus, classify
each paper against the episode topics, summarize, synthesize one segment per
topic, render the segments to audio, and write the episode directory.

The corpus comes from exactly one source: --query searches the academic APIs
and ingests the results, --results ingests a saved search file, and --papers
loads an already-ingested corpus file. Topics come from a topics YAML file
(--topics) or repeated --topic flags.

Per-item failures are reported and skipped; the command exits non-zero when
any stage had failures, after the episode directory is written.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("query", "", "search the academic APIs and ingest the results")
	runCmd.Flags().String("results", "", "ingest a saved search results file")
	runCmd.Flags().String("papers", "", "load an already-ingested corpus file")
	runCmd.Flags().String("topics", "", "episode topics YAML file")
	runCmd.Flags().StringSlice("topic", nil, "episode topic label (repeatable)")
	runCmd.Flags().Int("max-results", 0, "maximum search results to ingest with --query (default 20)")
	runCmd.Flags().Bool("abstract-only", false, "skip PDF download, ingest from search metadata alone")
	runCmd.Flags().Bool("skip-audio", false, "stop before audio rendering")
	runCmd.Flags().String("output", "", "episode base directory (default output/episodes)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	topicList, err := episodeTopics(cmd)
	if err != nil {
		return err
	}

	papers, ingestFailed, err := corpusPapers(ctx, cmd)
	if err != nil {
		return err
	}
	var failures []string
	if ingestFailed > 0 {
		failures = append(failures, fmt.Sprintf("%d paper(s) failed ingestion", ingestFailed))
	}

	client, err := llm.New(llmConfig())
	if err != nil {
		return err
	}
	// Mirrored listings can slip past deduplication; identical prompts
	// then hit the cache instead of the provider.
	client = llm.NewCached(client)

	sess := session.New(topicList)
	if err := sess.AddPapers(papers...); err != nil {
		return err
	}
	logger.Info("session started",
		zap.String("episode", sess.ID()),
		zap.Int("papers", sess.Len()),
		zap.Int("topics", topicList.Len()))

	fmt.Printf("\nClassifying %d paper(s) into %d topic(s)\n", sess.Len(), topicList.Len())
	classifier := topics.NewClassifier(client, classifyConfig(), topicList)
	cs := classifier.ClassifyBatch(ctx, sess.Papers(), os.Stdout)
	if cs.HasFailures() {
		failures = append(failures, fmt.Sprintf("%d paper(s) failed classification", cs.Failed))
	}

	fmt.Printf("\nSummarizing %d paper(s)\n", sess.Len())
	summarizer := summary.NewSummarizer(client, summaryConfig())
	ss := summarizer.SummarizeBatch(ctx, sess.Papers(), os.Stdout)
	if ss.HasFailures() {
		failures = append(failures, fmt.Sprintf("%d paper(s) failed summarization", ss.Failed))
	}

	// Grouping runs only after every classification worker has joined.
	sess.Regroup()
	groups := sess.Groups()
	if unclassified := sess.Unclassified(); len(unclassified) > 0 {
		logger.Warn("papers left unclassified", zap.Int("count", len(unclassified)))
	}

	fmt.Printf("\nSynthesizing %d topic segment(s)\n", len(groups))
	synthesizer := synthesis.NewSynthesizer(client, synthesisConfig())
	ys := synthesizer.SynthesizeAll(ctx, groups, sess.Papers(), os.Stdout)
	if ys.HasFailures() {
		failures = append(failures, fmt.Sprintf("%d topic(s) failed synthesis", ys.Failed))
	}

	var audioFiles map[string]string
	if skipAudio, _ := cmd.Flags().GetBool("skip-audio"); !skipAudio {
		fmt.Printf("\nRendering audio for %d topic segment(s)\n", len(groups))
		renderer := audio.NewRenderer(audioConfig())
		ar := renderer.RenderBatch(ctx, groups, os.Stdout)
		if ar.HasFailures() {
			failures = append(failures, fmt.Sprintf("%d segment(s) failed audio rendering", ar.Failed))
		}
		audioFiles = ar.Files
	}

	outputDir, _ := cmd.Flags().GetString("output")
	if outputDir == "" {
		outputDir = viper.GetString("output.dir")
	}
	dir, err := sess.WriteEpisode(outputDir, audioFiles)
	if err != nil {
		return err
	}
	fmt.Printf("\nEpisode written to %s\n", dir)

	if len(failures) > 0 {
		return fmt.Errorf("episode completed with failures: %s", strings.Join(failures, "; "))
	}
	return nil
}

// episodeTopics reads the allowed topic list from --topics or the repeated
// --topic flags.
func episodeTopics(cmd *cobra.Command) (topics.List, error) {
	path, _ := cmd.Flags().GetString("topics")
	labels, _ := cmd.Flags().GetStringSlice("topic")

	if path != "" && len(labels) > 0 {
		return topics.List{}, fmt.Errorf("--topics and --topic are mutually exclusive")
	}
	if path != "" {
		tf, err := topics.ReadTopicsFile(path)
		if err != nil {
			return topics.List{}, err
		}
		return tf.List(), nil
	}
	if len(labels) == 0 {
		return topics.List{}, fmt.Errorf("provide the episode topics: --topics file or repeated --topic flags")
	}
	list := topics.NewList(labels)
	if list.Len() == 0 {
		return topics.List{}, fmt.Errorf("no usable topics in --topic flags")
	}
	return list, nil
}

// corpusPapers assembles the session corpus from whichever source flag is
// set, returning the papers and the number of results that failed
// ingestion.
func corpusPapers(ctx context.Context, cmd *cobra.Command) ([]*types.Paper, int, error) {
	queryStr, _ := cmd.Flags().GetString("query")
	resultsPath, _ := cmd.Flags().GetString("results")
	papersPath, _ := cmd.Flags().GetString("papers")

	set := 0
	for _, s := range []string{queryStr, resultsPath, papersPath} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return nil, 0, fmt.Errorf("provide exactly one corpus source: --query, --results, or --papers")
	}

	switch {
	case papersPath != "":
		papers, err := ingest.LoadCorpus(papersPath)
		if err != nil {
			return nil, 0, err
		}
		fmt.Printf("Loaded %d paper(s) from %s\n", len(papers), papersPath)
		return papers, 0, nil

	case resultsPath != "":
		rf, err := search.ReadResultsFile(resultsPath)
		if err != nil {
			return nil, 0, err
		}
		fmt.Printf("Ingesting %d result(s) from %s\n", len(rf.Results), resultsPath)
		return ingestResults(ctx, cmd, rf.Results)

	default:
		cfg := searchConfig()
		if maxResults, _ := cmd.Flags().GetInt("max-results"); maxResults > 0 {
			cfg.MaxResults = maxResults
		}
		out, err := search.Search(ctx, search.Query{FreeText: queryStr}, searchBackends(cfg), cfg, false, os.Stderr)
		if err != nil {
			return nil, 0, err
		}
		fmt.Printf("Found %d result(s) for %q\n", len(out.Results), queryStr)
		return ingestResults(ctx, cmd, out.Results)
	}
}

// ingestResults runs batch ingestion over search results and saves the
// surviving papers as a corpus file inside the work directory.
func ingestResults(ctx context.Context, cmd *cobra.Command, results []types.SearchResult) ([]*types.Paper, int, error) {
	if len(results) == 0 {
		return nil, 0, fmt.Errorf("no search results to ingest")
	}

	cfg := ingestConfig()
	if abstractOnly, _ := cmd.Flags().GetBool("abstract-only"); abstractOnly {
		cfg.AbstractOnly = true
	}

	client := httputil.NewClient(cfg.Timeout)
	result := ingest.IngestBatch(ctx, client, ingest.NewPdftotext(), results, cfg, os.Stdout)
	if len(result.Papers) == 0 {
		return nil, result.Failed, fmt.Errorf("no papers survived ingestion")
	}

	corpusPath := filepath.Join(cfg.WorkDir, corpusFileName)
	if err := ingest.SaveCorpus(corpusPath, result.Papers); err != nil {
		return nil, result.Failed, err
	}
	logger.Info("corpus saved",
		zap.String("path", corpusPath),
		zap.Int("papers", len(result.Papers)))
	return result.Papers, result.Failed, nil
}

// llmConfig builds the shared model settings from viper and the loaded
// secrets. The provider API key resolves from explicit configuration
// first, then the matching .secrets/ file.
func llmConfig() types.LLMConfig {
	provider := types.LLMProvider(viper.GetString("llm.provider"))

	var key string
	switch provider {
	case types.ProviderAnthropic:
		key = loadedSecrets.Default("anthropic-api-key", viper.GetString("llm.api_key"))
	case types.ProviderOpenRouter:
		key = loadedSecrets.Default("openrouter-api-key", viper.GetString("llm.api_key"))
	}

	return types.LLMConfig{
		Provider:          provider,
		Model:             viper.GetString("llm.model"),
		APIKey:            key,
		MaxRetries:        viper.GetInt("llm.max_retries"),
		RequestsPerMinute: viper.GetInt("llm.requests_per_minute"),
	}
}

func classifyConfig() types.ClassifyConfig {
	return types.ClassifyConfig{
		LLMConfig:     llmConfig(),
		MaxInputChars: viper.GetInt("classify.max_input_chars"),
		Workers:       viper.GetInt("classify.workers"),
	}
}

func summaryConfig() types.SummaryConfig {
	return types.SummaryConfig{
		LLMConfig:     llmConfig(),
		MaxInputChars: viper.GetInt("summary.max_input_chars"),
		Workers:       viper.GetInt("summary.workers"),
	}
}

func synthesisConfig() types.SynthesisConfig {
	return types.SynthesisConfig{
		LLMConfig:     llmConfig(),
		MaxInputChars: viper.GetInt("synthesis.max_input_chars"),
		Citations:     types.CitationStyle(viper.GetString("synthesis.citations")),
	}
}

func ingestConfig() types.IngestConfig {
	return types.IngestConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("ingest.timeout"),
			UserAgent: viper.GetString("http.user_agent"),
		},
		DownloadDelay: viper.GetDuration("ingest.delay"),
		WorkDir:       viper.GetString("ingest.work_dir"),
		MaxPDFBytes:   viper.GetInt64("ingest.max_pdf_bytes"),
	}
}
