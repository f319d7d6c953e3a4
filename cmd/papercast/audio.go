package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/papercast/internal/audio"
	"github.com/pdiddy/papercast/pkg/types"
)

var audioCmd = &cobra.Command{
	Use:   "audio [text-file]",
	Short: "Render a text file to speech",
	Long: `Audio renders a plain text or markdown file to speech through the
configured text-to-speech endpoint. Long texts are split at sentence
boundaries and the audio segments concatenated in order. The output lands
next to the input file unless -o names a path.

With --play the rendered file is played through mpv or ffplay.`,
	RunE: runAudio,
}

func init() {
	audioCmd.Flags().StringP("output", "o", "", "output audio file (default: input name with the audio format extension)")
	audioCmd.Flags().Bool("play", false, "play the rendered file with mpv or ffplay")

	rootCmd.AddCommand(audioCmd)
}

func runAudio(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one text file to render")
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	text := string(raw)

	cfg := audioConfig()
	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		outPath = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "." + cfg.Format
	}

	fmt.Printf("Rendering %s (%d chars)\n", args[0], utf8.RuneCountInString(text))
	renderer := audio.NewRenderer(cfg)
	if err := renderer.RenderToFile(cmd.Context(), text, outPath); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", outPath)

	if play, _ := cmd.Flags().GetBool("play"); play {
		player, err := audio.DetectPlayer()
		if err != nil {
			return err
		}
		fmt.Printf("Playing with %s\n", player.Name())
		if err := player.Play(outPath); err != nil {
			return err
		}
	}
	return nil
}

// audioConfig builds the audio stage configuration from viper and the
// loaded secrets.
func audioConfig() types.AudioConfig {
	return types.AudioConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("audio.timeout"),
			UserAgent: viper.GetString("http.user_agent"),
		},
		APIKey:    loadedSecrets.Default("openai-api-key", viper.GetString("audio.api_key")),
		Model:     viper.GetString("audio.model"),
		Voice:     viper.GetString("audio.voice"),
		Format:    viper.GetString("audio.format"),
		OutputDir: viper.GetString("audio.dir"),
	}
}
