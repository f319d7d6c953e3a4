// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audio

import (
	"fmt"
	"os/exec"
)

const (
	binMpv    = "mpv"
	binFFplay = "ffplay"
)

// Player plays a rendered audio file through a local media player.
// Implements: prd006-audio R6.1-R6.3 (playback strategy).
type Player interface {
	// Name returns the player binary name ("mpv" or "ffplay").
	Name() string

	// Play blocks until playback of the file at path finishes.
	Play(path string) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

var defaultExec = &osExecutor{}

// player implements Player for a specific binary. mpv and ffplay share the
// same logic; they differ only in binary name and the flags that suppress
// video output and console noise.
type player struct {
	bin  string
	args []string
	exec executor
}

func (p *player) Name() string { return p.bin }

func (p *player) Play(path string) error {
	args := make([]string, 0, len(p.args)+1)
	args = append(args, p.args...)
	args = append(args, path)

	if err := p.exec.Run(p.bin, args...); err != nil {
		return fmt.Errorf("playing %s with %s: %w", path, p.bin, err)
	}
	return nil
}

func newMpvPlayer(exec executor) *player {
	return &player{
		bin:  binMpv,
		args: []string{"--no-video", "--really-quiet"},
		exec: exec,
	}
}

func newFFplayPlayer(exec executor) *player {
	return &player{
		bin:  binFFplay,
		args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"},
		exec: exec,
	}
}

// DetectPlayer tries mpv first, falls back to ffplay (R6.1-R6.2). Returns
// an error if neither player is on PATH.
func DetectPlayer() (Player, error) {
	return detectPlayer(defaultExec)
}

func detectPlayer(exec executor) (Player, error) {
	if _, err := exec.LookPath(binMpv); err == nil {
		return newMpvPlayer(exec), nil
	}
	if _, err := exec.LookPath(binFFplay); err == nil {
		return newFFplayPlayer(exec), nil
	}
	return nil, fmt.Errorf(
		"no audio player available: neither %s nor %s found on PATH",
		binMpv, binFFplay,
	)
}
