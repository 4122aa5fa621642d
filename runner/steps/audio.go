package steps

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"podpub/config"
	"podpub/episode"
)

// AudioStep extracts the episode's audio track with ffmpeg
type AudioStep struct {
	cfg config.AudioTool
}

// NewAudioStep creates the audio extraction step
func NewAudioStep(cfg config.AudioTool) *AudioStep {
	return &AudioStep{cfg: cfg}
}

func (s *AudioStep) Name() string { return StepAudio }

func (s *AudioStep) Readiness(ep *episode.Episode) Readiness {
	if ep.HasAudio() {
		return alreadyDone("audio.mp3 already exists")
	}
	if !ep.HasVideo() {
		return missingInput(filepath.Base(ep.VideoPath()))
	}
	return ready()
}

func (s *AudioStep) Validate(ep *episode.Episode) error {
	return nil
}

func (s *AudioStep) Run(ctx context.Context, ep *episode.Episode) (string, error) {
	args := []string{
		"-i", ep.VideoPath(),
		"-vn",
		"-acodec", "libmp3lame",
		"-ab", s.cfg.Bitrate,
		"-ar", strconv.Itoa(s.cfg.SampleRate),
		"-ac", "2",
		"-y",
		ep.AudioPath(),
	}
	if err := runFFmpeg(ctx, args); err != nil {
		return "", err
	}
	return ep.AudioPath(), nil
}

// runFFmpeg runs ffmpeg with the given arguments, surfacing a stderr tail
// on failure
func runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %s: %w", tail(stderr.String(), 500), err)
	}
	return nil
}

// ProbeDuration returns the duration of a media file in seconds via ffprobe
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %s: %w", tail(stderr.String(), 500), err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparseable duration: %w", err)
	}
	return seconds, nil
}

// FormatDuration formats seconds as HH:MM:SS for the itunes duration tag
func FormatDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// splitSegments splits an audio file into fixed-length chunks and returns the
// chunk paths in playback order
func splitSegments(ctx context.Context, audioPath, outDir string, chunkSeconds int) ([]string, error) {
	pattern := filepath.Join(outDir, "chunk_%03d.mp3")
	args := []string{
		"-i", audioPath,
		"-f", "segment",
		"-segment_time", strconv.Itoa(chunkSeconds),
		"-c", "copy",
		"-y",
		pattern,
	}
	if err := runFFmpeg(ctx, args); err != nil {
		return nil, fmt.Errorf("ffmpeg split failed: %w", err)
	}

	chunks, err := filepath.Glob(filepath.Join(outDir, "chunk_*.mp3"))
	if err != nil {
		return nil, err
	}
	// Glob returns lexical order, which matches the %03d numbering
	return chunks, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
