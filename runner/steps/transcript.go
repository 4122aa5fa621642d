package steps

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podpub/config"
	"podpub/episode"
)

// TranscriptStep transcribes the episode audio with the OpenAI Whisper API.
// Audio files over the configured size limit are split into chunks with
// ffmpeg and transcribed in order.
type TranscriptStep struct {
	cfg    config.TranscriptTool
	client *http.Client
}

// NewTranscriptStep creates the transcription step
func NewTranscriptStep(cfg config.TranscriptTool) *TranscriptStep {
	return &TranscriptStep{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (s *TranscriptStep) Name() string { return StepTranscript }

func (s *TranscriptStep) Readiness(ep *episode.Episode) Readiness {
	if ep.HasTranscript() {
		return alreadyDone("transcript.md already exists")
	}
	if !ep.HasAudio() {
		return missingInput("audio.mp3")
	}
	return ready()
}

func (s *TranscriptStep) Validate(ep *episode.Episode) error {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set (required for the transcript step)")
	}
	return nil
}

func (s *TranscriptStep) Run(ctx context.Context, ep *episode.Episode) (string, error) {
	info, err := os.Stat(ep.AudioPath())
	if err != nil {
		return "", fmt.Errorf("audio not found: %w", err)
	}

	var text string
	if info.Size() > int64(s.cfg.ChunkLimitMB)*1024*1024 {
		text, err = s.transcribeChunked(ctx, ep.AudioPath())
	} else {
		text, err = s.transcribe(ctx, ep.AudioPath())
	}
	if err != nil {
		return "", err
	}

	var doc strings.Builder
	doc.WriteString("# Transcript\n\n")
	fmt.Fprintf(&doc, "*Auto-generated from %s*\n\n", filepath.Base(ep.AudioPath()))
	doc.WriteString(text)

	if err := os.WriteFile(ep.TranscriptPath(), []byte(doc.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	return ep.TranscriptPath(), nil
}

// transcribe sends one audio file to the Whisper transcription endpoint
func (s *TranscriptStep) transcribe(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read audio: %w", err)
	}
	_ = writer.WriteField("model", s.cfg.Model)
	_ = writer.WriteField("language", s.cfg.Language)
	_ = writer.WriteField("response_format", "text")
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+os.Getenv("OPENAI_API_KEY"))
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription API returned %d: %s", resp.StatusCode, tail(string(respBody), 500))
	}

	return strings.TrimSpace(string(respBody)), nil
}

// transcribeChunked splits the audio into chunks and joins the per-chunk
// transcripts with blank lines
func (s *TranscriptStep) transcribeChunked(ctx context.Context, audioPath string) (string, error) {
	chunkDir, err := os.MkdirTemp("", "podpub-chunks-")
	if err != nil {
		return "", fmt.Errorf("failed to create chunk dir: %w", err)
	}
	defer os.RemoveAll(chunkDir)

	chunks, err := splitSegments(ctx, audioPath, chunkDir, s.cfg.ChunkSeconds)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		text, err := s.transcribe(ctx, chunk)
		if err != nil {
			return "", fmt.Errorf("chunk %s: %w", filepath.Base(chunk), err)
		}
		parts = append(parts, text)
	}

	return strings.Join(parts, "\n\n"), nil
}
