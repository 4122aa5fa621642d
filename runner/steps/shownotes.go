package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"podpub/config"
	"podpub/episode"
)

// ShowNotesStep generates show notes from the transcript with the Anthropic
// messages API
type ShowNotesStep struct {
	cfg    config.NotesTool
	client *http.Client
}

// NewShowNotesStep creates the show notes generation step
func NewShowNotesStep(cfg config.NotesTool) *ShowNotesStep {
	return &ShowNotesStep{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (s *ShowNotesStep) Name() string { return StepShowNotes }

func (s *ShowNotesStep) Readiness(ep *episode.Episode) Readiness {
	if ep.HasShowNotes() {
		return alreadyDone("show-notes.md already exists")
	}
	if !ep.HasTranscript() {
		return missingInput("transcript.md")
	}
	return ready()
}

func (s *ShowNotesStep) Validate(ep *episode.Episode) error {
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is not set (required for the show_notes step)")
	}
	return nil
}

func (s *ShowNotesStep) Run(ctx context.Context, ep *episode.Episode) (string, error) {
	transcript, err := os.ReadFile(ep.TranscriptPath())
	if err != nil {
		return "", fmt.Errorf("transcript not found: %w", err)
	}

	notes, err := s.generate(ctx, ep, string(transcript))
	if err != nil {
		return "", err
	}

	var doc strings.Builder
	fmt.Fprintf(&doc, "# %s - Show Notes\n\n", ep.Meta.Episode.Title)
	doc.WriteString(notes)

	if err := os.WriteFile(ep.ShowNotesPath(), []byte(doc.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write show notes: %w", err)
	}
	return ep.ShowNotesPath(), nil
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *ShowNotesStep) generate(ctx context.Context, ep *episode.Episode, transcript string) (string, error) {
	if len(transcript) > s.cfg.MaxChars {
		transcript = truncateRunes(transcript, s.cfg.MaxChars)
	}

	payload, err := json.Marshal(messagesRequest{
		Model:     s.cfg.Model,
		MaxTokens: s.cfg.MaxTokens,
		Messages: []message{
			{Role: "user", Content: buildPrompt(ep, transcript)},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", os.Getenv("ANTHROPIC_API_KEY"))
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("show notes request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read show notes response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("show notes API returned %d: %s", resp.StatusCode, tail(string(respBody), 500))
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("malformed show notes response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("show notes response contained no content")
	}

	return parsed.Content[0].Text, nil
}

func buildPrompt(ep *episode.Episode, transcript string) string {
	guestInfo := ""
	if len(ep.Meta.Episode.Guests) > 0 {
		names := make([]string, 0, len(ep.Meta.Episode.Guests))
		for name := range ep.Meta.Episode.Guests {
			names = append(names, name)
		}
		sort.Strings(names)

		pairs := make([]string, 0, len(names))
		for _, name := range names {
			pairs = append(pairs, fmt.Sprintf("%s (%s)", name, ep.Meta.Episode.Guests[name]))
		}
		guestInfo = "Guests: " + strings.Join(pairs, ", ")
	}

	return fmt.Sprintf(`You are a podcast show notes writer. Given the transcript below, generate professional show notes in Markdown format.

Include:
1. A concise episode summary (2-3 sentences)
2. Key topics discussed (bulleted list)
3. Notable quotes (2-3 best quotes with timestamps if available)
4. Resources/links mentioned
5. Guest bio (if applicable)

Episode title: %s
%s

Keep it concise and engaging. Write for someone deciding whether to listen.

Transcript:
%s`, ep.Meta.Episode.Title, guestInfo, transcript)
}
