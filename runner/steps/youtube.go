package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"time"

	"podpub/config"
	"podpub/episode"
)

const maxDescriptionLen = 5000 // YouTube limit

// YouTubeStep uploads the episode video to YouTube. The step is gated on
// the episode's [publish] youtube flag; the resulting video URL is written
// to youtube.url as the local artifact marker.
type YouTubeStep struct {
	cfg    config.UploadTool
	client *http.Client
}

// NewYouTubeStep creates the video upload step
func NewYouTubeStep(cfg config.UploadTool) *YouTubeStep {
	return &YouTubeStep{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (s *YouTubeStep) Name() string { return StepYouTube }

func (s *YouTubeStep) Readiness(ep *episode.Episode) Readiness {
	if !ep.Meta.Publish.YouTube {
		return gated("youtube publishing not enabled for this episode")
	}
	if ep.HasYouTubeURL() {
		return alreadyDone("already uploaded: " + ep.YouTubeURL())
	}
	if !ep.HasVideo() {
		return missingInput(filepath.Base(ep.VideoPath()))
	}
	return ready()
}

func (s *YouTubeStep) Validate(ep *episode.Episode) error {
	if os.Getenv("YOUTUBE_TOKEN") == "" {
		return fmt.Errorf("YOUTUBE_TOKEN is not set (required for the youtube step)")
	}
	return nil
}

type uploadSnippet struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	CategoryID  string   `json:"categoryId"`
}

type uploadStatus struct {
	PrivacyStatus           string `json:"privacyStatus"`
	SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
}

type uploadMetadata struct {
	Snippet uploadSnippet `json:"snippet"`
	Status  uploadStatus  `json:"status"`
}

type uploadResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *YouTubeStep) Run(ctx context.Context, ep *episode.Episode) (string, error) {
	video, err := os.Open(ep.VideoPath())
	if err != nil {
		return "", fmt.Errorf("video not found: %w", err)
	}
	defer video.Close()

	description := ep.Meta.Episode.Description
	if notes, err := os.ReadFile(ep.ShowNotesPath()); err == nil {
		description += "\n\n" + string(notes)
	}
	if len(description) > maxDescriptionLen {
		description = truncateRunes(description, maxDescriptionLen)
	}

	privacy := ep.Meta.YouTube.Privacy
	if privacy == "" {
		privacy = "public"
	}
	categoryID := ep.Meta.YouTube.CategoryID
	if categoryID == "" {
		categoryID = "22"
	}
	tags := ep.Meta.YouTube.Tags
	if len(tags) == 0 {
		tags = ep.Meta.Episode.Tags
	}

	meta, err := json.Marshal(uploadMetadata{
		Snippet: uploadSnippet{
			Title:       ep.Meta.Episode.Title,
			Description: description,
			Tags:        tags,
			CategoryID:  categoryID,
		},
		Status: uploadStatus{
			PrivacyStatus:           privacy,
			SelfDeclaredMadeForKids: ep.Meta.YouTube.MadeForKids,
		},
	})
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return "", err
	}
	if _, err := metaPart.Write(meta); err != nil {
		return "", err
	}

	videoHeader := textproto.MIMEHeader{}
	videoHeader.Set("Content-Type", "video/*")
	videoPart, err := writer.CreatePart(videoHeader)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(videoPart, video); err != nil {
		return "", fmt.Errorf("failed to read video: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	url := s.cfg.BaseURL + "?uploadType=multipart&part=snippet,status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+os.Getenv("YOUTUBE_TOKEN"))
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload API returned %d: %s", resp.StatusCode, tail(string(respBody), 500))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("malformed upload response: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("upload response contained no video ID")
	}

	videoURL := "https://youtube.com/watch?v=" + parsed.ID
	if err := os.WriteFile(ep.YouTubeURLPath(), []byte(videoURL+"\n"), 0644); err != nil {
		return "", fmt.Errorf("failed to record video URL: %w", err)
	}

	return videoURL, nil
}
