package action

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"regexp"
	"time"

	"go.uber.org/zap"
)

const resultsURL = "https://www.youtube.com/results?search_query="

// videoIDPattern matches the first video id embedded in the raw results page.
var videoIDPattern = regexp.MustCompile(`"videoId":"([^"]+)"`)

// YouTubeSearcher looks up a query on YouTube's public results page and
// launches the first hit in the local viewer. Best-effort by design: the
// dispatcher confirms the action without waiting for the launch to finish.
type YouTubeSearcher struct {
	viewer     Spec
	httpClient *http.Client
	logger     *zap.Logger
}

// SearcherConfig holds configuration for the YouTube searcher.
type SearcherConfig struct {
	// Viewer is the command used to open a video URL. The URL is appended
	// to the viewer's argument list.
	Viewer Spec

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// DefaultViewer opens URLs with Chrome through the Windows shell.
func DefaultViewer() Spec {
	return Spec{Program: "cmd.exe", Args: []string{"/c", "chcp 65001>nul & start chrome"}}
}

// NewYouTubeSearcher creates a searcher.
func NewYouTubeSearcher(cfg SearcherConfig) *YouTubeSearcher {
	viewer := cfg.Viewer
	if viewer.Program == "" {
		viewer = DefaultViewer()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &YouTubeSearcher{
		viewer:     viewer,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Launch fetches the results page for the query, extracts the first video id,
// and opens it in the viewer with autoplay. A page with no match is a no-op.
func (s *YouTubeSearcher) Launch(ctx context.Context, query string) error {
	searchURL := resultsURL + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return fmt.Errorf("creating search request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching search results: %w", err)
	}
	defer resp.Body.Close()

	html, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading search results: %w", err)
	}

	match := videoIDPattern.FindSubmatch(html)
	if match == nil {
		s.logger.Info("no video found", zap.String("query", query))
		return nil
	}

	videoURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s&autoplay=1", match[1])

	cmd := exec.Command(s.viewer.Program, append(s.viewer.Args, videoURL)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launching viewer: %w", err)
	}

	// The viewer owns the video from here; reap the process in the background.
	go func() { _ = cmd.Wait() }()

	s.logger.Info("video launched",
		zap.String("query", query),
		zap.String("video_id", string(match[1])),
	)
	return nil
}
