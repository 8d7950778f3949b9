package transcript

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// ytdlpFallback downloads subtitles with yt-dlp, the render-capable path
// used when the lightweight caption fetch is blocked. yt-dlp manages its
// own consent state, so each invocation is independent of prior attempts.
func (f *YouTubeFetcher) ytdlpFallback(ctx context.Context, videoID string) Result {
	if err := os.MkdirAll(f.workDir, 0o755); err != nil {
		return Error(fmt.Errorf("creating work directory: %w", err))
	}

	outputPath := filepath.Join(f.workDir, "%(id)s")
	dl := ytdlp.New().
		WriteSubs().
		WriteAutoSubs().
		SubLangs("en").
		ConvertSubs("srt").
		SkipDownload().
		Output(outputPath)

	result, err := dl.Run(ctx, "https://www.youtube.com/watch?v="+videoID)
	if err != nil {
		stderr := ""
		if result != nil {
			stderr = result.Stderr
		}
		if isNoCaptionsError(stderr) {
			return Unavailable()
		}
		return Error(fmt.Errorf("yt-dlp failed: %w", err))
	}

	files, err := filepath.Glob(filepath.Join(f.workDir, videoID+"*.srt"))
	if err != nil || len(files) == 0 {
		// yt-dlp ran cleanly but produced nothing; no captions exist.
		return Unavailable()
	}

	content, err := os.ReadFile(files[0])
	if err != nil {
		return Error(fmt.Errorf("reading subtitle file: %w", err))
	}
	for _, file := range files {
		os.Remove(file)
	}

	text := ParseSRT(string(content))
	if text == "" {
		return Unavailable()
	}
	return Available(text)
}

// isNoCaptionsError detects yt-dlp stderr output indicating that the video
// has no subtitles rather than that the fetch was blocked.
func isNoCaptionsError(stderr string) bool {
	stderr = strings.ToLower(stderr)
	return strings.Contains(stderr, "no subtitles") ||
		strings.Contains(stderr, "there are no subtitles")
}
