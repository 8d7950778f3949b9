package transcript

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const defaultWatchBase = "https://www.youtube.com"

// captionTrackPattern locates the first caption track URL embedded in the
// watch page's player response.
var captionTrackPattern = regexp.MustCompile(`"captionTracks":\[\{"baseUrl":"([^"]+)"`)

// YouTubeFetcher implements Fetcher against YouTube's caption endpoints.
//
// The primary path scrapes the caption track URL from the watch page and
// fetches the timedtext XML directly. That path is cheap but brittle: the
// upstream may serve a consent interstitial or block the request outright.
// When blocked, a yt-dlp subprocess is used as a render-capable fallback.
type YouTubeFetcher struct {
	baseURL    string
	httpClient *http.Client
	workDir    string
	fallback   func(ctx context.Context, videoID string) Result
	logger     *slog.Logger
}

// YouTubeOption customizes a YouTubeFetcher.
type YouTubeOption func(*YouTubeFetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) YouTubeOption {
	return func(f *YouTubeFetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithBaseURL overrides the watch page host. Useful for tests.
func WithBaseURL(url string) YouTubeOption {
	return func(f *YouTubeFetcher) {
		f.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithFallback overrides the blocked-fetch fallback path. Useful for tests.
func WithFallback(fn func(ctx context.Context, videoID string) Result) YouTubeOption {
	return func(f *YouTubeFetcher) {
		f.fallback = fn
	}
}

// NewYouTubeFetcher creates a fetcher that stores fallback subtitle files
// under workDir.
//
// Returns Fetcher interface to enforce abstraction.
func NewYouTubeFetcher(workDir string, opts ...YouTubeOption) Fetcher {
	f := &YouTubeFetcher{
		baseURL:    defaultWatchBase,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		workDir:    workDir,
		logger:     slog.Default().With("component", "transcript"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.fallback == nil {
		f.fallback = f.ytdlpFallback
	}
	return f
}

// Fetch acquires the transcript for one video.
//
// A watch page that loads but advertises no caption tracks is classified
// Unavailable. A blocked or failed primary fetch falls through to yt-dlp
// before concluding OutcomeError.
func (f *YouTubeFetcher) Fetch(ctx context.Context, videoID string) Result {
	result, blocked := f.fetchPrimary(ctx, videoID)
	if !blocked {
		return result
	}

	f.logger.Info("primary caption fetch blocked, trying yt-dlp fallback",
		"videoId", videoID, "err", result.Err)
	return f.fallback(ctx, videoID)
}

// fetchPrimary attempts the lightweight caption fetch. The second return
// value reports whether the failure looked like blocking, in which case the
// fallback path should be attempted.
func (f *YouTubeFetcher) fetchPrimary(ctx context.Context, videoID string) (Result, bool) {
	watchURL := f.baseURL + "/watch?v=" + videoID
	page, err := f.get(ctx, watchURL)
	if err != nil {
		return Error(fmt.Errorf("fetching watch page: %w", err)), true
	}

	if isConsentInterstitial(page) {
		return Error(fmt.Errorf("watch page served consent interstitial")), true
	}

	match := captionTrackPattern.FindStringSubmatch(page)
	if match == nil {
		// Page rendered but no caption tracks are advertised.
		return Unavailable(), false
	}

	// The watch page embeds the track URL inside a JSON string, so
	// ampersands arrive as \u0026 and must be restored before the GET.
	trackURL := html.UnescapeString(strings.ReplaceAll(match[1], `\u0026`, "&"))
	body, err := f.get(ctx, trackURL)
	if err != nil {
		return Error(fmt.Errorf("fetching caption track: %w", err)), true
	}

	text, err := parseTimedText(body)
	if err != nil {
		return Error(fmt.Errorf("parsing caption track: %w", err)), true
	}
	if text == "" {
		return Unavailable(), false
	}
	return Available(text), false
}

// get performs one GET with consent state attached. The cookies are set on
// every attempt so retries and fallback probes never depend on an earlier
// request having established a session.
func (f *YouTubeFetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) openclerk/1.0")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.AddCookie(&http.Cookie{Name: "CONSENT", Value: "YES+cb"})
	req.AddCookie(&http.Cookie{Name: "SOCS", Value: "CAI"})

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// isConsentInterstitial detects the consent wall page that replaces the
// watch page when consent state is missing or rejected.
func isConsentInterstitial(page string) bool {
	return strings.Contains(page, "consent.youtube.com") ||
		strings.Contains(page, "action=\"https://consent.google.com")
}

// timedText mirrors the caption track XML schema.
type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []string `xml:"text"`
}

// parseTimedText flattens timedtext XML into plain transcript text.
func parseTimedText(body string) (string, error) {
	var parsed timedText
	if err := xml.Unmarshal([]byte(body), &parsed); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, line := range parsed.Texts {
		line = strings.TrimSpace(html.UnescapeString(line))
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(line)
	}
	return b.String(), nil
}
