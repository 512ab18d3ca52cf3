package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/nijaru/yt-transcript/middleware"
	"github.com/nijaru/yt-transcript/proxy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://www.youtube.com"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxBodySize    = 8 << 20
)

// The ANDROID innertube client still returns plain timedtext caption URLs.
var innertubeContext = map[string]any{
	"client": map[string]string{
		"clientName":    "ANDROID",
		"clientVersion": "20.10.38",
	},
}

var (
	apiKeyRe  = regexp.MustCompile(`"INNERTUBE_API_KEY"\s*:\s*"([a-zA-Z0-9_-]+)"`)
	consentRe = regexp.MustCompile(`name="v" value="(.*?)"`)
)

// Snippet is one timed caption fragment.
type Snippet struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// FetchOptions is the per-call outbound configuration. A nil Proxy means a
// direct connection. Timeout bounds the whole Fetch, not each request.
type FetchOptions struct {
	Proxy   *url.URL
	Timeout time.Duration
}

type Client struct {
	BaseURL    string
	Languages  []string
	ClientFunc proxy.ClientFunc
}

func NewClient(clientFunc proxy.ClientFunc, languages []string) *Client {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	return &Client{
		BaseURL:    DefaultBaseURL,
		Languages:  languages,
		ClientFunc: clientFunc,
	}
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		Renderer *struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// Fetch returns the caption snippets for videoID: watch page, innertube
// player, caption track, timedtext XML.
func (c *Client) Fetch(ctx context.Context, videoID string, opts FetchOptions) ([]Snippet, error) {
	logger := middleware.GetLogger(ctx).WithFields(logrus.Fields{
		"video_id": videoID,
		"proxy":    proxy.Redact(opts.Proxy),
	})

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	httpClient := c.ClientFunc(opts.Proxy, opts.Timeout)

	page, cookie, err := c.fetchWatchPage(ctx, httpClient, videoID)
	if err != nil {
		return nil, err
	}

	apiKey, err := extractAPIKey(page)
	if err != nil {
		return nil, err
	}

	player, err := c.fetchPlayer(ctx, httpClient, apiKey, videoID, cookie)
	if err != nil {
		return nil, err
	}

	track, err := c.pickTrack(player)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"language": track.LanguageCode,
		"kind":     track.Kind,
	}).Debug("Selected caption track")

	body, err := c.get(ctx, httpClient, timedTextURL(track.BaseURL), cookie)
	if err != nil {
		return nil, err
	}

	snippets, err := parseTimedText(body)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing captions for %s", videoID)
	}
	logger.WithField("snippets", len(snippets)).Debug("Fetched transcript")
	return snippets, nil
}

func (c *Client) fetchWatchPage(ctx context.Context, httpClient *http.Client, videoID string) (string, string, error) {
	watchURL := fmt.Sprintf("%s/watch?v=%s", c.BaseURL, url.QueryEscape(videoID))

	body, err := c.get(ctx, httpClient, watchURL, "")
	if err != nil {
		return "", "", err
	}
	page := string(body)

	if !strings.Contains(page, `action="https://consent.youtube.com/s"`) {
		return page, "", nil
	}

	m := consentRe.FindStringSubmatch(page)
	if len(m) != 2 {
		return "", "", &RequestError{URL: watchURL, Err: errors.New("failed to create consent cookie")}
	}
	cookie := "CONSENT=YES+" + m[1]

	body, err = c.get(ctx, httpClient, watchURL, cookie)
	if err != nil {
		return "", "", err
	}
	return string(body), cookie, nil
}

func extractAPIKey(page string) (string, error) {
	if m := apiKeyRe.FindStringSubmatch(page); len(m) == 2 {
		return m[1], nil
	}
	if strings.Contains(page, `class="g-recaptcha"`) {
		return "", ErrIPBlocked
	}
	return "", ErrVideoUnavailable
}

func (c *Client) fetchPlayer(ctx context.Context, httpClient *http.Client, apiKey, videoID, cookie string) (*playerResponse, error) {
	endpoint := fmt.Sprintf("%s/youtubei/v1/player?key=%s", c.BaseURL, url.QueryEscape(apiKey))

	payload, err := json.Marshal(map[string]any{
		"context": innertubeContext,
		"videoId": videoID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encoding player request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "building player request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(httpClient, req, cookie)
	if err != nil {
		return nil, err
	}

	var player playerResponse
	if err := json.Unmarshal(body, &player); err != nil {
		return nil, errors.Wrap(err, "decoding player response")
	}

	switch status := player.PlayabilityStatus.Status; status {
	case "", "OK":
	case "LOGIN_REQUIRED":
		if strings.Contains(strings.ToLower(player.PlayabilityStatus.Reason), "bot") {
			return nil, ErrIPBlocked
		}
		return nil, errors.Wrap(ErrVideoUnavailable, player.PlayabilityStatus.Reason)
	default:
		return nil, errors.Wrapf(ErrVideoUnavailable, "%s: %s", status, player.PlayabilityStatus.Reason)
	}

	return &player, nil
}

// pickTrack walks the configured languages in order, preferring manually
// created tracks over generated ones for each language.
func (c *Client) pickTrack(player *playerResponse) (captionTrack, error) {
	if player.Captions == nil || player.Captions.Renderer == nil || len(player.Captions.Renderer.CaptionTracks) == 0 {
		return captionTrack{}, ErrTranscriptsDisabled
	}
	tracks := player.Captions.Renderer.CaptionTracks

	for _, lang := range c.Languages {
		var generated *captionTrack
		for i := range tracks {
			t := &tracks[i]
			if t.BaseURL == "" || !strings.EqualFold(t.LanguageCode, lang) {
				continue
			}
			if t.Kind != "asr" {
				return *t, nil
			}
			if generated == nil {
				generated = t
			}
		}
		if generated != nil {
			return *generated, nil
		}
	}

	return captionTrack{}, errors.Wrapf(ErrNoTranscriptFound, "languages %v", c.Languages)
}

func timedTextURL(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	if q.Get("fmt") == "srv3" {
		q.Del("fmt")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, httpClient *http.Client, rawURL, cookie string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	return c.do(httpClient, req, cookie)
}

func (c *Client) do(httpClient *http.Client, req *http.Request, cookie string) ([]byte, error) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	target := req.URL.Redacted()

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrIPBlocked
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &RequestError{URL: target, Err: err}
	}
	return body, nil
}
