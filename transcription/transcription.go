package transcription

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/nijaru/yt-transcript/config"
	apperrors "github.com/nijaru/yt-transcript/errors"
	"github.com/nijaru/yt-transcript/middleware"
	"github.com/nijaru/yt-transcript/proxy"
	"github.com/nijaru/yt-transcript/utils"
	"github.com/nijaru/yt-transcript/validation"
	"github.com/nijaru/yt-transcript/youtube"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	MsgTranscriptsDisabled = "Transcripts are disabled for this video"
	MsgNoTranscript        = "No transcript found for this video"
	MsgEmptyOrInvalid      = "Transcript is empty or invalid for this video."
	MsgEmptyTranscript     = "Transcript is empty for this video."
	MsgCouldNotRetrieve    = "Could not retrieve transcript. YouTube may be blocking requests or the video is unavailable."
)

// Provider fetches raw caption snippets for one video through the outbound
// configuration in opts.
type Provider interface {
	Fetch(ctx context.Context, videoID string, opts youtube.FetchOptions) ([]youtube.Snippet, error)
}

type Result struct {
	VideoID    string `json:"videoId"`
	Transcript string `json:"transcript"`
}

type TranscriptionService struct {
	Provider Provider
	Selector *proxy.Selector
	LoadPool func(path string) ([]proxy.Record, error)

	// Timeout bounds one whole provider call, direct or through a single
	// proxy, across all the requests it makes.
	Timeout     time.Duration
	MaxAttempts int
}

func NewTranscriptionService(cfg *config.Config) *TranscriptionService {
	clientFunc := proxy.NewClientFunc(cfg.Proxy.InsecureSkipVerify)
	return &TranscriptionService{
		Provider:    youtube.NewClient(clientFunc, cfg.Provider.Languages),
		Selector:    proxy.NewSelector(cfg.Proxy.AttemptTimeout, clientFunc),
		LoadPool:    proxy.LoadPool,
		Timeout:     cfg.Provider.Timeout,
		MaxAttempts: cfg.Proxy.MaxAttempts,
	}
}

// FetchTranscript returns the normalized transcript of videoID fetched
// through route.
func (s *TranscriptionService) FetchTranscript(ctx context.Context, videoID string, route proxy.Route) (*Result, error) {
	const op = "transcription.FetchTranscript"

	snippets, err := s.RawTranscript(ctx, videoID, route)
	if err != nil {
		return nil, err
	}
	if len(snippets) == 0 {
		return nil, apperrors.EmptyTranscript(op, MsgEmptyOrInvalid)
	}

	text := Normalize(snippets)
	if text == "" {
		return nil, apperrors.EmptyTranscript(op, MsgEmptyTranscript)
	}

	middleware.GetLogger(ctx).WithFields(logrus.Fields{
		"video_id": videoID,
		"snippets": len(snippets),
		"length":   len(text),
	}).Info("Transcript fetched")

	return &Result{VideoID: videoID, Transcript: text}, nil
}

// RawTranscript returns the provider's snippets untouched.
func (s *TranscriptionService) RawTranscript(ctx context.Context, videoID string, route proxy.Route) ([]youtube.Snippet, error) {
	videoID, err := validation.ValidateVideoID(videoID)
	if err != nil {
		return nil, err
	}

	snippets, err := s.fetch(ctx, videoID, route)
	if err != nil {
		return nil, mapProviderError(err)
	}
	return snippets, nil
}

func (s *TranscriptionService) fetch(ctx context.Context, videoID string, route proxy.Route) ([]youtube.Snippet, error) {
	logger := middleware.GetLogger(ctx).WithFields(logrus.Fields{
		"video_id": videoID,
		"mode":     route.Mode,
	})

	if route.Mode != config.ProxyModePool {
		logger.WithField("proxy", route.Describe()).Debug("Fetching transcript")
		return s.fetchOnce(ctx, videoID, route.Proxy)
	}

	pool, err := s.LoadPool(route.PoolPath)
	if err != nil {
		return nil, err
	}

	var snippets []youtube.Snippet
	report, err := s.Selector.Do(ctx, pool, s.MaxAttempts, youtube.CouldNotRetrieve,
		func(ctx context.Context, record proxy.Record) error {
			result, err := s.fetchOnce(ctx, videoID, record.URL())
			if err != nil {
				return err
			}
			snippets = result
			return nil
		})

	logger = logger.WithFields(logrus.Fields{
		"pool_size": len(pool),
		"attempts":  len(report.Tried),
		"proxy":     report.ProxyUsed,
	})
	if err != nil {
		logger.WithError(err).Warn("Pool fetch failed")
		return nil, err
	}
	logger.Debug("Pool fetch succeeded")
	return snippets, nil
}

func (s *TranscriptionService) fetchOnce(ctx context.Context, videoID string, proxyURL *url.URL) ([]youtube.Snippet, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	return s.Provider.Fetch(ctx, videoID, youtube.FetchOptions{Proxy: proxyURL, Timeout: s.Timeout})
}

// Normalize trims every snippet, joins them with single spaces and collapses
// any remaining whitespace runs.
func Normalize(snippets []youtube.Snippet) string {
	parts := make([]string, 0, len(snippets))
	for _, snippet := range snippets {
		parts = append(parts, strings.TrimSpace(snippet.Text))
	}
	return utils.CollapseWhitespace(strings.Join(parts, " "))
}

func mapProviderError(err error) error {
	const op = "transcription.fetch"

	if _, ok := apperrors.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, youtube.ErrTranscriptsDisabled):
		return apperrors.Rejected(op, err, MsgTranscriptsDisabled)
	case errors.Is(err, youtube.ErrNoTranscriptFound):
		return apperrors.NotFound(op, err, MsgNoTranscript)
	case youtube.CouldNotRetrieve(err):
		return apperrors.UpstreamUnavailable(op, err, MsgCouldNotRetrieve)
	default:
		return apperrors.Internal(op, err)
	}
}
