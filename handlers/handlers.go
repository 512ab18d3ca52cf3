package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nijaru/yt-transcript/config"
	apperrors "github.com/nijaru/yt-transcript/errors"
	"github.com/nijaru/yt-transcript/middleware"
	"github.com/nijaru/yt-transcript/proxy"
	"github.com/nijaru/yt-transcript/transcription"
	"github.com/nijaru/yt-transcript/utils"
	"github.com/nijaru/yt-transcript/validation"
	"github.com/nijaru/yt-transcript/youtube"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	cfg     *config.Config
	service *transcription.TranscriptionService
	now     func() time.Time
}

func NewHandler(cfg *config.Config, service *transcription.TranscriptionService) *Handler {
	return &Handler{cfg: cfg, service: service, now: time.Now}
}

// Routes registers every endpoint. All of them are GET only.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", getOnly(h.IndexHandler))
	mux.HandleFunc("/health", getOnly(h.HealthHandler))
	mux.HandleFunc("/transcribe", getOnly(h.TranscribeHandler))
	mux.HandleFunc("/transcribe/proxy", getOnly(h.TranscribeProxyHandler))
	mux.HandleFunc("/debug/raw_transcript", getOnly(h.RawTranscriptHandler))
	mux.HandleFunc("/debug/proxy", getOnly(h.DebugProxyHandler))
	mux.HandleFunc("/debug-proxy", getOnly(h.DebugProxyHandler))
	return mux
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, apperrors.ErrMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (h *Handler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		utils.HandleError(w, "Not found", http.StatusNotFound)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "API is running"})
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) TranscribeHandler(w http.ResponseWriter, r *http.Request) {
	h.transcribe(w, r, proxy.Direct())
}

func (h *Handler) TranscribeProxyHandler(w http.ResponseWriter, r *http.Request) {
	route, err := proxy.RouteFromConfig(h.cfg.Proxy)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	h.transcribe(w, r, route)
}

func (h *Handler) transcribe(w http.ResponseWriter, r *http.Request, route proxy.Route) {
	videoID := r.URL.Query().Get("videoId")

	middleware.GetLogger(r.Context()).WithFields(logrus.Fields{
		"video_id": videoID,
		"mode":     route.Mode,
	}).Info("Transcript requested")

	result, err := h.service.FetchTranscript(r.Context(), videoID, route)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}

type rawTranscriptResponse struct {
	VideoID       string            `json:"videoId"`
	RawTranscript []youtube.Snippet `json:"raw_transcript"`
}

func (h *Handler) RawTranscriptHandler(w http.ResponseWriter, r *http.Request) {
	videoID, err := validation.ValidateVideoID(r.URL.Query().Get("videoId"))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	snippets, err := h.service.RawTranscript(r.Context(), videoID, proxy.Direct())
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	if snippets == nil {
		snippets = []youtube.Snippet{}
	}
	utils.RespondWithJSON(w, http.StatusOK, rawTranscriptResponse{
		VideoID:       videoID,
		RawTranscript: snippets,
	})
}

type proxyDebugResponse struct {
	Mode     string         `json:"mode"`
	Proxy    string         `json:"proxy"`
	PoolSize int            `json:"pool_size"`
	Attempts int            `json:"attempts,omitempty"`
	Probe    *proxy.Outcome `json:"probe,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// DebugProxyHandler resolves the configured route and makes one probe request
// through it. Pool routes go through the bounded random retry.
func (h *Handler) DebugProxyHandler(w http.ResponseWriter, r *http.Request) {
	route, err := proxy.RouteFromConfig(h.cfg.Proxy)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	resp := proxyDebugResponse{Mode: route.Mode, Proxy: route.Describe()}
	logger := middleware.GetLogger(r.Context()).WithFields(logrus.Fields{
		"mode":  route.Mode,
		"proxy": resp.Proxy,
	})

	var outcome *proxy.Outcome
	if route.Mode == config.ProxyModePool {
		outcome, err = h.probePool(r.Context(), route, &resp)
	} else {
		timeout := h.cfg.Proxy.AttemptTimeout
		if route.Proxy == nil {
			timeout = h.cfg.Proxy.DirectTimeout
		}
		outcome, err = h.service.Selector.ProbeOnce(r.Context(), h.cfg.Proxy.ProbeURL, route.Proxy, timeout)
	}

	if err != nil {
		if _, ok := apperrors.As(err); ok {
			utils.RespondWithError(w, err)
			return
		}
		resp.Error = err.Error()
		if failure, ok := err.(*proxy.Failure); ok {
			resp.Error = failure.Message
			resp.Proxy = failure.ProxyUsed
			resp.Attempts = len(failure.Tried)
		}
		logger.WithError(err).Warn("Proxy probe failed")
		utils.RespondWithJSON(w, http.StatusInternalServerError, resp)
		return
	}

	resp.Probe = outcome
	resp.Attempts = outcome.Attempts
	logger.WithField("status_code", outcome.StatusCode).Info("Proxy probe completed")
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) probePool(ctx context.Context, route proxy.Route, resp *proxyDebugResponse) (*proxy.Outcome, error) {
	pool, err := h.service.LoadPool(route.PoolPath)
	if err != nil {
		return nil, err
	}
	resp.PoolSize = len(pool)

	return h.service.Selector.AttemptWithRetries(ctx, h.cfg.Proxy.ProbeURL, pool, h.cfg.Proxy.MaxAttempts)
}
