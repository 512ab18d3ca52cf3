package proxy

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/nijaru/yt-transcript/errors"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const bodyPrefixLen = 200

// Outcome is the first proxied call that completed at the transport level.
type Outcome struct {
	StatusCode int    `json:"status_code"`
	BodyPrefix string `json:"body_prefix"`
	ProxyUsed  string `json:"proxy_used"`
	Attempts   int    `json:"attempts"`
}

// Failure is returned when every attempt failed at the transport level.
type Failure struct {
	Message   string   `json:"error"`
	ProxyUsed string   `json:"proxy_used"`
	Tried     []Record `json:"-"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("all %d proxy attempts failed, last via %s: %s", len(f.Tried), f.ProxyUsed, f.Message)
}

// Report describes which proxies a Do call went through.
type Report struct {
	ProxyUsed string
	Tried     []Record
}

type Selector struct {
	// Timeout bounds each single attempt.
	Timeout time.Duration
	// IntN picks an index in [0, n). Defaults to math/rand/v2.IntN.
	IntN       func(n int) int
	ClientFunc ClientFunc
}

func NewSelector(timeout time.Duration, clientFunc ClientFunc) *Selector {
	return &Selector{
		Timeout:    timeout,
		IntN:       rand.IntN,
		ClientFunc: clientFunc,
	}
}

// Do runs fn through randomly drawn proxies from pool, never reusing a proxy
// within the call, until fn succeeds, fn returns a non-retryable error, or
// min(maxAttempts, distinct proxies) attempts have been made. A nil retryable
// treats every error as retryable.
func (s *Selector) Do(ctx context.Context, pool []Record, maxAttempts int, retryable func(error) bool, fn func(context.Context, Record) error) (Report, error) {
	const op = "proxy.Selector.Do"

	var report Report
	if len(pool) == 0 {
		return report, apperrors.EmptyPool(op, "Proxy pool is empty")
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	intN := s.IntN
	if intN == nil {
		intN = rand.IntN
	}

	untried := distinct(pool)
	attempts := min(maxAttempts, len(untried))

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}

		idx := intN(len(untried))
		record := untried[idx]
		untried[idx] = untried[len(untried)-1]
		untried = untried[:len(untried)-1]

		report.Tried = append(report.Tried, record)
		report.ProxyUsed = record.String()

		logger := logrus.WithFields(logrus.Fields{
			"proxy":   record.String(),
			"attempt": i + 1,
			"max":     attempts,
		})

		err := fn(ctx, record)
		if err == nil {
			logger.Debug("Proxy attempt succeeded")
			return report, nil
		}

		lastErr = err
		if retryable != nil && !retryable(err) {
			logger.WithError(err).Info("Proxy attempt failed with non-retryable error")
			return report, err
		}
		logger.WithError(err).Warn("Proxy attempt failed")
	}

	return report, lastErr
}

// AttemptWithRetries issues GET targetURL through random untried proxies and
// returns the first call that completes, whatever its HTTP status. When every
// attempt fails the error is a *Failure carrying the last transport error.
func (s *Selector) AttemptWithRetries(ctx context.Context, targetURL string, pool []Record, maxAttempts int) (*Outcome, error) {
	var outcome *Outcome

	report, err := s.Do(ctx, pool, maxAttempts, nil, func(ctx context.Context, record Record) error {
		result, err := s.probe(ctx, targetURL, record)
		if err != nil {
			return err
		}
		outcome = result
		return nil
	})
	if err != nil {
		if apperrors.Is(err, apperrors.KindEmptyPool) {
			return nil, err
		}
		return nil, &Failure{
			Message:   err.Error(),
			ProxyUsed: report.ProxyUsed,
			Tried:     report.Tried,
		}
	}

	outcome.Attempts = len(report.Tried)
	return outcome, nil
}

func (s *Selector) probe(ctx context.Context, targetURL string, record Record) (*Outcome, error) {
	outcome, err := s.ProbeOnce(ctx, targetURL, record.URL(), s.Timeout)
	if err != nil {
		return nil, err
	}
	outcome.ProxyUsed = record.String()
	return outcome, nil
}

// ProbeOnce issues a single GET to targetURL through proxyURL, or directly when
// proxyURL is nil.
func (s *Selector) ProbeOnce(ctx context.Context, targetURL string, proxyURL *url.URL, timeout time.Duration) (*Outcome, error) {
	client := s.ClientFunc(proxyURL, timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building probe request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	prefix, _ := io.ReadAll(io.LimitReader(resp.Body, bodyPrefixLen))

	return &Outcome{
		StatusCode: resp.StatusCode,
		BodyPrefix: strings.ToValidUTF8(string(prefix), ""),
		ProxyUsed:  Redact(proxyURL),
		Attempts:   1,
	}, nil
}

func distinct(pool []Record) []Record {
	seen := make(map[string]struct{}, len(pool))
	out := make([]Record, 0, len(pool))
	for _, record := range pool {
		key := record.URL().String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, record)
	}
	return out
}
