package s3

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/querylab/diskstore/core/logger"
	"github.com/querylab/diskstore/core/storage"
)

// transport decorates the factory's shared base transport with the
// per-client concerns: the host filter consulted before every outbound
// request, per-direction throttlers, custom and SSE-C header injection, and
// optional request logging. One transport instance backs exactly one client.
type transport struct {
	base    http.RoundTripper
	cfg     ClientConfig
	headers []HeaderEntry

	// loggingEnabled points at the factory's flag so a configuration reload
	// flips logging for every client without locking. Eventually consistent
	// across in-flight requests.
	loggingEnabled *atomic.Bool
	log            *slog.Logger
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.cfg.HostFilter.IsAllowed(req.URL.Host) && !t.cfg.HostFilter.IsAllowed(req.URL.Hostname()) {
		return nil, t.cfg.HostFilter.Check(req.URL.Host)
	}

	if err := t.throttlerFor(req.Method).Wait(req.Context()); err != nil {
		return nil, err
	}

	if len(t.headers) > 0 {
		// RoundTrippers must not mutate the caller's request.
		req = req.Clone(req.Context())
		for _, h := range t.headers {
			req.Header.Add(h.Name, h.Value)
		}
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	if t.cfg.RequestLogging && t.loggingEnabled.Load() {
		attrs := []any{
			logger.Method(req.Method),
			logger.Host(req.URL.Host),
			logger.Key(req.URL.Path),
			logger.Elapsed(start),
		}
		if resp != nil {
			attrs = append(attrs, logger.StatusCode(resp.StatusCode))
		}
		if err != nil {
			attrs = append(attrs, logger.Error(err))
		}
		msg := "s3 request"
		if t.cfg.ForDiskBackend {
			msg = "s3 disk request"
		}
		t.log.Debug(msg, attrs...)
	}

	return resp, err
}

// throttlerFor routes a request to the correct rate limiter: mutating
// methods count against the write throttler, everything else against the
// read throttler.
func (t *transport) throttlerFor(method string) storage.Throttler {
	var th storage.Throttler
	switch method {
	case http.MethodPut, http.MethodPost, http.MethodDelete:
		th = t.cfg.PutThrottler
	default:
		th = t.cfg.GetThrottler
	}
	if th == nil {
		return storage.Unlimited()
	}
	return th
}
