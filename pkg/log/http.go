package log

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-ID"

// Transport returns an http.RoundTripper that tags every outbound request
// with an X-Request-ID and logs its outcome. A nil base uses
// http.DefaultTransport.
func Transport(logger zerolog.Logger, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &loggingTransport{base: base, logger: logger}
}

type loggingTransport struct {
	base   http.RoundTripper
	logger zerolog.Logger
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()

	reqID := r.Header.Get(headerRequestID)
	if reqID == "" {
		reqID = uuid.New().String()
		// RoundTrippers must not mutate the caller's request.
		r = r.Clone(r.Context())
		r.Header.Set(headerRequestID, reqID)
	}

	resp, err := t.base.RoundTrip(r)

	// Signed storage URLs carry credentials in the query string, so only
	// host and path are logged.
	evt := t.logger.Debug()
	if err != nil {
		evt = t.logger.Warn().Err(err)
	}
	evt = evt.
		Str(FieldRequestID, reqID).
		Str(FieldMethod, r.Method).
		Str(FieldHost, r.URL.Host).
		Str(FieldPath, r.URL.Path).
		Float64(FieldLatency, float64(time.Since(start).Milliseconds()))
	if resp != nil {
		evt = evt.Int(FieldStatus, resp.StatusCode)
	}
	evt.Msg("outbound request completed")

	return resp, err
}
