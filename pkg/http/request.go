package http

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	apperrors "leadpipe/pkg/errors"
	"leadpipe/pkg/model"
)

const (
	HeaderForwardedFor   = "X-Forwarded-For"
	HeaderRealIP         = "X-Real-IP"
	HeaderUserAgent      = "User-Agent"
	HeaderReferer        = "Referer"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// ClientIP returns the client address reported by the proxy headers, or ""
// when neither X-Forwarded-For nor X-Real-IP is set. Only the first hop of
// X-Forwarded-For is used.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get(HeaderForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return strings.TrimSpace(r.Header.Get(HeaderRealIP))
}

// RemoteKey identifies the caller by the connection's remote host. Proxy
// headers are ignored since any client can set them.
func RemoteKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ProxyKey identifies the caller by the proxy reported address, falling back
// to RemoteKey. Use it only behind a proxy that overwrites X-Forwarded-For.
func ProxyKey(r *http.Request) string {
	if ip := ClientIP(r); ip != "" {
		return ip
	}
	return RemoteKey(r)
}

// DecodeObject reads a JSON object body into a generic map so that field
// types can be checked individually.
func DecodeObject(r *http.Request) (map[string]any, error) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperrors.InvalidInput("Request body too large")
		}
		if errors.Is(err, io.EOF) {
			return nil, apperrors.InvalidInput("Request body is empty")
		}
		return nil, apperrors.InvalidInput("Invalid request body")
	}
	if body == nil {
		return nil, apperrors.InvalidInput("Invalid request body")
	}
	return body, nil
}

// Decode reads a JSON body into v.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.InvalidInput("Invalid request body")
	}
	return nil
}

// Meta collects the delivery metadata of r. Missing values stay empty and are
// defaulted by the pipeline.
func Meta(r *http.Request) model.RequestMeta {
	return model.RequestMeta{
		ClientIP:       ClientIP(r),
		UserAgent:      strings.TrimSpace(r.Header.Get(HeaderUserAgent)),
		Referer:        strings.TrimSpace(r.Header.Get(HeaderReferer)),
		IdempotencyKey: strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey)),
	}
}
