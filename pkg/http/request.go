package http

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP derives the client address for rate limiting: the first entry of
// X-Forwarded-For, else X-Real-IP, else the transport peer address. First
// match wins and no validation is performed, so the value is spoofable
// without a trusted-proxy allowlist in front of this service.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return remoteAddr(r)
}

// remoteAddr strips the port from RemoteAddr if present.
func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}
