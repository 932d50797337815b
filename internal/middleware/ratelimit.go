package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/carddemo/carddemo-api/internal/config"
	pkghttp "github.com/carddemo/carddemo-api/pkg/http"
)

const burstWindow = 10 * time.Second

// sensitiveEndpoints receive a tighter per-minute cap than the general limit.
var sensitiveEndpoints = []string{
	"/auth/login",
	"/auth/logout",
	"/auth/me",
}

// RateLimiter enforces sliding-window limits per client IP across three
// horizons: a short burst window, a per-minute window, and a per-hour window.
// Sensitive auth endpoints carry an additional, stricter per-minute cap.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow

	perMinute    int
	perHour      int
	burstLimit   int
	sensitiveCap int

	cleanupInterval time.Duration
	logger          *slog.Logger

	// now is swappable in tests
	now func() time.Time
}

// clientWindow tracks request timestamps for a single client IP. Timestamps
// older than one hour are pruned on every check.
type clientWindow struct {
	requests []time.Time
}

// limitStatus is a snapshot of a client's remaining budget, used to populate
// rate limit response headers.
type limitStatus struct {
	remainingMinute int
	remainingHour   int
	reset           time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, logger *slog.Logger) *RateLimiter {
	sensitiveCap := cfg.CallsPerMinute / 6
	if sensitiveCap > 10 {
		sensitiveCap = 10
	}
	if sensitiveCap < 1 {
		sensitiveCap = 1
	}

	return &RateLimiter{
		clients:         make(map[string]*clientWindow),
		perMinute:       cfg.CallsPerMinute,
		perHour:         cfg.CallsPerHour,
		burstLimit:      cfg.BurstLimit,
		sensitiveCap:    sensitiveCap,
		cleanupInterval: cfg.CleanupInterval,
		logger:          logger,
		now:             time.Now,
	}
}

// Middleware rejects requests that exceed any window with a 429 envelope.
// Rate limit headers are attached to allowed and rejected responses alike.
func (l *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := pkghttp.ClientIP(r)
			allowed, status := l.allow(ip, r.URL.Path)

			h := w.Header()
			h.Set("X-RateLimit-Limit-Minute", strconv.Itoa(l.perMinute))
			h.Set("X-RateLimit-Remaining-Minute", strconv.Itoa(status.remainingMinute))
			h.Set("X-RateLimit-Limit-Hour", strconv.Itoa(l.perHour))
			h.Set("X-RateLimit-Remaining-Hour", strconv.Itoa(status.remainingHour))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(status.reset.Unix(), 10))

			if !allowed {
				l.logger.Warn("rate limit exceeded",
					"client_ip", ip,
					"path", r.URL.Path,
					"correlation_id", pkghttp.CorrelationID(r.Context()),
				)
				pkghttp.WriteRateLimited(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// allow checks all windows in order of increasing horizon and records the
// request only when every check passes. Rejected requests do not consume
// budget, so a throttled client recovers as soon as its window slides.
func (l *RateLimiter) allow(ip, path string) (bool, limitStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cw, ok := l.clients[ip]
	if !ok {
		cw = &clientWindow{}
		l.clients[ip] = cw
	}
	cw.prune(now)

	burst, minute, hour := cw.counts(now)

	allowed := true
	switch {
	case burst >= l.burstLimit:
		allowed = false
	case minute >= l.perMinute:
		allowed = false
	case hour >= l.perHour:
		allowed = false
	// The sensitive cap counts the client's whole per-minute activity, so a
	// client that is busy elsewhere has no auth budget left either.
	case isSensitiveEndpoint(path) && minute >= l.sensitiveCap:
		allowed = false
	}

	if allowed {
		cw.requests = append(cw.requests, now)
		minute++
		hour++
	}

	return allowed, limitStatus{
		remainingMinute: max(l.perMinute-minute, 0),
		remainingHour:   max(l.perHour-hour, 0),
		reset:           nextMinuteBoundary(now),
	}
}

// CleanupInterval reports how often idle client state should be pruned.
func (l *RateLimiter) CleanupInterval() time.Duration {
	return l.cleanupInterval
}

// Cleanup drops clients with no activity inside the hour window. The
// background cleanup manager calls this periodically.
func (l *RateLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for ip, cw := range l.clients {
		cw.prune(now)
		if len(cw.requests) == 0 {
			delete(l.clients, ip)
			removed++
		}
	}
	if removed > 0 {
		l.logger.Debug("rate limiter cleanup", "clients_removed", removed, "clients_tracked", len(l.clients))
	}
}

func (cw *clientWindow) prune(now time.Time) {
	hourAgo := now.Add(-time.Hour)
	cw.requests = pruneBefore(cw.requests, hourAgo)
}

func (cw *clientWindow) counts(now time.Time) (burst, minute, hour int) {
	burstCutoff := now.Add(-burstWindow)
	minuteCutoff := now.Add(-time.Minute)

	for _, ts := range cw.requests {
		hour++
		if ts.After(minuteCutoff) {
			minute++
		}
		if ts.After(burstCutoff) {
			burst++
		}
	}
	return burst, minute, hour
}

// nextMinuteBoundary rounds up to the next wall-clock minute, the moment the
// X-RateLimit-Reset header advertises.
func nextMinuteBoundary(now time.Time) time.Time {
	return now.Truncate(time.Minute).Add(time.Minute)
}

func pruneBefore(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}

func isSensitiveEndpoint(path string) bool {
	for _, p := range sensitiveEndpoints {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}
