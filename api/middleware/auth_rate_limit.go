package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/vrukshaservices/vruksha-backend/api/responses"
	"github.com/vrukshaservices/vruksha-backend/pkg/config"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
	pkgredis "github.com/vrukshaservices/vruksha-backend/pkg/redis"
)

// RateLimitPolicy describes a fixed window counter applied per client IP
// and, when the request body carries an email, per email.
type RateLimitPolicy struct {
	Name       string
	Window     time.Duration
	IPLimit    int
	EmailLimit int
}

func LoginRateLimitPolicy(cfg config.AuthRateLimitConfig) RateLimitPolicy {
	return RateLimitPolicy{
		Name:       "login",
		Window:     cfg.LoginWindow,
		IPLimit:    cfg.LoginIPLimit,
		EmailLimit: cfg.LoginEmailLimit,
	}
}

func OTPRateLimitPolicy(cfg config.AuthRateLimitConfig) RateLimitPolicy {
	return RateLimitPolicy{
		Name:       "otp",
		Window:     cfg.OTPWindow,
		IPLimit:    cfg.OTPIPLimit,
		EmailLimit: cfg.OTPEmailLimit,
	}
}

// AuthRateLimit enforces the policy with counters held in redis. A nil redis
// client or a redis failure lets the request through so an outage never
// locks users out.
func AuthRateLimit(rdb *pkgredis.Client, policy RateLimitPolicy, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := clientIP(r)

			key := rdb.RateLimitKey(fmt.Sprintf("%s:ip:%s", policy.Name, ip))
			count, err := rdb.IncrWithTTL(ctx, key, policy.Window)
			if err != nil {
				if logg != nil {
					logg.Warn(ctx, "rate_limit.redis_unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}
			if policy.IPLimit > 0 && count > int64(policy.IPLimit) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
				return
			}

			if email := peekEmail(r); email != "" && policy.EmailLimit > 0 {
				key = rdb.RateLimitKey(fmt.Sprintf("%s:email:%s", policy.Name, email))
				count, err = rdb.IncrWithTTL(ctx, key, policy.Window)
				if err == nil && count > int64(policy.EmailLimit) {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// peekEmail reads the request body looking for an email field and restores
// the body for downstream handlers.
func peekEmail(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	const maxPeek = 1 << 16
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeek))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}
