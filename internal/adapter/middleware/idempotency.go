package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// IdempotencyConfig tunes the replay middleware. Zero values fall back to
// the defaults below.
type IdempotencyConfig struct {
	Store *ReplayStore
	// TTL is how long a finished response stays replayable.
	TTL time.Duration
	// Hold bounds a reservation whose request never completes.
	Hold time.Duration
	// MaxSkew is the accepted distance between Ax-Request-At and now.
	MaxSkew      time.Duration
	StoreTimeout time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

const (
	defaultHold         = 60 * time.Second
	defaultMaxSkew      = 10 * time.Minute
	defaultStoreTimeout = 2 * time.Second
)

func (c *IdempotencyConfig) withDefaults() {
	if c.Hold <= 0 {
		c.Hold = defaultHold
	}
	if c.MaxSkew <= 0 {
		c.MaxSkew = defaultMaxSkew
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = defaultStoreTimeout
	}
	if c.Now == nil {
		c.Now = func() time.Time { return time.Now().UTC() }
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// bodyTee copies everything the handler writes so it can be stored.
type bodyTee struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyTee) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func reject(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// Idempotency replays the stored response when a caller repeats a mutating
// request with the same Ax-Request-Id. Reads pass through untouched. It must
// run after Auth since records are scoped per actor. Responses with a 5xx
// status are not stored so the caller can retry them.
func Idempotency(cfg IdempotencyConfig) echo.MiddlewareFunc {
	cfg.withDefaults()
	log := cfg.Logger.With("middleware", "idempotency")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID, err := requestID(req.Header)
			if err != nil {
				return reject(c, http.StatusBadRequest, err.Error())
			}
			sentAt, err := requestTime(req.Header)
			if err != nil {
				return reject(c, http.StatusBadRequest, err.Error())
			}
			now := cfg.Now()
			if sentAt.Before(now.Add(-cfg.MaxSkew)) || sentAt.After(now.Add(cfg.MaxSkew)) {
				return reject(c, http.StatusBadRequest, HeaderRequestAt+" too skewed")
			}
			who, ok := ActorFrom(req.Context())
			if !ok {
				return reject(c, http.StatusUnauthorized, "unauthorized")
			}

			var body []byte
			if req.Body != nil {
				if body, err = io.ReadAll(req.Body); err != nil {
					return reject(c, http.StatusBadRequest, "unreadable body")
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			key := replayKey(who.ID, req.Method, c.Path(), reqID)
			rec := replayRecord{
				Fingerprint: fingerprint(req.Method, req.URL.Path, body),
				SentAt:      sentAt,
				StoredAt:    now,
			}

			storeCtx, cancel := context.WithTimeout(req.Context(), cfg.StoreTimeout)
			defer cancel()
			reserved, err := cfg.Store.Reserve(storeCtx, key, rec, cfg.Hold)
			if err != nil {
				log.ErrorContext(req.Context(), "reserve request id", slog.String("key", key), slog.Any("error", err))
				return reject(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !reserved {
				return replay(storeCtx, c, cfg.Store, key, rec.Fingerprint, log)
			}

			tee := &bodyTee{ResponseWriter: c.Response().Writer}
			c.Response().Writer = tee
			if err := next(c); err != nil {
				c.Error(err)
			}

			bg := context.WithoutCancel(req.Context())
			status := c.Response().Status
			if status >= http.StatusInternalServerError {
				if err := cfg.Store.Release(bg, key); err != nil {
					log.WarnContext(bg, "release request id", slog.String("key", key), slog.Any("error", err))
				}
				return nil
			}
			rec.Status = status
			rec.ContentType = c.Response().Header().Get(echo.HeaderContentType)
			rec.Body = tee.buf.Bytes()
			rec.StoredAt = cfg.Now()
			if err := cfg.Store.Complete(bg, key, rec, cfg.TTL); err != nil {
				log.ErrorContext(bg, "store response", slog.String("key", key), slog.Any("error", err))
			}
			return nil
		}
	}
}

func replay(ctx context.Context, c echo.Context, store *ReplayStore, key, fp string, log *slog.Logger) error {
	prev, err := store.Load(ctx, key)
	switch {
	case errors.Is(err, errNoRecord):
		// Released or expired between Reserve and Load.
		return reject(c, http.StatusConflict, "request is already in progress")
	case err != nil:
		log.WarnContext(ctx, "load replay record", slog.String("key", key), slog.Any("error", err))
		return reject(c, http.StatusServiceUnavailable, "idempotency store unavailable")
	}
	if prev.Fingerprint != fp {
		return reject(c, http.StatusConflict, HeaderRequestID+" reused with a different request")
	}
	if prev.State != stateDone {
		return reject(c, http.StatusConflict, "request is already in progress")
	}
	c.Response().Header().Set("Ax-Replayed", "true")
	contentType := prev.ContentType
	if contentType == "" {
		contentType = echo.MIMEApplicationJSONCharsetUTF8
	}
	return c.Blob(prev.Status, contentType, prev.Body)
}
