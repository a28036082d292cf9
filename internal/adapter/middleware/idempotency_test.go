package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-lifecycle/internal/domain/actor"
)

var (
	testAuth = NewAuthenticator("0123456789abcdef0123456789abcdef", "loan-lifecycle-test")
	fixedNow = time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
)

func bearer(t *testing.T, id string) string {
	t.Helper()
	tok, err := testAuth.Issue(actor.Actor{ID: id, Role: actor.RoleCustomer}, time.Minute)
	require.NoError(t, err)
	return "Bearer " + tok
}

type replayFixture struct {
	e     *echo.Echo
	store *ReplayStore
	calls int
}

// newReplayFixture mounts a decision-like route whose handler answers with
// the given status.
func newReplayFixture(t *testing.T, store *ReplayStore, status int) *replayFixture {
	t.Helper()
	f := &replayFixture{store: store}
	f.e = echo.New()
	f.e.Use(Auth(testAuth), Idempotency(IdempotencyConfig{
		Store:  store,
		TTL:    5 * time.Minute,
		Now:    func() time.Time { return fixedNow },
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}))
	h := func(c echo.Context) error {
		f.calls++
		return c.JSON(status, map[string]any{"call": f.calls, "loan_id": c.Param("loan_id")})
	}
	f.e.POST("/loans/:loan_id/decision", h)
	f.e.GET("/loans/:loan_id", h)
	return f
}

func (f *replayFixture) send(t *testing.T, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func validHeaders(t *testing.T, actorID string) map[string]string {
	return map[string]string{
		HeaderRequestID:          reqA,
		HeaderRequestAt:          fixedNow.Format(time.RFC3339),
		echo.HeaderAuthorization: bearer(t, actorID),
	}
}

func TestIdempotency_ReadsPassThrough(t *testing.T) {
	_, store := newReplayStore(t)
	f := newReplayFixture(t, store, http.StatusOK)
	hdr := map[string]string{echo.HeaderAuthorization: bearer(t, actorB)}

	assert.Equal(t, http.StatusOK, f.send(t, http.MethodGet, "/loans/x", "", hdr).Code)
	assert.Equal(t, http.StatusOK, f.send(t, http.MethodGet, "/loans/x", "", hdr).Code)
	assert.Equal(t, 2, f.calls)
}

func TestIdempotency_RejectsBadHeaders(t *testing.T) {
	_, store := newReplayStore(t)
	f := newReplayFixture(t, store, http.StatusOK)

	cases := []struct {
		name string
		edit func(h map[string]string)
		want int
	}{
		{"missing request id", func(h map[string]string) { delete(h, HeaderRequestID) }, http.StatusBadRequest},
		{"malformed request id", func(h map[string]string) { h[HeaderRequestID] = "NOT-VALID" }, http.StatusBadRequest},
		{"missing request time", func(h map[string]string) { delete(h, HeaderRequestAt) }, http.StatusBadRequest},
		{"malformed request time", func(h map[string]string) { h[HeaderRequestAt] = "not-a-time" }, http.StatusBadRequest},
		{"request time too old", func(h map[string]string) {
			h[HeaderRequestAt] = fixedNow.Add(-defaultMaxSkew - time.Minute).Format(time.RFC3339)
		}, http.StatusBadRequest},
		{"request time in the future", func(h map[string]string) {
			h[HeaderRequestAt] = strconv.FormatInt(fixedNow.Add(defaultMaxSkew+time.Minute).UnixMilli(), 10)
		}, http.StatusBadRequest},
		{"missing token", func(h map[string]string) { delete(h, echo.HeaderAuthorization) }, http.StatusUnauthorized},
		{"subject not hex32", func(h map[string]string) { h[echo.HeaderAuthorization] = bearer(t, "not32hex") }, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hdr := validHeaders(t, actorB)
			tc.edit(hdr)
			rec := f.send(t, http.MethodPost, "/loans/x/decision", `{"action":"approve"}`, hdr)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
	assert.Zero(t, f.calls)
}

func TestIdempotency_ReplaysFinishedResponse(t *testing.T) {
	mr, store := newReplayStore(t)
	f := newReplayFixture(t, store, http.StatusOK)
	hdr := validHeaders(t, actorB)

	first := f.send(t, http.MethodPost, "/loans/x/decision", `{"action":"approve"}`, hdr)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get("Ax-Replayed"))

	again := f.send(t, http.MethodPost, "/loans/x/decision", `{"action":"approve"}`, hdr)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "true", again.Header().Get("Ax-Replayed"))
	assert.Equal(t, first.Body.String(), again.Body.String())
	assert.Contains(t, again.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	assert.Equal(t, 1, f.calls)

	key := replayKey(actorB, http.MethodPost, "/loans/:loan_id/decision", reqA)
	assert.Equal(t, 5*time.Minute, mr.TTL(key))
}

func TestIdempotency_ReusedIDWithDifferentRequest(t *testing.T) {
	_, store := newReplayStore(t)
	f := newReplayFixture(t, store, http.StatusOK)
	hdr := validHeaders(t, actorB)

	require.Equal(t, http.StatusOK, f.send(t, http.MethodPost, "/loans/x/decision", `{"action":"approve"}`, hdr).Code)

	rec := f.send(t, http.MethodPost, "/loans/x/decision", `{"action":"reject"}`, hdr)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = f.send(t, http.MethodPost, "/loans/y/decision", `{"action":"approve"}`, hdr)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, f.calls)
}

func TestIdempotency_InFlightRequestConflicts(t *testing.T) {
	_, store := newReplayStore(t)
	f := newReplayFixture(t, store, http.StatusOK)
	body := `{"action":"approve"}`

	key := replayKey(actorB, http.MethodPost, "/loans/:loan_id/decision", reqA)
	ok, err := store.Reserve(context.Background(), key, replayRecord{
		Fingerprint: fingerprint(http.MethodPost, "/loans/x/decision", []byte(body)),
	}, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	rec := f.send(t, http.MethodPost, "/loans/x/decision", body, validHeaders(t, actorB))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "in progress")
	assert.Zero(t, f.calls)
}

func TestIdempotency_ScopedPerActor(t *testing.T) {
	_, store := newReplayStore(t)
	f := newReplayFixture(t, store, http.StatusOK)

	for _, who := range []string{actorB, "cccccccccccccccccccccccccccccccc"} {
		rec := f.send(t, http.MethodPost, "/loans/x/decision", `{"action":"approve"}`, validHeaders(t, who))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 2, f.calls)
}

func TestIdempotency_ServerErrorsAreRetryable(t *testing.T) {
	mr, store := newReplayStore(t)
	f := newReplayFixture(t, store, http.StatusServiceUnavailable)
	hdr := validHeaders(t, actorB)

	assert.Equal(t, http.StatusServiceUnavailable, f.send(t, http.MethodPost, "/loans/x/decision", `{}`, hdr).Code)
	assert.False(t, mr.Exists(replayKey(actorB, http.MethodPost, "/loans/:loan_id/decision", reqA)))

	assert.Equal(t, http.StatusServiceUnavailable, f.send(t, http.MethodPost, "/loans/x/decision", `{}`, hdr).Code)
	assert.Equal(t, 2, f.calls)
}

func TestIdempotency_ClientErrorsAreReplayed(t *testing.T) {
	_, store := newReplayStore(t)
	f := newReplayFixture(t, store, http.StatusConflict)
	hdr := validHeaders(t, actorB)

	first := f.send(t, http.MethodPost, "/loans/x/decision", `{}`, hdr)
	again := f.send(t, http.MethodPost, "/loans/x/decision", `{}`, hdr)
	assert.Equal(t, http.StatusConflict, again.Code)
	assert.Equal(t, first.Body.String(), again.Body.String())
	assert.Equal(t, 1, f.calls)
}

func TestIdempotency_StoreUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	f := newReplayFixture(t, NewReplayStore(rdb), http.StatusOK)

	rec := f.send(t, http.MethodPost, "/loans/x/decision", `{}`, validHeaders(t, actorB))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, f.calls)
}
