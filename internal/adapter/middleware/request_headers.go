package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"loan-lifecycle/pkg/id"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
)

var (
	errMissingRequestID = errors.New("missing " + HeaderRequestID)
	errBadRequestID     = errors.New("invalid " + HeaderRequestID + " format")
	errMissingRequestAt = errors.New("missing " + HeaderRequestAt)
	errBadRequestAt     = errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
)

// requestID accepts a lowercase canonical UUID (versions 1-5) or a 32-char
// lowercase hex id.
func requestID(h http.Header) (string, error) {
	raw := strings.TrimSpace(h.Get(HeaderRequestID))
	if raw == "" {
		return "", errMissingRequestID
	}
	if id.Valid(raw) {
		return raw, nil
	}
	if len(raw) != 36 || strings.ToLower(raw) != raw {
		return "", errBadRequestID
	}
	u, err := uuid.Parse(raw)
	if err != nil || u.Version() < 1 || u.Version() > 5 || u.Variant() != uuid.RFC4122 {
		return "", errBadRequestID
	}
	return raw, nil
}

// requestTime parses epoch seconds, epoch milliseconds or an RFC3339
// timestamp carrying an explicit zone.
func requestTime(h http.Header) (time.Time, error) {
	raw := strings.TrimSpace(h.Get(HeaderRequestAt))
	if raw == "" {
		return time.Time{}, errMissingRequestAt
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errBadRequestAt
	}
	return t.UTC(), nil
}

// fingerprint binds a request id to the exact target and payload it was
// first used with.
func fingerprint(method, target string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(target))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
