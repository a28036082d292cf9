package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// LogSender stands in for a mail provider and writes each message to the log.
type LogSender struct{ log *slog.Logger }

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{log: logger.With("adapter", "mail_log")}
}

func (s *LogSender) Send(ctx context.Context, address, subject, body string) error {
	s.log.InfoContext(ctx, "email sent",
		slog.String("to", address),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}

// Mail is the queued message format.
type Mail struct {
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

// RedisQueueSender appends messages to a redis list drained by a mail worker.
type RedisQueueSender struct {
	rdb *redis.Client
	key string
	now func() time.Time
}

func NewRedisQueueSender(rdb *redis.Client, key string) *RedisQueueSender {
	return &RedisQueueSender{rdb: rdb, key: key, now: time.Now}
}

func (s *RedisQueueSender) Send(ctx context.Context, address, subject, body string) error {
	payload, err := json.Marshal(Mail{To: address, Subject: subject, Body: body, QueuedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("mail queue: encode json: %w", err)
	}
	if err := s.rdb.RPush(ctx, s.key, payload).Err(); err != nil {
		return fmt.Errorf("mail queue: rpush %s: %w", s.key, err)
	}
	return nil
}
