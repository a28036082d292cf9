package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"loan-lifecycle/internal/usecase/sideeffect"
)

const IdempotencyHeader = "Idempotency-Key"

var ErrNoReference = errors.New("disbursement: response carried no reference")

// DisbursementClient transfers funds through the disbursement service.
type DisbursementClient struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewDisbursementClient(baseURL string, timeout time.Duration, logger *slog.Logger) *DisbursementClient {
	return &DisbursementClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "disbursement"),
	}
}

type disburseRequest struct {
	UserID string      `json:"user_id"`
	LoanID string      `json:"loan_id"`
	Amount json.Number `json:"amount"`
}

type disburseResponse struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

// Disburse calls POST /disburse/ and returns the transfer reference.
func (c *DisbursementClient) Disburse(ctx context.Context, in sideeffect.DisbursementRequest) (string, error) {
	payload, err := json.Marshal(disburseRequest{UserID: in.UserID, LoanID: in.LoanID, Amount: json.Number(in.Amount.StringFixed(2))})
	if err != nil {
		return "", fmt.Errorf("disbursement: encode json: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/disburse/", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("disbursement: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyHeader, in.IdempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("disbursement: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("disbursement: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	var out disburseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("disbursement: decode json: %w", err)
	}
	if out.Reference == "" {
		return "", ErrNoReference
	}

	c.log.InfoContext(ctx, "funds disbursed",
		slog.String("loan_id", in.LoanID),
		slog.String("reference", out.Reference),
		slog.String("status", out.Status),
	)
	return out.Reference, nil
}
