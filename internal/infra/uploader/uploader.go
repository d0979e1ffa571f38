package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/ports"
)

// maxAckBytes caps how much of the service response is read; acks are small
// JSON documents.
const maxAckBytes = 64 * 1024

// Uploader posts finished run reports to the coverage-report service.
// Transient failures (network errors, 5xx) are retried; 4xx responses are
// treated as final.
type Uploader struct {
	client     *http.Client
	serviceURL string
	interval   time.Duration
	maxRetries uint64
}

type Option func(*Uploader)

func WithClient(client *http.Client) Option {
	return func(u *Uploader) { u.client = client }
}

func WithRetry(interval time.Duration, maxRetries uint64) Option {
	return func(u *Uploader) {
		u.interval = interval
		u.maxRetries = maxRetries
	}
}

func New(serviceURL string, opts ...Option) *Uploader {
	u := &Uploader{
		client:     newHTTPClient(30 * time.Second),
		serviceURL: serviceURL,
		interval:   2 * time.Second,
		maxRetries: 3,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

var _ ports.ReportUploader = (*Uploader)(nil)

func (u *Uploader) Upload(ctx context.Context, sub domain.UploadSubmission) (domain.UploadResult, error) {
	if strings.TrimSpace(u.serviceURL) == "" {
		return domain.UploadResult{}, upErr(domain.FaultBadConfig, errors.New("service url is not configured"))
	}
	if strings.TrimSpace(sub.Token) == "" {
		return domain.UploadResult{}, upErr(domain.FaultMissingVar, fmt.Errorf("repo token is not set: %w", domain.ErrMissingVar))
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return domain.UploadResult{}, upErr(domain.FaultExec, err)
	}

	var result domain.UploadResult
	attempts := 0
	start := time.Now()

	operation := func() error {
		attempts++

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.serviceURL, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := u.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxAckBytes))
		if err != nil {
			return err
		}

		result.StatusCode = resp.StatusCode
		decodeAck(body, &result)

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			// Client errors do not heal on retry.
			return backoff.Permanent(fmt.Errorf("service rejected upload: %s", resp.Status))
		default:
			return fmt.Errorf("service returned %s", resp.Status)
		}
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = u.interval
	bo := backoff.WithContext(backoff.WithMaxRetries(exp, u.maxRetries), ctx)
	retryErr := backoff.Retry(operation, bo)

	result.DurationMS = time.Since(start).Milliseconds()
	result.Attempts = attempts

	if retryErr != nil {
		return result, upErr(domain.FaultUpload, retryErr)
	}
	return result, nil
}

func upErr(kind domain.FaultKind, err error) error {
	return &domain.Fault{Op: "uploader.upload", Kind: kind, Err: err}
}

func decodeAck(body []byte, out *domain.UploadResult) {
	var ack struct {
		Message string `json:"message"`
		URL     string `json:"url"`
	}
	if err := json.Unmarshal(body, &ack); err != nil {
		return
	}
	out.Message = ack.Message
	out.URL = ack.URL
}
