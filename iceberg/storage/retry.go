package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

var codeRetryExhausted = ibxerrors.StorageCode("retry_exhausted")

// RetryConfig bounds UploadWithRetry's exponential backoff.
type RetryConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig is the backoff schedule the metadata state machine
// uses for its v{N}.metadata.json / version-hint.text writes: three
// attempts, starting at 200ms, doubling up to a 2s cap.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     200 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// UploadWithRetry retries st.Upload on failure with exponential backoff.
// This retries a single writer's own transient I/O errors; it is not a
// substitute for the external serialization the core requires of callers
// writing to the same table concurrently.
func UploadWithRetry(ctx context.Context, st Storage, path string, data []byte, contentType string, cfg RetryConfig, logger zerolog.Logger) error {
	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := st.Upload(ctx, path, data, contentType)
		if err == nil {
			if attempt > 1 {
				logger.Info().Str("path", path).Int("attempt", attempt).Msg("upload succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		logger.Warn().Err(err).Str("path", path).Int("attempt", attempt).Int("max_attempts", cfg.MaxAttempts).Dur("delay", delay).Msg("upload failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return ibxerrors.New(codeRetryExhausted, fmt.Sprintf("upload failed after %d attempts", cfg.MaxAttempts), lastErr).AddContext("path", path)
}
