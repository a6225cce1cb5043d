package embedding

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	maxRetries = 3
	baseDelay  = 1 * time.Second
	maxDelay   = 10 * time.Second
)

func retryOperation(ctx context.Context, logger *logrus.Logger, name string, operation func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := operation()
		if err == nil {
			return nil
		}

		if attempt == maxRetries {
			return fmt.Errorf("operation failed after %d retries: %w", maxRetries, err)
		}

		delay := time.Duration(float64(baseDelay) * math.Pow(1.5, float64(attempt)))
		if delay > maxDelay {
			delay = maxDelay
		}

		logger.WithFields(logrus.Fields{
			"operation": name,
			"attempt":   attempt + 1,
			"delay":     delay,
			"error":     err.Error(),
		}).Warn("Retrying operation")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil
}
