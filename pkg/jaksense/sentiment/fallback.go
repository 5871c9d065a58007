package sentiment

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTimeout bounds a call to the primary classifier.
const DefaultTimeout = 3 * time.Second

// Fallback tries Primary under a timeout and answers from Backup when the
// primary is missing, slow, or failing. Callers cannot tell which one ran
// except through Result.Backend.
type Fallback struct {
	Primary Classifier
	Backup  Classifier
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewFallback wires a primary behind the default lexicon.
func NewFallback(primary Classifier, logger *slog.Logger) *Fallback {
	return &Fallback{Primary: primary, Backup: DefaultLexicon(), Timeout: DefaultTimeout, Logger: logger}
}

func (f *Fallback) Classify(ctx context.Context, text string) (Result, error) {
	backup := f.Backup
	if backup == nil {
		backup = DefaultLexicon()
	}
	if f.Primary == nil {
		return backup.Classify(ctx, text)
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := f.Primary.Classify(callCtx, text)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	f.logger().Warn("sentiment classifier unavailable, using fallback", "error", err)
	return backup.Classify(ctx, text)
}

func (f *Fallback) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}
