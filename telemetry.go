package gateway

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitTelemetry activates Sentry error capture when cfg.SentryDSN is set,
// and is a no-op otherwise. It is never required for correctness — every
// error it would capture is already written to the structured logger.
func InitTelemetry(cfg Config) (flush func(), err error) {
	if cfg.SentryDSN == "" {
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// reportError forwards err to Sentry (if initialized) with tags, and
// always logs msg through log with err and args as attributes. Call sites
// already decided err is log-worthy; this just adds the optional
// telemetry fan-out.
func reportError(log *slog.Logger, err error, tags map[string]string, msg string, args ...any) {
	log.Error(msg, append(args, "err", err)...)
	if sentry.CurrentHub().Client() == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}
