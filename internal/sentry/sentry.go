// Package sentryutil wraps error tracking. With an empty DSN every call is a
// no-op, so callers never need to check whether tracking is enabled.
package sentryutil

import (
	"time"

	"github.com/Dan9191/savings-planner/internal/config"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// Init configures the global sentry hub. Failures are logged, not fatal.
func Init(cfg *config.Config, log *logrus.Logger) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.SentryEnvironment,
		Release:          cfg.SentryRelease,
		TracesSampleRate: 0.2,
		EnableTracing:    cfg.SentryDSN != "",
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			// households are identified by id in tags only
			event.User = sentry.User{}
			return event
		},
	})
	if err != nil {
		log.Warnf("Sentry init (non-blocking): %v", err)
		return
	}
	if cfg.SentryDSN == "" {
		log.Info("SENTRY_DSN empty, error tracking disabled")
	} else {
		log.Info("Sentry initialized")
	}
}

func Flush() { sentry.Flush(2 * time.Second) }

// CaptureError reports err with the given tags.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// CaptureWarning reports a non-fatal anomaly.
func CaptureWarning(msg string, tags map[string]string) {
	captureMessage(msg, sentry.LevelWarning, tags)
}

func captureMessage(msg string, level sentry.Level, tags map[string]string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureMessage(msg)
	})
}
