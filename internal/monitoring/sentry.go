// Package monitoring wires Sentry error tracking into the service.
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SentryMonitor wraps the Sentry hub. A monitor built without a DSN is a
// no-op so callers never branch on whether tracking is configured.
type SentryMonitor struct {
	enabled bool
	logger  *zap.Logger
}

// SentryConfig holds Sentry initialization parameters.
type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	ServiceName      string
	TracesSampleRate float64
}

// NewSentryMonitor initializes Sentry. An empty DSN disables tracking.
func NewSentryMonitor(cfg *SentryConfig, logger *zap.Logger) (*SentryMonitor, error) {
	if cfg.DSN == "" {
		logger.Info("Sentry DSN not configured, error tracking disabled")
		return &SentryMonitor{enabled: false, logger: logger}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		ServerName:       cfg.ServiceName,
		TracesSampleRate: cfg.TracesSampleRate,
	})
	if err != nil {
		return &SentryMonitor{enabled: false, logger: logger}, err
	}

	return &SentryMonitor{enabled: true, logger: logger}, nil
}

// GinMiddleware returns the request-scoped Sentry middleware.
func (m *SentryMonitor) GinMiddleware() gin.HandlerFunc {
	if !m.enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return sentrygin.New(sentrygin.Options{Repanic: true})
}

// RecoveryMiddleware converts panics into 500 responses and reports them.
func (m *SentryMonitor) RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if m.enabled {
					sentry.CurrentHub().Recover(r)
				}
				m.logger.Error("panic recovered", zap.Any("panic", r))
				c.AbortWithStatus(500)
			}
		}()
		c.Next()
	}
}

// Flush drains buffered events before shutdown.
func (m *SentryMonitor) Flush(timeout time.Duration) {
	if m.enabled {
		sentry.Flush(timeout)
	}
}
