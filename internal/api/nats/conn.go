// Package natsapi bridges the auth core onto NATS: audit events are
// forwarded as JSON and other services can verify access tokens by request.
package natsapi

import (
	nats "github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/spec-kit/kaie-api/internal/config"
)

// Connect dials NATS and keeps reconnecting for the process lifetime.
func Connect(cfg config.NATSConfig, name string, logger *zap.Logger) (*nats.Conn, error) {
	return nats.Connect(cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
}
