// Package eventsvc publishes domain events on NATS.
package eventsvc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
)

// Envelope wraps every published payload.
type Envelope struct {
	Subject    string      `json:"subject"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

var _ core.Publisher = (*NATSPublisher)(nil)

// NewPublisher connects to conf.NATS.URL. Without a URL it returns a publisher that drops everything.
func NewPublisher(conf *core.Config, logger core.Logger) (core.Publisher, func(), error) {
	if conf.NATS.URL == "" {
		return NopPublisher{}, func() {}, nil
	}
	nc, err := nats.Connect(conf.NATS.URL,
		nats.Name(conf.AppName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected to " + c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "connecting to nats")
	}
	pub := NewNATSPublisher(nc, conf.NATS.SubjectPrefix)
	return pub, func() { _ = nc.Drain() }, nil
}

func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: nc, prefix: prefix}
}

// Subject returns the full NATS subject: "<prefix>.<subject>".
func (p *NATSPublisher) Subject(subject string) string {
	if p.prefix == "" {
		return subject
	}
	return p.prefix + "." + subject
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(subject, payload)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.Subject(subject), data); err != nil {
		return errors.Wrapf(err, "publishing %s", subject)
	}
	return nil
}

// Encode marshals payload into an Envelope.
func Encode(subject string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(Envelope{Subject: subject, OccurredAt: core.NowFunc().UTC(), Data: payload})
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s", subject)
	}
	return data, nil
}

type NopPublisher struct{}

var _ core.Publisher = NopPublisher{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
