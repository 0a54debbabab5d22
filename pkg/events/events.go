// Package events publishes authentication events to NATS.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Default subjects.
const (
	SubjectAuthenticated        = "encompass.auth.succeeded"
	SubjectAuthenticationFailed = "encompass.auth.failed"
)

// MsgPublisher is satisfied by *nats.Conn.
type MsgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// Event is the JSON payload of an authentication event.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	InstanceID string    `json:"instanceId"`
	Username   string    `json:"username,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
	Error      string    `json:"error,omitempty"`
	Time       time.Time `json:"time"`
}

// Publisher implements encompass.AuthObserver by publishing each event.
// Publish failures are logged and otherwise ignored, so they never fail a
// token request.
type Publisher struct {
	conn          MsgPublisher
	service       string
	subjectOK     string
	subjectFailed string
	logger        encompass.Logger
}

var _ encompass.AuthObserver = (*Publisher)(nil)

// Option configures a Publisher.
type Option func(*Publisher)

// WithSubjects overrides the success and failure subjects.
func WithSubjects(succeeded, failed string) Option {
	return func(p *Publisher) {
		p.subjectOK = succeeded
		p.subjectFailed = failed
	}
}

// WithLogger sets the logger used for publish failures.
func WithLogger(logger encompass.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher tagging messages with service.
func NewPublisher(conn MsgPublisher, service string, opts ...Option) *Publisher {
	publisher := &Publisher{
		conn:          conn,
		service:       service,
		subjectOK:     SubjectAuthenticated,
		subjectFailed: SubjectAuthenticationFailed,
	}

	for _, opt := range opts {
		opt(publisher)
	}

	return publisher
}

// OnAuthenticated implements encompass.AuthObserver.
func (p *Publisher) OnAuthenticated(ctx context.Context, event encompass.AuthEvent) {
	p.publish(ctx, p.subjectOK, "authenticated", event)
}

// OnAuthenticationFailed implements encompass.AuthObserver.
func (p *Publisher) OnAuthenticationFailed(ctx context.Context, event encompass.AuthEvent) {
	p.publish(ctx, p.subjectFailed, "authentication_failed", event)
}

func (p *Publisher) publish(ctx context.Context, subject, eventType string, event encompass.AuthEvent) {
	if ctx.Err() != nil {
		return
	}

	payload := Event{
		ID:         uuid.New(),
		Type:       eventType,
		InstanceID: event.InstanceID,
		Username:   event.Username,
		StatusCode: event.StatusCode,
		Error:      event.Error,
		Time:       event.Time,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.logFailure(subject, eventType, err)

		return
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"event_type":   []string{eventType},
			"event_id":     []string{payload.ID.String()},
			"service":      []string{p.service},
			"content_type": []string{"application/json"},
		},
	}

	err = p.conn.PublishMsg(msg)
	if err != nil {
		p.logFailure(subject, eventType, err)
	}
}

func (p *Publisher) logFailure(subject, eventType string, err error) {
	if p.logger == nil {
		return
	}

	p.logger.Error("publishing auth event failed", map[string]interface{}{
		"subject":    subject,
		"event_type": eventType,
		"error":      err.Error(),
	})
}
