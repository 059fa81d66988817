package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"gopherauth/internal/event"
	"gopherauth/internal/platform/rabbitmq"
	"gopherauth/internal/schema"
)

// ErrUnknownEvent marks payloads whose type the worker does not handle.
var ErrUnknownEvent = errors.New("unknown user event type")

type ProfileWriter interface {
	Set(ctx context.Context, profile schema.UserResponse) error
	Delete(ctx context.Context, userID uint) error
}

// UserEventWorker keeps the profile cache in step with user lifecycle events.
type UserEventWorker struct {
	conn      *amqp.Connection
	profiles  ProfileWriter
	queueName string
	log       logrus.FieldLogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type rawUserEvent struct {
	Type string         `json:"type"`
	User map[string]any `json:"user"`
}

func NewUserEventWorker(conn *amqp.Connection, profiles ProfileWriter, queueName string, log logrus.FieldLogger) *UserEventWorker {
	return &UserEventWorker{
		conn:      conn,
		profiles:  profiles,
		queueName: queueName,
		log:       log.WithField("component", "user_event_worker"),
	}
}

func (w *UserEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.HandleMessage(workerCtx, d.Body); err != nil {
					w.log.WithError(err).Warn("drop user event")
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// HandleMessage applies one event body. The embedded user is treated as
// untrusted and re-projected before it reaches the cache.
func (w *UserEventWorker) HandleMessage(ctx context.Context, body []byte) error {
	var evt rawUserEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return fmt.Errorf("decode user event failed: %w", err)
	}

	profile, err := schema.UserResponseFromMap(evt.User)
	if err != nil {
		return fmt.Errorf("project user event failed: %w", err)
	}

	switch evt.Type {
	case event.TypeUserRegistered:
		if err := w.profiles.Set(ctx, profile); err != nil {
			return err
		}
	case event.TypeUserDeleted:
		if err := w.profiles.Delete(ctx, profile.ID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, evt.Type)
	}

	w.log.WithFields(logrus.Fields{"type": evt.Type, "user_id": profile.ID}).Debug("user event applied")
	return nil
}

func (w *UserEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
