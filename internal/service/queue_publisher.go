package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	q "github.com/iliyamo/park-ledger/internal/queue"
)

// EventPublisher hands confirmed bookings to the notification side.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, event q.BookingConfirmedEvent) error
}

// AMQPPublisher publishes to the durable booking.confirmed queue.
type AMQPPublisher struct {
	url string
	log *logrus.Entry
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: logrus.WithField("component", "rabbitmq")}
}

// PublishBookingConfirmed opens a connection, declares the queue and
// publishes event as a persistent message.  Errors are logged and returned
// so the caller can choose to ignore them.
func (p *AMQPPublisher) PublishBookingConfirmed(ctx context.Context, event q.BookingConfirmedEvent) error {
	log := p.log.WithField("booking_id", event.BookingID)
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.WithError(err).Warn("dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Warn("channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		q.BookingQueueName, // name
		true,               // durable
		false,              // autoDelete
		false,              // exclusive
		false,              // noWait
		nil,                // args
	); err != nil {
		log.WithError(err).Warn("queue declare failed")
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Warn("marshal event failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                 // default exchange
		q.BookingQueueName, // routing key = queue name
		false,              // mandatory
		false,              // immediate
		pub,
	); err != nil {
		log.WithError(err).Warn("publish failed")
		return err
	}
	return nil
}

// DirectPublisher runs the handler in its own goroutine instead of going
// through a broker.  Used when RabbitMQ is not configured.
type DirectPublisher struct {
	handle  q.Handler
	timeout time.Duration
}

func NewDirectPublisher(handle q.Handler, timeout time.Duration) *DirectPublisher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DirectPublisher{handle: handle, timeout: timeout}
}

func (p *DirectPublisher) PublishBookingConfirmed(ctx context.Context, event q.BookingConfirmedEvent) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	go func() {
		defer cancel()
		if err := p.handle(ctx, event); err != nil {
			logrus.WithError(err).WithField("booking_id", event.BookingID).Warn("direct dispatch failed")
		}
	}()
	return nil
}
