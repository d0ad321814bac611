package rabbitmq

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suchimauz/clinic-admin/internal/config"
	"github.com/suchimauz/clinic-admin/internal/core/domain"
	"github.com/suchimauz/clinic-admin/internal/core/ports/in"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
)

const setupAttempts = 3

type DeletionListener struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	useCase in.DoctorDeletionService
	cfg     *config.Config
	logger  out.LoggerPort

	consumerWg sync.WaitGroup
}

type CommandType string

const (
	CommandTypeDelete     CommandType = "delete"
	CommandTypeInvalidate CommandType = "invalidate"
)

// ResourceAll - команда относится ко всем ресурсам сразу
const ResourceAll = "_all_"

type DeletionRoutingKey struct {
	Source   string
	Receiver string
	Resource string
	Target   string
	Command  CommandType
}

func NewDeletionListener(useCase in.DoctorDeletionService, cfg *config.Config, logger out.LoggerPort) (*DeletionListener, error) {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("rabbitmq.disabled", out.LogFields{
			"message": "RabbitMQ is disabled, listener will not be started",
		})
		return nil, nil
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Error("rabbitmq.connect.failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		logger.Error("rabbitmq.channel.failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	return &DeletionListener{
		conn:    conn,
		channel: channel,
		useCase: useCase,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

func (l *DeletionListener) Start(ctx context.Context) error {
	exchange := l.cfg.RabbitMQ.Exchange
	err := l.retry(ctx, "exchange_declare", func() error {
		return l.channel.ExchangeDeclare(
			exchange,
			"topic", // тип обменника
			true,    // durable
			false,   // auto-delete
			false,   // internal
			false,   // no-wait
			nil,     // аргументы
		)
	})
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	var queue amqp.Queue
	err = l.retry(ctx, "queue_declare", func() error {
		var err error
		queue, err = l.channel.QueueDeclare(
			l.cfg.RabbitMQ.Queue,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", l.cfg.RabbitMQ.Queue, err)
	}

	for _, binding := range []string{l.cfg.RabbitMQ.Bind, l.cfg.RabbitMQ.AllBind} {
		if binding == "" {
			continue
		}
		err = l.retry(ctx, "queue_bind", func() error {
			return l.channel.QueueBind(queue.Name, binding, exchange, false, nil)
		})
		if err != nil {
			return fmt.Errorf("failed to bind queue %s to %s: %w", queue.Name, binding, err)
		}
	}

	consumerID := fmt.Sprintf("consumer-%s-%d", queue.Name, time.Now().UnixNano())
	var msgs <-chan amqp.Delivery
	err = l.retry(ctx, "consume", func() error {
		var err error
		msgs, err = l.channel.Consume(
			queue.Name,
			consumerID,
			false, // auto-ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,   // args
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to consume from queue %s: %w", queue.Name, err)
	}

	l.logger.Info("rabbitmq.queue.started", out.LogFields{
		"queue":      queue.Name,
		"exchange":   exchange,
		"consumerID": consumerID,
	})

	l.consumerWg.Add(1)
	go l.consume(ctx, queue.Name, msgs)

	return nil
}

func (l *DeletionListener) consume(ctx context.Context, queueName string, msgs <-chan amqp.Delivery) {
	defer l.consumerWg.Done()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("rabbitmq.consumer.stopping_by_context", out.LogFields{
				"queue": queueName,
			})
			return
		case msg, ok := <-msgs:
			if !ok {
				l.logger.Warn("rabbitmq.consumer.channel_closed", out.LogFields{
					"queue": queueName,
				})
				return
			}

			// Ошибка обработки - это битое сообщение, в очередь его не возвращаем
			if err := l.processMessage(ctx, msg); err != nil {
				l.logger.Error("rabbitmq.process_message.failed", out.LogFields{
					"queue":      queueName,
					"routingKey": msg.RoutingKey,
					"messageId":  msg.MessageId,
					"error":      err.Error(),
				})
				if err := msg.Nack(false, false); err != nil {
					l.logger.Error("rabbitmq.message.nack_failed", out.LogFields{
						"error": err.Error(),
					})
				}
				continue
			}

			if err := msg.Ack(false); err != nil {
				l.logger.Error("rabbitmq.message.ack_failed", out.LogFields{
					"error": err.Error(),
				})
			}
		}
	}
}

func (l *DeletionListener) processMessage(ctx context.Context, msg amqp.Delivery) error {
	l.logger.Debug("rabbitmq.message.received", out.LogFields{
		"routingKey": msg.RoutingKey,
		"messageId":  msg.MessageId,
		"body":       string(msg.Body),
	})

	routingKey, err := ParseDeletionRoutingKey(msg.RoutingKey)
	if err != nil {
		return err
	}

	if routingKey.Resource == ResourceAll {
		return l.processAllMessage(ctx, routingKey)
	}

	return l.processDeleteMessage(ctx, routingKey, msg)
}

func (l *DeletionListener) Stop() error {
	if l == nil || l.channel == nil {
		return nil
	}

	if err := l.channel.Close(); err != nil {
		return err
	}
	l.consumerWg.Wait()
	return l.conn.Close()
}

func (l *DeletionListener) retry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= setupAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		l.logger.Warn("rabbitmq."+op+".retry", out.LogFields{
			"attempt": attempt,
			"error":   err.Error(),
		})

		if attempt == setupAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return err
}

// Пример routingKey:
// clinic.clinic-admin.doctors.7.delete
// clinic.clinic-admin.appointments.10.delete
// clinic.clinic-admin._all_.reports.invalidate
func ParseDeletionRoutingKey(routingKey string) (DeletionRoutingKey, error) {
	parts := strings.Split(routingKey, ".")

	if len(parts) != 5 {
		return DeletionRoutingKey{}, fmt.Errorf("invalid routing key: %s", routingKey)
	}

	key := DeletionRoutingKey{
		Source:   parts[0],
		Receiver: parts[1],
		Resource: parts[2],
		Target:   parts[3],
		Command:  CommandType(parts[4]),
	}

	switch {
	case key.Resource == ResourceAll && key.Command == CommandTypeInvalidate:
		return key, nil
	case key.Resource != ResourceAll && key.Command == CommandTypeDelete:
		if _, err := domain.ParseResourceType(key.Resource); err != nil {
			return DeletionRoutingKey{}, fmt.Errorf("invalid routing key %s: %w", routingKey, err)
		}
		if _, err := key.ID(); err != nil {
			return DeletionRoutingKey{}, fmt.Errorf("invalid routing key %s: %w", routingKey, err)
		}
		return key, nil
	}

	return DeletionRoutingKey{}, fmt.Errorf("unsupported command %q for %q in routing key %s", key.Command, key.Resource, routingKey)
}

func (k DeletionRoutingKey) ID() (int, error) {
	id, err := strconv.Atoi(k.Target)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", k.Target)
	}
	return id, nil
}
