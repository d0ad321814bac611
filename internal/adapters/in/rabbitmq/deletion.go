package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suchimauz/clinic-admin/internal/core/domain"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
)

type DeleteCommandMessage struct {
	RequestID string `json:"requestId"`
}

// processDeleteMessage - неудачное удаление подтверждаем, повторов нет
func (l *DeletionListener) processDeleteMessage(ctx context.Context, routingKey DeletionRoutingKey, msg amqp.Delivery) error {
	var command DeleteCommandMessage
	if len(msg.Body) > 0 {
		if err := json.Unmarshal(msg.Body, &command); err != nil {
			return fmt.Errorf("failed to unmarshal message: %w", err)
		}
	}

	resource := domain.ResourceType(routingKey.Resource)
	id, err := routingKey.ID()
	if err != nil {
		return err
	}

	logger := l.logger.WithFields(out.LogFields{
		"resource":  resource,
		"id":        id,
		"requestId": command.RequestID,
	})

	// Начатое удаление доводим до конца даже при остановке слушателя
	report, err := l.useCase.DeleteResource(context.WithoutCancel(ctx), resource, id)
	if err != nil {
		if errors.Is(err, domain.ErrDeletionInProgress) {
			logger.Warn("deletion.message.skipped", out.LogFields{
				"reason": "in_progress",
			})
			return nil
		}

		logger.Error("deletion.message.failed", out.LogFields{
			"reportId": report.ID,
			"failed":   len(report.Failed),
			"error":    err.Error(),
		})
		return nil
	}

	logger.Info("deletion.message.deleted", out.LogFields{
		"reportId":      report.ID,
		"appointments":  report.Counts.Appointments,
		"prescriptions": report.Counts.Prescriptions,
	})

	return nil
}
