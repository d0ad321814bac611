package rabbitmq

import (
	"context"

	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
)

func (l *DeletionListener) processAllMessage(ctx context.Context, routingKey DeletionRoutingKey) error {
	// Сбрасываем сохраненные отчеты, например после восстановления данных в API клиники
	l.useCase.InvalidateReports(ctx)

	l.logger.Info("_all_.message.invalidated", out.LogFields{
		"reports_cache": true,
		"target":        routingKey.Target,
	})

	return nil
}
