package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/terra-footwear/terra-stock-service/internal/order"
	"github.com/terra-footwear/terra-stock-service/internal/order/dto"
	"github.com/terra-footwear/terra-stock-service/pkg/broker"
	"github.com/terra-footwear/terra-stock-service/pkg/logger"
)

// OrderListener consumes order status events published by the storefront
// and replays them through the stock trigger. The trigger compares the
// stored status with the incoming one, so redelivered events are no-ops.
type OrderListener struct {
	consumer *broker.KafkaConsumer
	uc       order.UseCase
	logger   logger.ZapLogger
}

func NewOrderListener(consumer *broker.KafkaConsumer, uc order.UseCase, log logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer: consumer,
		uc:       uc,
		logger:   log,
	}
}

func (l *OrderListener) Run(ctx context.Context) {
	l.logger.Info("order listener started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("order listener stopped")
			return
		default:
		}

		msg, err := l.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			l.logger.Error("failed to read order event", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var event dto.OrderChangedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			l.logger.Error("failed to decode order event",
				zap.String("key", string(msg.Key)),
				zap.Error(err),
			)
			continue
		}

		l.handle(ctx, &event)
	}
}

func (l *OrderListener) handle(ctx context.Context, event *dto.OrderChangedEvent) {
	_, err := l.uc.UpdateStatus(ctx, event.OrderID, &dto.UpdateStatusInput{Status: event.NewStatus})
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			l.logger.Warn("order event for unknown order",
				zap.String("order_id", event.OrderID),
				zap.String("order_number", event.OrderNumber),
			)
			return
		}
		l.logger.Error("failed to apply order event",
			zap.String("order_id", event.OrderID),
			zap.String("new_status", event.NewStatus),
			zap.Error(err),
		)
		return
	}

	l.logger.Info("order event applied",
		zap.String("order_number", event.OrderNumber),
		zap.String("previous_status", event.PreviousStatus),
		zap.String("new_status", event.NewStatus),
	)
}
