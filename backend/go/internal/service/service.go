package service

import (
	"MindGraphDB/backend/go/internal/events"
	"MindGraphDB/backend/go/internal/models"
	"MindGraphDB/backend/go/internal/store"
	"MindGraphDB/backend/go/pkg/logger"
	"context"
	"errors"
)

var (
	// ErrNotFound 表示请求的学生、文献或图节点不存在。
	ErrNotFound = store.ErrNotFound
	// ErrUnavailable 表示依赖的外部组件未配置或不可用。
	ErrUnavailable = errors.New("service unavailable")
)

func orDiscard(log *logger.Logger) *logger.Logger {
	if log == nil {
		return logger.Discard()
	}
	return log
}

// publish 发布领域事件，失败只记录日志。
func publish(ctx context.Context, pub events.Publisher, log *logger.Logger, eventType string, payload map[string]interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, eventType, payload); err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).
			WithPayload(map[string]interface{}{"event": eventType}).
			Warn("Failed to publish domain event")
	}
}
