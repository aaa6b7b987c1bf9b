package services

import (
	"context"
	"log/slog"
)

// Notifier доставляет пользователю внеполосные уведомления (email).
// Все вызовы best-effort: сервис логирует ошибку и продолжает работу.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Broadcaster рассылает события live-подписчикам комнаты.
// Реализация — websocket-хаб; рассылка не возвращает ошибок.
type Broadcaster interface {
	BroadcastToRoom(roomID string, eventType string, payload interface{})
}

// LogNotifier используется, когда SMTP не настроен: уведомление уходит в лог.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, to, subject, _ string) error {
	n.logger.Info("notification (smtp disabled)",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}
