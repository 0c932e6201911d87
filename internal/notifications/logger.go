package notifications

import (
	"context"

	"github.com/harvestconnect/harvestcart/internal/cart"
	"github.com/harvestconnect/harvestcart/pkg/logger"
)

// Logger writes notifications as structured log lines.
type Logger struct {
	logg *logger.Logger
	ctx  context.Context
}

// NewLogger logs through logg with the fields already attached to ctx.
func NewLogger(ctx context.Context, logg *logger.Logger) *Logger {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Logger{logg: logg, ctx: ctx}
}

func (l *Logger) Notify(message string, kind cart.Kind) {
	if l == nil || l.logg == nil {
		return
	}
	ctx := l.logg.WithFields(l.ctx, map[string]any{
		"notification_kind": string(kind),
	})
	switch kind {
	case cart.KindError, cart.KindWarning:
		l.logg.Warn(ctx, message)
	default:
		l.logg.Info(ctx, message)
	}
}
