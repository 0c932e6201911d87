package notifications

import (
	"context"
	"fmt"

	"github.com/harvestconnect/harvestcart/internal/cart"
	"github.com/harvestconnect/harvestcart/pkg/logger"
)

// Fanout forwards each notification to every child. A child that panics is
// logged and skipped; the remaining children still receive the message.
type Fanout struct {
	children []cart.Notifier
	logg     *logger.Logger
}

func NewFanout(logg *logger.Logger, children ...cart.Notifier) *Fanout {
	kept := make([]cart.Notifier, 0, len(children))
	for _, child := range children {
		if child != nil {
			kept = append(kept, child)
		}
	}
	return &Fanout{children: kept, logg: logg}
}

func (f *Fanout) Notify(message string, kind cart.Kind) {
	for _, child := range f.children {
		f.deliver(child, message, kind)
	}
}

func (f *Fanout) deliver(child cart.Notifier, message string, kind cart.Kind) {
	defer func() {
		if r := recover(); r != nil && f.logg != nil {
			f.logg.Error(context.Background(), "notifications.fanout.panic", fmt.Errorf("notifier panic: %v", r))
		}
	}()
	child.Notify(message, kind)
}
