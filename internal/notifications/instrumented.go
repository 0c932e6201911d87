package notifications

import "github.com/harvestconnect/harvestcart/internal/cart"

// KindCounter counts notifications by kind.
type KindCounter interface {
	IncNotification(kind string)
}

// Instrumented counts every notification before forwarding it.
type Instrumented struct {
	next    cart.Notifier
	counter KindCounter
}

func NewInstrumented(next cart.Notifier, counter KindCounter) *Instrumented {
	return &Instrumented{next: next, counter: counter}
}

func (i *Instrumented) Notify(message string, kind cart.Kind) {
	if i.counter != nil {
		i.counter.IncNotification(string(kind))
	}
	if i.next != nil {
		i.next.Notify(message, kind)
	}
}
