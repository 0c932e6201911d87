package cart

// DefaultStorageKey is the durable key the cart is persisted under.
const DefaultStorageKey = "harvest_cart"

// KeyValueStore is the durable persistence surface required by the store.
// Get reports found=false with a nil error when the key is absent.
type KeyValueStore interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
}

// Kind classifies a user-visible notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
)

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindSuccess, KindInfo, KindError, KindWarning:
		return true
	}
	return false
}

// Notifier surfaces short-lived messages about cart mutations.
type Notifier interface {
	Notify(message string, kind Kind)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string, kind Kind)

func (f NotifierFunc) Notify(message string, kind Kind) {
	f(message, kind)
}

// Metrics records store activity. Implementations must be safe to call with
// a nil receiver.
type Metrics interface {
	IncMutation(op string)
	IncPersistenceFailure(op string)
}

type noopMetrics struct{}

func (noopMetrics) IncMutation(string)           {}
func (noopMetrics) IncPersistenceFailure(string) {}
