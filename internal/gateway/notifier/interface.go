package notifier

// TextNotifier is the minimal push-notification surface. It is intentionally
// small so components can depend on it without importing a concrete backend.
type TextNotifier interface {
	SendText(text string) error
}

// Nop discards every message. Used when no backend is configured.
type Nop struct{}

func (Nop) SendText(string) error { return nil }
