package adapter

// NoticeLevel classifies a user-visible notification.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notifier surfaces short, localized toast-style notifications to whatever
// UI owns the session. Implementations must not block.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}
