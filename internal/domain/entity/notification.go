package entity

// Notification types carried in the push data payload.
const (
	NotificationTypeChat               = "chat"
	NotificationTypeExchangeRequest    = "exchange_request"
	NotificationTypeExchangeInProgress = "exchange_in_progress"
)

// Notification is the transport-independent push payload. Data values are
// strings because FCM data messages only carry strings.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

func (n Notification) Type() string {
	return n.Data["type"]
}
