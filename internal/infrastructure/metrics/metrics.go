package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	notificationsSentTotal   *prometheus.CounterVec
	notificationsFailedTotal *prometheus.CounterVec
	tokensPrunedTotal        prometheus.Counter
	triggerEventsTotal       *prometheus.CounterVec
	messagesAppendedTotal    *prometheus.CounterVec
)

// Register initialises the Prometheus collectors used for push delivery and
// chat observability.
func Register() {
	registerOnce.Do(func() {
		notificationsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Push deliveries accepted by the transport, per token.",
		}, []string{"type"})

		notificationsFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Push deliveries rejected by the transport, per token.",
		}, []string{"type", "kind"})

		tokensPrunedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_tokens_pruned_total",
			Help: "Push tokens removed after a permanent delivery failure.",
		})

		triggerEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trigger_events_total",
			Help: "Store change events received by trigger, by outcome.",
		}, []string{"trigger", "outcome"})

		messagesAppendedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_messages_appended_total",
			Help: "Chat messages appended, by kind.",
		}, []string{"kind"})

		prometheus.MustRegister(
			notificationsSentTotal,
			notificationsFailedTotal,
			tokensPrunedTotal,
			triggerEventsTotal,
			messagesAppendedTotal,
		)
	})
}

func NotificationsSent() *prometheus.CounterVec {
	Register()
	return notificationsSentTotal
}

// NotificationsFailed is labelled with kind "permanent", "transient" or "batch".
func NotificationsFailed() *prometheus.CounterVec {
	Register()
	return notificationsFailedTotal
}

func TokensPruned() prometheus.Counter {
	Register()
	return tokensPrunedTotal
}

func TriggerEvents() *prometheus.CounterVec {
	Register()
	return triggerEventsTotal
}

func MessagesAppended() *prometheus.CounterVec {
	Register()
	return messagesAppendedTotal
}
