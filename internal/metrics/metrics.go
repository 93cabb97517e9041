package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	MessagesAppended = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_appended_total",
		Help: "Messages appended to the room, by kind.",
	}, []string{"kind"})

	MessagesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_deleted_total",
		Help: "Messages deleted from the room.",
	})

	UploadsStored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_uploads_total",
		Help: "Blob uploads, by result.",
	}, []string{"result"})

	PushDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_push_dispatch_total",
		Help: "Push notifications attempted per admin token, by result.",
	}, []string{"result"})

	SubscribersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_subscribers_connected",
		Help: "Live snapshot subscribers on this chat server.",
	})

	SnapshotsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_snapshots_published_total",
		Help: "Snapshot versions produced by this chat server.",
	})

	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_api_rate_limited_total",
		Help: "API requests rejected by the rate limiter.",
	})
)

func init() {
	prometheus.MustRegister(
		MessagesAppended,
		MessagesDeleted,
		UploadsStored,
		PushDispatched,
		SubscribersConnected,
		SnapshotsPublished,
		RateLimited,
	)
}

// Kind labels a message for MessagesAppended.
func Kind(msgType string) string {
	if msgType == "" {
		return "text"
	}
	return msgType
}
