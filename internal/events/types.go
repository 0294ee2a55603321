package events

import "time"

// Event enumerates high-level topics inside the signal engine.
type Event string

const (
	EventFeedStatus     Event = "feed.status"
	EventStrategySignal Event = "strategy.signal"
	EventPairSignal     Event = "strategy.pair_signal"
	EventRiskAlert      Event = "risk.alert"
	EventOrderResult    Event = "order.result"
	EventDashboard      Event = "dashboard.update"
)

// FeedStatus is published by tick sources whenever connectivity changes.
type FeedStatus struct {
	Source    string    `json:"source"`
	Connected bool      `json:"connected"`
	Reconnect int       `json:"reconnect"`
	Err       string    `json:"error,omitempty"`
	Time      time.Time `json:"time"`
}
