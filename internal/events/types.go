package events

// Topic enumerates high-level topics published on the bus.
type Topic string

const (
	TopicTick              Topic = "ingest.tick"
	TopicIngestConnected   Topic = "ingest.connected"
	TopicIngestDisconnect  Topic = "ingest.disconnected"
	TopicSessionAuthOk     Topic = "session.auth_ok"
	TopicSessionBookL1     Topic = "session.book_l1"
	TopicSessionHeartbeat  Topic = "session.heartbeat"
	TopicSessionDisconnect Topic = "session.disconnected"
	TopicRawOrderUpdate    Topic = "session.raw_order_update"
	TopicRawPositionUpdate Topic = "session.raw_position_update"
	TopicOrderUpdate       Topic = "order.update"
	TopicPositionUpdate    Topic = "position.update"
	TopicPositionSnapshot  Topic = "position.snapshot"
	TopicStrategySignal    Topic = "strategy.signal"
	TopicOrderSubmitted    Topic = "order.submitted"
	TopicOrderRejected     Topic = "order.rejected"
	TopicDiagnostic        Topic = "diagnostic"
)
