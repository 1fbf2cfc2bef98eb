package observability

// Metric name prefixes
const (
	MetricPrefix = "dicer"
)

// Metric names
const (
	// Ledger metrics
	TicketsCreditedTotal = MetricPrefix + ".tickets.credited_total"
	RollsSubmittedTotal  = MetricPrefix + ".rolls.submitted_total"

	// Settlement metrics
	CloseAttemptsTotal    = MetricPrefix + ".draws.close_attempts_total"
	PotSettledTotal       = MetricPrefix + ".draws.pot_settled_total"
	PayoutsScheduledTotal = MetricPrefix + ".payouts.scheduled_total"
	PayoutsFinalizedTotal = MetricPrefix + ".payouts.finalized_total"
	PayoutAmountPaidTotal = MetricPrefix + ".payouts.amount_paid_total"

	// NATS metrics
	NATSMessagesReceivedTotal  = MetricPrefix + ".nats.messages_received_total"
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelEventType = "event_type"
	LabelResult    = "result"
	LabelSubject   = "subject"
)

// Close attempt results
const (
	CloseResultSettled   = "settled"
	CloseResultNoEntries = "no_entries"
	CloseResultNoWinners = "no_winners"
	CloseResultError     = "error"
)
