package flow

// DropReason tells why a packet is dropped.
type DropReason string

// Drop reasons.
const (
	QueueOverflow DropReason = "queue-overflow"
	Filtered      DropReason = "filtered"
	Consumed      DropReason = "consumed"
	Other         DropReason = "other"
)

// DropDetails is attached to every drop event.
type DropDetails struct {
	Reason DropReason

	// Limit is the capacity that the drop enforces, or Unbounded if no limit
	// applies.
	Limit int64
}

// OverflowDetails returns the details of a drop caused by a full collection.
func OverflowDetails(limit int64) DropDetails {
	return DropDetails{Reason: QueueOverflow, Limit: limit}
}

// FilteredDetails returns the details of a drop caused by a filter.
func FilteredDetails() DropDetails {
	return DropDetails{Reason: Filtered, Limit: Unbounded}
}

// ConsumedDetails returns the details of a packet reaching a sink.
func ConsumedDetails() DropDetails {
	return DropDetails{Reason: Consumed, Limit: Unbounded}
}
