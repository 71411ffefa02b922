package board

import (
	"messageboard/pkg/codec"
	"messageboard/pkg/models"
	"messageboard/pkg/state/logger"
	"messageboard/pkg/state/metrics"
)

const (
	EventLimitExceeded  = "limit_exceeded"
	EventBroadcastStore = "broadcast_stored"
	EventMessageStore   = "message_stored"
)

// Event is an observable output of a write.
type Event struct {
	Name string     `json:"name"`
	Data codec.Blob `json:"data"`
}

// Receipt is what a write returns. A rejected message is still a successful
// call: Status is true and Stored is false.
type Receipt struct {
	Status bool    `json:"status"`
	Stored bool    `json:"stored"`
	Seq    *uint64 `json:"seq,omitempty"`
	Events []Event `json:"events"`
}

// Diagnostic returns the limit_exceeded text carried by the receipt, if any.
func (r Receipt) Diagnostic() string {
	for _, ev := range r.Events {
		if ev.Name == EventLimitExceeded {
			return string(ev.Data)
		}
	}
	return ""
}

func rejected(kind string, v Verdict) Receipt {
	metrics.Writes.WithLabelValues(kind, metrics.OutcomeRejected).Inc()
	logger.Debug("message_rejected", "kind", kind, "reason", EventLimitExceeded)
	return Receipt{
		Status: true,
		Stored: false,
		Events: []Event{{Name: EventLimitExceeded, Data: codec.Blob(v.Diagnostic)}},
	}
}

func stored(kind, event string, rec models.Message, data []byte) Receipt {
	metrics.Writes.WithLabelValues(kind, metrics.OutcomeStored).Inc()
	seq := rec.Seq
	return Receipt{
		Status: true,
		Stored: true,
		Seq:    &seq,
		Events: []Event{{Name: event, Data: codec.Blob(data)}},
	}
}
