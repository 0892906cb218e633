package entity

import "encoding/json"

// DeliveryOutcome classifies what the vendor push service did with one
// outbound message.
type DeliveryOutcome int

const (
	// OutcomeDelivered means the vendor accepted the message (2xx).
	OutcomeDelivered DeliveryOutcome = iota
	// OutcomeGone means the subscription is permanently dead (404/410)
	// and should be removed from the registry.
	OutcomeGone
	// OutcomeTransient covers rate limiting, vendor 5xx and transport
	// failures. Safe to retry with backoff.
	OutcomeTransient
	// OutcomeRejected covers the remaining 4xx responses: the request
	// itself is malformed, retrying cannot help.
	OutcomeRejected
)

func (o DeliveryOutcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeGone:
		return "gone"
	case OutcomeTransient:
		return "transient"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

func (o DeliveryOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// DeliveryResult is the per-target outcome of one Deliver call.
type DeliveryResult struct {
	Endpoint   string          `json:"endpoint"`
	Outcome    DeliveryOutcome `json:"outcome"`
	StatusCode int             `json:"status_code,omitempty"`
	Err        error           `json:"-"`
}

// SendReport aggregates the fan-out of a single send operation.
type SendReport struct {
	Total     int              `json:"total"`
	Delivered int              `json:"delivered"`
	Gone      int              `json:"gone"`
	Transient int              `json:"transient"`
	Rejected  int              `json:"rejected"`
	Results   []DeliveryResult `json:"results"`
}

func NewSendReport(results []DeliveryResult) *SendReport {
	report := &SendReport{Total: len(results), Results: results}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeDelivered:
			report.Delivered++
		case OutcomeGone:
			report.Gone++
		case OutcomeTransient:
			report.Transient++
		case OutcomeRejected:
			report.Rejected++
		}
	}
	return report
}
