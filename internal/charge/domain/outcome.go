package domain

// OutcomeKind discriminates the provider outcomes a charge attempt can
// land in. Decoding happens exactly once, inside the provider adapter;
// nothing downstream inspects raw provider fields.
type OutcomeKind string

const (
	OutcomeSucceeded       OutcomeKind = "succeeded"
	OutcomeFailed          OutcomeKind = "failed"
	OutcomePendingQR       OutcomeKind = "pending_qr"
	OutcomePendingRedirect OutcomeKind = "pending_redirect"
	OutcomePendingUnknown  OutcomeKind = "pending_unknown"
)

// Outcome is the decoded provider response for a charge. Only the
// fields relevant to Kind are set: FailureMessage for failed,
// QRPayload for pending_qr, RedirectURL for pending_redirect, and
// RawStatus for pending_unknown.
type Outcome struct {
	Kind           OutcomeKind
	ChargeID       string
	FailureMessage string
	QRPayload      string
	RedirectURL    string
	RawStatus      string
}

func (o Outcome) Pending() bool {
	switch o.Kind {
	case OutcomePendingQR, OutcomePendingRedirect, OutcomePendingUnknown:
		return true
	}
	return false
}
