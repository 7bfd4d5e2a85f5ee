package domain

// EnvelopeCompleted is the only envelope status the webhook acts on.
const EnvelopeCompleted = "completed"

// SignerCompleted marks a recipient who has finished signing.
const SignerCompleted = "completed"

// EnvelopeEvent is the DocuSign Connect callback payload, reduced to the
// fields the portal reads.
type EnvelopeEvent struct {
	Event string       `json:"event"`
	Data  EnvelopeData `json:"data"`
}

type EnvelopeData struct {
	EnvelopeID      string          `json:"envelopeId"`
	EnvelopeSummary EnvelopeSummary `json:"envelopeSummary"`
}

type EnvelopeSummary struct {
	Status     string     `json:"status"`
	Recipients Recipients `json:"recipients"`
}

type Recipients struct {
	Signers []Signer `json:"signers"`
}

type Signer struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Status string `json:"status"`
}
