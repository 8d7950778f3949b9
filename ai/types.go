package ai

// Recap is the structured output of recap generation. Field names match the
// JSON keys the model is instructed to emit.
type Recap struct {
	// Summary is a short paragraph covering the meeting's main outcomes.
	Summary string `json:"summary"`

	// Article is a longer plain-language writeup aimed at residents who
	// did not attend the meeting.
	Article string `json:"article"`

	// Topics lists the subjects discussed, most significant first.
	Topics []string `json:"topics"`

	// Decisions lists votes taken and actions approved or rejected.
	Decisions []string `json:"decisions"`

	// PublicComments lists themes raised during the public comment period.
	PublicComments []string `json:"public_comments"`
}

// IsZero reports whether no recap content is present.
func (r *Recap) IsZero() bool {
	return r.Summary == "" && r.Article == "" &&
		len(r.Topics) == 0 && len(r.Decisions) == 0 && len(r.PublicComments) == 0
}
