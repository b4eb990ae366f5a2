package shared

// OutcomeKind classifies how a caller should surface an outcome.
type OutcomeKind string

const (
	// OutcomeSuccess reports a completed operation.
	OutcomeSuccess OutcomeKind = "success"
	// OutcomeWarning reports a non-fatal condition, e.g. a missing inventory file.
	OutcomeWarning OutcomeKind = "warning"
	// OutcomeError reports a failed operation.
	OutcomeError OutcomeKind = "error"
)

// Outcome is the result of a core operation handed back to the presentation layer.
type Outcome struct {
	Kind    OutcomeKind `json:"kind"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

// Success builds a success outcome.
func Success(title, message string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Title: title, Message: message}
}

// Warning builds a warning outcome.
func Warning(title, message string) Outcome {
	return Outcome{Kind: OutcomeWarning, Title: title, Message: message}
}

// Failure builds an error outcome from err.
func Failure(title string, err error) Outcome {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Outcome{Kind: OutcomeError, Title: title, Message: msg, Err: err}
}

// OK reports whether the outcome is not an error.
func (o Outcome) OK() bool {
	return o.Kind != OutcomeError
}

// Notifier surfaces outcomes to the user.
type Notifier interface {
	Notify(o Outcome)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Outcome)

// Notify calls f(o).
func (f NotifierFunc) Notify(o Outcome) {
	f(o)
}
