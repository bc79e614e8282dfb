// Package outcome classifies the terminal state of every POS operation so the
// presentation layer can decide how to render it.
package outcome

type Kind string

const (
	KindSuccess    Kind = "success"
	KindInfo       Kind = "info"
	KindValidation Kind = "validation-error"
	KindStore      Kind = "store-error"
)

func (k Kind) String() string {
	return string(k)
}

type Outcome struct {
	Kind    Kind     `json:"kind"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func Success(msg string, details ...string) Outcome {
	return Outcome{Kind: KindSuccess, Message: msg, Details: details}
}

func Info(msg string, details ...string) Outcome {
	return Outcome{Kind: KindInfo, Message: msg, Details: details}
}

func Validation(msg string, details ...string) Outcome {
	return Outcome{Kind: KindValidation, Message: msg, Details: details}
}

func Store(msg string, details ...string) Outcome {
	return Outcome{Kind: KindStore, Message: msg, Details: details}
}

// OK reports whether the operation took effect.
func (o Outcome) OK() bool {
	return o.Kind == KindSuccess || o.Kind == KindInfo
}

func (o Outcome) IsZero() bool {
	return o.Kind == ""
}
