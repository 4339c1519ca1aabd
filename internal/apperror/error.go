package apperror

import "errors"

// Kind classifies an Apperror.
type Kind int

const (
	KindChannelUnavailable Kind = iota + 1
	KindPullFailed
	KindConfigFetchFailed
	KindUnknownConfigKey
	KindProtectedConfigKey
	KindNotToggleable
	KindAckTimeout
	KindInvalidPayload
)

type Apperror struct {
	kind    Kind
	message string
	err     error
}

var (
	ChannelUnavailable = Apperror{kind: KindChannelUnavailable, message: "Push Channel Unavailable"}
	PullFailed         = Apperror{kind: KindPullFailed, message: "Device Did Not Answer The Status Request"}
	ConfigFetchFailed  = Apperror{kind: KindConfigFetchFailed, message: "Could Not Fetch Device Configuration"}
	UnknownConfigKey   = Apperror{kind: KindUnknownConfigKey, message: "Configuration Key Not Reported By Device"}
	ProtectedConfigKey = Apperror{kind: KindProtectedConfigKey, message: "Configuration Key Is Read-Only"}
	NotToggleable      = Apperror{kind: KindNotToggleable, message: "Configuration Value Is Not A Boolean"}
	AckTimeout         = Apperror{kind: KindAckTimeout, message: "Device Did Not Acknowledge The Command"}
	InvalidPayload     = Apperror{kind: KindInvalidPayload, message: "Invalid Payload Received From Device"}
)

func (e Apperror) Error() string {
	if e.err != nil {
		return e.message + ": " + e.err.Error()
	}
	return e.message
}

func (e Apperror) SetMessage(message string) Apperror {
	e.message = message
	return e
}

// Wrap attaches the underlying cause.
func (e Apperror) Wrap(err error) Apperror {
	e.err = err
	return e
}

func (e Apperror) Unwrap() error {
	return e.err
}

// Is matches on kind only, so a wrapped error still matches its sentinel.
func (e Apperror) Is(target error) bool {
	t, ok := target.(Apperror)
	if !ok {
		return false
	}
	return t.kind == e.kind
}

func (e Apperror) Kind() Kind {
	return e.kind
}

func (e Apperror) Message() string {
	return e.message
}

// KindOf returns the kind of the first Apperror in err's chain, or 0.
func KindOf(err error) Kind {
	var ae Apperror
	if errors.As(err, &ae) {
		return ae.kind
	}
	return 0
}
