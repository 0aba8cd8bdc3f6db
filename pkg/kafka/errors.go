package kafka

import "errors"

var (
	ErrProducerClosed = errors.New("kafka producer is closed")
	ErrEmptyKey       = errors.New("message key cannot be empty")
	ErrEmptyValue     = errors.New("message value cannot be empty")
	ErrEmptyTopic     = errors.New("topic cannot be empty")
	ErrNoBrokers      = errors.New("at least one broker is required")
)

// PublishError is returned when the primary write failed. DLQErr is set when
// forwarding to the dead letter topic failed as well.
type PublishError struct {
	Topic  string
	Err    error
	DLQErr error
}

func (e *PublishError) Error() string {
	if e.DLQErr != nil {
		return "publish to " + e.Topic + " failed: " + e.Err.Error() + " (dlq: " + e.DLQErr.Error() + ")"
	}
	return "publish to " + e.Topic + " failed: " + e.Err.Error()
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
