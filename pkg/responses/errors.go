package responses

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAQuestion means the container is not a question block.
	ErrNotAQuestion = errors.New("element is not a form question")
	// ErrUnknownFieldType means no handler recognised the question.
	ErrUnknownFieldType = errors.New("unknown field type")
	// ErrNoMatchingOption means a single choice answer matched no option.
	ErrNoMatchingOption = errors.New("no option matches the answer")
)

// InvalidAnswerError reports an answer that cannot apply to the field type
// (bad date, bad time, missing file, malformed expression). It is not
// worth retrying.
type InvalidAnswerError struct {
	Kind   Kind
	Answer string
	Reason string
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("invalid answer for %s: %q: %s", e.Kind, e.Answer, e.Reason)
}

// ElementNotFoundError reports a control that could not be located or did
// not appear in time.
type ElementNotFoundError struct {
	What string
	Err  error
}

func (e *ElementNotFoundError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("element not found: %s", e.What)
	}
	return fmt.Sprintf("element not found: %s: %v", e.What, e.Err)
}

func (e *ElementNotFoundError) Unwrap() error { return e.Err }

// IsRetryable reports whether applying the same answer again may succeed.
func IsRetryable(err error) bool {
	var invalid *InvalidAnswerError
	return err != nil && !errors.As(err, &invalid)
}
