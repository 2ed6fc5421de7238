package codec

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated         = errors.New("codec: truncated data")
	ErrInvalidLength     = errors.New("codec: invalid string length")
	ErrInvalidCount      = errors.New("codec: invalid count")
	ErrMissingTerminator = errors.New("codec: string missing terminator")
	ErrLimitExceeded     = errors.New("codec: declared size exceeds limit")
	ErrStringTooLong     = errors.New("codec: string too long to encode")
	ErrEmptyString       = errors.New("codec: empty string")
	ErrNilCohort         = errors.New("codec: nil cohort")
)

// FieldError locates a failure inside the binary layout. Student and Course
// are zero-based positions, -1 when the failure is outside that scope.
type FieldError struct {
	Student int
	Course  int
	Field   string
	Err     error
}

func (e *FieldError) Error() string {
	switch {
	case e.Student < 0:
		return fmt.Sprintf("codec: field=%s: %v", e.Field, e.Err)
	case e.Course < 0:
		return fmt.Sprintf("codec: student[%d] field=%s: %v", e.Student, e.Field, e.Err)
	default:
		return fmt.Sprintf("codec: student[%d] course[%d] field=%s: %v", e.Student, e.Course, e.Field, e.Err)
	}
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
