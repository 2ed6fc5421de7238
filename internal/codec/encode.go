package codec

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/danmuck/cohortctl/internal/observability"
	"github.com/danmuck/cohortctl/internal/record"
)

// Encode writes c to w using the cohort binary layout with DefaultLimits.
// All integers and floats are 4 bytes, little-endian.
func Encode(w io.Writer, c *record.Cohort) error {
	return EncodeWithLimits(w, c, DefaultLimits())
}

// EncodeWithLimits validates the whole cohort against the same limits
// DecodeWithLimits enforces before the first byte is written, so anything it
// writes decodes again under those limits.
func EncodeWithLimits(w io.Writer, c *record.Cohort, limits Limits) error {
	n, err := encode(w, c, limits.WithDefaults())
	observability.RecordCodec("encode", n, err)
	return err
}

func encode(w io.Writer, c *record.Cohort, limits Limits) (int64, error) {
	if c == nil {
		return 0, ErrNilCohort
	}
	if err := validateForEncode(c, limits); err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	e := &encoder{w: bufio.NewWriter(cw)}
	e.int32(int32(len(c.Students)))
	for _, s := range c.Students {
		e.float32(s.GeneralAverage)
		e.int32(s.ID)
		e.int32(int32(len(s.Courses)))
		e.int32(s.Age)
		e.string(s.FirstName)
		e.string(s.LastName)
		for _, course := range s.Courses {
			e.string(course.Name)
			e.float32(course.Coefficient)
			e.float32(course.Average)
			e.int32(int32(len(course.Grades)))
			for _, g := range course.Grades {
				e.float32(g)
			}
		}
	}
	if e.err != nil {
		return cw.n, e.err
	}
	if err := e.w.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

func validateForEncode(c *record.Cohort, limits Limits) error {
	if len(c.Students) > limits.MaxStudents {
		return &FieldError{Student: -1, Course: -1, Field: "student_count", Err: ErrLimitExceeded}
	}
	for i, s := range c.Students {
		if s == nil {
			return &FieldError{Student: i, Course: -1, Field: "student", Err: ErrNilCohort}
		}
		if len(s.Courses) > limits.MaxCourses {
			return &FieldError{Student: i, Course: -1, Field: "num_courses", Err: ErrLimitExceeded}
		}
		if err := encodableString(s.FirstName, limits.MaxStringLen); err != nil {
			return &FieldError{Student: i, Course: -1, Field: "first_name", Err: err}
		}
		if err := encodableString(s.LastName, limits.MaxStringLen); err != nil {
			return &FieldError{Student: i, Course: -1, Field: "last_name", Err: err}
		}
		for j, course := range s.Courses {
			if course == nil {
				return &FieldError{Student: i, Course: j, Field: "course", Err: ErrNilCohort}
			}
			if err := encodableString(course.Name, limits.MaxStringLen); err != nil {
				return &FieldError{Student: i, Course: j, Field: "course_name", Err: err}
			}
			if len(course.Grades) > limits.MaxGrades {
				return &FieldError{Student: i, Course: j, Field: "grade_count", Err: ErrLimitExceeded}
			}
		}
	}
	return nil
}

func encodableString(s string, maxLen int) error {
	if s == "" {
		return ErrEmptyString
	}
	if len(s)+1 > maxLen {
		return ErrStringTooLong
	}
	return nil
}

type encoder struct {
	w   *bufio.Writer
	buf [4]byte
	err error
}

func (e *encoder) write(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) int32(v int32) {
	binary.LittleEndian.PutUint32(e.buf[:], uint32(v))
	e.write(e.buf[:])
}

func (e *encoder) float32(v float32) {
	binary.LittleEndian.PutUint32(e.buf[:], math.Float32bits(v))
	e.write(e.buf[:])
}

// string writes the length (terminator included), the bytes and a NUL.
func (e *encoder) string(s string) {
	e.int32(int32(len(s) + 1))
	if e.err != nil {
		return
	}
	if _, err := e.w.WriteString(s); err != nil {
		e.err = err
		return
	}
	e.err = e.w.WriteByte(0)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
