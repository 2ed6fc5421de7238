package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/danmuck/cohortctl/internal/observability"
	"github.com/danmuck/cohortctl/internal/record"
)

// Decode reads one cohort from r with DefaultLimits.
func Decode(r io.Reader) (*record.Cohort, error) {
	return DecodeWithLimits(r, DefaultLimits())
}

// DecodeWithLimits reads one cohort from r. Every length and count is
// validated before it is trusted. On any error the partially built cohort
// is dropped and nil is returned. Stored averages are kept as written.
func DecodeWithLimits(r io.Reader, limits Limits) (*record.Cohort, error) {
	d := &decoder{r: bufio.NewReader(r), limits: limits.WithDefaults(), student: -1, course: -1}
	c, err := d.cohort()
	observability.RecordCodec("decode", d.n, err)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type decoder struct {
	r      *bufio.Reader
	limits Limits
	buf    [4]byte
	n      int64

	student int
	course  int
}

func (d *decoder) fail(field string, err error) error {
	return &FieldError{Student: d.student, Course: d.course, Field: field, Err: err}
}

func (d *decoder) cohort() (*record.Cohort, error) {
	count, err := d.count("student_count", d.limits.MaxStudents)
	if err != nil {
		return nil, err
	}
	c := record.NewCohort(count)
	for i := 0; i < count; i++ {
		d.student, d.course = i, -1
		s, err := d.studentRecord()
		if err != nil {
			return nil, err
		}
		c.Add(s)
	}
	return c, nil
}

func (d *decoder) studentRecord() (*record.Student, error) {
	avg, err := d.float32("general_average")
	if err != nil {
		return nil, err
	}
	id, err := d.int32("student_id")
	if err != nil {
		return nil, err
	}
	numCourses, err := d.count("num_courses", d.limits.MaxCourses)
	if err != nil {
		return nil, err
	}
	age, err := d.int32("age")
	if err != nil {
		return nil, err
	}
	first, err := d.string("first_name")
	if err != nil {
		return nil, err
	}
	last, err := d.string("last_name")
	if err != nil {
		return nil, err
	}

	s := record.NewStudent(id, first, last, age)
	s.GeneralAverage = avg
	if numCourses > 0 {
		s.Courses = make([]*record.Course, 0, numCourses)
	}
	for j := 0; j < numCourses; j++ {
		d.course = j
		course, err := d.courseRecord()
		if err != nil {
			return nil, err
		}
		s.Courses = append(s.Courses, course)
	}
	d.course = -1
	return s, nil
}

func (d *decoder) courseRecord() (*record.Course, error) {
	name, err := d.string("course_name")
	if err != nil {
		return nil, err
	}
	coef, err := d.float32("coefficient")
	if err != nil {
		return nil, err
	}
	avg, err := d.float32("average")
	if err != nil {
		return nil, err
	}
	gradeCount, err := d.count("grade_count", d.limits.MaxGrades)
	if err != nil {
		return nil, err
	}

	c := record.NewCourse(name, coef)
	c.Average = avg
	if gradeCount == 0 {
		return c, nil
	}
	raw := make([]byte, 4*gradeCount)
	if err := d.readFull("grades", raw); err != nil {
		return nil, err
	}
	c.Grades = make([]float32, gradeCount)
	for k := range c.Grades {
		c.Grades[k] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*k:]))
	}
	return c, nil
}

func (d *decoder) readFull(field string, p []byte) error {
	n, err := io.ReadFull(d.r, p)
	d.n += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return d.fail(field, ErrTruncated)
		}
		return d.fail(field, err)
	}
	return nil
}

func (d *decoder) int32(field string) (int32, error) {
	if err := d.readFull(field, d.buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(d.buf[:])), nil
}

func (d *decoder) float32(field string) (float32, error) {
	if err := d.readFull(field, d.buf[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(d.buf[:])), nil
}

// count reads a non-negative count bounded by limit.
func (d *decoder) count(field string, limit int) (int, error) {
	v, err := d.int32(field)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, d.fail(field, ErrInvalidCount)
	}
	if int(v) > limit {
		return 0, d.fail(field, ErrLimitExceeded)
	}
	return int(v), nil
}

// string reads a length-prefixed, NUL-terminated string and returns it
// without the terminator.
func (d *decoder) string(field string) (string, error) {
	length, err := d.int32(field + "_len")
	if err != nil {
		return "", err
	}
	if length <= 0 || int(length) > d.limits.MaxStringLen {
		return "", d.fail(field+"_len", ErrInvalidLength)
	}
	b := make([]byte, length)
	if err := d.readFull(field, b); err != nil {
		return "", err
	}
	if b[length-1] != 0 {
		return "", d.fail(field, ErrMissingTerminator)
	}
	return string(b[:length-1]), nil
}
