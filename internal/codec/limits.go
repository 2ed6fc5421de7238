package codec

import "math"

// MaxStringLen is the largest accepted string length, terminator included.
const MaxStringLen = 256

// Limits bounds the counts both sides of the codec accept. Decode checks
// every declared count before allocating for it; Encode refuses a cohort
// that would exceed them, so a written file always reads back.
type Limits struct {
	MaxStringLen int
	MaxStudents  int
	MaxCourses   int
	MaxGrades    int
}

func DefaultLimits() Limits {
	return Limits{
		MaxStringLen: MaxStringLen,
		MaxStudents:  1 << 20,
		MaxCourses:   4096,
		MaxGrades:    1 << 20,
	}
}

// WithDefaults fills zero or out-of-range limits from DefaultLimits.
// MaxStringLen never exceeds MaxStringLen.
func (l Limits) WithDefaults() Limits {
	def := DefaultLimits()
	if l.MaxStringLen <= 0 || l.MaxStringLen > MaxStringLen {
		l.MaxStringLen = def.MaxStringLen
	}
	if l.MaxStudents <= 0 || l.MaxStudents > math.MaxInt32 {
		l.MaxStudents = def.MaxStudents
	}
	if l.MaxCourses <= 0 || l.MaxCourses > math.MaxInt32 {
		l.MaxCourses = def.MaxCourses
	}
	if l.MaxGrades <= 0 || l.MaxGrades > math.MaxInt32 {
		l.MaxGrades = def.MaxGrades
	}
	return l
}
