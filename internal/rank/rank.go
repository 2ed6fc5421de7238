// Package rank answers read-only top-N queries over a cohort.
package rank

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/danmuck/cohortctl/internal/record"
)

const (
	DefaultTopLimit    = 10
	DefaultCourseLimit = 3
)

var ErrCourseNotFound = errors.New("rank: course not found")

// Standing is one ranked row.
type Standing struct {
	Rank    int             `json:"rank"`
	Student *record.Student `json:"student"`
	Score   float32         `json:"score"`
}

// Top returns at most limit students ordered by general average, best first.
// The cohort itself is never reordered.
func Top(c *record.Cohort, limit int) []*record.Student {
	if c.Len() == 0 || limit <= 0 {
		return nil
	}
	ranked := make([]*record.Student, len(c.Students))
	copy(ranked, c.Students)
	sortByScore(ranked, func(s *record.Student) float32 { return s.GeneralAverage })
	return ranked[:min(limit, len(ranked))]
}

// TopForCourse returns at most limit students enrolled in course, ordered by
// their average in that course. An empty cohort yields (nil, nil).
func TopForCourse(c *record.Cohort, course string, limit int) ([]*record.Student, error) {
	if c.Len() == 0 {
		return nil, nil
	}
	enrolled := make([]*record.Student, 0, len(c.Students))
	for _, s := range c.Students {
		if s.Course(course) != nil {
			enrolled = append(enrolled, s)
		}
	}
	if len(enrolled) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrCourseNotFound, course)
	}
	if limit <= 0 {
		return nil, nil
	}
	sortByScore(enrolled, func(s *record.Student) float32 { return s.Course(course).Average })
	return enrolled[:min(limit, len(enrolled))], nil
}

// Standings ranks the cohort overall when course is empty, otherwise by the
// named course. Rank starts at 1.
func Standings(c *record.Cohort, course string, limit int) ([]Standing, error) {
	if course == "" {
		return standings(Top(c, limit), func(s *record.Student) float32 { return s.GeneralAverage }), nil
	}
	top, err := TopForCourse(c, course, limit)
	if err != nil {
		return nil, err
	}
	return standings(top, func(s *record.Student) float32 { return s.Course(course).Average }), nil
}

func standings(students []*record.Student, score func(*record.Student) float32) []Standing {
	if len(students) == 0 {
		return nil
	}
	out := make([]Standing, len(students))
	for i, s := range students {
		out[i] = Standing{Rank: i + 1, Student: s, Score: score(s)}
	}
	return out
}

// sortByScore is stable and puts NaN last.
func sortByScore(students []*record.Student, score func(*record.Student) float32) {
	sort.SliceStable(students, func(i, j int) bool {
		a, b := float64(score(students[i])), float64(score(students[j]))
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})
}
