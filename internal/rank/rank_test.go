package rank

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/cohortctl/internal/record"
	"github.com/danmuck/cohortctl/internal/testutil/testlog"
)

func cohortWithAverages(avgs ...float32) *record.Cohort {
	c := record.NewCohort(len(avgs))
	for i, avg := range avgs {
		s := record.NewStudent(int32(i+1), "F", "L", 20)
		s.GeneralAverage = avg
		c.Add(s)
	}
	return c
}

func ids(students []*record.Student) []int32 {
	out := make([]int32, len(students))
	for i, s := range students {
		out[i] = s.ID
	}
	return out
}

func TestTopBoundedBySize(t *testing.T) {
	testlog.Start(t)
	for _, n := range []int{0, 1, 9, 10, 11, 1000} {
		avgs := make([]float32, n)
		for i := range avgs {
			avgs[i] = float32((i * 7919) % 20)
		}
		c := cohortWithAverages(avgs...)
		top := Top(c, DefaultTopLimit)
		assert.Len(t, top, min(n, DefaultTopLimit), "n=%d", n)
		for i := 1; i < len(top); i++ {
			assert.GreaterOrEqual(t, top[i-1].GeneralAverage, top[i].GeneralAverage, "n=%d i=%d", n, i)
		}
	}
}

func TestTopEmptyAndNonPositiveLimit(t *testing.T) {
	assert.Nil(t, Top(record.NewCohort(0), 10))
	assert.Nil(t, Top(nil, 10))
	assert.Nil(t, Top(cohortWithAverages(1, 2), 0))
	assert.Nil(t, Top(cohortWithAverages(1, 2), -3))
}

func TestTopDoesNotReorderCohort(t *testing.T) {
	c := cohortWithAverages(3, 18, 7, 12)
	top := Top(c, 10)
	assert.Equal(t, []int32{2, 4, 3, 1}, ids(top))
	assert.Equal(t, []int32{1, 2, 3, 4}, ids(c.Students))
}

func TestTopTiesKeepCohortOrder(t *testing.T) {
	c := cohortWithAverages(10, 15, 10, 15, 10)
	assert.Equal(t, []int32{2, 4, 1, 3, 5}, ids(Top(c, 10)))
}

func TestTopNaNSortsLast(t *testing.T) {
	nan := float32(math.NaN())
	c := cohortWithAverages(nan, 4, nan, 9)
	assert.Equal(t, []int32{4, 2, 1, 3}, ids(Top(c, 10)))
}

func buildCourseCohort() *record.Cohort {
	c := record.NewCohort(5)
	add := func(id int32, course string, grades ...float32) {
		s, ok := c.Lookup(id)
		if !ok {
			s = record.NewStudent(id, "F", "L", 20)
			c.Add(s)
		}
		course0 := s.Enroll(course, 1)
		for _, g := range grades {
			s.AddGrade(course0, g)
		}
	}
	add(1, "Geographie", 12)
	add(2, "Geographie", 17, 15)
	add(3, "Maths", 20)
	add(4, "Geographie", 9)
	add(5, "Geographie", 14)
	add(4, "Maths", 11)
	return c
}

func TestTopForCourse(t *testing.T) {
	c := buildCourseCohort()
	top, err := TopForCourse(c, "Geographie", DefaultCourseLimit)
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 5, 1}, ids(top))

	top, err = TopForCourse(c, "Maths", DefaultCourseLimit)
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 4}, ids(top))
}

func TestTopForCourseNotFound(t *testing.T) {
	_, err := TopForCourse(buildCourseCohort(), "Latin", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCourseNotFound))

	// course names match exactly
	_, err = TopForCourse(buildCourseCohort(), "geographie", 3)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestTopForCourseEmptyCohortIsNoData(t *testing.T) {
	top, err := TopForCourse(record.NewCohort(0), "Geographie", 3)
	assert.NoError(t, err)
	assert.Nil(t, top)
}

func TestStandings(t *testing.T) {
	c := buildCourseCohort()
	rows, err := Standings(c, "Geographie", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, int32(2), rows[0].Student.ID)
	assert.InDelta(t, 16, rows[0].Score, 1e-6)
	assert.Equal(t, 2, rows[1].Rank)

	rows, err = Standings(c, "", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Equal(t, int32(3), rows[0].Student.ID)

	_, err = Standings(c, "Latin", 10)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}
