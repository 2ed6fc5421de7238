package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/cohortctl/internal/rank"
	"github.com/danmuck/cohortctl/internal/record"
	"github.com/danmuck/cohortctl/internal/testutil/testlog"
)

func sampleCohort() *record.Cohort {
	c := record.NewCohort(2)
	ana := record.NewStudent(1, "Ana", "Dupont", 20)
	geo := ana.Enroll("Geographie", 1.5)
	ana.AddGrade(geo, 12)
	ana.AddGrade(geo, 15)
	leo := record.NewStudent(2, "Leo", "Martin", 22)
	leo.AddGrade(leo.Enroll("Geographie", 1.5), 17.5)
	c.Add(ana)
	c.Add(leo)
	return c
}

func TestPrintCohort(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	require.NoError(t, PrintCohort(&buf, sampleCohort()))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "=== COHORT ===\n"))
	assert.Contains(t, out, "1 - Ana Dupont, 20 years\n")
	assert.Contains(t, out, "General average: 13.50\n")
	assert.Contains(t, out, "  Geographie (coef 1.50) - avg: 13.50 - grades: 12.0 15.0\n")
	assert.Contains(t, out, "2 - Leo Martin, 22 years\n")
}

func TestPrintCohortEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintCohort(&buf, record.NewCohort(0)))
	assert.Equal(t, "=== COHORT ===\nno data\n", buf.String())
}

func TestPrintStandings(t *testing.T) {
	rows, err := rank.Standings(sampleCohort(), "Geographie", rank.DefaultCourseLimit)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, PrintStandings(&buf, CourseTitle(len(rows), "Geographie"), rows))
	assert.Equal(t, "--- Top 2 students in Geographie ---\n1. Leo: 17.500000\n2. Ana: 13.500000\n\n", buf.String())

	buf.Reset()
	require.NoError(t, PrintStandings(&buf, TopTitle(0), nil))
	assert.Equal(t, "--- Top 0 students ---\nno data\n\n", buf.String())
}

func TestWriteCsv(t *testing.T) {
	rows, err := rank.Standings(sampleCohort(), "", rank.DefaultTopLimit)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCsv(&buf, "", rows))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "rank,student_id,first_name,last_name,course,score", lines[0])
	assert.Equal(t, "1,2,Leo,Martin,,17.5", lines[1])
	assert.Equal(t, "2,1,Ana,Dupont,,13.5", lines[2])
}

func TestWriteCsvFile(t *testing.T) {
	rows, err := rank.Standings(sampleCohort(), "Geographie", 1)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "top.csv")
	require.NoError(t, WriteCsvFile(path, "Geographie", rows))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "1,2,Leo,Martin,Geographie,17.5")

	err = WriteCsvFile(filepath.Join(t.TempDir(), "missing", "top.csv"), "", rows)
	assert.Error(t, err)
}
