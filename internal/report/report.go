// Package report renders cohorts and rankings for humans and spreadsheets.
package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/danmuck/cohortctl/internal/rank"
	"github.com/danmuck/cohortctl/internal/record"
)

// PrintCohort writes the full record graph: every student, then each of
// their courses with coefficient, average and grades.
func PrintCohort(w io.Writer, c *record.Cohort) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "=== COHORT ===")
	if c.Len() == 0 {
		fmt.Fprintln(bw, "no data")
		return bw.Flush()
	}
	for _, s := range c.Students {
		fmt.Fprintf(bw, "\n%d - %s %s, %d years\n", s.ID, s.FirstName, s.LastName, s.Age)
		fmt.Fprintf(bw, "General average: %.2f\n", s.GeneralAverage)
		for _, course := range s.Courses {
			fmt.Fprintf(bw, "  %s (coef %.2f) - avg: %.2f - grades:", course.Name, course.Coefficient, course.Average)
			for _, g := range course.Grades {
				fmt.Fprintf(bw, " %.1f", g)
			}
			fmt.Fprintln(bw)
		}
	}
	return bw.Flush()
}

// PrintStandings writes a titled ranking, one "first_name: score" line per
// row. An empty ranking prints "no data".
func PrintStandings(w io.Writer, title string, rows []rank.Standing) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "--- %s ---\n", title)
	if len(rows) == 0 {
		fmt.Fprintln(bw, "no data")
	}
	for _, row := range rows {
		fmt.Fprintf(bw, "%d. %s: %f\n", row.Rank, row.Student.FirstName, row.Score)
	}
	fmt.Fprintln(bw)
	return bw.Flush()
}

// TopTitle and CourseTitle name the standard ranking sections.
func TopTitle(n int) string { return fmt.Sprintf("Top %d students", n) }

func CourseTitle(n int, course string) string {
	return fmt.Sprintf("Top %d students in %s", n, course)
}
