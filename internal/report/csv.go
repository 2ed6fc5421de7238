package report

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/danmuck/cohortctl/internal/rank"
)

type CsvStanding struct {
	Rank      int     `csv:"rank"`
	StudentID int32   `csv:"student_id"`
	FirstName string  `csv:"first_name"`
	LastName  string  `csv:"last_name"`
	Course    string  `csv:"course"`
	Score     float32 `csv:"score"`
}

func toCsvStandings(course string, rows []rank.Standing) []*CsvStanding {
	out := make([]*CsvStanding, 0, len(rows))
	for _, row := range rows {
		out = append(out, &CsvStanding{
			Rank:      row.Rank,
			StudentID: row.Student.ID,
			FirstName: row.Student.FirstName,
			LastName:  row.Student.LastName,
			Course:    course,
			Score:     row.Score,
		})
	}
	return out
}

// WriteCsv writes rows with a header line. course is empty for the overall
// ranking.
func WriteCsv(w io.Writer, course string, rows []rank.Standing) error {
	if err := gocsv.Marshal(toCsvStandings(course, rows), w); err != nil {
		return fmt.Errorf("report: marshal csv: %w", err)
	}
	return nil
}

func WriteCsvFile(path, course string, rows []rank.Standing) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	if err := WriteCsv(file, course, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
