// Package store exports cohorts into a SQLite database, one run per export.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-gorp/gorp/v3"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/cohortctl/internal/record"
)

var ErrRunExists = errors.New("store: run already exported")

type RunRow struct {
	ID        string `db:"id"`
	Source    string `db:"source"`
	Students  int    `db:"students"`
	CreatedAt int64  `db:"created_at"`
}

type StudentRow struct {
	RunID          string  `db:"run_id"`
	Position       int     `db:"position"`
	StudentID      int32   `db:"student_id"`
	FirstName      string  `db:"first_name"`
	LastName       string  `db:"last_name"`
	Age            int32   `db:"age"`
	GeneralAverage float32 `db:"general_average"`
}

type CourseRow struct {
	RunID       string  `db:"run_id"`
	Student     int     `db:"student_position"`
	Position    int     `db:"position"`
	Name        string  `db:"name"`
	Coefficient float32 `db:"coefficient"`
	Average     float32 `db:"average"`
}

type GradeRow struct {
	RunID    string  `db:"run_id"`
	Student  int     `db:"student_position"`
	Course   int     `db:"course_position"`
	Position int     `db:"position"`
	Score    float32 `db:"score"`
}

type Sqlite struct {
	db    *sql.DB
	dbmap *gorp.DbMap
}

// Open connects to the SQLite file and creates the tables on first use.
func Open(file string) (*Sqlite, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", file, err)
	}

	dbmap := &gorp.DbMap{Db: db, Dialect: gorp.SqliteDialect{}}
	dbmap.AddTableWithName(RunRow{}, "runs").SetKeys(false, "ID")
	dbmap.AddTableWithName(StudentRow{}, "students").SetUniqueTogether("RunID", "Position")
	dbmap.AddTableWithName(CourseRow{}, "courses").SetUniqueTogether("RunID", "Student", "Position")
	dbmap.AddTableWithName(GradeRow{}, "grades").SetUniqueTogether("RunID", "Student", "Course", "Position")
	if err := dbmap.CreateTablesIfNotExists(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create tables in %s: %w", file, err)
	}
	return &Sqlite{db: db, dbmap: dbmap}, nil
}

// Export writes c as a new run inside one transaction. An empty runID gets
// a fresh UUID. The run id is returned.
func (s *Sqlite) Export(c *record.Cohort, runID, source string) (string, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	rows := []interface{}{&RunRow{
		ID:        runID,
		Source:    source,
		Students:  c.Len(),
		CreatedAt: time.Now().UTC().Unix(),
	}}
	if c != nil {
		rows = append(rows, cohortRows(runID, c)...)
	}

	if err := s.save(rows); err != nil {
		var sqliteError sqlite3.Error
		if errors.As(err, &sqliteError) && isConstraintOnRun(sqliteError) {
			return "", fmt.Errorf("%w: %s", ErrRunExists, runID)
		}
		return "", fmt.Errorf("store: export run %s: %w", runID, err)
	}
	log.Info().Str("run", runID).Int("rows", len(rows)).Msg("store: cohort exported")
	return runID, nil
}

func isConstraintOnRun(err sqlite3.Error) bool {
	return errors.Is(err.ExtendedCode, sqlite3.ErrConstraintPrimaryKey) ||
		errors.Is(err.ExtendedCode, sqlite3.ErrConstraintUnique)
}

func cohortRows(runID string, c *record.Cohort) []interface{} {
	var rows []interface{}
	for i, st := range c.Students {
		rows = append(rows, &StudentRow{
			RunID:          runID,
			Position:       i,
			StudentID:      st.ID,
			FirstName:      st.FirstName,
			LastName:       st.LastName,
			Age:            st.Age,
			GeneralAverage: st.GeneralAverage,
		})
		for j, course := range st.Courses {
			rows = append(rows, &CourseRow{
				RunID:       runID,
				Student:     i,
				Position:    j,
				Name:        course.Name,
				Coefficient: course.Coefficient,
				Average:     course.Average,
			})
			for k, g := range course.Grades {
				rows = append(rows, &GradeRow{RunID: runID, Student: i, Course: j, Position: k, Score: g})
			}
		}
	}
	return rows
}

func (s *Sqlite) save(rows []interface{}) error {
	tx, err := s.dbmap.Begin()
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := tx.Insert(row); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Runs lists exported runs, oldest first.
func (s *Sqlite) Runs() ([]RunRow, error) {
	var runs []RunRow
	if _, err := s.dbmap.Select(&runs, "select * from runs order by created_at, id"); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return runs, nil
}

// Students returns the students of one run in cohort order.
func (s *Sqlite) Students(runID string) ([]StudentRow, error) {
	var students []StudentRow
	_, err := s.dbmap.Select(&students, "select * from students where run_id = ? order by position", runID)
	if err != nil {
		return nil, fmt.Errorf("store: list students of %s: %w", runID, err)
	}
	return students, nil
}

// Count returns the number of rows a run owns in table.
func (s *Sqlite) Count(table, runID string) (int64, error) {
	switch table {
	case "students", "courses", "grades":
	default:
		return 0, fmt.Errorf("store: unknown table %q", table)
	}
	return s.dbmap.SelectInt("select count(*) from "+table+" where run_id = ?", runID)
}

func (s *Sqlite) Close() error {
	return s.db.Close()
}
