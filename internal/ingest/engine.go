package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/cohortctl/internal/observability"
	"github.com/danmuck/cohortctl/internal/record"
)

// Section markers, matched case-sensitively against the whole line once
// trailing separators and whitespace are trimmed.
const (
	MarkerStudents = "ETUDIANTS"
	MarkerCourses  = "MATIERES"
	MarkerGrades   = "NOTES"
)

// MaxFieldBytes bounds names so that the binary codec (256 bytes including
// the terminator) can always persist them.
const MaxFieldBytes = 255

const defaultCohortCapacity = 200

type Section int

const (
	SectionNone Section = iota
	SectionStudents
	SectionCourses
	SectionGrades
)

func (s Section) String() string {
	switch s {
	case SectionStudents:
		return "students"
	case SectionCourses:
		return "courses"
	case SectionGrades:
		return "grades"
	default:
		return "preamble"
	}
}

// Outcome classifies what the engine did with one line.
type Outcome string

const (
	OutcomeAccepted       Outcome = "accepted"
	OutcomeMarker         Outcome = "marker"
	OutcomeHeader         Outcome = "header"
	OutcomeBlank          Outcome = "blank"
	OutcomePreamble       Outcome = "preamble"
	OutcomeMalformed      Outcome = "malformed"
	OutcomeUnknownStudent Outcome = "unknown_student"
	OutcomeUnknownCourse  Outcome = "unknown_course"
)

// Dropped reports whether the outcome is a data-quality drop.
func (o Outcome) Dropped() bool {
	switch o {
	case OutcomeMalformed, OutcomeUnknownStudent, OutcomeUnknownCourse:
		return true
	default:
		return false
	}
}

// Report summarizes one ingestion pass.
type Report struct {
	Lines    int
	Students int
	Courses  int
	Grades   int
	Outcomes map[Outcome]int
}

// Dropped is the number of data lines discarded as invalid.
func (r Report) Dropped() int {
	n := 0
	for o, count := range r.Outcomes {
		if o.Dropped() {
			n += count
		}
	}
	return n
}

// Engine is the section state machine. It is fed one line at a time and
// keeps the cohort consistent after every line.
type Engine struct {
	section  Section
	skipNext bool
	lineNo   int
	cohort   *record.Cohort
	catalog  record.Catalog
	report   Report
}

func NewEngine() *Engine {
	return &Engine{
		cohort: record.NewCohort(defaultCohortCapacity),
		report: Report{Outcomes: make(map[Outcome]int)},
	}
}

func (e *Engine) Cohort() *record.Cohort {
	return e.cohort
}

func (e *Engine) Catalog() *record.Catalog {
	return &e.catalog
}

func (e *Engine) Report() Report {
	out := e.report
	out.Outcomes = make(map[Outcome]int, len(e.report.Outcomes))
	for k, v := range e.report.Outcomes {
		out.Outcomes[k] = v
	}
	return out
}

// Feed consumes one line (with or without its line terminator).
func (e *Engine) Feed(line string) Outcome {
	e.lineNo++
	e.report.Lines++
	text := strings.TrimRight(line, " \t\r\n")

	if e.skipNext {
		e.skipNext = false
		return e.note(OutcomeHeader, "")
	}
	if sec, ok := markerSection(text); ok {
		e.section = sec
		e.skipNext = true
		return e.note(OutcomeMarker, "")
	}
	if strings.TrimSpace(text) == "" {
		return e.note(OutcomeBlank, "")
	}

	switch e.section {
	case SectionStudents:
		return e.studentLine(text)
	case SectionCourses:
		return e.courseLine(text)
	case SectionGrades:
		return e.gradeLine(text)
	default:
		return e.note(OutcomePreamble, "")
	}
}

// FeedOversized records a line that exceeded the reader's line limit. Its
// content is gone, so it counts as malformed unless it was the header slot
// after a marker or sits in the preamble.
func (e *Engine) FeedOversized() Outcome {
	e.lineNo++
	e.report.Lines++
	if e.skipNext {
		e.skipNext = false
		return e.note(OutcomeHeader, "")
	}
	if e.section == SectionNone {
		return e.note(OutcomePreamble, "")
	}
	return e.note(OutcomeMalformed, "line too long")
}

// markerSection matches a marker token optionally followed by empty
// fields, as spreadsheet exports write it ("NOTES;;").
func markerSection(text string) (Section, bool) {
	switch strings.TrimRight(text, "; \t") {
	case MarkerStudents:
		return SectionStudents, true
	case MarkerCourses:
		return SectionCourses, true
	case MarkerGrades:
		return SectionGrades, true
	default:
		return SectionNone, false
	}
}

// id;first_name;last_name;age
func (e *Engine) studentLine(text string) Outcome {
	fields, ok := splitFields(text, 4)
	if !ok {
		return e.note(OutcomeMalformed, "want 4 fields")
	}
	id, err := parseInt32(fields[0])
	if err != nil {
		return e.note(OutcomeMalformed, "bad id")
	}
	if !validName(fields[1]) || !validName(fields[2]) {
		return e.note(OutcomeMalformed, "bad name")
	}
	age, err := parseInt32(fields[3])
	if err != nil {
		return e.note(OutcomeMalformed, "bad age")
	}
	e.cohort.Add(record.NewStudent(id, fields[1], fields[2], age))
	e.report.Students++
	return e.note(OutcomeAccepted, "")
}

// name;coefficient
func (e *Engine) courseLine(text string) Outcome {
	fields, ok := splitFields(text, 2)
	if !ok {
		return e.note(OutcomeMalformed, "want 2 fields")
	}
	if !validName(fields[0]) {
		return e.note(OutcomeMalformed, "bad course name")
	}
	coef, err := parseScore(fields[1])
	if err != nil || coef < 0 {
		return e.note(OutcomeMalformed, "bad coefficient")
	}
	e.catalog.Declare(fields[0], coef)
	e.report.Courses++
	return e.note(OutcomeAccepted, "")
}

// id;course_name;grade
func (e *Engine) gradeLine(text string) Outcome {
	fields, ok := splitFields(text, 3)
	if !ok {
		return e.note(OutcomeMalformed, "want 3 fields")
	}
	id, err := parseInt32(fields[0])
	if err != nil {
		return e.note(OutcomeMalformed, "bad id")
	}
	name := fields[1]
	if !validName(name) {
		return e.note(OutcomeMalformed, "bad course name")
	}
	grade, err := parseScore(fields[2])
	if err != nil {
		return e.note(OutcomeMalformed, "bad grade")
	}

	student, ok := e.cohort.Lookup(id)
	if !ok {
		return e.note(OutcomeUnknownStudent, "student "+fields[0])
	}
	course := student.Course(name)
	if course == nil {
		coef, declared := e.catalog.Coefficient(name)
		if !declared {
			return e.note(OutcomeUnknownCourse, "course "+name)
		}
		course = student.Enroll(name, coef)
	}
	student.AddGrade(course, grade)
	e.report.Grades++
	return e.note(OutcomeAccepted, "")
}

func (e *Engine) note(o Outcome, reason string) Outcome {
	e.report.Outcomes[o]++
	observability.RecordIngestLine(e.section.String(), string(o))
	if o.Dropped() {
		log.Debug().
			Str("section", e.section.String()).
			Int("line", e.lineNo).
			Str("outcome", string(o)).
			Str("reason", reason).
			Msg("ingest: line skipped")
	}
	return o
}

func splitFields(text string, want int) ([]string, bool) {
	fields := strings.Split(text, ";")
	if len(fields) != want {
		return nil, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, true
}

func validName(s string) bool {
	return s != "" && len(s) <= MaxFieldBytes
}

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	return int32(v), err
}

func parseScore(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return float32(v), nil
}
