package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/cohortctl/internal/record"
)

var (
	ErrOpen = errors.New("ingest: cannot open source")
	ErrRead = errors.New("ingest: cannot read source")
)

const (
	readBufferSize = 64 * 1024
	// maxLineBytes bounds one line; the rest of a longer line is discarded
	// and the line counts as malformed.
	maxLineBytes = 1 << 20
)

// Load builds a cohort from a section-tagged text stream. Malformed data
// lines are skipped; only read failures abort, and then no cohort is returned.
func Load(r io.Reader) (*record.Cohort, Report, error) {
	engine := NewEngine()
	br := bufio.NewReaderSize(r, readBufferSize)
	var (
		line    []byte
		tooLong bool
	)
	for {
		frag, more, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, Report{}, fmt.Errorf("%w: line %d: %w", ErrRead, engine.lineNo+1, err)
		}
		if !tooLong {
			if len(line)+len(frag) > maxLineBytes {
				tooLong = true
				line = line[:0]
			} else {
				line = append(line, frag...)
			}
		}
		if more {
			continue
		}
		if tooLong {
			engine.FeedOversized()
		} else {
			engine.Feed(string(line))
		}
		line, tooLong = line[:0], false
	}

	report := engine.Report()
	log.Info().
		Int("lines", report.Lines).
		Int("students", report.Students).
		Int("courses", report.Courses).
		Int("grades", report.Grades).
		Int("dropped", report.Dropped()).
		Msg("ingest: complete")
	return engine.Cohort(), report, nil
}

func LoadFile(path string) (*record.Cohort, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer f.Close()
	return Load(f)
}
