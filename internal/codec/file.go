package codec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/cohortctl/internal/record"
)

var ErrOpen = errors.New("codec: cannot open file")

// WriteFile encodes c into path atomically: the bytes go to a temp file in
// the same directory which is synced and renamed over path only on success.
func WriteFile(path string, c *record.Cohort) error {
	return WriteFileWithLimits(path, c, DefaultLimits())
}

func WriteFileWithLimits(path string, c *record.Cohort, limits Limits) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err = EncodeWithLimits(tmp, c, limits); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("students", c.Len()).Msg("codec: cohort written")
	return nil
}

// ReadFile decodes the cohort stored at path.
func ReadFile(path string) (*record.Cohort, error) {
	return ReadFileWithLimits(path, DefaultLimits())
}

func ReadFileWithLimits(path string, limits Limits) (*record.Cohort, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer f.Close()

	c, err := DecodeWithLimits(f, limits)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("students", c.Len()).Msg("codec: cohort read")
	return c, nil
}
