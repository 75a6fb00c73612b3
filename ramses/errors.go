package ramses

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Common errors
var (
	// ErrCorruption marks errors caused by a file that is internally inconsistent.
	ErrCorruption   = errors.New("ramses: corrupted file")
	ErrUnknownField = errors.New("ramses: unknown field")
	ErrTooLarge     = errors.New("ramses: block exceeds allocation limit")
	ErrNoDomain     = errors.New("ramses: no such domain")
	ErrNotSnapshot  = errors.New("ramses: not a snapshot directory")
)

// LevelMismatchError reports a data block whose declared level disagrees
// with its position in the file.
type LevelMismatchError struct {
	File     string
	Domain   int
	Expected int
	Actual   int
}

func (e *LevelMismatchError) Error() string {
	return fmt.Sprintf("%s: domain %d: level %d instead of %d", e.File, e.Domain, e.Actual, e.Expected)
}

func levelMismatch(file string, domain, expected, actual int) error {
	return errors.Mark(&LevelMismatchError{
		File:     file,
		Domain:   domain,
		Expected: expected,
		Actual:   actual,
	}, ErrCorruption)
}
