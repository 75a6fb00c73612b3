package header

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Info holds the "key = value" parameters of an info_NNNNN.txt file.
// Lines without '=' (such as the domain table) are ignored.
type Info map[string]string

// ReadInfo parses an info file.
func ReadInfo(rd io.Reader) (Info, error) {
	info := Info{}
	sc := bufio.NewScanner(rd)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		info[key] = strings.TrimSpace(val)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading info file")
	}
	return info, nil
}

// Int returns the integer value of key.
func (in Info) Int(key string) (int, error) {
	v, ok := in[key]
	if !ok {
		return 0, errors.Newf("info: missing %q", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "info: %s", key)
	}
	return n, nil
}

// Float returns the floating-point value of key. Fortran "D" exponents are accepted.
func (in Info) Float(key string) (float64, error) {
	v, ok := in[key]
	if !ok {
		return 0, errors.Newf("info: missing %q", key)
	}
	f, err := strconv.ParseFloat(strings.NewReplacer("D", "E", "d", "e").Replace(v), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "info: %s", key)
	}
	return f, nil
}
