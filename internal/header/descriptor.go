package header

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// DescriptorFile is the name of the hydro field descriptor in a snapshot directory.
const DescriptorFile = "hydro_file_descriptor.txt"

// Field describes one hydro variable as listed in the descriptor.
type Field struct {
	Index int    // 1-based position on disk
	Name  string
	Type  string // "d" for float64; empty for version 0 descriptors
}

// ReadDescriptor parses a hydro_file_descriptor.txt. Two layouts exist:
//
//	version 0:              version 1:
//	nvar        =  6        # version:  1
//	variable #  1: density  # ivar, variable_name, variable_type
//	variable #  2: ...        1, density, d
//
// The returned fields are in on-disk order.
func ReadDescriptor(rd io.Reader) ([]Field, error) {
	sc := bufio.NewScanner(rd)
	var (
		fields  []Field
		version = -1
		nvar    = -1
		lineNo  int
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if version < 0 {
			switch {
			case strings.HasPrefix(line, "#") && strings.Contains(line, "version"):
				_, v, _ := strings.Cut(line, ":")
				n, err := strconv.Atoi(strings.TrimSpace(v))
				if err != nil || n != 1 {
					return nil, errors.Wrapf(ErrDescriptor, "line %d: unsupported version %q", lineNo, v)
				}
				version = 1
				continue
			case strings.HasPrefix(line, "nvar"):
				_, v, _ := strings.Cut(line, "=")
				n, err := strconv.Atoi(strings.TrimSpace(v))
				if err != nil {
					return nil, errors.Wrapf(ErrDescriptor, "line %d: bad nvar %q", lineNo, v)
				}
				version, nvar = 0, n
				continue
			default:
				return nil, errors.Wrapf(ErrDescriptor, "line %d: unrecognised header %q", lineNo, line)
			}
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		var f Field
		var err error
		if version == 1 {
			f, err = parseV1(line)
		} else {
			f, err = parseV0(line)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		if f.Index != len(fields)+1 {
			return nil, errors.Wrapf(ErrDescriptor, "line %d: variable %d out of order", lineNo, f.Index)
		}
		fields = append(fields, f)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading descriptor")
	}
	if version < 0 {
		return nil, errors.Wrap(ErrDescriptor, "empty descriptor")
	}
	if nvar >= 0 && nvar != len(fields) {
		return nil, errors.Wrapf(ErrDescriptor, "nvar = %d but %d variables listed", nvar, len(fields))
	}
	return fields, nil
}

func parseV1(line string) (Field, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return Field{}, errors.Wrapf(ErrDescriptor, "expected 3 columns in %q", line)
	}
	idx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Field{}, errors.Wrapf(ErrDescriptor, "bad index in %q", line)
	}
	return Field{
		Index: idx,
		Name:  strings.TrimSpace(parts[1]),
		Type:  strings.TrimSpace(parts[2]),
	}, nil
}

func parseV0(line string) (Field, error) {
	rest, ok := strings.CutPrefix(line, "variable #")
	if !ok {
		return Field{}, errors.Wrapf(ErrDescriptor, "unexpected line %q", line)
	}
	num, name, ok := strings.Cut(rest, ":")
	if !ok {
		return Field{}, errors.Wrapf(ErrDescriptor, "missing name in %q", line)
	}
	idx, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return Field{}, errors.Wrapf(ErrDescriptor, "bad index in %q", line)
	}
	return Field{Index: idx, Name: strings.TrimSpace(name)}, nil
}

// FieldNames returns the names of fields in order.
func FieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// WriteDescriptor writes names as a version 1 descriptor.
func WriteDescriptor(w io.Writer, names []string) error {
	if _, err := fmt.Fprintf(w, "# version:  1\n# ivar, variable_name, variable_type\n"); err != nil {
		return err
	}
	for i, name := range names {
		if _, err := fmt.Fprintf(w, "%3d, %s, d\n", i+1, name); err != nil {
			return err
		}
	}
	return nil
}

// DefaultHydroFields returns the conventional variable names for a pure
// hydro run without a descriptor: density, ndim velocity components,
// pressure, then passive scalars. ndim is clamped to 0..3.
func DefaultHydroFields(ndim, nvar int) []string {
	ndim = min(max(ndim, 0), 3)
	nvar = max(nvar, 0)
	names := []string{"density"}
	for _, axis := range []string{"x", "y", "z"}[:ndim] {
		names = append(names, "velocity_"+axis)
	}
	names = append(names, "pressure")
	if nvar <= len(names) {
		return names[:nvar]
	}
	for i := 1; len(names) < nvar; i++ {
		names = append(names, fmt.Sprintf("scalar_%02d", i))
	}
	return names
}
