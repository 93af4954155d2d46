package matrix

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	gferrors "github.com/vnykmshr/matdet/pkg/common/errors"
)

// ErrNotSquare is returned when a matrix does not have as many columns as rows.
var ErrNotSquare = errors.New("matrix must be square to compute its determinant")

// ErrNotFinite is returned for entries such as NaN, Inf or hex floats.
var ErrNotFinite = errors.New("entry is not a finite decimal number")

// Matrix is a dense row-major matrix.
type Matrix [][]float64

// ParseError reports an entry that is not a number.
type ParseError struct {
	Line  int
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: invalid entry %q: %v", e.Line, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads one row per line. Blank lines become empty rows, which makes
// the matrix non-square unless it is entirely empty. Lines may be any length.
func Parse(r io.Reader) (Matrix, error) {
	var m Matrix

	br := bufio.NewReader(r)
	line := 0
	for {
		text, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if text == "" && err == io.EOF {
			break
		}

		line++
		row, perr := parseRow(line, text)
		if perr != nil {
			return nil, perr
		}
		m = append(m, row)

		if err == io.EOF {
			break
		}
	}

	return m, nil
}

func parseRow(line int, text string) ([]float64, error) {
	fields := strings.Fields(text)
	row := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := parseEntry(field)
		if err != nil {
			return nil, &ParseError{Line: line, Token: field, Err: err}
		}
		row = append(row, v)
	}
	return row, nil
}

// parseEntry accepts finite decimal numbers only.
func parseEntry(field string) (float64, error) {
	if strings.ContainsAny(field, "xX") {
		return 0, ErrNotFinite
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotFinite
	}
	return v, nil
}

// ReadFile opens path and parses its contents.
func ReadFile(path string) (Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gferrors.NewOperationError("matrix", "ReadFile", err).WithContext(path)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, gferrors.NewOperationError("matrix", "Parse", err).WithContext(path)
	}
	return m, nil
}

// Size returns the number of rows.
func (m Matrix) Size() int {
	return len(m)
}

// IsSquare reports whether every row has exactly Size() entries.
func (m Matrix) IsSquare() bool {
	n := len(m)
	for _, row := range m {
		if len(row) != n {
			return false
		}
	}
	return true
}

// Determinant computes det(m). The 0x0 matrix has determinant 1.
func Determinant(m Matrix) (float64, error) {
	if !m.IsSquare() {
		return 0, fmt.Errorf("%w: %d rows, first row has %d entries", ErrNotSquare, len(m), firstRowLen(m))
	}
	return det(m), nil
}

func firstRowLen(m Matrix) int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// det expects a square matrix.
func det(m Matrix) float64 {
	n := len(m)
	switch n {
	case 0:
		return 1
	case 1:
		return m[0][0]
	case 2:
		return m[0][0]*m[1][1] - m[0][1]*m[1][0]
	}

	var total float64
	sign := 1.0
	for j := 0; j < n; j++ {
		total += sign * m[0][j] * det(minor(m, j))
		sign = -sign
	}
	return total
}

// minor returns m without its first row and column j.
func minor(m Matrix, col int) Matrix {
	n := len(m)
	sub := make(Matrix, n-1)
	for r := 1; r < n; r++ {
		row := make([]float64, 0, n-1)
		row = append(row, m[r][:col]...)
		row = append(row, m[r][col+1:]...)
		sub[r-1] = row
	}
	return sub
}
