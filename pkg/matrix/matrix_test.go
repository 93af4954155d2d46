package matrix

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/vnykmshr/matdet/internal/testutil"
	gferrors "github.com/vnykmshr/matdet/pkg/common/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Matrix
	}{
		{"empty", "", nil},
		{"single", "7\n", Matrix{{7}}},
		{"two by two", "1 2\n3 4\n", Matrix{{1, 2}, {3, 4}}},
		{"tabs and spaces", "1\t 2\n  3 4  \n", Matrix{{1, 2}, {3, 4}}},
		{"no trailing newline", "1 2\n3 4", Matrix{{1, 2}, {3, 4}}},
		{"scientific", "1e2 -2.5\n0 1\n", Matrix{{100, -2.5}, {0, 1}}},
		{"blank line kept as row", "1\n\n", Matrix{{1}, {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.input))
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, len(got), len(tt.want))
			for i := range tt.want {
				testutil.AssertEqual(t, len(got[i]), len(tt.want[i]))
				for j := range tt.want[i] {
					testutil.AssertEqual(t, got[i][j], tt.want[i][j])
				}
			}
		})
	}
}

func TestParseInvalidEntry(t *testing.T) {
	_, err := Parse(strings.NewReader("1 2\n3 x\n"))
	testutil.AssertError(t, err)

	var perr *ParseError
	testutil.AssertEqual(t, errors.As(err, &perr), true)
	testutil.AssertEqual(t, perr.Line, 2)
	testutil.AssertEqual(t, perr.Token, "x")
}

func TestDeterminant(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		want float64
	}{
		{"zero by zero", Matrix{}, 1},
		{"nil", nil, 1},
		{"one by one", Matrix{{-3}}, -3},
		{"two by two", Matrix{{1, 2}, {3, 4}}, -2},
		{"identity three", Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, 1},
		{"three by three", Matrix{{1, 2, 3}, {0, 1, 4}, {5, 6, 0}}, 1},
		{"singular", Matrix{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}, 0},
		{"four by four", Matrix{
			{3, 2, 0, 1},
			{4, 0, 1, 2},
			{3, 0, 2, 1},
			{9, 2, 3, 1},
		}, 24},
		{"upper triangular five", Matrix{
			{2, 1, 1, 1, 1},
			{0, 3, 1, 1, 1},
			{0, 0, 4, 1, 1},
			{0, 0, 0, 5, 1},
			{0, 0, 0, 0, 6},
		}, 720},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Determinant(tt.m)
			testutil.AssertNoError(t, err)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Determinant() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeterminantNotSquare(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
	}{
		{"wide", Matrix{{1, 2}}},
		{"tall", Matrix{{1}, {2}}},
		{"ragged", Matrix{{1, 2}, {3}}},
		{"blank row", Matrix{{1}, {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Determinant(tt.m)
			testutil.AssertEqual(t, errors.Is(err, ErrNotSquare), true)
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fileIn-1.txt")
	testutil.AssertNoError(t, os.WriteFile(path, []byte("2 0\n0 2\n"), 0o644))

	m, err := ReadFile(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, m.Size(), 2)

	d, err := Determinant(m)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, d, 4.0)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.txt"))
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, errors.Is(err, os.ErrNotExist), true)

	var opErr *gferrors.OperationError
	testutil.AssertEqual(t, errors.As(err, &opErr), true)
	testutil.AssertEqual(t, opErr.Operation, "ReadFile")
}

func TestParseLongLine(t *testing.T) {
	input := "1" + strings.Repeat(" ", 70000) + "2\n3 4\n"

	m, err := Parse(strings.NewReader(input))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, m.Size(), 2)
	testutil.AssertEqual(t, len(m[0]), 2)
	testutil.AssertEqual(t, m[0][1], 2.0)

	d, err := Determinant(m)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, d, -2.0)
}

func TestParseRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name  string
		input string
		token string
	}{
		{"nan", "nan 1\n1 1\n", "nan"},
		{"NaN", "1 1\n1 NaN\n", "NaN"},
		{"inf", "inf 1\n1 1\n", "inf"},
		{"negative infinity", "-Infinity 1\n1 1\n", "-Infinity"},
		{"hex float", "0x1p-2 1\n1 1\n", "0x1p-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			testutil.AssertEqual(t, errors.Is(err, ErrNotFinite), true)

			var perr *ParseError
			testutil.AssertEqual(t, errors.As(err, &perr), true)
			testutil.AssertEqual(t, perr.Token, tt.token)
		})
	}
}

func TestParseOverflowIsRejected(t *testing.T) {
	_, err := Parse(strings.NewReader("1e400\n"))
	testutil.AssertEqual(t, errors.Is(err, strconv.ErrRange), true)
}
