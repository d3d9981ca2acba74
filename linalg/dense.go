// Package linalg provides the small set of dense-matrix linear algebra primitives
// the solver core needs to turn a cluster's geometry into an isomer fingerprint:
// a row-major Dense matrix and a symmetric Jacobi eigensolver.
//
// Dense mirrors the storage layout of a typical adjacency/incidence matrix: a flat
// float64 slice addressed in row-major order, so an n×n bonding-adjacency matrix or
// a 3×3 inertia tensor are both just small Dense instances.
package linalg

import (
	"errors"
	"fmt"
)

// ErrInvalidDimensions indicates that requested matrix dimensions are non-positive.
var ErrInvalidDimensions = errors.New("linalg: dimensions must be > 0")

// ErrIndexOutOfBounds indicates that a row or column index is outside valid range.
var ErrIndexOutOfBounds = errors.New("linalg: index out of bounds")

// ErrNotSquare indicates an operation that requires a square matrix received one that isn't.
var ErrNotSquare = errors.New("linalg: matrix is not square")

// ErrNotSymmetric indicates Eigen was given a non-symmetric matrix.
var ErrNotSymmetric = errors.New("linalg: matrix is not symmetric")

// ErrEigenFailed indicates the Jacobi sweep did not converge within the iteration budget.
var ErrEigenFailed = errors.New("linalg: eigen decomposition did not converge")

// Dense is a row-major matrix of float64 values.
// r is rows, c is columns, and data holds r*c elements in row-major order.
type Dense struct {
	r, c int
	data []float64
}

// denseErrorf wraps an underlying error with Dense method context.
func denseErrorf(method string, row, col int, err error) error {
	return fmt.Errorf("Dense.%s(%d,%d): %w", method, row, col, err)
}

// NewDense creates an r×c Dense matrix initialized to zeros.
// Complexity: O(r*c) time and memory.
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	return &Dense{r: rows, c: cols, data: make([]float64, rows*cols)}, nil
}

// Rows returns the number of rows in the matrix.
func (m *Dense) Rows() int { return m.r }

// Cols returns the number of columns in the matrix.
func (m *Dense) Cols() int { return m.c }

// indexOf computes the flat index for (row, col) or returns ErrIndexOutOfBounds.
func (m *Dense) indexOf(row, col int) (int, error) {
	if row < 0 || row >= m.r {
		return 0, ErrIndexOutOfBounds
	}
	if col < 0 || col >= m.c {
		return 0, ErrIndexOutOfBounds
	}
	return row*m.c + col, nil
}

// At retrieves the element at (row, col).
func (m *Dense) At(row, col int) (float64, error) {
	idx, err := m.indexOf(row, col)
	if err != nil {
		return 0, denseErrorf("At", row, col, err)
	}
	return m.data[idx], nil
}

// Set assigns value v at (row, col).
func (m *Dense) Set(row, col int, v float64) error {
	idx, err := m.indexOf(row, col)
	if err != nil {
		return denseErrorf("Set", row, col, err)
	}
	m.data[idx] = v
	return nil
}

// Clone returns a deep copy of the Dense matrix.
func (m *Dense) Clone() *Dense {
	cp := make([]float64, len(m.data))
	copy(cp, m.data)
	return &Dense{r: m.r, c: m.c, data: cp}
}

// IsSquare reports whether the matrix has equal row and column counts.
func (m *Dense) IsSquare() bool { return m.r == m.c }

// IsSymmetric reports whether m[i][j] == m[j][i] within tol for all i,j.
func (m *Dense) IsSymmetric(tol float64) bool {
	if !m.IsSquare() {
		return false
	}
	for i := 0; i < m.r; i++ {
		for j := i + 1; j < m.c; j++ {
			aij, _ := m.At(i, j)
			aji, _ := m.At(j, i)
			d := aij - aji
			if d < 0 {
				d = -d
			}
			if d > tol {
				return false
			}
		}
	}
	return true
}
