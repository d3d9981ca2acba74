package linalg

import "math"

// DefaultEigenTol is the convergence threshold used when callers don't need a custom one.
const DefaultEigenTol = 1e-10

// DefaultEigenMaxIter caps the number of Jacobi rotations Eigen performs.
const DefaultEigenMaxIter = 100

// Eigen performs Jacobi eigenvalue decomposition on a symmetric matrix m.
// It returns the eigenvalues (unsorted, in diagonal order after convergence) and a
// matrix of eigenvectors Q (columns of Q). tol is the convergence threshold for the
// largest off-diagonal element; maxIter caps the number of iterations, each of
// which applies one rotation that zeroes the current largest off-diagonal element.
//
// This is the fingerprint package's sole numerical dependency: both the bond-graph
// adjacency matrix and the 3x3 inertia tensor are real and symmetric by construction,
// so a single small eigensolver covers both uses.
//
// Complexity: O(n^2) per iteration (pivot search), worst-case O(maxIter*n^2); memory O(n^2).
func Eigen(m *Dense, tol float64, maxIter int) ([]float64, *Dense, error) {
	n := m.Rows()
	if n != m.Cols() {
		return nil, nil, ErrNotSquare
	}
	if !m.IsSymmetric(tol) {
		return nil, nil, ErrNotSymmetric
	}

	A := m.Clone()
	Q, err := NewDense(n, n)
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < n; i++ {
		_ = Q.Set(i, i, 1.0)
	}

	var (
		iter     int
		p, q     int
		maxOff   float64
		theta, t float64
		c, s     float64
	)
	for iter = 0; iter < maxIter; iter++ {
		maxOff = 0.0
		p, q = 0, 1
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				off, _ := A.At(i, j)
				if math.Abs(off) > maxOff {
					maxOff = math.Abs(off)
					p, q = i, j
				}
			}
		}
		if maxOff < tol {
			break
		}

		aip, _ := A.At(p, p)
		aiq, _ := A.At(q, q)
		apq, _ := A.At(p, q)
		if apq == 0 {
			break
		}
		theta = (aiq - aip) / (2 * apq)
		t = math.Copysign(1.0/(math.Abs(theta)+math.Sqrt(theta*theta+1)), theta)
		c = 1.0 / math.Sqrt(t*t+1)
		s = t * c

		for i := 0; i < n; i++ {
			if i != p && i != q {
				aipv, _ := A.At(i, p)
				aiqv, _ := A.At(i, q)
				newP := c*aipv - s*aiqv
				newQ := s*aipv + c*aiqv
				_ = A.Set(i, p, newP)
				_ = A.Set(p, i, newP)
				_ = A.Set(i, q, newQ)
				_ = A.Set(q, i, newQ)
			}
		}
		_ = A.Set(p, p, c*c*aip-2*c*s*apq+s*s*aiq)
		_ = A.Set(q, q, s*s*aip+2*c*s*apq+c*c*aiq)
		_ = A.Set(p, q, 0.0)
		_ = A.Set(q, p, 0.0)

		for i := 0; i < n; i++ {
			qip, _ := Q.At(i, p)
			qiq, _ := Q.At(i, q)
			_ = Q.Set(i, p, c*qip-s*qiq)
			_ = Q.Set(i, q, s*qip+c*qiq)
		}
	}

	if iter == maxIter {
		return nil, nil, ErrEigenFailed
	}

	eigs := make([]float64, n)
	for i := 0; i < n; i++ {
		eigs[i], _ = A.At(i, i)
	}
	return eigs, Q, nil
}
