package smooth

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidOrder is returned when the polynomial order is negative or not
// smaller than the window.
var ErrInvalidOrder = errors.New("smooth: polynomial order must be in [0, window)")

// SavitzkyGolayCoefficients returns the convolution weights that evaluate
// the least-squares polynomial of the given order at the center of an odd
// window.
func SavitzkyGolayCoefficients(window, order int) ([]float64, error) {
	if window < 1 || window%2 == 0 {
		return nil, fmt.Errorf("%w: %d (must be odd)", ErrInvalidWindow, window)
	}

	if order < 0 || order >= window {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}

	half := window / 2

	pinv, err := pseudoInverse(vandermonde(-half, window, order))
	if err != nil {
		return nil, err
	}

	// Row 0 of the pseudo-inverse yields the constant term, i.e. the fitted
	// value at t = 0.
	return mat.Row(nil, 0, pinv), nil
}

// SavitzkyGolay smooths x with a polynomial least-squares filter. Interior
// samples use the convolution weights; the first and last window/2 samples
// are taken from a polynomial fitted to the first and last window samples.
func SavitzkyGolay(x []float64, window, order int) ([]float64, error) {
	if err := checkWindow(len(x), window); err != nil {
		return nil, err
	}

	coeffs, err := SavitzkyGolayCoefficients(window, order)
	if err != nil {
		return nil, err
	}

	n := len(x)
	half := window / 2
	out := make([]float64, n)

	for i := half; i < n-half; i++ {
		var y float64
		for k, c := range coeffs {
			y += c * x[i-half+k]
		}
		out[i] = y
	}

	edge, err := pseudoInverse(vandermonde(0, window, order))
	if err != nil {
		return nil, err
	}

	fitEdge(out[:half], x[:window], edge, order, 0)
	fitEdge(out[n-half:], x[n-window:], edge, order, window-half)

	return out, nil
}

// fitEdge fits a polynomial in t = 0..len(seg)-1 to seg and writes its
// values at t = from .. from+len(dst)-1 to dst.
func fitEdge(dst, seg []float64, pinv *mat.Dense, order, from int) {
	var p mat.VecDense
	p.MulVec(pinv, mat.NewVecDense(len(seg), seg))

	for j := range dst {
		t := float64(from + j)

		var y, tk float64 = 0, 1
		for k := 0; k <= order; k++ {
			y += p.AtVec(k) * tk
			tk *= t
		}

		dst[j] = y
	}
}

// vandermonde returns the rows [1, t, t^2, ..., t^order] for t = start ..
// start+n-1.
func vandermonde(start, n, order int) *mat.Dense {
	a := mat.NewDense(n, order+1, nil)

	for i := range n {
		t := float64(start + i)
		v := 1.0
		for k := 0; k <= order; k++ {
			a.Set(i, k, v)
			v *= t
		}
	}

	return a
}

func pseudoInverse(a *mat.Dense) (*mat.Dense, error) {
	rows, _ := a.Dims()

	eye := mat.NewDiagDense(rows, nil)
	for i := range rows {
		eye.SetDiag(i, 1)
	}

	var pinv mat.Dense
	if err := pinv.Solve(a, eye); err != nil {
		return nil, fmt.Errorf("smooth: least squares: %w", err)
	}

	return &pinv, nil
}
