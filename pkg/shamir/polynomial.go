package shamir

import (
	"fmt"
	"io"

	"github.com/Beastly713/quorum/pkg/gf256"
)

// maxCoefficientDraws bounds the retries for a nonzero coefficient. With a
// healthy source the chance of hitting it is 256^-64.
const maxCoefficientDraws = 64

// polynomial represents a polynomial of arbitrary degree
type polynomial struct {
	coefficients []uint8
}

// makePolynomial constructs a random polynomial of the given degree with
// the provided intercept. Every random coefficient is nonzero.
func makePolynomial(intercept uint8, degree int, rnd io.Reader) (polynomial, error) {
	p := polynomial{
		coefficients: make([]uint8, degree+1),
	}

	p.coefficients[0] = intercept

	for i := 1; i <= degree; i++ {
		c, err := randomCoefficient(rnd)
		if err != nil {
			return p, err
		}
		p.coefficients[i] = c
	}

	return p, nil
}

// randomCoefficient draws single bytes until one is nonzero.
func randomCoefficient(rnd io.Reader) (uint8, error) {
	var buf [1]byte
	for attempt := 0; attempt < maxCoefficientDraws; attempt++ {
		if _, err := io.ReadFull(rnd, buf[:]); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrRandomSource, err)
		}
		if buf[0] != 0 {
			return buf[0], nil
		}
	}
	return 0, fmt.Errorf("%w after %d draws", ErrRandomSource, maxCoefficientDraws)
}

// evaluate returns the value of the polynomial for the given x
func (p *polynomial) evaluate(x uint8) uint8 {
	if x == 0 {
		return p.coefficients[0]
	}

	degree := len(p.coefficients) - 1
	out := p.coefficients[degree]
	for i := degree - 1; i >= 0; i-- {
		out = gf256.Add(gf256.Mul(out, x), p.coefficients[i])
	}
	return out
}

// lagrange returns the value at x = 0 of the polynomial through the points
// (xs[i], ys[i]). Each term is computed in the log domain:
//
//	log(y_i) + sum_{k != i} (log(x_k) - log(x_i ^ x_k))
//
// and the terms are summed with XOR. Points with y = 0 contribute nothing.
// The xs must be distinct and nonzero.
func lagrange(xs, ys []uint8) uint8 {
	var sum uint8
	for i := range xs {
		if ys[i] == 0 {
			continue
		}

		exponent := gf256.Log(ys[i])
		for k := range xs {
			if k == i {
				continue
			}
			exponent += gf256.Log(xs[k]) - gf256.Log(xs[i]^xs[k])
		}

		sum = gf256.Add(sum, gf256.Exp(exponent))
	}
	return sum
}
