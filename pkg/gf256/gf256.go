// Package gf256 implements arithmetic in GF(2^8) using log/exp tables
// built over the irreducible polynomial x^8 + x^4 + x^3 + x^2 + 1.
//
// The tables are filled once in init and never written again, so every
// function here is safe for concurrent use without locking.
package gf256

import "crypto/subtle"

const (
	// Polynomial is the irreducible modulus of the field (0x11d).
	Polynomial = 0x11d

	// Order is the size of the multiplicative group, 2^8 - 1.
	Order = 255
)

var (
	expTable [256]uint8
	logTable [256]uint8
)

func init() {
	x := 1
	for i := 0; i < Order; i++ {
		expTable[i] = uint8(x)
		logTable[x] = uint8(i)

		x <<= 1
		if x&0x100 != 0 {
			x ^= Polynomial
		}
	}
	// The generator has order 255, so the cycle closes here.
	expTable[Order] = expTable[0]
}

// Exp returns the generator raised to the power i. i is reduced mod 255
// and may be negative.
func Exp(i int) uint8 {
	i %= Order
	if i < 0 {
		i += Order
	}
	return expTable[i]
}

// Log returns the discrete logarithm of v. Log(0) is undefined and returns 0;
// callers must handle zero themselves.
func Log(v uint8) int {
	return int(logTable[v])
}

// Add combines two numbers in GF(2^8). Symmetric with subtraction.
func Add(a, b uint8) uint8 {
	return a ^ b
}

// Mul multiplies two numbers in GF(2^8).
func Mul(a, b uint8) uint8 {
	sum := (int(logTable[a]) + int(logTable[b])) % Order
	ret := expTable[sum]

	if subtle.ConstantTimeByteEq(a, 0) == 1 {
		ret = 0
	}
	if subtle.ConstantTimeByteEq(b, 0) == 1 {
		ret = 0
	}

	return ret
}

// Div divides a by b in GF(2^8). It panics if b is zero.
func Div(a, b uint8) uint8 {
	if b == 0 {
		panic("gf256: divide by zero")
	}

	diff := (int(logTable[a]) - int(logTable[b])) % Order
	if diff < 0 {
		diff += Order
	}
	ret := expTable[diff]

	if subtle.ConstantTimeByteEq(a, 0) == 1 {
		ret = 0
	}

	return ret
}

// Inverse returns the multiplicative inverse of a. It panics if a is zero.
func Inverse(a uint8) uint8 {
	return Div(1, a)
}
