package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
)

// GoldenData holds the recursion constants of both families at one order.
type GoldenData struct {
	N int     `json:"n"`
	F float64 `json:"f"`
	G float64 `json:"g"`
	H float64 `json:"h"`
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
}

// prec is the mantissa size of the oracle, far beyond float64.
const prec = 256

func main() {
	outputDir := flag.String("out", "internal/qpoly/testdata", "Output directory for the golden file")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	filename := filepath.Join(*outputDir, "coefs_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	// Low orders, powers of two and the orders used by the server limits.
	targets := []int{
		0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12,
		16, 20, 32, 50, 64, 100,
	}

	f, g, h := qbfsConstants(targets[len(targets)-1])

	var data []GoldenData
	fmt.Println("Generating golden data...")
	for _, n := range targets {
		a, b, c := qconConstants(n)
		data = append(data, GoldenData{
			N: n,
			F: toFloat(f[n]), G: toFloat(g[n]), H: toFloat(h[n]),
			A: a, B: b, C: c,
		})
		fmt.Printf("Generated constants for order %d\n", n)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully generated golden file at %s\n", filename)
}

func newFloat(v float64) *big.Float {
	return new(big.Float).SetPrec(prec).SetFloat64(v)
}

func toFloat(x *big.Float) float64 {
	v, _ := x.Float64()
	return v
}

// qbfsConstants runs the Qbfs f/g/h recurrence in extended precision up to
// order n. This is the "Oracle" for the float64 tables.
func qbfsConstants(n int) (f, g, h []*big.Float) {
	for k := 0; k <= n; k++ {
		var fk *big.Float
		switch k {
		case 0:
			fk = newFloat(2)
		case 1:
			fk = new(big.Float).SetPrec(prec).Sqrt(newFloat(19))
			fk.Quo(fk, newFloat(2))
		default:
			s := newFloat(float64(k*(k+1) + 3))
			s.Sub(s, new(big.Float).SetPrec(prec).Mul(g[k-1], g[k-1]))
			s.Sub(s, new(big.Float).SetPrec(prec).Mul(h[k-2], h[k-2]))
			fk = new(big.Float).SetPrec(prec).Sqrt(s)
		}
		f = append(f, fk)

		gk := newFloat(-0.5)
		if k > 0 {
			gk = new(big.Float).SetPrec(prec).Mul(g[k-1], h[k-1])
			gk.Add(gk, newFloat(1))
			gk.Quo(gk, fk)
			gk.Neg(gk)
		}
		g = append(g, gk)

		m := float64(k + 2)
		hk := newFloat(-m * (m - 1))
		hk.Quo(hk, new(big.Float).SetPrec(prec).Mul(newFloat(2), fk))
		h = append(h, hk)
	}
	return f, g, h
}

// qconConstants evaluates the rational Qcon constants exactly.
func qconConstants(n int) (a, b, c float64) {
	m := int64(n)
	den := func(x ...int64) *big.Int {
		p := big.NewInt(1)
		for _, v := range x {
			p.Mul(p, big.NewInt(v))
		}
		return p
	}
	ratio := func(num, d *big.Int) float64 {
		v, _ := new(big.Rat).SetFrac(num, d).Float64()
		return v
	}
	a = ratio(den(2*m+5, m*m+5*m+10), den(m+1, m+2, m+5))
	b = ratio(den(2, m+3, 2*m+5), den(m+1, m+5))
	c = ratio(den(m, m+3, m+4), den(m+1, m+2, m+5))
	return a, b, c
}
