package field

import (
	"math"
	"math/rand"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/streamlines/geom"
)

// Noise2D is a smooth scalar noise source. opensimplex.Noise satisfies it.
type Noise2D interface {
	Eval2(x, y float64) float64
}

// NewSimplex returns OpenSimplex noise in roughly [-1, 1].
func NewSimplex(seed int64) Noise2D {
	return opensimplex.New(seed)
}

// Perlin is classic gradient noise over a seeded permutation table.
type Perlin struct {
	perm [512]int
}

// NewPerlin creates a Perlin source. The same seed always gives the same
// table.
func NewPerlin(seed int64) *Perlin {
	p := &Perlin{}
	rng := rand.New(rand.NewSource(seed))

	var perm [256]int
	for i := range perm {
		perm[i] = i
	}
	for i := len(perm) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	for i := range 256 {
		p.perm[i] = perm[i]
		p.perm[i+256] = perm[i]
	}

	return p
}

// Eval2 returns the noise value at (x, y), zero on integer lattice points.
func (p *Perlin) Eval2(x, y float64) float64 {
	X := int(math.Floor(x)) & 255
	Y := int(math.Floor(y)) & 255
	x -= math.Floor(x)
	y -= math.Floor(y)

	u := fade(x)
	v := fade(y)

	a := p.perm[X] + Y
	b := p.perm[X+1] + Y

	return lerp(v,
		lerp(u, grad2(p.perm[a], x, y), grad2(p.perm[b], x-1, y)),
		lerp(u, grad2(p.perm[a+1], x, y-1), grad2(p.perm[b+1], x-1, y-1)))
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

// grad2 picks one of four diagonal gradients from the hash.
func grad2(hash int, x, y float64) float64 {
	switch hash & 3 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	default:
		return -x - y
	}
}

// FBM sums octaves of a noise source.
type FBM struct {
	Source     Noise2D
	Scale      float64 // Frequency of the first octave
	Octaves    int
	Lacunarity float64 // Frequency multiplier per octave
	Gain       float64 // Amplitude multiplier per octave
}

// At returns the fractal sum at p. With gain below one the result stays in
// roughly [-1, 1].
func (f FBM) At(p geom.Point) float64 {
	sum := 0.0
	amp := 0.5
	freq := f.Scale

	for range f.Octaves {
		sum += amp * f.Source.Eval2(p.X*freq, p.Y*freq)
		freq *= f.Lacunarity
		amp *= f.Gain
	}

	return sum
}

// unit maps a fractal sum onto [0, 1].
func (f FBM) unit(p geom.Point) float64 {
	return clamp01(0.5 + 0.5*f.At(p))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
