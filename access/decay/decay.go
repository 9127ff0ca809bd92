// Package decay maps travel costs to accessibility scores.
package decay

import (
	"errors"
	"fmt"
	"math"
)

const (
	// 默认参数
	DefaultT = 500
	DefaultK = 5
	DefaultV = 129_842
)

var ErrUnknownFunc = errors.New("unknown decay function")

// Func maps a travel cost to a score. +Inf (unreachable) maps to 0.
type Func func(d float64) float64

// Cumulative scores 1 within the cost cap t and 0 beyond it.
func Cumulative(t float64) Func {
	return func(d float64) float64 {
		if d <= t {
			return 1
		}
		return 0
	}
}

// SoftThreshold is the logistic decay 1/(1+exp(k*(d-t)/t)); it scores exactly
// 0.5 at d == t.
//
// Higgs, C., Badland, H., Simons, K. et al. The Urban Liveability Index.
// Int J Health Geogr 18, 14 (2019).
func SoftThreshold(t, k float64) Func {
	return func(d float64) float64 {
		if d == t {
			return 0.5
		}
		// k为0时0*Inf为NaN，不可达直接记0
		if math.IsInf(d, 1) {
			return 0
		}
		// exp溢出为+Inf时结果为0
		return 1 / (1 + math.Exp(k*(d-t)/t))
	}
}

// CumulativeGaussian scores 1 up to t and decays as exp(-(d-t)^2/v) beyond.
//
// Vale DS, Pereira M. The influence of the impedance function on gravity-based
// pedestrian accessibility measures. EPB: Urban Analytics and City Science.
// 2017;44(4):740-763.
func CumulativeGaussian(t, v float64) Func {
	return func(d float64) float64 {
		if d <= t {
			return 1
		}
		return math.Exp(-(d - t) * (d - t) / v)
	}
}

// Apply evaluates f over costs into a new slice.
func Apply(f Func, costs []float64) []float64 {
	out := make([]float64, len(costs))
	ApplyTo(out, f, costs)
	return out
}

// ApplyTo evaluates f over costs into dst, which must be at least as long.
func ApplyTo(dst []float64, f Func, costs []float64) {
	for i, d := range costs {
		dst[i] = f(d)
	}
}

// Params selects a decay function by name. Parameters are used as given, zero
// included; start from DefaultParams to get the defaults. An empty name means
// cumulative_gaussian.
type Params struct {
	Name string  `yaml:"name"`
	T    float64 `yaml:"t"`
	K    float64 `yaml:"k"`
	V    float64 `yaml:"v"`
}

func DefaultParams() Params {
	return Params{Name: "cumulative_gaussian", T: DefaultT, K: DefaultK, V: DefaultV}
}

func (p Params) withDefaults() Params {
	if p.Name == "" {
		p.Name = "cumulative_gaussian"
	}
	return p
}

func (p Params) String() string {
	p = p.withDefaults()
	switch p.Name {
	case "cumulative":
		return fmt.Sprintf("cumulative(t=%v)", p.T)
	case "soft_threshold":
		return fmt.Sprintf("soft_threshold(t=%v, k=%v)", p.T, p.K)
	default:
		return fmt.Sprintf("%s(t=%v, v=%v)", p.Name, p.T, p.V)
	}
}

func New(p Params) (Func, error) {
	p = p.withDefaults()
	switch p.Name {
	case "cumulative":
		return Cumulative(p.T), nil
	case "soft_threshold":
		return SoftThreshold(p.T, p.K), nil
	case "cumulative_gaussian":
		return CumulativeGaussian(p.T, p.V), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunc, p.Name)
	}
}
