package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/aeroconcept/sizer/internal/atmosphere"
)

// ErrConfiguration is returned for invalid archetype/bypass-ratio/afterburner
// combinations.
var ErrConfiguration = errors.New("engine configuration error")

// Archetype identifies an engine performance model.
type Archetype string

const (
	ATJ  Archetype = "ATJ"  // Advanced Turbo-Jet (with afterburner)
	ATP  Archetype = "ATP"  // Advanced Turbo-Prop
	HBTF Archetype = "HBTF" // High By-Pass Turbo-Fan
	LBTF Archetype = "LBTF" // Low By-Pass Turbo-Fan (with afterburner)
)

// tsfcCoefficients are the (a, b) pair of the (a + b*M)*sqrt(theta) model.
type tsfcCoefficients struct {
	a, b float64
}

type archetypeData struct {
	name string
	// thrust lapse model: a1*(a2 + a3*(sign*M - a4)^a5) * sigma^a6
	sign, a1, a2, a3, a4, a5, a6 float64
	tsfcNormal                   tsfcCoefficients
	tsfcAfterburner              *tsfcCoefficients
	defaultBPR                   float64
}

// Thrust lapse and TSFC coefficients per Mattingly, 2002.
var archetypes = map[Archetype]archetypeData{
	ATJ: {
		name: "Advanced Turbo-Jet (with afterburner)",
		sign: 1, a1: 1.00, a2: 0.952, a3: 0.30, a4: 0.40, a5: 2.0, a6: 0.7,
		tsfcNormal:      tsfcCoefficients{1.1, 0.30},
		tsfcAfterburner: &tsfcCoefficients{1.5, 0.23},
		defaultBPR:      0,
	},
	ATP: {
		name: "Advanced Turbo-Prop",
		sign: 1, a1: 0.12, a2: 0.000, a3: 1.00, a4: -0.02, a5: -1.0, a6: 0.5,
		tsfcNormal: tsfcCoefficients{0.18, 0.80},
		defaultBPR: 0,
	},
	HBTF: {
		name: "High By-Pass Turbo-Fan",
		sign: -1, a1: 1.00, a2: 0.568, a3: 0.25, a4: -1.20, a5: 3.0, a6: 0.6,
		tsfcNormal: tsfcCoefficients{0.45, 0.54},
		defaultBPR: 6,
	},
	LBTF: {
		name: "Low By-Pass Turbo-Fan (with afterburner)",
		sign: 1, a1: 1.00, a2: 0.940, a3: 0.38, a4: 0.40, a5: 2.0, a6: 0.7,
		tsfcNormal:      tsfcCoefficients{0.9, 0.30},
		tsfcAfterburner: &tsfcCoefficients{1.6, 0.27},
		defaultBPR:      1.5,
	},
}

// Config describes an engine to construct.
type Config struct {
	Archetype   Archetype
	Afterburner bool
	// BPR overrides the archetype's default bypass ratio when non-nil.
	BPR        *float64
	Atmosphere *atmosphere.Atmosphere
}

// Engine models installed propulsion performance. MaxThrust and MaxMach are
// written by the sizing engine and read by Size.
type Engine struct {
	archetype   Archetype
	name        string
	data        archetypeData
	afterburner bool
	bpr         float64
	atm         *atmosphere.Atmosphere

	MaxThrust float64 // lbf, sea level static, per engine
	MaxMach   float64
}

// New validates the configuration and constructs an engine.
func New(cfg Config) (*Engine, error) {
	data, ok := archetypes[cfg.Archetype]
	if !ok {
		return nil, fmt.Errorf("%w: unknown engine archetype %q", ErrConfiguration, cfg.Archetype)
	}

	bpr := data.defaultBPR
	if cfg.BPR != nil {
		bpr = *cfg.BPR
		if cfg.Archetype == HBTF && bpr < 2.0 {
			return nil, fmt.Errorf("%w: high by-pass turbo-fans must have bypass ratios greater than 2.0, not %g", ErrConfiguration, bpr)
		}
		if cfg.Archetype == LBTF && bpr > 2.0 {
			return nil, fmt.Errorf("%w: low by-pass turbo-fans must have bypass ratios less than 2.0, not %g", ErrConfiguration, bpr)
		}
	}

	if cfg.Afterburner {
		if data.tsfcAfterburner == nil {
			return nil, fmt.Errorf("%w: archetype %s does not support afterburning", ErrConfiguration, cfg.Archetype)
		}
		// The reheat sizing regressions are only fitted for low-bypass cores.
		if bpr >= 1.0 {
			return nil, fmt.Errorf("%w: bypass ratio must be less than 1.0 for afterburning engines, not %g", ErrConfiguration, bpr)
		}
	}

	atm := cfg.Atmosphere
	if atm == nil {
		atm = atmosphere.NewStandard()
	}

	return &Engine{
		archetype:   cfg.Archetype,
		name:        data.name,
		data:        data,
		afterburner: cfg.Afterburner,
		bpr:         bpr,
		atm:         atm,
	}, nil
}

// Archetype returns the engine's archetype tag.
func (e *Engine) Archetype() Archetype { return e.archetype }

// Name returns the archetype's descriptive name.
func (e *Engine) Name() string { return e.name }

// BPR returns the bypass ratio.
func (e *Engine) BPR() float64 { return e.bpr }

// Afterburner reports whether the engine is fitted with an afterburner.
func (e *Engine) Afterburner() bool { return e.afterburner }

// Atmosphere returns the atmosphere model the engine was built with.
func (e *Engine) Atmosphere() *atmosphere.Atmosphere { return e.atm }

// ThrustLapse returns the factor on sea level static thrust at the given
// altitude (ft) and Mach number.
func (e *Engine) ThrustLapse(altitude, mach float64) (float64, error) {
	sigma, err := e.atm.DensityRatio(altitude)
	if err != nil {
		return 0, err
	}
	d := e.data
	return d.a1 * (d.a2 + d.a3*math.Pow(d.sign*mach-d.a4, d.a5)) * math.Pow(sigma, d.a6), nil
}

// ThrustLapseAtSpeed is ThrustLapse with speed in ft/s instead of Mach,
// converted through the local speed of sound.
func (e *Engine) ThrustLapseAtSpeed(altitude, speed float64) (float64, error) {
	a, err := e.atm.SpeedOfSound(altitude)
	if err != nil {
		return 0, err
	}
	return e.ThrustLapse(altitude, speed/a)
}

// TSFC returns thrust specific fuel consumption (1/hr) at the given Mach
// number and altitude (ft). Requesting afterburning TSFC on an archetype
// without an afterburner table is a configuration error.
func (e *Engine) TSFC(mach, altitude float64, afterburner bool) (float64, error) {
	coeff := e.data.tsfcNormal
	if afterburner {
		if e.data.tsfcAfterburner == nil {
			return 0, fmt.Errorf("%w: archetype %s has no afterburning TSFC model", ErrConfiguration, e.archetype)
		}
		coeff = *e.data.tsfcAfterburner
	}

	theta, err := e.atm.TemperatureRatio(altitude)
	if err != nil {
		return 0, err
	}
	return (coeff.a + coeff.b*mach) * math.Sqrt(theta), nil
}

// TSFCCoefficients returns the (a, b) pair of the (a + b*M)*sqrt(theta)
// fuel consumption model, for callers that need the Mach dependence in
// closed form (e.g. range-factor optimization).
func (e *Engine) TSFCCoefficients(afterburner bool) (float64, float64, error) {
	if afterburner {
		if e.data.tsfcAfterburner == nil {
			return 0, 0, fmt.Errorf("%w: archetype %s has no afterburning TSFC model", ErrConfiguration, e.archetype)
		}
		return e.data.tsfcAfterburner.a, e.data.tsfcAfterburner.b, nil
	}
	return e.data.tsfcNormal.a, e.data.tsfcNormal.b, nil
}

// Dimensions holds the physical engine parameters produced by Size.
type Dimensions struct {
	Weight       float64 `json:"weight_lbm"`
	Length       float64 `json:"length_ft"`
	Diameter     float64 `json:"diameter_ft"`
	SFCMax       float64 `json:"sfc_max"`
	ThrustCruise float64 `json:"thrust_cruise_lbf"`
	SFCCruise    float64 `json:"sfc_cruise"`
}

// Size estimates the engine's physical parameters from MaxThrust, MaxMach
// and bypass ratio using Raymer's regressions (Raymer, "Aircraft Design: A
// Conceptual Approach", 3rd Ed., pp. 235). Cruise is assumed around
// 36,000 ft at Mach 0.9.
func (e *Engine) Size() (Dimensions, error) {
	t, m, bpr := e.MaxThrust, e.MaxMach, e.bpr

	if e.afterburner {
		if bpr >= 1.0 {
			return Dimensions{}, fmt.Errorf("%w: bypass ratio must be less than 1.0 for afterburning engines, not %g", ErrConfiguration, bpr)
		}
		return Dimensions{
			Weight:       0.063 * math.Pow(t, 1.1) * math.Pow(m, 0.25) * math.Exp(-0.81*bpr),
			Length:       0.255 * math.Pow(t, 0.4) * math.Pow(m, 0.2),
			Diameter:     0.024 * math.Pow(t, 0.5) * math.Exp(0.04*bpr),
			SFCMax:       2.1 * math.Exp(-0.12*bpr),
			ThrustCruise: 2.4 * math.Pow(t, 0.74) * math.Exp(0.023*bpr),
			SFCCruise:    1.04 * math.Exp(-0.186*bpr),
		}, nil
	}
	return Dimensions{
		Weight:       0.084 * math.Pow(t, 1.1) * math.Exp(-0.045*bpr),
		Length:       0.185 * math.Pow(t, 0.4) * math.Pow(m, 0.2),
		Diameter:     0.033 * math.Pow(t, 0.5) * math.Exp(0.04*bpr),
		SFCMax:       0.67 * math.Exp(-0.12*bpr),
		ThrustCruise: 0.60 * math.Pow(t, 0.9) * math.Exp(0.02*bpr),
		SFCCruise:    0.88 * math.Exp(-0.05*bpr),
	}, nil
}
