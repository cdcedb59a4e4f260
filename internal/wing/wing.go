package wing

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// ErrConfiguration is returned for out-of-range geometry or unknown
// flap/configuration tags.
var ErrConfiguration = errors.New("wing configuration error")

// Configuration selects which high-lift state the wing is in.
type Configuration string

const (
	Takeoff Configuration = "takeoff"
	Landing Configuration = "landing"
	Cruise  Configuration = "cruise"
)

// FlapType enumerates the supported trailing-edge devices.
type FlapType string

const (
	FlapNone          FlapType = "none"
	FlapPlain         FlapType = "plain"
	FlapSingleSlot    FlapType = "single_slot"
	FlapFowler        FlapType = "fowler"
	FlapDoubleSlotted FlapType = "double_slotted"
	FlapTripleSlotted FlapType = "triple_slotted"
)

type clBounds struct {
	min, max float64
}

// Unflapped and flapped CL_max bounds per Mattingly, 2002 (pp. 36).
var clMaxTable = map[FlapType]map[Configuration]clBounds{
	FlapNone:          {Takeoff: {0.9, 1.2}, Landing: {0.9, 1.2}},
	FlapPlain:         {Takeoff: {1.4, 1.6}, Landing: {1.7, 2.0}},
	FlapSingleSlot:    {Takeoff: {1.5, 1.7}, Landing: {1.8, 2.2}},
	FlapFowler:        {Takeoff: {2.0, 2.2}, Landing: {2.5, 2.9}},
	FlapDoubleSlotted: {Takeoff: {1.7, 2.0}, Landing: {2.3, 2.7}},
	FlapTripleSlotted: {Takeoff: {1.8, 2.1}, Landing: {2.7, 3.0}},
}

var slatCLDelta = map[Configuration]float64{
	Takeoff: 0.6,
	Landing: 0.5,
}

// Aspect ratio vs design Mach regression constants (AR = a * M^c) keyed by
// aircraft archetype.
var arVsMach = map[string][2]float64{
	"jet_trainer":   {4.737, -0.979},
	"jet_fighter":   {5.416, -0.622},
	"jet_attack":    {4.110, -0.622},
	"mil_cargo":     {5.570, -1.075},
	"bomber":        {5.570, -1.075},
	"jet_transport": {7.500, 0.000},
}

// AspectRatioFor returns the regressed aspect ratio for an aircraft
// archetype at its design Mach number.
func AspectRatioFor(aircraftType string, designMach float64) (float64, error) {
	c, ok := arVsMach[aircraftType]
	if !ok {
		return 0, fmt.Errorf("%w: no aspect ratio regression for aircraft type %q", ErrConfiguration, aircraftType)
	}
	return c[0] * math.Pow(designMach, c[1]), nil
}

// Params are the wing geometry inputs.
type Params struct {
	Sweep       float64    // quarter-chord sweep, degrees, [0, 60]
	AspectRatio float64    // [1, 8]; 0 means derive from the archetype regression
	FlapType    FlapType   // defaults to none
	Slats       bool       //
	TaperRatio  float64    // [0, 1]
	FlapSpan    [2]float64 // fractional span interval of the flaps
	KAero       float64    // technology blend factor, [0, 1]
}

func verifyRange(name string, value, min, max float64) error {
	if value < min || value > max {
		return fmt.Errorf("%w: value for %q [%g] outside of bounds [%g, %g]", ErrConfiguration, name, value, min, max)
	}
	return nil
}

// Wing holds geometry plus the mutable configuration tag and the memoized
// per-configuration CL_max estimates. Area is written once by the sizing
// engine.
type Wing struct {
	mu sync.Mutex

	sweep       float64
	aspectRatio float64
	flapType    FlapType
	slats       bool
	taperRatio  float64
	flapSpan    [2]float64
	kAero       float64

	configuration Configuration
	clMax         map[Configuration]float64
	warnings      []string

	Area float64 // ft^2
}

// New validates the geometry and constructs a wing in takeoff configuration.
func New(p Params) (*Wing, error) {
	if p.FlapType == "" {
		p.FlapType = FlapNone
	}
	if _, ok := clMaxTable[p.FlapType]; !ok {
		return nil, fmt.Errorf("%w: unknown flap type %q", ErrConfiguration, p.FlapType)
	}
	if err := verifyRange("sweep", p.Sweep, 0, 60); err != nil {
		return nil, err
	}
	if p.AspectRatio != 0 {
		if err := verifyRange("aspect_ratio", p.AspectRatio, 1, 8); err != nil {
			return nil, err
		}
	}
	if err := verifyRange("taper_ratio", p.TaperRatio, 0, 1); err != nil {
		return nil, err
	}
	for _, f := range p.FlapSpan {
		if err := verifyRange("flap_span", f, 0, 1); err != nil {
			return nil, err
		}
	}
	if p.FlapSpan[1] < p.FlapSpan[0] {
		return nil, fmt.Errorf("%w: flap_span interval [%g, %g] is inverted", ErrConfiguration, p.FlapSpan[0], p.FlapSpan[1])
	}
	if err := verifyRange("k_aero", p.KAero, 0, 1); err != nil {
		return nil, err
	}

	return &Wing{
		sweep:         p.Sweep,
		aspectRatio:   p.AspectRatio,
		flapType:      p.FlapType,
		slats:         p.Slats,
		taperRatio:    p.TaperRatio,
		flapSpan:      p.FlapSpan,
		kAero:         p.KAero,
		configuration: Takeoff,
		clMax:         make(map[Configuration]float64),
	}, nil
}

// NewForAircraft constructs a wing whose aspect ratio is derived from the
// archetype regression at the design Mach number when none is supplied.
func NewForAircraft(p Params, aircraftType string, designMach float64) (*Wing, error) {
	if p.AspectRatio == 0 {
		ar, err := AspectRatioFor(aircraftType, designMach)
		if err != nil {
			return nil, err
		}
		p.AspectRatio = ar
	}
	return New(p)
}

func (w *Wing) Sweep() float64       { return w.sweep }
func (w *Wing) AspectRatio() float64 { return w.aspectRatio }
func (w *Wing) FlapType() FlapType   { return w.flapType }
func (w *Wing) Slats() bool          { return w.slats }
func (w *Wing) TaperRatio() float64  { return w.taperRatio }
func (w *Wing) FlapSpan() [2]float64 { return w.flapSpan }
func (w *Wing) KAero() float64       { return w.kAero }

// Configuration returns the current high-lift configuration tag.
func (w *Wing) Configuration() Configuration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.configuration
}

// SetConfiguration switches the high-lift state. Cached CL_max estimates
// for other configurations are kept.
func (w *Wing) SetConfiguration(c Configuration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.configuration = c
}

// SetSweep changes the sweep angle and invalidates the CL_max cache.
func (w *Wing) SetSweep(sweep float64) error {
	if err := verifyRange("sweep", sweep, 0, 60); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sweep = sweep
	w.clMax = make(map[Configuration]float64)
	return nil
}

// SetKAero changes the technology blend factor and invalidates the CL_max
// cache.
func (w *Wing) SetKAero(k float64) error {
	if err := verifyRange("k_aero", k, 0, 1); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.kAero = k
	w.clMax = make(map[Configuration]float64)
	return nil
}

// CLMax returns the maximum usable lift coefficient for the current
// configuration. The estimate is computed once per configuration and cached
// until the geometry changes.
func (w *Wing) CLMax() (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if cl, ok := w.clMax[w.configuration]; ok {
		return cl, nil
	}
	cl, err := w.estimateCLMax(w.configuration)
	if err != nil {
		return 0, err
	}
	w.clMax[w.configuration] = cl
	return cl, nil
}

// DrainWarnings returns accumulated non-fatal estimate warnings and clears
// them.
func (w *Wing) DrainWarnings() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.warnings
	w.warnings = nil
	return out
}

func (w *Wing) warnf(format string, args ...interface{}) {
	w.warnings = append(w.warnings, fmt.Sprintf(format, args...))
}

// estimateCLMax implements the high-lift estimate from Raymer, 1999
// (pp. 97) and Mattingly, 2002 (pp. 36). Caller holds w.mu.
func (w *Wing) estimateCLMax(cfg Configuration) (float64, error) {
	baseline, ok := clMaxTable[FlapNone][cfg]
	if !ok {
		return 0, fmt.Errorf("%w: no CL_max data for configuration %q", ErrConfiguration, cfg)
	}
	flapped := clMaxTable[w.flapType][cfg]

	if w.aspectRatio > 8 {
		w.warnf("CL_max estimates are not valid for aspect ratios above 8, got %g", w.aspectRatio)
	}
	if w.sweep > 60 {
		w.warnf("CL_max estimates are not valid for sweeps above 60 degrees, got %g", w.sweep)
	}

	clUnflapped := w.kAero*(baseline.max-baseline.min) + baseline.min
	clFlapped := w.kAero*(flapped.max-flapped.min) + flapped.min

	if w.slats {
		delta := slatCLDelta[cfg]
		clUnflapped += delta
		clFlapped += delta
	}

	// Area fraction of the flapped span for a linearly tapered planform.
	spanSum := w.flapSpan[0] + w.flapSpan[1]
	sRatio := (2 + (w.taperRatio-1)*spanSum) * (w.flapSpan[1] - w.flapSpan[0]) / (1 + w.taperRatio)

	// Regressed from Fig. 5.3 in Raymer, 1999 (pp. 97).
	sweepFactor := 2 - (0.00011029411764705700*w.sweep*w.sweep +
		0.00014705882352927800*w.sweep +
		1.00294117647059000000)

	return sweepFactor * (0.85 + 0.1*w.kAero) * (clFlapped*sRatio + clUnflapped*(1-sRatio)), nil
}
