package aircraft

import (
	"errors"
	"fmt"

	"github.com/aeroconcept/sizer/internal/engine"
	"github.com/aeroconcept/sizer/internal/wing"
)

var (
	// ErrConfiguration is returned for unknown archetypes and invalid
	// aggregate options.
	ErrConfiguration = errors.New("aircraft configuration error")
	// ErrMissingState is returned when a Mach-dependent property is queried
	// before any segment has set the working point.
	ErrMissingState = errors.New("aircraft working point not set")
)

// Archetype selects the empirical coefficient tables.
type Archetype string

const (
	JetTrainer   Archetype = "jet_trainer"
	JetFighter   Archetype = "jet_fighter"
	MilCargo     Archetype = "mil_cargo"
	Bomber       Archetype = "bomber"
	JetTransport Archetype = "jet_transport"
)

// Seed thrust-to-weight ratios used before the first synthesis pass.
var seedTToW = map[Archetype]float64{
	JetTrainer:   0.75,
	JetFighter:   1.20,
	MilCargo:     0.45,
	Bomber:       0.65,
	JetTransport: 0.35,
}

// Empty weight fraction regression coefficients from Raymer, 1999, pp. 115:
// We/W0 = a + b * W0^c1 * AR^c2 * (T/W)^c3 * (W/S)^c4 * M^c5.
type EmptyWeightCoefficients struct {
	A, B, C1, C2, C3, C4, C5 float64
}

var emptyWeightTable = map[Archetype]EmptyWeightCoefficients{
	JetTrainer:   {0.00, 4.28, -0.10, 0.10, 0.20, -0.24, 0.11},
	JetFighter:   {-0.02, 2.16, -0.10, 0.20, 0.04, -0.10, 0.08},
	MilCargo:     {0.07, 1.71, -0.10, 0.10, 0.06, -0.10, 0.05},
	Bomber:       {0.07, 1.71, -0.10, 0.10, 0.06, -0.10, 0.05},
	JetTransport: {0.32, 0.66, -0.13, 0.30, 0.06, -0.05, 0.05},
}

var designMach = map[Archetype]float64{
	JetTrainer:   0.95,
	JetFighter:   1.50,
	MilCargo:     0.85,
	Bomber:       0.92,
	JetTransport: 0.78,
}

// Drag-bucket schedules: min/max coefficient bounds vs Mach, blended by
// k_aero. Only the fighter archetype has tabulated data; the rest use
// fixed scalars.
type dragBucket struct {
	mach, min, max []float64
}

var cd0Buckets = map[Archetype]dragBucket{
	JetFighter: {
		mach: []float64{0.0, 0.8, 0.9, 1.1, 1.2, 2.0},
		min:  []float64{0.014, 0.014, 0.0160, 0.0260, 0.028, 0.028},
		max:  []float64{0.018, 0.018, 0.0235, 0.0345, 0.040, 0.038},
	},
}

var k1Buckets = map[Archetype]dragBucket{
	JetFighter: {
		mach: []float64{0.0, 0.8, 1.0, 1.2, 2.0},
		min:  []float64{0.180, 0.180, 0.180, 0.216, 0.360},
		max:  []float64{0.140, 0.140, 0.170, 0.200, 0.500},
	},
}

const (
	defaultCD0 = 0.02
	defaultK1  = 0.16
)

// Configuration-dependent incremental drag (gear, flaps deployed).
var cdrByConfiguration = map[wing.Configuration]float64{
	wing.Takeoff: 0.02,
	wing.Landing: 0.02,
	wing.Cruise:  0.0,
}

// DragChute describes an optional landing drag chute.
type DragChute struct {
	Diameter float64 // ft
	CD       float64
}

// Config describes an aircraft to construct.
type Config struct {
	Type       Archetype
	Wing       *wing.Wing     // derived from the archetype when nil
	Engine     *engine.Engine // required
	NumEngines int            // defaults to 1
	Stores     []Store

	KAero     float64 // technology blend factor; used when Wing is nil and for drag buckets
	K2        float64 // viscous drag-due-to-lift; defaults to 0.003
	MCritical float64 // defaults to 0.9

	KTakeoff   float64 // liftoff speed factor over stall; defaults to 1.1
	KTouchdown float64 // touchdown speed factor over stall; defaults to 1.15

	MuRolling float64 // takeoff rolling friction; defaults to 0.05
	MuBraking float64 // landing braking friction; defaults to 0.4

	ReverseThrust bool
	DragChute     *DragChute // nil means no chute; zero fields take defaults

	// CD0 and K1 override the archetype drag model with fixed scalars.
	CD0 *float64
	K1  *float64
}

// Aircraft aggregates wing, engine and stores, plus the mutable working
// point set by whichever mission segment last executed. WTo is written at
// the end of each sizing iteration.
type Aircraft struct {
	archetype  Archetype
	wing       *wing.Wing
	engine     *engine.Engine
	numEngines int
	stores     *StoreList

	kAero     float64
	k2        float64
	mCritical float64

	kTakeoff   float64
	kTouchdown float64
	muRolling  float64
	muBraking  float64

	reverseThrust bool
	dragChute     *DragChute

	cd0Fixed *float64
	k1Fixed  *float64

	machSet bool
	mach    float64
	cl      float64

	TToW float64 // current design thrust loading; seeded per archetype
	WTo  float64 // lbf, written by the sizing engine
}

// New validates the configuration and constructs an aircraft. The engine is
// required; the wing is derived from the archetype regression when absent.
func New(cfg Config) (*Aircraft, error) {
	if _, ok := seedTToW[cfg.Type]; !ok {
		return nil, fmt.Errorf("%w: unknown aircraft archetype %q", ErrConfiguration, cfg.Type)
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("%w: engine is required", ErrConfiguration)
	}
	if cfg.NumEngines == 0 {
		cfg.NumEngines = 1
	}
	if cfg.NumEngines < 0 {
		return nil, fmt.Errorf("%w: num_engines must be positive, got %d", ErrConfiguration, cfg.NumEngines)
	}
	if cfg.K2 == 0 {
		cfg.K2 = 0.003
	}
	if cfg.MCritical == 0 {
		cfg.MCritical = 0.9
	}
	if cfg.KTakeoff == 0 {
		cfg.KTakeoff = 1.1
	}
	if cfg.KTouchdown == 0 {
		cfg.KTouchdown = 1.15
	}
	if cfg.MuRolling == 0 {
		cfg.MuRolling = 0.05
	}
	if cfg.MuBraking == 0 {
		cfg.MuBraking = 0.4
	}

	w := cfg.Wing
	if w == nil {
		var err error
		w, err = wing.NewForAircraft(wing.Params{
			TaperRatio: 1,
			FlapSpan:   [2]float64{0.3, 0.6},
			KAero:      cfg.KAero,
		}, string(cfg.Type), designMach[cfg.Type])
		if err != nil {
			return nil, err
		}
	}

	chute := cfg.DragChute
	if chute != nil {
		if chute.Diameter == 0 {
			chute.Diameter = 15.0
		}
		if chute.CD == 0 {
			chute.CD = 1.4
		}
	}

	return &Aircraft{
		archetype:     cfg.Type,
		wing:          w,
		engine:        cfg.Engine,
		numEngines:    cfg.NumEngines,
		stores:        NewStoreList(cfg.Stores),
		kAero:         cfg.KAero,
		k2:            cfg.K2,
		mCritical:     cfg.MCritical,
		kTakeoff:      cfg.KTakeoff,
		kTouchdown:    cfg.KTouchdown,
		muRolling:     cfg.MuRolling,
		muBraking:     cfg.MuBraking,
		reverseThrust: cfg.ReverseThrust,
		dragChute:     chute,
		cd0Fixed:      cfg.CD0,
		k1Fixed:       cfg.K1,
		TToW:          seedTToW[cfg.Type],
	}, nil
}

func (a *Aircraft) Type() Archetype        { return a.archetype }
func (a *Aircraft) Wing() *wing.Wing       { return a.wing }
func (a *Aircraft) Engine() *engine.Engine { return a.engine }
func (a *Aircraft) NumEngines() int        { return a.numEngines }
func (a *Aircraft) Stores() *StoreList     { return a.stores }
func (a *Aircraft) K2() float64            { return a.k2 }
func (a *Aircraft) KTakeoff() float64      { return a.kTakeoff }
func (a *Aircraft) KTouchdown() float64    { return a.kTouchdown }
func (a *Aircraft) MuRolling() float64     { return a.muRolling }
func (a *Aircraft) MuBraking() float64     { return a.muBraking }
func (a *Aircraft) ReverseThrust() bool    { return a.reverseThrust }
func (a *Aircraft) DragChute() *DragChute  { return a.dragChute }

// DesignMach returns the archetype's design Mach number.
func (a *Aircraft) DesignMach() float64 { return designMach[a.archetype] }

// DesignMachFor returns the design Mach number for an archetype tag.
func DesignMachFor(archetype Archetype) (float64, error) {
	m, ok := designMach[archetype]
	if !ok {
		return 0, fmt.Errorf("%w: unknown aircraft archetype %q", ErrConfiguration, archetype)
	}
	return m, nil
}

// SeedTToW returns the archetype's initial thrust loading.
func (a *Aircraft) SeedTToW() float64 { return seedTToW[a.archetype] }

// EmptyWeightCoefficients returns the archetype's empty weight fraction
// regression tuple.
func (a *Aircraft) EmptyWeightCoefficients() EmptyWeightCoefficients {
	return emptyWeightTable[a.archetype]
}

// SetMach sets the working-point Mach number.
func (a *Aircraft) SetMach(mach float64) {
	a.machSet = true
	a.mach = mach
}

// SetCL sets the working-point lift coefficient.
func (a *Aircraft) SetCL(cl float64) { a.cl = cl }

// Mach returns the working-point Mach number, or ErrMissingState if no
// segment has set one yet.
func (a *Aircraft) Mach() (float64, error) {
	if !a.machSet {
		return 0, ErrMissingState
	}
	return a.mach, nil
}

// SetConfiguration switches the wing's high-lift configuration.
func (a *Aircraft) SetConfiguration(c wing.Configuration) {
	a.wing.SetConfiguration(c)
}

// CLMax returns the wing's CL_max for its current configuration.
func (a *Aircraft) CLMax() (float64, error) { return a.wing.CLMax() }

// interp is numpy-style piecewise linear interpolation with clamped ends.
func interp(x float64, xs, ys []float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[len(xs)-1] {
		return ys[len(ys)-1]
	}
	for i := 1; i < len(xs); i++ {
		if x <= xs[i] {
			t := (x - xs[i-1]) / (xs[i] - xs[i-1])
			return ys[i-1] + t*(ys[i]-ys[i-1])
		}
	}
	return ys[len(ys)-1]
}

func (a *Aircraft) bucketValue(b dragBucket, mach float64) float64 {
	lo := interp(mach, b.mach, b.min)
	hi := interp(mach, b.mach, b.max)
	return lo + (hi-lo)*(1-a.kAero)
}

// CD0 returns the zero-lift drag coefficient at the working point. For
// archetypes with drag-bucket data it is Mach-interpolated; otherwise a
// fixed scalar. Querying a bucketed archetype before any Mach has been set
// is a state error.
func (a *Aircraft) CD0() (float64, error) {
	if a.cd0Fixed != nil {
		return *a.cd0Fixed, nil
	}
	bucket, ok := cd0Buckets[a.archetype]
	if !ok {
		return defaultCD0, nil
	}
	mach, err := a.Mach()
	if err != nil {
		return 0, fmt.Errorf("%w: cd_0 is Mach dependent for %s", err, a.archetype)
	}
	return a.bucketValue(bucket, mach), nil
}

// K1 returns the inviscid drag-due-to-lift coefficient at the working point.
func (a *Aircraft) K1() (float64, error) {
	if a.k1Fixed != nil {
		return *a.k1Fixed, nil
	}
	bucket, ok := k1Buckets[a.archetype]
	if !ok {
		return defaultK1, nil
	}
	mach, err := a.Mach()
	if err != nil {
		return 0, fmt.Errorf("%w: k_1 is Mach dependent for %s", err, a.archetype)
	}
	return a.bucketValue(bucket, mach), nil
}

// CDR returns the incremental drag for the current configuration plus the
// drag of all active stores.
func (a *Aircraft) CDR() float64 {
	return cdrByConfiguration[a.wing.Configuration()] + a.stores.ActiveDrag()
}

// Payload returns the weight of all active (not yet released) stores.
func (a *Aircraft) Payload() float64 { return a.stores.ActiveWeight() }

// InitialPayload returns the weight of every store regardless of release
// state; this is what the aircraft carries at brake release.
func (a *Aircraft) InitialPayload() float64 { return a.stores.TotalWeight() }

// CD evaluates the drag polar k1*cl^2 + k2*cl + cd0 at the working point.
func (a *Aircraft) CD() (float64, error) {
	k1, err := a.K1()
	if err != nil {
		return 0, err
	}
	cd0, err := a.CD0()
	if err != nil {
		return 0, err
	}
	return k1*a.cl*a.cl + a.k2*a.cl + cd0, nil
}
