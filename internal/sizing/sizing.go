// Package sizing drives the constraint-diagram synthesis and the empirical
// weight-convergence loop: every mission segment contributes a required
// thrust-loading curve over a wing-loading sweep, the curves combine into a
// composite envelope whose minimum picks the design point, and an
// archetype-specific empty-weight regression iterates takeoff weight to
// convergence.
package sizing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/aeroconcept/sizer/internal/aircraft"
	"github.com/aeroconcept/sizer/internal/engine"
	"github.com/aeroconcept/sizer/internal/mission"
	"github.com/aeroconcept/sizer/internal/wing"
	"github.com/aeroconcept/sizer/pkg/logger"
)

// ErrInfeasible is returned when no design point exists: every point of the
// composite envelope is unreachable, or the weight regression never closes.
var ErrInfeasible = errors.New("no feasible design point")

// Options bound the sweeps and the convergence loop. Zero fields take the
// defaults below; non-positive steps fall back too, keeping both sweeps
// strictly increasing.
type Options struct {
	WingLoadingMin  float64 `json:"wing_loading_min" toml:"wing_loading_min"`
	WingLoadingMax  float64 `json:"wing_loading_max" toml:"wing_loading_max"`
	WingLoadingStep float64 `json:"wing_loading_step" toml:"wing_loading_step"`

	TakeoffWeightMin  float64 `json:"takeoff_weight_min" toml:"takeoff_weight_min"`
	TakeoffWeightMax  float64 `json:"takeoff_weight_max" toml:"takeoff_weight_max"`
	TakeoffWeightStep float64 `json:"takeoff_weight_step" toml:"takeoff_weight_step"`

	// Tolerance is the relative takeoff-weight change below which the outer
	// loop is considered converged; MaxIterations caps it regardless.
	Tolerance     float64 `json:"tolerance" toml:"tolerance"`
	MaxIterations int     `json:"max_iterations" toml:"max_iterations"`
}

func (o Options) withDefaults() Options {
	if o.WingLoadingMin == 0 {
		o.WingLoadingMin = 10
	}
	if o.WingLoadingMax == 0 {
		o.WingLoadingMax = 299
	}
	if o.WingLoadingStep <= 0 {
		o.WingLoadingStep = 1
	}
	if o.TakeoffWeightMin == 0 {
		o.TakeoffWeightMin = 1000
	}
	if o.TakeoffWeightMax == 0 {
		o.TakeoffWeightMax = 60000
	}
	if o.TakeoffWeightStep <= 0 {
		o.TakeoffWeightStep = 10
	}
	if o.Tolerance == 0 {
		o.Tolerance = 1e-3
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = 20
	}
	return o
}

// Progress reports one outer iteration to an observer.
type Progress struct {
	Iteration     int     `json:"iteration"`
	TakeoffWeight float64 `json:"takeoff_weight"`
	TToW          float64 `json:"t_to_w"`
	WToS          float64 `json:"w_to_s"`
	Converged     bool    `json:"converged"`
}

// Result is a converged (or iteration-capped) design.
type Result struct {
	TakeoffWeight      float64 `json:"takeoff_weight"`
	WingArea           float64 `json:"wing_area"`
	MaxThrustPerEngine float64 `json:"max_thrust_per_engine"`
	NumEngines         int     `json:"num_engines"`
	TToW               float64 `json:"t_to_w"`
	WToS               float64 `json:"w_to_s"`
	MaxMach            float64 `json:"max_mach"`
	FuelFraction       float64 `json:"fuel_fraction"`
	EmptyWeightFrac    float64 `json:"empty_weight_fraction"`
	Iterations         int     `json:"iterations"`
	Converged          bool    `json:"converged"`

	BestCruiseMach     float64 `json:"best_cruise_mach"`
	BestCruiseAltitude float64 `json:"best_cruise_altitude"`

	EngineDimensions engine.Dimensions `json:"engine_dimensions"`

	// Constraint diagram of the final iteration, for plotting. The envelope
	// and segment curves hold +Inf at infeasible wing loadings and rely on
	// mission.Curve's null encoding to survive JSON.
	WingLoadings []float64        `json:"wing_loadings"`
	Envelope     mission.Curve    `json:"envelope"`
	Segments     []mission.Result `json:"segments"`

	Warnings []string `json:"warnings,omitempty"`
}

// Sizer runs design cases. Safe for concurrent use as long as each call owns
// its aircraft and mission instances.
type Sizer struct {
	opts Options
	log  *logger.Logger
}

func New(opts Options, log *logger.Logger) *Sizer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Sizer{opts: opts.withDefaults(), log: log.Named("sizing")}
}

type synthesis struct {
	tToW         float64
	wToS         float64
	maxMach      float64
	fuelFraction float64
	betaFinal    float64
	envelope     []float64
	segments     []mission.Result
	warnings     []string
}

// Design runs synthesis and sizing passes until the takeoff weight change
// falls below the tolerance or the iteration cap is reached. The aircraft's
// thrust loading, takeoff weight, wing area and engine limits are mutated in
// place; onProgress (optional) observes each outer iteration.
func (s *Sizer) Design(ctx context.Context, ac *aircraft.Aircraft, m *mission.Mission, onProgress func(Progress)) (*Result, error) {
	wingLoadings := s.wingLoadingSweep()

	res := &Result{
		NumEngines:   ac.NumEngines(),
		WingLoadings: wingLoadings,
	}

	var prev float64
	for iter := 1; iter <= s.opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		syn, err := s.synthesize(ac, m, wingLoadings)
		if err != nil {
			return nil, fmt.Errorf("synthesis pass %d: %w", iter, err)
		}
		weFrac, err := s.size(ac, syn)
		if err != nil {
			return nil, fmt.Errorf("sizing pass %d: %w", iter, err)
		}

		res.Iterations = iter
		res.TToW = syn.tToW
		res.WToS = syn.wToS
		res.MaxMach = syn.maxMach
		res.FuelFraction = syn.fuelFraction
		res.EmptyWeightFrac = weFrac
		res.Envelope = syn.envelope
		res.Segments = syn.segments
		res.Warnings = append(res.Warnings, syn.warnings...)
		res.TakeoffWeight = ac.WTo

		if prev > 0 && math.Abs(ac.WTo-prev)/prev < s.opts.Tolerance {
			res.Converged = true
		}
		s.log.Debug("sizing iteration",
			logger.Int("iteration", iter),
			logger.Float("w_to", ac.WTo),
			logger.Float("t_to_w", syn.tToW),
			logger.Float("w_to_s", syn.wToS),
			logger.Bool("converged", res.Converged),
		)
		if onProgress != nil {
			onProgress(Progress{
				Iteration:     iter,
				TakeoffWeight: ac.WTo,
				TToW:          syn.tToW,
				WToS:          syn.wToS,
				Converged:     res.Converged,
			})
		}
		if res.Converged {
			break
		}
		prev = ac.WTo
	}

	res.WingArea = ac.Wing().Area
	res.MaxThrustPerEngine = ac.Engine().MaxThrust

	dims, err := ac.Engine().Size()
	if err != nil {
		return nil, err
	}
	res.EngineDimensions = dims

	mach, altitude, err := s.bestCruise(ac)
	if err != nil {
		return nil, err
	}
	res.BestCruiseMach = mach
	res.BestCruiseAltitude = altitude

	res.Warnings = append(res.Warnings, ac.Wing().DrainWarnings()...)
	return res, nil
}

func (s *Sizer) wingLoadingSweep() []float64 {
	var out []float64
	for ws := s.opts.WingLoadingMin; ws <= s.opts.WingLoadingMax; ws += s.opts.WingLoadingStep {
		out = append(out, ws)
	}
	return out
}

// synthesize traverses the mission in order, building the composite
// constraint envelope and the cumulative weight fraction, and selects the
// design point as the envelope's minimum. Stores are restored first so every
// iteration re-flies the mission with a full load.
func (s *Sizer) synthesize(ac *aircraft.Aircraft, m *mission.Mission, wingLoadings []float64) (*synthesis, error) {
	ac.Stores().Reset()
	st := mission.NewState()

	syn := &synthesis{envelope: make([]float64, len(wingLoadings))}
	for i := range m.Segments() {
		seg := &m.Segments()[i]
		res, err := seg.Evaluate(ac, wingLoadings, st)
		if err != nil {
			return nil, err
		}
		for j, v := range res.Constraint {
			if v > syn.envelope[j] {
				syn.envelope[j] = v
			}
		}
		syn.segments = append(syn.segments, res)
		syn.warnings = append(syn.warnings, res.Warnings...)
	}

	idx := -1
	for j, v := range syn.envelope {
		if math.IsInf(v, 1) {
			continue
		}
		if idx < 0 || v < syn.envelope[idx] {
			idx = j
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: composite envelope is unreachable at every wing loading", ErrInfeasible)
	}

	syn.tToW = syn.envelope[idx]
	syn.wToS = wingLoadings[idx]
	syn.maxMach = st.MaxMach
	syn.betaFinal = st.Beta
	syn.fuelFraction = 1 - st.Beta

	ac.TToW = syn.tToW
	ac.SetMach(syn.maxMach)
	return syn, nil
}

// size sweeps candidate takeoff weights against the Raymer empty-weight
// fraction regression and picks the self-consistent one (nearest residual,
// since weight enters the regression nonlinearly). The mission-end weight
// Πβ·W0 must cover empty weight plus payload, so W0 = Wp/(Πβ − We/W0).
// Results propagate into the aircraft, wing and engine.
func (s *Sizer) size(ac *aircraft.Aircraft, syn *synthesis) (float64, error) {
	payload := ac.InitialPayload()
	if payload <= 0 {
		return 0, fmt.Errorf("%w: sizing requires a nonzero payload", ErrInfeasible)
	}

	c := ac.EmptyWeightCoefficients()
	ar := ac.Wing().AspectRatio()

	best := -1.0
	bestResidual := math.Inf(1)
	var bestFrac float64
	for w := s.opts.TakeoffWeightMin; w <= s.opts.TakeoffWeightMax; w += s.opts.TakeoffWeightStep {
		weFrac := c.A + c.B*math.Pow(w, c.C1)*math.Pow(ar, c.C2)*
			math.Pow(syn.tToW, c.C3)*math.Pow(syn.wToS, c.C4)*math.Pow(syn.maxMach, c.C5)
		denom := syn.betaFinal - weFrac
		if denom <= 0 {
			continue
		}
		wCalc := payload / denom
		if r := math.Abs(wCalc - w); r < bestResidual {
			bestResidual = r
			best = wCalc
			bestFrac = weFrac
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("%w: empty weight regression never closes over the takeoff weight sweep", ErrInfeasible)
	}

	ac.WTo = best
	ac.Engine().MaxMach = syn.maxMach
	ac.Engine().MaxThrust = syn.tToW * best / float64(ac.NumEngines())
	ac.Wing().Area = best / syn.wToS
	return bestFrac, nil
}

// bestCruise grid-searches Mach and altitude for the maximum range factor
// RF ∝ a·(cl/cd)/(c1/M + c2) at the drag-polar optimum cl = sqrt(cd0/k1).
func (s *Sizer) bestCruise(ac *aircraft.Aircraft) (float64, float64, error) {
	c1, c2, err := ac.Engine().TSFCCoefficients(false)
	if err != nil {
		return 0, 0, err
	}
	ac.Stores().Reset()
	ac.SetConfiguration(wing.Cruise)

	savedMach, machErr := ac.Mach()

	bestRF := math.Inf(-1)
	var bestMach, bestAlt float64
	for m := 0.05; m <= 2.0; m += 0.02 {
		ac.SetMach(m)
		k1, err := ac.K1()
		if err != nil {
			return 0, 0, err
		}
		cd0, err := ac.CD0()
		if err != nil {
			return 0, 0, err
		}
		cdr := ac.CDR()
		cl := math.Sqrt((cd0 + cdr) / k1)
		cd := k1*cl*cl + ac.K2()*cl + cd0 + cdr

		for alt := 1000.0; alt <= 70000; alt += 1000 {
			a, err := ac.Engine().Atmosphere().SpeedOfSound(alt)
			if err != nil {
				return 0, 0, err
			}
			rf := cl * a / (cd * (c1/m + c2))
			if rf > bestRF {
				bestRF = rf
				bestMach = m
				bestAlt = alt
			}
		}
	}

	if machErr == nil {
		ac.SetMach(savedMach)
	}
	return bestMach, bestAlt, nil
}
