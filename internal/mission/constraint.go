package mission

import (
	"fmt"
	"math"

	"github.com/aeroconcept/sizer/internal/aircraft"
	"github.com/aeroconcept/sizer/internal/atmosphere"
	"github.com/aeroconcept/sizer/internal/wing"
)

// State is the design state threaded explicitly through segment evaluation:
// the cumulative weight fraction entering the next segment and the highest
// Mach number seen so far, which sets the design Mach.
type State struct {
	Beta    float64
	MaxMach float64
}

// NewState returns the state at brake release: full weight, no Mach history.
func NewState() *State { return &State{Beta: 1} }

// Result is one segment's contribution to the constraint diagram.
type Result struct {
	Kind           Kind     `json:"kind"`
	Mach           float64  `json:"mach"`
	WeightFraction float64  `json:"weight_fraction"`
	BetaEnd        float64  `json:"beta_end"`
	Constraint     Curve    `json:"constraint"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Candidate thrust loadings swept when inverting the takeoff and landing
// ground-roll balances onto the wing-loading axis.
const (
	tToWSweepMin  = 0.02
	tToWSweepMax  = 3.0
	tToWSweepStep = 0.02
)

// Assumed reference area for the drag chute before the wing has been sized.
const assumedChuteRefArea = 500.0

// Evaluate computes the segment's required thrust loading over the
// wing-loading sweep, advances the cumulative weight fraction, and applies
// store releases. The aircraft's working Mach and wing configuration are set
// to this segment's conditions as a side effect.
func (s *Segment) Evaluate(ac *aircraft.Aircraft, wingLoadings []float64, st *State) (Result, error) {
	atm := ac.Engine().Atmosphere()
	rho, err := atm.Density(s.Altitude)
	if err != nil {
		return Result{}, err
	}

	speed := s.Speed * KnotsToFtPerSec
	var mach float64
	if speed > 0 {
		a, err := atm.SpeedOfSound(s.Altitude)
		if err != nil {
			return Result{}, err
		}
		mach = speed / a
	}
	ac.SetMach(mach)
	if mach > st.MaxMach {
		st.MaxMach = mach
	}

	switch s.Kind {
	case Takeoff:
		ac.SetConfiguration(wing.Takeoff)
	case Land:
		ac.SetConfiguration(wing.Landing)
	default:
		ac.SetConfiguration(wing.Cruise)
	}

	beta := st.Beta

	res := Result{Kind: s.Kind, Mach: mach}

	switch s.Kind {
	case Warmup, Taxi:
		// Ground operations impose no thrust requirement beyond idle.
		res.Constraint = make([]float64, len(wingLoadings))
	case Takeoff:
		res.Constraint, err = s.takeoffConstraint(ac, rho, beta, wingLoadings)
	case Land:
		res.Constraint, res.Warnings, err = s.landingConstraint(ac, rho, beta, wingLoadings)
	case Descend:
		if speed <= 0 {
			res.Constraint = make([]float64, len(wingLoadings))
		} else {
			res.Constraint, err = s.masterEquation(ac, rho, speed, mach, beta, wingLoadings)
		}
	default:
		res.Constraint, err = s.masterEquation(ac, rho, speed, mach, beta, wingLoadings)
	}
	if err != nil {
		return Result{}, err
	}

	wf, err := s.weightFraction(ac, mach, beta)
	if err != nil {
		return Result{}, err
	}
	if wf <= 0 || wf > 1 {
		return Result{}, fmt.Errorf("%w: segment %s weight fraction %g outside (0, 1]", ErrConfiguration, s.Kind, wf)
	}
	res.WeightFraction = wf
	st.Beta *= wf
	res.BetaEnd = st.Beta

	for _, name := range s.Release {
		if err := ac.Stores().Release(name); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

// weightFraction is the segment-end over segment-start weight ratio: an
// explicit override, the empirical per-phase constant, or fuel burn solved
// from TSFC at the current design thrust loading.
func (s *Segment) weightFraction(ac *aircraft.Aircraft, mach, beta float64) (float64, error) {
	if s.WeightFraction != nil {
		return *s.WeightFraction, nil
	}
	if wf, ok := fixedWeightFractions[s.Kind]; ok {
		return wf, nil
	}
	tsfc, err := ac.Engine().TSFC(mach, s.Altitude, s.Afterburner())
	if err != nil {
		return 0, err
	}
	alpha, err := ac.Engine().ThrustLapse(s.Altitude, mach)
	if err != nil {
		return 0, err
	}
	return math.Exp(-tsfc * ac.TToW * alpha / beta * s.duration()), nil
}

// loadFactor from sustained-turn rate or radius; straight flight gives 1.
func (s *Segment) loadFactor(speed float64) float64 {
	n := 1.0
	if s.TurnRate > 0 {
		n = math.Sqrt(1 + math.Pow(s.TurnRate*speed/atmosphere.G0, 2))
	}
	if s.TurnRadius > 0 {
		nr := math.Sqrt(1 + math.Pow(speed/s.TurnRadius/atmosphere.G0, 2))
		if nr > n {
			n = nr
		}
	}
	return n
}

// masterEquation is Mattingly's master equation for in-flight segments:
// T/W = (beta/alpha)·[q/(beta·W/S)·(k1·cl² + k2·cl + cd0 + cdr) + Ps-term].
func (s *Segment) masterEquation(ac *aircraft.Aircraft, rho, speed, mach, beta float64, wingLoadings []float64) ([]float64, error) {
	alpha, err := ac.Engine().ThrustLapse(s.Altitude, mach)
	if err != nil {
		return nil, err
	}
	k1, err := ac.K1()
	if err != nil {
		return nil, err
	}
	cd0, err := ac.CD0()
	if err != nil {
		return nil, err
	}
	k2 := ac.K2()
	cdr := ac.CDR()

	q := 0.5 * rho * speed * speed
	n := s.loadFactor(speed)
	excess := s.ClimbRate/speed + s.Acceleration/atmosphere.G0

	out := make([]float64, len(wingLoadings))
	for i, ws := range wingLoadings {
		cl := n * beta * ws / q
		out[i] = (beta / alpha) * (q/(beta*ws)*(k1*cl*cl+k2*cl+cd0+cdr) + excess)
	}
	return out, nil
}

// takeoffConstraint inverts the ground-roll balance onto the wing-loading
// axis. With acceleration a(V) = g0·(A − B·V²), A = (alpha/beta)·T/W − mu,
// the roll distance integrates to s_G = ln(A/(A−B·V_TO²))/(2·g0·B). Since
// B·V_TO² = k_to²·xi/CLmax is independent of wing loading, each candidate
// thrust loading maps to a unique achievable wing loading in closed form:
//
//	W/S = s_TO·g0·rho·xi / (beta·ln(A/(A−C)))
//
// Lift is assumed dumped during the roll, so friction acts on full weight.
func (s *Segment) takeoffConstraint(ac *aircraft.Aircraft, rho, beta float64, wingLoadings []float64) ([]float64, error) {
	clMax, err := ac.CLMax()
	if err != nil {
		return nil, err
	}
	cd0, err := ac.CD0()
	if err != nil {
		return nil, err
	}
	xi := cd0 + ac.CDR()
	mu := ac.MuRolling()
	kto := ac.KTakeoff()
	c := kto * kto * xi / clMax

	alpha, err := ac.Engine().ThrustLapse(s.Altitude, 0)
	if err != nil {
		return nil, err
	}

	var tws, wss []float64
	for t := tToWSweepMin; t <= tToWSweepMax; t += tToWSweepStep {
		a := alpha/beta*t - mu
		if a <= c {
			// not enough thrust to reach liftoff speed
			continue
		}
		ws := s.FieldLength * atmosphere.G0 * rho * xi / (beta * math.Log(a/(a-c)))
		tws = append(tws, t)
		wss = append(wss, ws)
	}
	if len(wss) == 0 {
		return nil, fmt.Errorf("%w: takeoff field length %g ft unachievable at any thrust loading", ErrConfiguration, s.FieldLength)
	}
	return invertOntoSweep(wingLoadings, wss, tws), nil
}

// landingConstraint is the deceleration analogue. With a(V) = −g0·(A + B·V²)
// the roll distance is s_L = ln(1 + B·V_TD²/A)/(2·g0·B). Without reverse
// thrust A = mu_B alone, so the field length fixes a hard wing-loading
// limit; with reverse thrust the balance inverts per candidate thrust
// loading exactly as for takeoff.
func (s *Segment) landingConstraint(ac *aircraft.Aircraft, rho, beta float64, wingLoadings []float64) ([]float64, []string, error) {
	clMax, err := ac.CLMax()
	if err != nil {
		return nil, nil, err
	}
	cd0, err := ac.CD0()
	if err != nil {
		return nil, nil, err
	}
	xi := cd0 + ac.CDR()

	var warnings []string
	if chute := ac.DragChute(); chute != nil {
		area := ac.Wing().Area
		if area == 0 {
			area = assumedChuteRefArea
			warnings = append(warnings, fmt.Sprintf(
				"wing area not yet sized, drag chute referenced to assumed %g ft^2", assumedChuteRefArea))
		}
		xi += chute.CD * math.Pi * chute.Diameter * chute.Diameter / 4 / area
	}

	mu := ac.MuBraking()
	ktd := ac.KTouchdown()
	c := ktd * ktd * xi / clMax

	if !ac.ReverseThrust() {
		limit := s.FieldLength * atmosphere.G0 * rho * xi / (beta * math.Log(1+c/mu))
		out := make([]float64, len(wingLoadings))
		for i, ws := range wingLoadings {
			if ws > limit {
				out[i] = math.Inf(1)
			}
		}
		return out, warnings, nil
	}

	alpha, err := ac.Engine().ThrustLapse(s.Altitude, 0)
	if err != nil {
		return nil, nil, err
	}
	var tws, wss []float64
	for t := tToWSweepMin; t <= tToWSweepMax; t += tToWSweepStep {
		a := mu + alpha/beta*t
		ws := s.FieldLength * atmosphere.G0 * rho * xi / (beta * math.Log(1+c/a))
		tws = append(tws, t)
		wss = append(wss, ws)
	}
	return invertOntoSweep(wingLoadings, wss, tws), warnings, nil
}

// invertOntoSweep interpolates the (achievable wing loading, thrust loading)
// pairs onto the input wing-loading sweep. Wing loadings below the lowest
// achievable value clamp to the smallest candidate; values beyond the
// highest are infeasible at any swept thrust loading.
func invertOntoSweep(wingLoadings, wss, tws []float64) []float64 {
	out := make([]float64, len(wingLoadings))
	for i, ws := range wingLoadings {
		switch {
		case ws <= wss[0]:
			out[i] = tws[0]
		case ws > wss[len(wss)-1]:
			out[i] = math.Inf(1)
		default:
			out[i] = interp(ws, wss, tws)
		}
	}
	return out
}

func interp(x float64, xs, ys []float64) float64 {
	for i := 1; i < len(xs); i++ {
		if x <= xs[i] {
			t := (x - xs[i-1]) / (xs[i] - xs[i-1])
			return ys[i-1] + t*(ys[i]-ys[i-1])
		}
	}
	return ys[len(ys)-1]
}
