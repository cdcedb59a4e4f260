// Package mission defines flight profiles as ordered segments and evaluates
// each segment's constraint curve: required thrust loading as a function of
// candidate wing loading, per Mattingly's master equation and ground-roll
// balances for takeoff and landing.
package mission

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingParameter is returned when a segment lacks a field its kind
	// requires (e.g. a cruise segment without range).
	ErrMissingParameter = errors.New("missing segment parameter")
	// ErrConfiguration is returned for unknown segment kinds and empty
	// missions.
	ErrConfiguration = errors.New("mission configuration error")
)

// Kind tags a mission segment with its flight phase.
type Kind string

const (
	Warmup  Kind = "warmup"
	Taxi    Kind = "taxi"
	Takeoff Kind = "takeoff"
	Climb   Kind = "climb"
	Cruise  Kind = "cruise"
	Dash    Kind = "dash"
	Loiter  Kind = "loiter"
	Descend Kind = "descend"
	Land    Kind = "land"
)

// Empirical per-phase weight fractions for legs whose fuel burn is not
// solved from TSFC.
var fixedWeightFractions = map[Kind]float64{
	Warmup:  0.99,
	Taxi:    0.99,
	Takeoff: 0.98,
	Climb:   0.95,
	Descend: 0.98,
	Land:    0.99,
}

// KnotsToFtPerSec converts airspeed in knots to ft/s.
const KnotsToFtPerSec = 1.68780986

const (
	defaultTakeoffFieldLength = 1500.0
	defaultLandingFieldLength = 2500.0
	defaultObstacleHeight     = 100.0
)

// Segment is one leg of a mission. Speed and altitude apply to every kind;
// the remaining fields are kind-specific. Stores named in Release are
// dropped at the end of the segment and stay off for the rest of the
// mission.
type Segment struct {
	Kind     Kind    `json:"kind" toml:"kind"`
	Speed    float64 `json:"speed" toml:"speed"`       // knots
	Altitude float64 `json:"altitude" toml:"altitude"` // ft

	Range      float64 `json:"range,omitempty" toml:"range"`             // nmi, cruise/dash
	LoiterTime float64 `json:"loiter_time,omitempty" toml:"loiter_time"` // hrs, loiter

	TurnRate   float64 `json:"turn_rate,omitempty" toml:"turn_rate"`     // rad/s
	TurnRadius float64 `json:"turn_radius,omitempty" toml:"turn_radius"` // ft

	ClimbRate      float64 `json:"climb_rate,omitempty" toml:"climb_rate"`           // ft/s
	Acceleration   float64 `json:"acceleration,omitempty" toml:"acceleration"`       // ft/s^2
	FieldLength    float64 `json:"field_length,omitempty" toml:"field_length"`       // ft, takeoff/land
	ObstacleHeight float64 `json:"obstacle_height,omitempty" toml:"obstacle_height"` // ft, takeoff

	// WeightFraction overrides both the fixed table and the TSFC-derived
	// fuel burn when non-nil.
	WeightFraction *float64 `json:"weight_fraction,omitempty" toml:"weight_fraction"`

	Release []string `json:"release,omitempty" toml:"release"`
}

// Afterburner reports whether the segment is flown with afterburner lit.
func (s *Segment) Afterburner() bool { return s.Kind == Dash }

func (s *Segment) validate() error {
	switch s.Kind {
	case Warmup, Taxi, Descend:
	case Takeoff, Land:
		// field length defaults applied in withDefaults
	case Climb:
		if s.Speed <= 0 {
			return fmt.Errorf("%w: climb segment requires a speed", ErrMissingParameter)
		}
	case Cruise, Dash:
		if s.Speed <= 0 {
			return fmt.Errorf("%w: %s segment requires a speed", ErrMissingParameter, s.Kind)
		}
		if s.Range <= 0 {
			return fmt.Errorf("%w: %s segment requires a range", ErrMissingParameter, s.Kind)
		}
	case Loiter:
		if s.Speed <= 0 {
			return fmt.Errorf("%w: loiter segment requires a speed", ErrMissingParameter)
		}
		if s.LoiterTime <= 0 {
			return fmt.Errorf("%w: loiter segment requires a loiter_time", ErrMissingParameter)
		}
	default:
		return fmt.Errorf("%w: unknown segment kind %q", ErrConfiguration, s.Kind)
	}
	return nil
}

func (s *Segment) withDefaults() Segment {
	out := *s
	switch s.Kind {
	case Takeoff:
		if out.FieldLength == 0 {
			out.FieldLength = defaultTakeoffFieldLength
		}
		if out.ObstacleHeight == 0 {
			out.ObstacleHeight = defaultObstacleHeight
		}
	case Land:
		if out.FieldLength == 0 {
			out.FieldLength = defaultLandingFieldLength
		}
	}
	return out
}

// duration returns the segment's duration in hours for fuel-burning legs.
func (s *Segment) duration() float64 {
	switch s.Kind {
	case Cruise, Dash:
		return s.Range / s.Speed
	case Loiter:
		return s.LoiterTime
	}
	return 0
}

// Mission is an immutable ordered sequence of segments in physical time
// order. Later segments see the cumulative weight loss of all earlier ones.
type Mission struct {
	name     string
	segments []Segment
}

// New validates every segment and applies kind defaults.
func New(name string, segments []Segment) (*Mission, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: mission has no segments", ErrConfiguration)
	}
	out := make([]Segment, len(segments))
	for i := range segments {
		if err := segments[i].validate(); err != nil {
			return nil, fmt.Errorf("segment %d (%s): %w", i, segments[i].Kind, err)
		}
		out[i] = segments[i].withDefaults()
	}
	return &Mission{name: name, segments: out}, nil
}

func (m *Mission) Name() string        { return m.name }
func (m *Mission) Segments() []Segment { return m.segments }
