package sizing

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/aeroconcept/sizer/internal/aircraft"
	"github.com/aeroconcept/sizer/internal/atmosphere"
	"github.com/aeroconcept/sizer/internal/engine"
	"github.com/aeroconcept/sizer/internal/mission"
)

func fighter(t *testing.T, stores []aircraft.Store) *aircraft.Aircraft {
	t.Helper()
	eng, err := engine.New(engine.Config{
		Archetype:  engine.ATJ,
		Atmosphere: atmosphere.NewStandard(),
	})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	ac, err := aircraft.New(aircraft.Config{
		Type:   aircraft.JetFighter,
		Engine: eng,
		KAero:  0.5,
		Stores: stores,
	})
	if err != nil {
		t.Fatalf("aircraft.New: %v", err)
	}
	return ac
}

func strikeMission(t *testing.T) *mission.Mission {
	t.Helper()
	m, err := mission.New("strike", []mission.Segment{
		{Kind: mission.Warmup},
		{Kind: mission.Takeoff, FieldLength: 1500},
		{Kind: mission.Cruise, Speed: 700, Altitude: 30000, Range: 150},
		{Kind: mission.Land, FieldLength: 1500},
	})
	if err != nil {
		t.Fatalf("mission.New: %v", err)
	}
	return m
}

func TestDesignEndToEnd(t *testing.T) {
	ac := fighter(t, []aircraft.Store{{Name: "payload", Weight: 2000}})
	m := strikeMission(t)
	s := New(Options{}, nil)

	res, err := s.Design(context.Background(), ac, m, nil)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}

	if !(res.TakeoffWeight > 0) || math.IsInf(res.TakeoffWeight, 0) {
		t.Errorf("takeoff weight = %g, want finite positive", res.TakeoffWeight)
	}
	if !(res.WingArea > 0) || math.IsInf(res.WingArea, 0) {
		t.Errorf("wing area = %g, want finite positive", res.WingArea)
	}
	if !(res.MaxThrustPerEngine > 0) || math.IsInf(res.MaxThrustPerEngine, 0) {
		t.Errorf("max thrust = %g, want finite positive", res.MaxThrustPerEngine)
	}
	if res.FuelFraction <= 0 || res.FuelFraction >= 1 {
		t.Errorf("fuel fraction = %g, want in (0, 1)", res.FuelFraction)
	}
	if res.MaxMach <= 0 {
		t.Errorf("max mach = %g, want positive", res.MaxMach)
	}

	// Propagation identities.
	if got := res.TToW * res.TakeoffWeight / float64(res.NumEngines); math.Abs(got-res.MaxThrustPerEngine) > 1e-6 {
		t.Errorf("max thrust %g inconsistent with T/W·W_to/n = %g", res.MaxThrustPerEngine, got)
	}
	if got := res.TakeoffWeight / res.WToS; math.Abs(got-res.WingArea) > 1e-6 {
		t.Errorf("wing area %g inconsistent with W_to/(W/S) = %g", res.WingArea, got)
	}

	if len(res.Envelope) != len(res.WingLoadings) {
		t.Errorf("envelope length %d != sweep length %d", len(res.Envelope), len(res.WingLoadings))
	}
	if len(res.Segments) != 4 {
		t.Errorf("got %d segment results, want 4", len(res.Segments))
	}
	if res.EngineDimensions.Weight <= 0 {
		t.Errorf("engine weight = %g, want positive", res.EngineDimensions.Weight)
	}
}

func TestDesignConverges(t *testing.T) {
	ac := fighter(t, []aircraft.Store{{Name: "payload", Weight: 2000}})
	s := New(Options{Tolerance: 1e-3, MaxIterations: 20}, nil)

	var iterations []Progress
	res, err := s.Design(context.Background(), ac, strikeMission(t), func(p Progress) {
		iterations = append(iterations, p)
	})
	if err != nil {
		t.Fatalf("Design: %v", err)
	}
	if !res.Converged {
		t.Fatalf("did not converge in %d iterations", res.Iterations)
	}
	if len(iterations) != res.Iterations {
		t.Errorf("observed %d progress events, result reports %d iterations", len(iterations), res.Iterations)
	}
	last := iterations[len(iterations)-1]
	if !last.Converged {
		t.Error("final progress event not marked converged")
	}
	if last.TakeoffWeight != res.TakeoffWeight {
		t.Errorf("final progress weight %g != result weight %g", last.TakeoffWeight, res.TakeoffWeight)
	}
}

func TestIterationCap(t *testing.T) {
	ac := fighter(t, []aircraft.Store{{Name: "payload", Weight: 2000}})
	// A tolerance no finite computation reaches forces the cap.
	s := New(Options{Tolerance: 1e-300, MaxIterations: 3}, nil)

	res, err := s.Design(context.Background(), ac, strikeMission(t), nil)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}
	if res.Iterations > 3 {
		t.Errorf("ran %d iterations, cap was 3", res.Iterations)
	}
}

func TestDesignRequiresPayload(t *testing.T) {
	ac := fighter(t, nil)
	s := New(Options{}, nil)

	if _, err := s.Design(context.Background(), ac, strikeMission(t), nil); !errors.Is(err, ErrInfeasible) {
		t.Fatalf("got %v, want ErrInfeasible", err)
	}
}

func TestDesignHonorsContext(t *testing.T) {
	ac := fighter(t, []aircraft.Store{{Name: "payload", Weight: 2000}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(Options{}, nil).Design(ctx, ac, strikeMission(t), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestEnvelopeIsElementwiseMax(t *testing.T) {
	ac := fighter(t, []aircraft.Store{{Name: "payload", Weight: 2000}})
	s := New(Options{}, nil)

	res, err := s.Design(context.Background(), ac, strikeMission(t), nil)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}
	for j := range res.Envelope {
		var want float64
		for _, seg := range res.Segments {
			if seg.Constraint[j] > want {
				want = seg.Constraint[j]
			}
		}
		if res.Envelope[j] != want {
			t.Fatalf("envelope[%d] = %g, want max over segments %g", j, res.Envelope[j], want)
		}
	}
}

func TestBestCruiseWithinGrid(t *testing.T) {
	ac := fighter(t, []aircraft.Store{{Name: "payload", Weight: 2000}})
	s := New(Options{}, nil)

	res, err := s.Design(context.Background(), ac, strikeMission(t), nil)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}
	if res.BestCruiseMach <= 0 || res.BestCruiseMach > 2.0 {
		t.Errorf("best cruise mach = %g, want in (0, 2]", res.BestCruiseMach)
	}
	if res.BestCruiseAltitude < 1000 || res.BestCruiseAltitude > 70000 {
		t.Errorf("best cruise altitude = %g, want in [1000, 70000]", res.BestCruiseAltitude)
	}
}

// The landing segment without reverse thrust marks every wing loading past
// the achievable limit +Inf, and those points must survive JSON intact so
// results can be stored and served.
func TestResultJSONRoundTripWithInfeasiblePoints(t *testing.T) {
	ac := fighter(t, []aircraft.Store{{Name: "payload", Weight: 2000}})
	s := New(Options{}, nil)

	res, err := s.Design(context.Background(), ac, strikeMission(t), nil)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}

	infeasible := 0
	for _, v := range res.Envelope {
		if math.IsInf(v, 1) {
			infeasible++
		}
	}
	if infeasible == 0 {
		t.Fatal("expected infeasible envelope points beyond the landing wing-loading limit")
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back Result
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(back.Envelope) != len(res.Envelope) {
		t.Fatalf("envelope round-trip: %d points, want %d", len(back.Envelope), len(res.Envelope))
	}
	for j, v := range res.Envelope {
		if math.IsInf(v, 1) {
			if !math.IsInf(back.Envelope[j], 1) {
				t.Fatalf("envelope[%d] = %g, want +Inf restored", j, back.Envelope[j])
			}
			continue
		}
		if back.Envelope[j] != v {
			t.Fatalf("envelope[%d] = %g, want %g", j, back.Envelope[j], v)
		}
	}
	if len(back.Segments) != len(res.Segments) {
		t.Fatalf("segments round-trip: %d, want %d", len(back.Segments), len(res.Segments))
	}
}

func TestNegativeStepsFallBackToDefaults(t *testing.T) {
	opts := Options{WingLoadingStep: -5, TakeoffWeightStep: -100}.withDefaults()
	if opts.WingLoadingStep != 1 {
		t.Errorf("wing loading step = %g, want default 1", opts.WingLoadingStep)
	}
	if opts.TakeoffWeightStep != 10 {
		t.Errorf("takeoff weight step = %g, want default 10", opts.TakeoffWeightStep)
	}

	// The sweep must still terminate and run low to high.
	ac := fighter(t, []aircraft.Store{{Name: "payload", Weight: 2000}})
	s := New(Options{WingLoadingStep: -5, TakeoffWeightStep: -100}, nil)
	res, err := s.Design(context.Background(), ac, strikeMission(t), nil)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}
	sweep := s.wingLoadingSweep()
	if len(sweep) == 0 {
		t.Fatal("empty wing loading sweep")
	}
	for i := 1; i < len(sweep); i++ {
		if sweep[i] <= sweep[i-1] {
			t.Fatalf("sweep not strictly increasing at %d: %g then %g", i-1, sweep[i-1], sweep[i])
		}
	}
	if res.WToS < sweep[0] || res.WToS > sweep[len(sweep)-1] {
		t.Errorf("design point W/S %g outside sweep [%g, %g]", res.WToS, sweep[0], sweep[len(sweep)-1])
	}
}
