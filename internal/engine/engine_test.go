package engine

import (
	"errors"
	"math"
	"testing"
)

func mustNew(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New(%+v): %v", cfg, err)
	}
	return e
}

func TestThrustLapseSeaLevelStatic(t *testing.T) {
	e := mustNew(t, Config{Archetype: ATJ})

	got, err := e.ThrustLapse(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	// At sea level the density ratio is 1; with the ATJ tuple
	// [1, 1.00, 0.952, 0.30, 0.40, 2.0, 0.7] the static lapse is
	// 1.00*(0.952 + 0.30*(-0.40)^2.0) = 1.0.
	want := 1.00 * (0.952 + 0.30*math.Pow(-0.40, 2.0))
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("ThrustLapse(0, 0) = %g, want %g", got, want)
	}
	if math.Abs(want-1.0) > 1e-12 {
		t.Errorf("ATJ static lapse should be unity, got %g", want)
	}
}

func TestThrustLapseDecreasesWithAltitude(t *testing.T) {
	for _, arch := range []Archetype{ATJ, HBTF, LBTF} {
		e := mustNew(t, Config{Archetype: arch})
		low, err := e.ThrustLapse(0, 0.8)
		if err != nil {
			t.Fatal(err)
		}
		high, err := e.ThrustLapse(30000, 0.8)
		if err != nil {
			t.Fatal(err)
		}
		if high >= low {
			t.Errorf("%s: lapse at 30,000 ft (%g) not less than at sea level (%g)", arch, high, low)
		}
	}
}

func TestTSFC(t *testing.T) {
	e := mustNew(t, Config{Archetype: ATJ, Afterburner: true})

	// theta = 1 at sea level.
	got, err := e.TSFC(0.5, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if want := 1.1 + 0.30*0.5; math.Abs(got-want) > 1e-12 {
		t.Errorf("normal TSFC = %g, want %g", got, want)
	}

	got, err = e.TSFC(0.5, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if want := 1.5 + 0.23*0.5; math.Abs(got-want) > 1e-12 {
		t.Errorf("afterburning TSFC = %g, want %g", got, want)
	}
}

func TestTSFCAfterburnerUnsupported(t *testing.T) {
	e := mustNew(t, Config{Archetype: HBTF})
	if _, err := e.TSFC(0.8, 10000, true); !errors.Is(err, ErrConfiguration) {
		t.Errorf("HBTF afterburning TSFC: got %v, want ErrConfiguration", err)
	}
}

func TestConstructionValidation(t *testing.T) {
	bpr := func(v float64) *float64 { return &v }

	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"unknown archetype", Config{Archetype: "REEL"}, true},
		{"HBTF bpr too low", Config{Archetype: HBTF, BPR: bpr(1.9)}, true},
		{"HBTF bpr ok", Config{Archetype: HBTF, BPR: bpr(8)}, false},
		{"LBTF bpr too high", Config{Archetype: LBTF, BPR: bpr(2.5)}, true},
		{"LBTF bpr ok", Config{Archetype: LBTF, BPR: bpr(0.7)}, false},
		{"afterburner with bpr 1.5", Config{Archetype: LBTF, Afterburner: true, BPR: bpr(1.5)}, true},
		{"afterburner with low bpr", Config{Archetype: LBTF, Afterburner: true, BPR: bpr(0.5)}, false},
		{"afterburner on turboprop", Config{Archetype: ATP, Afterburner: true}, true},
	}
	for _, c := range cases {
		_, err := New(c.cfg)
		if c.wantErr && !errors.Is(err, ErrConfiguration) {
			t.Errorf("%s: got error %v, want ErrConfiguration", c.name, err)
		}
		if !c.wantErr && err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
		}
	}
}

func TestSize(t *testing.T) {
	e := mustNew(t, Config{Archetype: ATJ, Afterburner: true})
	e.MaxThrust = 30000
	e.MaxMach = 1.5

	dims, err := e.Size()
	if err != nil {
		t.Fatal(err)
	}
	if want := 0.063 * math.Pow(30000, 1.1) * math.Pow(1.5, 0.25); math.Abs(dims.Weight-want) > 1e-9 {
		t.Errorf("Weight = %g, want %g", dims.Weight, want)
	}
	if dims.Length <= 0 || dims.Diameter <= 0 || dims.ThrustCruise <= 0 {
		t.Errorf("expected positive dimensions, got %+v", dims)
	}

	dry := mustNew(t, Config{Archetype: HBTF})
	dry.MaxThrust = 30000
	dry.MaxMach = 0.85
	dryDims, err := dry.Size()
	if err != nil {
		t.Fatal(err)
	}
	if want := 0.084 * math.Pow(30000, 1.1) * math.Exp(-0.045*6); math.Abs(dryDims.Weight-want) > 1e-9 {
		t.Errorf("dry Weight = %g, want %g", dryDims.Weight, want)
	}
}
