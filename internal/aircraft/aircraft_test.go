package aircraft

import (
	"errors"
	"math"
	"testing"

	"github.com/aeroconcept/sizer/internal/atmosphere"
	"github.com/aeroconcept/sizer/internal/engine"
	"github.com/aeroconcept/sizer/internal/wing"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.Config{
		Archetype:  engine.ATJ,
		Atmosphere: atmosphere.NewStandard(),
	})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return e
}

func floatPtr(v float64) *float64 { return &v }

func TestUnknownArchetype(t *testing.T) {
	_, err := New(Config{Type: "seaplane", Engine: testEngine(t)})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	a, err := New(Config{Type: JetFighter, Engine: testEngine(t), KAero: 0.5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.NumEngines() != 1 {
		t.Errorf("num engines = %d, want 1", a.NumEngines())
	}
	if a.K2() != 0.003 {
		t.Errorf("k_2 = %g, want 0.003", a.K2())
	}
	if a.TToW != 1.20 {
		t.Errorf("seed T/W = %g, want 1.20", a.TToW)
	}
	if a.DesignMach() != 1.50 {
		t.Errorf("design mach = %g, want 1.50", a.DesignMach())
	}
	if a.Wing() == nil {
		t.Fatal("expected a derived wing")
	}
}

func TestDragChuteDefaults(t *testing.T) {
	a, err := New(Config{
		Type:      JetFighter,
		Engine:    testEngine(t),
		KAero:     0.5,
		DragChute: &DragChute{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	chute := a.DragChute()
	if chute.Diameter != 15.0 || chute.CD != 1.4 {
		t.Errorf("chute defaults = (%g, %g), want (15, 1.4)", chute.Diameter, chute.CD)
	}
}

func TestDragPolar(t *testing.T) {
	a, err := New(Config{
		Type:   JetTransport,
		Engine: testEngine(t),
		KAero:  0.5,
		CD0:    floatPtr(0.02),
		K1:     floatPtr(0.16),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := []struct {
		cl, want float64
	}{
		{0.0, 0.02},
		{0.5, 0.16*0.25 + 0.003*0.5 + 0.02},
		{1.0, 0.16 + 0.003 + 0.02},
		{1.5, 0.16*2.25 + 0.003*1.5 + 0.02},
		{2.0, 0.16*4 + 0.003*2 + 0.02},
	}
	for _, c := range cases {
		a.SetCL(c.cl)
		cd, err := a.CD()
		if err != nil {
			t.Fatalf("CD at cl=%g: %v", c.cl, err)
		}
		if math.Abs(cd-c.want) > 1e-12 {
			t.Errorf("cd(cl=%g) = %g, want %g", c.cl, cd, c.want)
		}
	}
}

func TestFighterBucketsRequireMach(t *testing.T) {
	a, err := New(Config{Type: JetFighter, Engine: testEngine(t), KAero: 0.5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.CD0(); !errors.Is(err, ErrMissingState) {
		t.Errorf("CD0 before SetMach: got %v, want ErrMissingState", err)
	}
	if _, err := a.K1(); !errors.Is(err, ErrMissingState) {
		t.Errorf("K1 before SetMach: got %v, want ErrMissingState", err)
	}
	a.SetMach(0.85)
	if _, err := a.CD0(); err != nil {
		t.Errorf("CD0 after SetMach: %v", err)
	}
}

func TestFighterBucketBlend(t *testing.T) {
	// k_aero = 1 gives the optimistic bound, k_aero = 0 the pessimistic one.
	mk := func(kAero float64) *Aircraft {
		a, err := New(Config{Type: JetFighter, Engine: testEngine(t), KAero: kAero})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		a.SetMach(0.85)
		return a
	}

	best := mk(1.0)
	cd0, err := best.CD0()
	if err != nil {
		t.Fatalf("CD0: %v", err)
	}
	if math.Abs(cd0-0.015) > 1e-9 {
		t.Errorf("cd_0 min bound at M=0.85 = %g, want 0.015", cd0)
	}

	worst := mk(0.0)
	cd0, err = worst.CD0()
	if err != nil {
		t.Fatalf("CD0: %v", err)
	}
	if math.Abs(cd0-0.02075) > 1e-9 {
		t.Errorf("cd_0 max bound at M=0.85 = %g, want 0.02075", cd0)
	}
}

func TestNonBucketedArchetypeNeedsNoMach(t *testing.T) {
	a, err := New(Config{Type: JetTransport, Engine: testEngine(t), KAero: 0.5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cd0, err := a.CD0()
	if err != nil {
		t.Fatalf("CD0: %v", err)
	}
	if cd0 != 0.02 {
		t.Errorf("cd_0 = %g, want 0.02", cd0)
	}
	k1, err := a.K1()
	if err != nil {
		t.Fatalf("K1: %v", err)
	}
	if k1 != 0.16 {
		t.Errorf("k_1 = %g, want 0.16", k1)
	}
}

func TestStoreReleaseAndReset(t *testing.T) {
	a, err := New(Config{
		Type:   JetFighter,
		Engine: testEngine(t),
		KAero:  0.5,
		Stores: []Store{
			{Name: "tank", Weight: 2000, CDR: 0.004, Expendable: true},
			{Name: "gun", Weight: 500, CDR: 0.001},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := a.InitialPayload(); got != 2500 {
		t.Errorf("initial payload = %g, want 2500", got)
	}
	if got := a.Payload(); got != 2500 {
		t.Errorf("payload = %g, want 2500", got)
	}

	if err := a.Stores().Release("tank"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got := a.Payload(); got != 500 {
		t.Errorf("payload after release = %g, want 500", got)
	}
	if got := a.InitialPayload(); got != 2500 {
		t.Errorf("initial payload after release = %g, want 2500", got)
	}
	if got := a.Stores().ActiveDrag(); got != 0.001 {
		t.Errorf("active drag after release = %g, want 0.001", got)
	}

	if err := a.Stores().Release("gun"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("releasing permanent store: got %v, want ErrConfiguration", err)
	}
	if err := a.Stores().Release("pod"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("releasing unknown store: got %v, want ErrConfiguration", err)
	}

	a.Stores().Reset()
	if got := a.Payload(); got != 2500 {
		t.Errorf("payload after reset = %g, want 2500", got)
	}
}

func TestCDRFollowsConfiguration(t *testing.T) {
	a, err := New(Config{
		Type:   JetTransport,
		Engine: testEngine(t),
		KAero:  0.5,
		Stores: []Store{{Name: "pod", Weight: 100, CDR: 0.002}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := a.CDR(); math.Abs(got-0.022) > 1e-12 {
		t.Errorf("takeoff cd_r = %g, want 0.022", got)
	}
	a.SetConfiguration(wing.Cruise)
	if got := a.CDR(); math.Abs(got-0.002) > 1e-12 {
		t.Errorf("cruise cd_r = %g, want 0.002", got)
	}
	a.SetConfiguration(wing.Landing)
	if got := a.CDR(); math.Abs(got-0.022) > 1e-12 {
		t.Errorf("landing cd_r = %g, want 0.022", got)
	}
}
