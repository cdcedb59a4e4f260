package mission

import (
	"encoding/json"
	"math"
	"testing"
)

func TestCurveJSONEncodesInfeasiblePoints(t *testing.T) {
	in := Curve{0, 0.85, math.Inf(1), math.NaN(), 1.25e3}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got, want := string(data), "[0,0.85,null,null,1250]"; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}

	var out Curve
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d points, want %d", len(out), len(in))
	}
	for _, i := range []int{0, 1, 4} {
		if out[i] != in[i] {
			t.Errorf("point %d = %g, want %g", i, out[i], in[i])
		}
	}
	for _, i := range []int{2, 3} {
		if !math.IsInf(out[i], 1) {
			t.Errorf("point %d = %g, want +Inf restored", i, out[i])
		}
	}
}

func TestCurveJSONInsideResult(t *testing.T) {
	res := Result{
		Kind:           Land,
		WeightFraction: 0.99,
		BetaEnd:        0.8,
		Constraint:     Curve{0, math.Inf(1)},
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back Result
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(back.Constraint) != 2 || back.Constraint[0] != 0 || !math.IsInf(back.Constraint[1], 1) {
		t.Errorf("constraint round-trip = %v", back.Constraint)
	}
}
