package mission

import (
	"encoding/json"
	"math"
	"strconv"
)

// Curve is a thrust-loading curve over the wing-loading sweep. Infeasible
// points are +Inf in memory, which encoding/json refuses to marshal, so the
// JSON form encodes any non-finite point as null and decoding restores it
// as +Inf.
type Curve []float64

func (c Curve) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, len(c)*8+2)
	buf = append(buf, '[')
	for i, v := range c {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

func (c *Curve) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Curve, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.Inf(1)
			continue
		}
		out[i] = *v
	}
	*c = out
	return nil
}
