package domain

import (
	"math"
	"strconv"
	"strings"
)

// Payload builds the JSON body for POST /api/bikes (create) or
// PUT /api/bikes/{id} (edit). Text is trimmed and state is upper-cased and
// cut to two letters. An empty field is left out, except that in edit mode
// an empty numeric field is sent as null so the server clears it. Call it
// on a validated form; unparsable numbers are treated as empty.
func (f Form) Payload(mode Mode, photos []string) map[string]any {
	p := map[string]any{
		"title":  strings.TrimSpace(f.Title),
		"photos": nonNil(photos),
	}

	putText := func(key, v string) {
		if v = strings.TrimSpace(v); v != "" {
			p[key] = v
		}
	}
	putNumber := func(key, v string, parse func(string) (any, bool)) {
		if n, ok := parse(strings.TrimSpace(v)); ok {
			p[key] = n
		} else if mode == ModeEdit {
			p[key] = nil
		}
	}

	putNumber("price_usd", f.PriceUSD, parseInt)
	putText("brand", f.Brand)
	putText("model", f.Model)
	putNumber("year", f.Year, parseInt)
	putText("size", f.Size)
	if st := StateCode(f.State); st != "" {
		p["state"] = st
	}
	putText("zip", f.Zip)
	putText("wheel_size", f.WheelSize)
	putText("condition", f.Condition)
	putText("description", f.Description)
	putNumber("frame_size_in", f.FrameSizeIn, parseInt)
	putNumber("rider_height_min_in", f.RiderHeightMinIn, parseInt)
	putNumber("rider_height_max_in", f.RiderHeightMaxIn, parseInt)
	putText("bike_type", f.BikeType)
	putText("frame_material", f.FrameMaterial)
	putText("drivetrain_rear", f.DrivetrainRear)
	putText("brakes_model", f.BrakesModel)
	putText("saddle", f.Saddle)
	putNumber("weight_lb", f.WeightLb, parseFloat)
	return p
}

// StateCode upper-cases s and keeps its first two characters, the form a
// listing's state is stored and filtered in.
func StateCode(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s[:min(2, len(s))]
}

// Integer columns take whole numbers; a decimal entry is rounded down.
func parseInt(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < math.MinInt || f >= math.MaxInt {
		return nil, false
	}
	return int(f), true
}

func parseFloat(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func text(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intText(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func floatText(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
