package staffing

import (
	"regexp"
	"strconv"
	"strings"
)

// HoursPerWeek is the full-time baseline: 1.0 FTE equals 40 hours/week.
const HoursPerWeek = 40.0

// HoursToFTEPct converts total engagement hours to an FTE percentage.
// The conversion needs the project duration; without it the answer is
// unknown, not zero.
func HoursToFTEPct(hours float64, durationWeeks int) (float64, bool) {
	if durationWeeks <= 0 {
		return 0, false
	}
	weekly := hours / float64(durationWeeks)
	return weekly / HoursPerWeek * 100.0, true
}

// FTEPctToHours converts an FTE percentage to total engagement hours.
func FTEPctToHours(pct float64, durationWeeks int) (float64, bool) {
	if durationWeeks <= 0 {
		return 0, false
	}
	return pct / 100.0 * HoursPerWeek * float64(durationWeeks), true
}

var (
	pctHintRe     = regexp.MustCompile(`(?i)\b(\d{1,3}(?:\.\d+)?)\s*%`)
	fteHintRe     = regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d+)?|\.\d+)\s*%?\s*fte\b`)
	hoursHintRe   = regexp.MustCompile(`(?i)\b(\d{1,4}(?:\.\d+)?)\s*(?:hours|hrs|hr)\b`)
	weeklyHoursRe = regexp.MustCompile(`(?i)\b(\d{1,3}(?:\.\d+)?)\s*(?:hours|hrs|hr)\s*(?:/|per\s+)(?:week|wk)\b`)
)

// ParseAllocationHint pulls an allocation out of free contract text such
// as "50% FTE", "0.25 FTE", "10 hrs/week" or "600 hours". Percentage and
// FTE forms win over raw hour counts when both appear. A hint that
// carries no recognizable quantity returns ok=false; callers must treat
// that as unknown rather than zero.
func ParseAllocationHint(hint string) (AllocationType, float64, bool) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return "", 0, false
	}

	if m := fteHintRe.FindStringSubmatch(hint); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			// "0.25 FTE" is a fraction of a full FTE; "25 FTE" and
			// "25% FTE" already mean percent.
			if v <= 1.0 && !strings.Contains(m[0], "%") {
				v *= 100.0
			}
			return AllocFTEPct, v, true
		}
	}
	if m := pctHintRe.FindStringSubmatch(hint); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return AllocFTEPct, v, true
		}
	}
	// Weekly hours convert to FTE directly; no duration needed.
	if m := weeklyHoursRe.FindStringSubmatch(hint); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return AllocFTEPct, v / HoursPerWeek * 100.0, true
		}
	}
	if m := hoursHintRe.FindStringSubmatch(hint); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return AllocHours, v, true
		}
	}
	return "", 0, false
}

// ClassifyBillability reads billability signals out of hint text. No
// signal means unknown; the engine never assumes billable.
func ClassifyBillability(text string) Billability {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "non-billable"),
		strings.Contains(t, "non billable"),
		strings.Contains(t, "nonbillable"),
		strings.Contains(t, "pro bono"),
		strings.Contains(t, "internal"):
		return NonBillable
	case strings.Contains(t, "pass-through"),
		strings.Contains(t, "pass through"),
		strings.Contains(t, "passthrough"),
		strings.Contains(t, "out-of-pocket"),
		strings.Contains(t, "out of pocket"),
		strings.Contains(t, "vendor"):
		return PassThrough
	case strings.Contains(t, "billable"):
		return Billable
	}
	return BillabilityUnknown
}
