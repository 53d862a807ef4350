// Package estimate derives a completion estimate for a processing container.
package estimate

import (
	"fmt"
	"math"

	"furnacesplit.ai/internal/sim/split"
)

// ReferenceTemperature normalizes the oven temperature to the base burn rate.
const ReferenceTemperature = 200.0

type Estimate struct {
	ETASeconds  float64 `json:"eta_seconds"`
	FuelNeeded  float64 `json:"fuel_needed"`
	SlowestItem string  `json:"slowest_item,omitempty"`
}

// Compute finds the slowest-finishing processable stack in oven and derives the
// seconds to completion and the fuel units needed to get there.
//
// Per material only the largest stack counts: stacks of one type cook in
// parallel, so the fullest one is the bottleneck.
func Compute(oven split.Oven, mats split.Materials) Estimate {
	var out Estimate
	if oven == nil {
		return out
	}
	temp := oven.Temperature()

	largest := map[string]int{}
	order := []string{}
	for i := 0; i < oven.Capacity(); i++ {
		s, ok := oven.Slot(i)
		if !ok {
			continue
		}
		m, ok := mats.Material(s.Item)
		if !ok || !m.Cook.CanCook(temp) {
			continue
		}
		prev, seen := largest[s.Item]
		if !seen {
			order = append(order, s.Item)
		}
		if s.Amount > prev {
			largest[s.Item] = s.Amount
		}
	}

	for _, item := range order {
		m, _ := mats.Material(item)
		secs := m.Cook.CookTime * float64(largest[item])
		if secs > out.ETASeconds {
			out.ETASeconds = secs
			out.SlowestItem = item
		}
	}
	if out.ETASeconds <= 0 {
		return Estimate{}
	}

	fuel, ok := mats.Material(oven.FuelItem())
	if !ok || fuel.Burn == nil || fuel.Burn.FuelAmount <= 0 {
		return out
	}
	out.FuelNeeded = math.Ceil(out.ETASeconds * (temp / ReferenceTemperature) / fuel.Burn.FuelAmount)
	return out
}

// FormatETA renders seconds as "12s", "3m5s" or "1h2m3s".
func FormatETA(totalSeconds float64) string {
	if totalSeconds <= 0 {
		return "0s"
	}
	hours := math.Floor(totalSeconds / 3600)
	minutes := math.Floor(math.Mod(totalSeconds/60, 60))
	seconds := math.Mod(totalSeconds, 60)

	sec := formatSeconds(seconds)
	switch {
	case hours <= 0 && minutes <= 0:
		return sec + "s"
	case hours <= 0:
		return fmt.Sprintf("%.0fm%ss", minutes, sec)
	default:
		return fmt.Sprintf("%.0fh%.0fm%ss", hours, minutes, sec)
	}
}

func formatSeconds(s float64) string {
	if s == math.Trunc(s) {
		return fmt.Sprintf("%.0f", s)
	}
	return fmt.Sprintf("%.1f", s)
}
