package deck

import (
	"fmt"
	"math"

	"github.com/bldgsim/beosim/log"
	"github.com/bldgsim/beosim/paramassign"
	"github.com/bldgsim/beosim/registry"
)

// ZoneInfo is the per-zone geometry DC needs to distribute infiltration
// and ventilation flow.
type ZoneInfo struct {
	Name             string
	ExteriorExposed  bool // false => core zone, receives zero infiltration
	FloorAreaM2      float64
}

// InfiltrationRateAt1PaPerM2 reproduces calc_infiltration_rate_at_1Pa_per_m2
// verbatim: apply year_factor at the 10 Pa basis, then convert to a
// 1 Pa basis via the flow exponent. Invalid inputs (negative base/year,
// non-positive exponent) return 0.
func InfiltrationRateAt1PaPerM2(baseAt10Pa, yearFactor, flowExponent float64) float64 {
	if baseAt10Pa < 0 || yearFactor < 0 || flowExponent <= 0 {
		return 0.0
	}
	qv10 := baseAt10Pa * yearFactor
	return qv10 * math.Pow(1.0/10.0, flowExponent)
}

// RequiredVentilationFlowM3S reproduces calc_required_ventilation_flow
// verbatim, including the residential 126 m3/h floor (only enforced
// when f_ctrl > 0) and the non-residential usage-rate table lookup
// (defaulting to 1.0 L/s-m2 for an unrecognized usage key).
func RequiredVentilationFlowM3S(buildingFunction string, fCtrl, floorAreaM2 float64, usageKey string) float64 {
	if floorAreaM2 <= 0 {
		return 0.0
	}
	if fCtrl < 0 {
		fCtrl = 0.0
	}

	var m3h float64
	if buildingFunction == "residential" {
		if fCtrl == 0 {
			return 0.0
		}
		lPerS := registry.ResidentialVentilationBaseLsM2 * floorAreaM2
		designM3H := lPerS * 3.6
		actual := fCtrl * designM3H
		if actual < registry.ResidentialVentilationFloorM3H {
			actual = registry.ResidentialVentilationFloorM3H
		}
		m3h = actual
	} else {
		rate, ok := registry.UsageVentilationRate(usageKey)
		if !ok {
			rate = 1.0
		}
		lPerS := rate * floorAreaM2
		designM3H := lPerS * 3.6
		m3h = fCtrl * designM3H
	}
	return m3h / 3600.0
}

// FanPowerWatts reproduces calc_fan_power verbatim: P = pressure*flow/efficiency,
// with 0 returned for zero flow or an efficiency outside (0, 1].
func FanPowerWatts(fanPressurePa, fanTotalEfficiency, flowRateM3S float64) float64 {
	if fanTotalEfficiency <= 0 || fanTotalEfficiency > 1.0 {
		return 0.0
	}
	if flowRateM3S == 0 {
		return 0.0
	}
	if flowRateM3S < 0 {
		return 0.0
	}
	return (fanPressurePa * flowRateM3S) / fanTotalEfficiency
}

// VentilationDirection is the per-system-type ventilation mode a
// ZoneVentilation:DesignFlowRate object is written with.
type VentilationDirection string

const (
	Natural  VentilationDirection = "Natural"
	Intake   VentilationDirection = "Intake"
	Exhaust  VentilationDirection = "Exhaust"
	Balanced VentilationDirection = "Balanced"
)

// systemTypeDirection maps the discrete system_type choice to its
// ventilation direction, for system types A-C (D is handled entirely
// by IdealLoads + a shared DSOA object, per spec.md §4.4).
var systemTypeDirection = map[string]VentilationDirection{
	"A": Natural,
	"B": Intake,
	"C": Exhaust,
}

// ComposeVentilation implements the Ventilation subsystem contract of
// spec.md §4.4: per-zone infiltration always, per-zone mechanical
// ventilation for system types A-C, and a single shared DSOA object
// for system type D.
func ComposeVentilation(d *Deck, zones []ZoneInfo, resolved *paramassign.ResolvedSubsystem, buildingFunction, usageKey string, flowExponent float64, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	sysType := resolved.Discrete["system_type"]
	infilBase := resolved.Values["infiltration_base"].ChosenValue
	yearFactor := resolved.Values["year_factor"].ChosenValue
	fCtrl := resolved.Values["f_ctrl"].ChosenValue
	fanEff := resolved.Values["fan_total_efficiency"].ChosenValue
	fanPressure := resolved.Values["fan_pressure"].ChosenValue

	totalFloorArea := 0.0
	for _, z := range zones {
		totalFloorArea += z.FloorAreaM2
	}
	totalFlow := RequiredVentilationFlowM3S(buildingFunction, fCtrl, totalFloorArea, usageKey)

	for _, z := range zones {
		infilName := fmt.Sprintf("%s_Infiltration", z.Name)
		infil := NewObject("ZONEINFILTRATION:DESIGNFLOWRATE", infilName)
		infil.SetField("Zone or ZoneList Name", z.Name)
		rate := 0.0
		if z.ExteriorExposed {
			perM2 := InfiltrationRateAt1PaPerM2(infilBase, yearFactor, flowExponent)
			rate = perM2 * z.FloorAreaM2
		}
		infil.SetField("Design Flow Rate", formatFloat(rate))
		infil.SetField("Design Flow Rate Calculation Method", "Flow/Zone")
		if err := d.Add(infil); err != nil {
			return err
		}

		if dir, ok := systemTypeDirection[sysType]; ok {
			zoneShare := 0.0
			if totalFloorArea > 0 {
				zoneShare = totalFlow * (z.FloorAreaM2 / totalFloorArea)
			}
			vent := NewObject("ZONEVENTILATION:DESIGNFLOWRATE", fmt.Sprintf("%s_Ventilation", z.Name))
			vent.SetField("Zone or ZoneList Name", z.Name)
			vent.SetField("Design Flow Rate", formatFloat(zoneShare))
			vent.SetField("Ventilation Type", string(dir))
			fanPower := FanPowerWatts(fanPressure, fanEff, zoneShare)
			vent.SetField("Fan Pressure Rise", formatFloat(fanPressure))
			vent.SetField("Fan Total Efficiency", formatFloat(fanEff))
			vent.SetField("Fan Power", formatFloat(fanPower))
			if err := d.Add(vent); err != nil {
				return err
			}
		}
	}

	if sysType == "D" {
		dsoa := NewObject("DESIGNSPECIFICATION:OUTDOORAIR", "Shared_DSOA")
		dsoa.SetField("Outdoor Air Method", "Flow/Zone")
		dsoa.SetField("Outdoor Air Flow per Zone", formatFloat(totalFlow))
		if err := d.Add(dsoa); err != nil {
			return err
		}
	}

	logger.Debug("deck: composed ventilation", map[string]any{
		"system_type": sysType, "total_flow_m3s": totalFlow, "zones": len(zones),
	})
	return nil
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
