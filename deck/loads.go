package deck

import (
	"fmt"

	"github.com/bldgsim/beosim/paramassign"
)

// ComposeLoads rewrites the object fields for the non-HVAC,
// non-ventilation subsystems DC owns: lighting, electric equipment,
// DHW, fenestration, and shading. Parameter keys are canonical
// registry names (spec.md §4.4, §6).
func ComposeLoads(d *Deck, zones []ZoneInfo, lighting, equipment, dhw, fenestration, shading *paramassign.ResolvedSubsystem) error {
	for _, z := range zones {
		if lighting != nil {
			lpd := lighting.Values["lighting_power_density"].ChosenValue
			obj := NewObject("LIGHTS", fmt.Sprintf("%s_Lights", z.Name))
			obj.SetField("Zone or ZoneList Name", z.Name)
			obj.SetField("Design Level Calculation Method", "Watts/Area")
			obj.SetField("Watts per Zone Floor Area", formatFloat(lpd))
			if err := d.Add(obj); err != nil {
				return err
			}
		}
		if equipment != nil {
			epd := equipment.Values["equipment_power_density"].ChosenValue
			obj := NewObject("ELECTRICEQUIPMENT", fmt.Sprintf("%s_Equip", z.Name))
			obj.SetField("Zone or ZoneList Name", z.Name)
			obj.SetField("Design Level Calculation Method", "Watts/Area")
			obj.SetField("Watts per Zone Floor Area", formatFloat(epd))
			if err := d.Add(obj); err != nil {
				return err
			}
		}
	}

	if dhw != nil {
		eff := dhw.Values["dhw_efficiency"].ChosenValue
		obj := NewObject("WATERHEATER:MIXED", "Building_DHW")
		obj.SetField("Heater Thermal Efficiency", formatFloat(eff))
		if err := d.Add(obj); err != nil {
			return err
		}
	}

	if fenestration != nil {
		uFactor := fenestration.Values["window_u_factor"].ChosenValue
		for _, win := range d.ByType("WINDOWMATERIAL:SIMPLEGLAZINGSYSTEM") {
			win.SetField("U-Factor", formatFloat(uFactor))
		}
	}

	if shading != nil {
		setpoint := shading.Values["shading_setpoint"].ChosenValue
		for _, sh := range d.ByType("WINDOWSHADINGCONTROL") {
			sh.SetField("Setpoint", formatFloat(setpoint))
		}
	}
	return nil
}
