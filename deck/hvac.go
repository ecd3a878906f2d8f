package deck

import (
	"fmt"

	"github.com/bldgsim/beosim/log"
	"github.com/bldgsim/beosim/paramassign"
)

// ComposeHVAC implements the ideal-loads HVAC subsystem contract of
// spec.md §4.4: ensure ScheduleTypeLimits, a dual-setpoint zone
// thermostat with a control-type schedule fixed at value 4, an
// IdealLoadsAirSystem wired to PA's supply-air limits, equipment
// connections/list, and a supply NodeList per zone. The heat-recovery
// setting and the DSOA linkage come from the ventilation-resolved
// subsystem: vent's system_type "D" turns heat recovery on (with
// vent's hrv_eff as its effectiveness) and links the single shared
// DesignSpecification:OutdoorAir object ComposeVentilation has
// already written.
func ComposeHVAC(d *Deck, zones []ZoneInfo, resolved, vent *paramassign.ResolvedSubsystem, availScheduleName string, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	ensureScheduleTypeLimits(d, "Temperature")
	ensureScheduleTypeLimits(d, "ControlType")
	ensureScheduleTypeLimits(d, "Fraction")

	heatingSAT := resolved.Values["supply_air_temp_heating"].ChosenValue
	coolingSAT := resolved.Values["supply_air_temp_cooling"].ChosenValue
	hrvType := ""
	hrvEff := 0.0
	if vent != nil {
		hrvType = vent.Discrete["system_type"]
		hrvEff = vent.Values["hrv_eff"].ChosenValue
	}

	ctrlSchedName := "Always_4_ControlType"
	if _, ok := d.Get("SCHEDULE:COMPACT", ctrlSchedName); !ok {
		ctrl := NewObject("SCHEDULE:COMPACT", ctrlSchedName)
		ctrl.SetField("Schedule Type Limits Name", "ControlType")
		// positional fields carry the schedule grammar verbatim so the
		// writer emits the exact Through/For/Until lines.
		ctrl.SetField("field_1", "Through: 12/31")
		ctrl.SetField("field_2", "For: AllDays")
		ctrl.SetField("field_3", "Until: 24:00,4")
		if err := d.Add(ctrl); err != nil {
			return err
		}
	}

	for _, z := range zones {
		dualSP := NewObject("THERMOSTATSETPOINT:DUALSETPOINT", fmt.Sprintf("%s_DualSP", z.Name))
		dualSP.SetField("Heating Setpoint Temperature Schedule Name", fmt.Sprintf("%s_Heating_SP", z.Name))
		dualSP.SetField("Cooling Setpoint Temperature Schedule Name", fmt.Sprintf("%s_Cooling_SP", z.Name))
		if err := d.Add(dualSP); err != nil {
			return err
		}

		thermostat := NewObject("ZONECONTROL:THERMOSTAT", fmt.Sprintf("%s_Thermostat", z.Name))
		thermostat.SetField("Zone or ZoneList Name", z.Name)
		thermostat.SetField("Control Type Schedule Name", ctrlSchedName)
		thermostat.SetField("Control 1 Object Type", "ThermostatSetpoint:DualSetpoint")
		thermostat.SetField("Control 1 Name", dualSP.Name)
		if err := d.Add(thermostat); err != nil {
			return err
		}

		ideal := NewObject("ZONEHVAC:IDEALLOADSAIRSYSTEM", fmt.Sprintf("%s_IdealLoads", z.Name))
		ideal.SetField("Availability Schedule Name", availScheduleName)
		ideal.SetField("Zone Supply Air Node Name", fmt.Sprintf("%s_Supply_Node", z.Name))
		ideal.SetField("Maximum Heating Supply Air Temperature", formatFloat(heatingSAT))
		ideal.SetField("Minimum Cooling Supply Air Temperature", formatFloat(coolingSAT))
		ideal.SetField("Heating Limit", "NoLimit")
		ideal.SetField("Cooling Limit", "NoLimit")
		ideal.SetField("Heat Recovery Type", hrvTypeToField(hrvType))
		if hrvType == "D" {
			ideal.SetField("Sensible Heat Recovery Effectiveness", formatFloat(hrvEff))
			dsoa, ok := d.Get("DESIGNSPECIFICATION:OUTDOORAIR", "Shared_DSOA")
			if !ok {
				logger.Warn("deck: ideal loads references missing shared DSOA", map[string]any{"zone": z.Name})
			} else {
				ideal.SetField("Design Specification Outdoor Air Object Name", dsoa.Name)
			}
		}
		if err := d.Add(ideal); err != nil {
			return err
		}

		equipList := NewObject("ZONEHVAC:EQUIPMENTLIST", fmt.Sprintf("%s_EquipList", z.Name))
		equipList.SetField("Zone Equipment 1 Object Type", "ZoneHVAC:IdealLoadsAirSystem")
		equipList.SetField("Zone Equipment 1 Name", ideal.Name)
		if err := d.Add(equipList); err != nil {
			return err
		}

		equipConn := NewObject("ZONEHVAC:EQUIPMENTCONNECTIONS", fmt.Sprintf("%s_EquipConn", z.Name))
		equipConn.SetField("Zone Name", z.Name)
		equipConn.SetField("Zone Conditioning Equipment List Name", equipList.Name)
		equipConn.SetField("Zone Air Inlet Node or NodeList Name", fmt.Sprintf("%s_Supply_Node", z.Name))
		if err := d.Add(equipConn); err != nil {
			return err
		}

		nodeList := NewObject("NODELIST", fmt.Sprintf("%s_Supply_NodeList", z.Name))
		nodeList.SetField("Node 1 Name", fmt.Sprintf("%s_Supply_Node", z.Name))
		if err := d.Add(nodeList); err != nil {
			return err
		}
	}
	return nil
}

func hrvTypeToField(systemType string) string {
	if systemType == "D" {
		return "Sensible"
	}
	return "None"
}

func ensureScheduleTypeLimits(d *Deck, kind string) {
	if _, ok := d.Get("SCHEDULETYPELIMITS", kind); ok {
		return
	}
	o := NewObject("SCHEDULETYPELIMITS", kind)
	switch kind {
	case "Temperature":
		o.SetField("Lower Limit Value", "-60")
		o.SetField("Upper Limit Value", "70")
		o.SetField("Numeric Type", "Continuous")
		o.SetField("Unit Type", "Temperature")
	case "ControlType":
		o.SetField("Lower Limit Value", "0")
		o.SetField("Upper Limit Value", "4")
		o.SetField("Numeric Type", "Discrete")
	case "Fraction":
		o.SetField("Lower Limit Value", "0")
		o.SetField("Upper Limit Value", "1")
		o.SetField("Numeric Type", "Continuous")
	}
	_ = d.Add(o)
}
