package registry

// f64 is a small helper for building *float64 literals inline.
func f64(v float64) *float64 { return &v }

// usageVentilationRates is the per-usage-type outdoor-air flow rate in
// L/s per m2 of floor area, keyed by the building's usage function.
// Reproduced verbatim from the original's usage_flow_map_L_s_m2 table
// (see deck/ventilation.go) since several worked flow calculations
// depend on these constants bit-for-bit.
var usageVentilationRates = map[string]float64{
	"office_area_based":    1.0,
	"childcare":            4.8,
	"retail":               0.6,
	"meeting_function":     1.0,
	"healthcare_function":  1.2,
	"sport_function":       1.5,
	"cell_function":        0.8,
	"industrial_function":  0.5,
	"accommodation_function": 0.9,
	"education_function":   1.1,
	"other_use_function":   0.6,
}

// UsageVentilationRate returns the registered outdoor-air flow rate in
// L/s-m2 for a non-residential usage key, and whether it was found.
func UsageVentilationRate(usageKey string) (float64, bool) {
	v, ok := usageVentilationRates[usageKey]
	return v, ok
}

// ResidentialVentilationBaseLsM2 is the flat residential base rate
// used by calc_required_ventilation_flow regardless of sub-type.
const ResidentialVentilationBaseLsM2 = 0.9

// ResidentialVentilationFloorM3H is the post-f_ctrl minimum required
// ventilation flow for residential buildings, in m3/h.
const ResidentialVentilationFloorM3H = 126.0

// DefaultInfiltrationFlowExponent is the exponent used to convert the
// archetype's 10 Pa infiltration base rate to a 1 Pa basis when a
// building-specific value is not supplied.
const DefaultInfiltrationFlowExponent = 0.67

// Default builds the built-in parameter catalog covering every
// subsystem category the deck composer and variant generator touch:
// HVAC, lighting, infiltration, envelope materials, equipment, and
// ventilation. Mirrors _initialize_default_registry's seed set,
// extended with the envelope/DHW/shading categories spec.md names.
func Default() *Registry {
	r := New()

	r.Register(Param{
		Category: "hvac", ObjectType: "COIL:COOLING:DX:SINGLESPEED", FieldName: "Gross Rated COP",
		FieldIndex: 9, DataType: "float", Units: "W/W",
		MinValue: f64(2.0), MaxValue: f64(6.0), DefaultValue: 3.0,
		Description:       "Coefficient of performance at rated conditions",
		PerformanceImpact: "cooling_efficiency",
		Tags:              []string{"efficiency", "cooling", "energy"},
		CodeRequirements:  map[string]map[string]float64{"ASHRAE_90.1": {"2019": 3.0, "2022": 3.2}},
	})
	r.Register(Param{
		Category: "hvac", ObjectType: "ZONEHVAC:IDEALLOADSAIRSYSTEM", FieldName: "Sensible Heat Recovery Effectiveness",
		FieldIndex: 0, DataType: "float", Units: "",
		MinValue: f64(0.0), MaxValue: f64(1.0), DefaultValue: 0.0,
		Description:       "Heat recovery effectiveness (hrv_eff)",
		PerformanceImpact: "heat_recovery",
		Tags:              []string{"hvac", "ventilation", "heat_recovery"},
	})
	r.Register(Param{
		Category: "lighting", ObjectType: "LIGHTS", FieldName: "Watts per Zone Floor Area",
		FieldIndex: 5, DataType: "float", Units: "W/m2",
		MinValue: f64(0.0), MaxValue: f64(30.0), DefaultValue: 10.0,
		Description:       "Lighting power density",
		PerformanceImpact: "lighting_energy",
		Tags:              []string{"lpd", "energy", "lighting"},
		CodeRequirements:  map[string]map[string]float64{"ASHRAE_90.1": {"2019": 8.5, "2022": 7.5}},
	})
	r.Register(Param{
		Category: "infiltration", ObjectType: "ZONEINFILTRATION:DESIGNFLOWRATE", FieldName: "Design Flow Rate",
		FieldIndex: 0, DataType: "float", Units: "m3/s",
		MinValue: f64(0.0), DefaultValue: 0.0,
		Description:       "Zone infiltration design flow rate",
		PerformanceImpact: "infiltration_loads",
		Tags:              []string{"envelope", "air_leakage", "energy"},
	})
	r.Register(Param{
		Category: "infiltration", ObjectType: "ARCHETYPE", FieldName: "infiltration_base",
		FieldIndex: -1, DataType: "float", Units: "m3/h/m2 at 10 Pa",
		MinValue: f64(0.0), MaxValue: f64(5.0), DefaultValue: 0.5,
		Description:       "Infiltration rate at the archetype's reference pressure (10 Pa)",
		PerformanceImpact: "infiltration_loads",
		Tags:              []string{"envelope", "air_leakage"},
	})
	r.Register(Param{
		Category: "materials", ObjectType: "MATERIAL", FieldName: "Conductivity",
		FieldIndex: 3, DataType: "float", Units: "W/m-K",
		MinValue: f64(0.01), MaxValue: f64(5.0),
		Description:       "Material thermal conductivity",
		PerformanceImpact: "thermal_resistance",
		Tags:              []string{"insulation", "envelope", "heat_transfer"},
	})
	r.Register(Param{
		Category: "fenestration", ObjectType: "WINDOWMATERIAL:SIMPLEGLAZINGSYSTEM", FieldName: "U-Factor",
		FieldIndex: 1, DataType: "float", Units: "W/m2-K",
		MinValue: f64(0.5), MaxValue: f64(6.0), DefaultValue: 2.0,
		Description:       "Window U-factor",
		PerformanceImpact: "window_heat_transfer",
		Tags:              []string{"windows", "envelope", "heat_transfer"},
		CodeRequirements:  map[string]map[string]float64{"ASHRAE_90.1": {"2019": 2.8, "2022": 2.5}},
	})
	r.Register(Param{
		Category: "equipment", ObjectType: "ELECTRICEQUIPMENT", FieldName: "Watts per Zone Floor Area",
		FieldIndex: 5, DataType: "float", Units: "W/m2",
		MinValue: f64(0.0), MaxValue: f64(50.0), DefaultValue: 10.0,
		Description:       "Equipment power density",
		PerformanceImpact: "plug_loads",
		Tags:              []string{"equipment", "plug_loads", "energy"},
	})
	r.Register(Param{
		Category: "ventilation", ObjectType: "DESIGNSPECIFICATION:OUTDOORAIR", FieldName: "Outdoor Air Flow per Person",
		FieldIndex: 2, DataType: "float", Units: "m3/s-person",
		MinValue: f64(0.0), MaxValue: f64(0.05), DefaultValue: 0.0025,
		Description:       "Outdoor air ventilation rate per person",
		PerformanceImpact: "outdoor_air_loads",
		Tags:              []string{"iaq", "ventilation", "outdoor_air"},
		CodeRequirements:  map[string]map[string]float64{"ASHRAE_62.1": {"2019": 0.0025}},
	})
	r.Register(Param{
		Category: "ventilation", ObjectType: "ARCHETYPE", FieldName: "f_ctrl",
		FieldIndex: -1, DataType: "float", Units: "",
		MinValue: f64(0.0), MaxValue: f64(1.0), DefaultValue: 1.0,
		Description:       "Dimensionless ventilation control factor",
		PerformanceImpact: "outdoor_air_loads",
		Tags:              []string{"ventilation", "control"},
	})
	r.Register(Param{
		Category: "dhw", ObjectType: "WATERHEATER:MIXED", FieldName: "Heater Thermal Efficiency",
		FieldIndex: 0, DataType: "float", Units: "",
		MinValue: f64(0.5), MaxValue: f64(1.0), DefaultValue: 0.9,
		Description:       "Domestic hot water heater thermal efficiency",
		PerformanceImpact: "dhw_energy",
		Tags:              []string{"dhw", "energy"},
	})
	r.Register(Param{
		Category: "shading", ObjectType: "WINDOWSHADINGCONTROL", FieldName: "Setpoint",
		FieldIndex: 0, DataType: "float", Units: "W/m2",
		MinValue: f64(0.0), MaxValue: f64(1000.0), DefaultValue: 300.0,
		Description:       "Solar irradiance setpoint for shading deployment",
		PerformanceImpact: "solar_gains",
		Tags:              []string{"shading", "envelope"},
	})

	return r
}
