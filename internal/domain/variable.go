package domain

// Variable identifies one of the measured hourly quantities.
type Variable string

const (
	Temperature   Variable = "temperature"
	Humidity      Variable = "humidity"
	Precipitation Variable = "precipitation"
	WindSpeed     Variable = "wind_speed"
)

// Variables lists all supported variables in canonical column order.
var Variables = []Variable{Temperature, Humidity, Precipitation, WindSpeed}

// providerKeys maps each variable to its Open-Meteo hourly series key.
var providerKeys = map[Variable]string{
	Temperature:   "temperature_2m",
	Humidity:      "relative_humidity_2m",
	Precipitation: "precipitation",
	WindSpeed:     "wind_speed_10m",
}

// columns maps each variable to its column name in the persisted dataset.
var columns = map[Variable]string{
	Temperature:   "temperature_c",
	Humidity:      "humidity_pct",
	Precipitation: "precipitation_mm",
	WindSpeed:     "wind_speed_kmh",
}

// ProviderKey returns the Open-Meteo hourly series key for the variable.
func (v Variable) ProviderKey() string { return providerKeys[v] }

// Column returns the persisted column name for the variable.
func (v Variable) Column() string { return columns[v] }

// Known reports whether the variable belongs to the supported set.
func (v Variable) Known() bool {
	_, ok := providerKeys[v]
	return ok
}

// ParseVariable converts a user-supplied name into a Variable.
func ParseVariable(name string) (Variable, error) {
	v := Variable(name)
	if !v.Known() {
		return "", &UnsupportedVariableError{Name: name}
	}
	return v, nil
}

// ValidateVariables checks that the requested set is non-empty and contains
// only known variables. Runs before any network call.
func ValidateVariables(vars []Variable) error {
	if len(vars) == 0 {
		return &ValidationError{Field: "variables", Reason: "at least one variable is required"}
	}
	for _, v := range vars {
		if !v.Known() {
			return &UnsupportedVariableError{Name: string(v)}
		}
	}
	return nil
}
