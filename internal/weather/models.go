package weather

// DateLayout is the YYYY-MM-DD layout used for the dt parameter and the selected date.
const DateLayout = "2006-01-02"

// Unit is the temperature unit used for presentation. The remote service always
// returns both, so the unit never changes request parameters.
type Unit string

const (
	UnitCelsius    Unit = "c"
	UnitFahrenheit Unit = "f"
)

// Theme is the dashboard colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ViewMode selects the active display surface.
type ViewMode string

const (
	ViewCurrent    ViewMode = "current"
	ViewForecast   ViewMode = "forecast"
	ViewHistorical ViewMode = "historical"
	ViewAirQuality ViewMode = "airquality"
	ViewAstronomy  ViewMode = "astronomy"
	ViewMap        ViewMode = "map"
)

var viewModes = []ViewMode{
	ViewCurrent,
	ViewForecast,
	ViewHistorical,
	ViewAirQuality,
	ViewAstronomy,
	ViewMap,
}

// ViewModes returns the recognised view modes in menu order.
func ViewModes() []ViewMode {
	out := make([]ViewMode, len(viewModes))
	copy(out, viewModes)
	return out
}

// Valid reports whether v is one of the recognised view modes.
func (v ViewMode) Valid() bool {
	for _, m := range viewModes {
		if m == v {
			return true
		}
	}
	return false
}

// AirQuality mirrors the air_quality object of the current conditions payload.
// Pollutant concentrations are in μg/m3.
type AirQuality struct {
	CO           float64 `json:"co"`
	NO2          float64 `json:"no2"`
	O3           float64 `json:"o3"`
	SO2          float64 `json:"so2"`
	PM25         float64 `json:"pm2_5"`
	PM10         float64 `json:"pm10"`
	USEPAIndex   int     `json:"us-epa-index"`
	GBDefraIndex int     `json:"gb-defra-index"`
}

// CurrentSummary is the handful of current-condition fields the dashboard
// formats itself; the rest of the payload is passed through untouched.
type CurrentSummary struct {
	Location struct {
		Name    string  `json:"name"`
		Country string  `json:"country"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	} `json:"location"`
	Current struct {
		TempC      float64 `json:"temp_c"`
		FeelsLikeC float64 `json:"feelslike_c"`
		IsDay      int     `json:"is_day"`
		WindKph    float64 `json:"wind_kph"`
		WindDegree float64 `json:"wind_degree"`
		PrecipMm   float64 `json:"precip_mm"`
		Condition  struct {
			Text string `json:"text"`
			Code int    `json:"code"`
		} `json:"condition"`
	} `json:"current"`
}
