package weather

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ConvertTemperature converts temp between units. Unknown unit pairs return temp unchanged.
func ConvertTemperature(temp float64, from, to Unit) float64 {
	switch {
	case from == to:
		return temp
	case from == UnitCelsius && to == UnitFahrenheit:
		return temp*9/5 + 32
	case from == UnitFahrenheit && to == UnitCelsius:
		return (temp - 32) * 5 / 9
	default:
		return temp
	}
}

// FormatTemperature renders a Celsius reading in the requested unit, e.g. "21°C".
func FormatTemperature(tempC float64, unit Unit) string {
	if unit != UnitFahrenheit {
		unit = UnitCelsius
	}
	v := ConvertTemperature(tempC, UnitCelsius, unit)
	return fmt.Sprintf("%d°%s", roundHalfUp(v), strings.ToUpper(string(unit)))
}

// roundHalfUp rounds .5 towards positive infinity, so -2.5 becomes -2.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Air quality bands on the US EPA 0-500 scale.
const (
	AQIGood                        = "Good"
	AQIModerate                    = "Moderate"
	AQIUnhealthyForSensitiveGroups = "Unhealthy for Sensitive Groups"
	AQIUnhealthy                   = "Unhealthy"
	AQIVeryUnhealthy               = "Very Unhealthy"
	AQIHazardous                   = "Hazardous"
)

// AirQualityLevel names the band an AQI value falls into.
func AirQualityLevel(aqi int) string {
	switch {
	case aqi <= 50:
		return AQIGood
	case aqi <= 100:
		return AQIModerate
	case aqi <= 150:
		return AQIUnhealthyForSensitiveGroups
	case aqi <= 200:
		return AQIUnhealthy
	case aqi <= 300:
		return AQIVeryUnhealthy
	default:
		return AQIHazardous
	}
}

type aqiBreakpoint struct {
	concLo, concHi float64
	aqiLo, aqiHi   float64
}

// PM2.5 breakpoints (μg/m3) as used by the air quality surface.
var pm25Breakpoints = []aqiBreakpoint{
	{0, 12, 0, 50},
	{12.1, 35.4, 51, 101},
	{35.5, 55.4, 101, 151},
	{55.5, 150.4, 151, 201},
	{150.5, 250.4, 201, 251},
	{250.5, 500.4, 301, 401},
}

// PM25ToAQI estimates the AQI from a PM2.5 concentration by linear
// interpolation inside its breakpoint band.
func PM25ToAQI(pm25 float64) int {
	if pm25 < 0 {
		pm25 = 0
	}
	for _, bp := range pm25Breakpoints {
		if pm25 <= bp.concHi {
			frac := (pm25 - bp.concLo) / (bp.concHi - bp.concLo)
			return roundHalfUp(frac*(bp.aqiHi-bp.aqiLo) + bp.aqiLo)
		}
	}
	last := pm25Breakpoints[len(pm25Breakpoints)-1]
	frac := (pm25 - last.concLo) / (last.concHi - last.concLo)
	return roundHalfUp(frac*(last.aqiHi-last.aqiLo) + last.aqiLo)
}

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// WindDirection maps a bearing in degrees to an 8-point compass label.
func WindDirection(degree float64) string {
	i := roundHalfUp(degree/45) % len(compassPoints)
	if i < 0 {
		i += len(compassPoints)
	}
	return compassPoints[i]
}

// DateRange returns the YYYY-MM-DD bounds of the window ending at now and
// starting days earlier.
func DateRange(now time.Time, days int) (start, end string) {
	now = now.UTC()
	return now.AddDate(0, 0, -days).Format(DateLayout), now.Format(DateLayout)
}

// FormatPrecipitation renders an amount with its unit, e.g. "1.2 mm".
func FormatPrecipitation(amount float64, unit string) string {
	if unit == "" {
		unit = "mm"
	}
	return fmt.Sprintf("%g %s", amount, unit)
}

// FormatWindSpeed renders a speed with its unit, e.g. "14 kph".
func FormatWindSpeed(speed float64, unit string) string {
	if unit == "" {
		unit = "kph"
	}
	return fmt.Sprintf("%g %s", speed, unit)
}
