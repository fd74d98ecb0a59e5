package weather

import "github.com/i474232898/weather-dashboard/internal/common"

// Background is the normalized scene a surface paints behind the current conditions.
type Background string

const (
	BackgroundNight  Background = "night"
	BackgroundRainy  Background = "rainy"
	BackgroundCloudy Background = "cloudy"
	BackgroundSunny  Background = "sunny"
)

// ClassifyBackground maps a WeatherAPI condition code and text to a Background.
// Night always wins; otherwise precipitation, then cloud and fog, then sunny.
func ClassifyBackground(code int, text string, isDay bool) Background {
	if !isDay {
		return BackgroundNight
	}

	switch {
	case common.InRange(code, 1063, 1171),
		common.InRange(code, 1180, 1201),
		common.InRange(code, 1240, 1246),
		common.HasAny(text, "rain", "drizzle", "sleet"):
		return BackgroundRainy
	case common.InRange(code, 1003, 1030),
		common.InRange(code, 1135, 1147),
		common.HasAny(text, "cloud", "overcast"):
		return BackgroundCloudy
	default:
		return BackgroundSunny
	}
}
