package query

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weatherapi"
)

// Endpoint names. They prefix every cache key.
const (
	EndpointCurrentWeather    = "getCurrentWeather"
	EndpointForecast          = "getForecast"
	EndpointSearchLocation    = "searchLocation"
	EndpointHistoricalWeather = "getHistoricalWeather"
	EndpointAstronomy         = "getAstronomy"
	EndpointMarineWeather     = "getMarineWeather"
	EndpointAirQuality        = "getAirQuality"
)

// Day counts used when a caller passes zero.
const (
	DefaultForecastDays = 7
	DefaultMarineDays   = 1
)

// Request names one query: an endpoint and its parameters.
type Request struct {
	Endpoint string
	Params   Params
}

// Key returns the request's cache key.
func (r Request) Key() (string, error) {
	return Key(r.Endpoint, r.Params)
}

func CurrentWeather(location string) Request {
	return Request{Endpoint: EndpointCurrentWeather, Params: Params{"location": location}}
}

// Forecast asks for days of forecast. The service supports 1-10 and rejects
// anything else; no local range check is made.
func Forecast(location string, days int) Request {
	if days == 0 {
		days = DefaultForecastDays
	}
	return Request{Endpoint: EndpointForecast, Params: Params{"location": location, "days": days}}
}

// SearchLocation looks up autocomplete candidates. Callers should not issue it
// until the text is longer than two characters.
func SearchLocation(text string) Request {
	return Request{Endpoint: EndpointSearchLocation, Params: Params{"q": text}}
}

// HistoricalWeather asks for one past day; date is YYYY-MM-DD.
func HistoricalWeather(location, date string) Request {
	return Request{Endpoint: EndpointHistoricalWeather, Params: Params{"location": location, "date": date}}
}

func Astronomy(location, date string) Request {
	return Request{Endpoint: EndpointAstronomy, Params: Params{"location": location, "date": date}}
}

func MarineWeather(location string, days int) Request {
	if days == 0 {
		days = DefaultMarineDays
	}
	return Request{Endpoint: EndpointMarineWeather, Params: Params{"location": location, "days": days}}
}

// AirQuality is derived from the current conditions call.
func AirQuality(location string) Request {
	return Request{Endpoint: EndpointAirQuality, Params: Params{"location": location}}
}

// Remote is the service the endpoints call.
type Remote interface {
	Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
}

// API exposes the weather operations on top of a Manager.
type API struct {
	m *Manager
}

// NewAPI registers the weather endpoints on m, all served by remote.
func NewAPI(m *Manager, remote Remote) *API {
	a := &API{m: m}

	m.Register(EndpointCurrentWeather, remoteFetcher(remote, weatherapi.PathCurrent, func(p Params, v url.Values) {
		v.Set("q", param(p, "location"))
		v.Set("aqi", "yes")
	}))
	m.Register(EndpointForecast, remoteFetcher(remote, weatherapi.PathForecast, func(p Params, v url.Values) {
		v.Set("q", param(p, "location"))
		v.Set("days", param(p, "days"))
		v.Set("aqi", "yes")
		v.Set("alerts", "yes")
	}))
	m.Register(EndpointSearchLocation, remoteFetcher(remote, weatherapi.PathSearch, func(p Params, v url.Values) {
		v.Set("q", param(p, "q"))
	}))
	m.Register(EndpointHistoricalWeather, remoteFetcher(remote, weatherapi.PathHistory, func(p Params, v url.Values) {
		v.Set("q", param(p, "location"))
		v.Set("dt", param(p, "date"))
	}))
	m.Register(EndpointAstronomy, remoteFetcher(remote, weatherapi.PathAstronomy, func(p Params, v url.Values) {
		v.Set("q", param(p, "location"))
		v.Set("dt", param(p, "date"))
	}))
	m.Register(EndpointMarineWeather, remoteFetcher(remote, weatherapi.PathMarine, func(p Params, v url.Values) {
		v.Set("q", param(p, "location"))
		v.Set("days", param(p, "days"))
	}))
	m.Register(EndpointAirQuality, a.fetchAirQuality)

	return a
}

func remoteFetcher(remote Remote, path string, build func(Params, url.Values)) Fetcher {
	return func(ctx context.Context, params Params) (json.RawMessage, error) {
		values := url.Values{}
		build(params, values)
		return remote.Get(ctx, path, values)
	}
}

func param(p Params, name string) string {
	v, ok := p[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// fetchAirQuality revalidates the current conditions for the same location,
// sharing that key's in-flight call, and narrows the payload.
func (a *API) fetchAirQuality(ctx context.Context, params Params) (json.RawMessage, error) {
	res := a.m.Refetch(ctx, EndpointCurrentWeather, Params{"location": param(params, "location")})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.Status != StatusSuccess {
		return nil, &weather.APIError{Kind: weather.KindTransport, Message: "current conditions did not settle"}
	}
	return NarrowAirQuality(res.Data)
}

// NarrowAirQuality extracts current.air_quality from a current conditions
// payload, byte for byte.
func NarrowAirQuality(data json.RawMessage) (json.RawMessage, error) {
	var payload struct {
		Current *struct {
			AirQuality json.RawMessage `json:"air_quality"`
		} `json:"current"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &weather.APIError{Kind: weather.KindTransport, Message: "decode current conditions: " + err.Error(), Err: err}
	}
	if payload.Current == nil || len(payload.Current.AirQuality) == 0 || string(payload.Current.AirQuality) == "null" {
		return nil, &weather.APIError{Kind: weather.KindEmpty, Message: "no air quality data for location"}
	}
	return payload.Current.AirQuality, nil
}

// Manager returns the underlying cache manager.
func (a *API) Manager() *Manager {
	return a.m
}

// Do resolves r from cache or network.
func (a *API) Do(ctx context.Context, r Request) Result {
	return a.m.Query(ctx, r.Endpoint, r.Params)
}

// Refetch forces revalidation of r.
func (a *API) Refetch(ctx context.Context, r Request) Result {
	return a.m.Refetch(ctx, r.Endpoint, r.Params)
}

// Peek returns the cached state of r without fetching.
func (a *API) Peek(r Request) Result {
	return a.m.Peek(r.Endpoint, r.Params)
}

// Watch mounts r and reports its state changes to fn.
func (a *API) Watch(r Request, fn Listener) (*Subscription, error) {
	return a.m.Subscribe(r.Endpoint, r.Params, fn)
}

func (a *API) GetCurrentWeather(ctx context.Context, location string) Result {
	return a.Do(ctx, CurrentWeather(location))
}

func (a *API) GetForecast(ctx context.Context, location string, days int) Result {
	return a.Do(ctx, Forecast(location, days))
}

func (a *API) SearchLocation(ctx context.Context, text string) Result {
	return a.Do(ctx, SearchLocation(text))
}

func (a *API) GetHistoricalWeather(ctx context.Context, location, date string) Result {
	return a.Do(ctx, HistoricalWeather(location, date))
}

func (a *API) GetAstronomy(ctx context.Context, location, date string) Result {
	return a.Do(ctx, Astronomy(location, date))
}

func (a *API) GetMarineWeather(ctx context.Context, location string, days int) Result {
	return a.Do(ctx, MarineWeather(location, days))
}

func (a *API) GetAirQuality(ctx context.Context, location string) Result {
	return a.Do(ctx, AirQuality(location))
}
