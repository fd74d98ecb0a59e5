package query_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/query"
	"github.com/i474232898/weather-dashboard/internal/weatherapi"
)

func TestKeyIsOrderIndependentAndTyped(t *testing.T) {
	a := query.Params{}
	a["location"] = "Rome"
	a["days"] = 7
	b := query.Params{}
	b["days"] = 7
	b["location"] = "Rome"

	ka, err := query.Key("getForecast", a)
	require.NoError(t, err)
	kb, err := query.Key("getForecast", b)
	require.NoError(t, err)
	assert.Equal(t, ka, kb)
	assert.Equal(t, `getForecast({"days":7,"location":"Rome"})`, ka)

	kc, err := query.Key("getForecast", query.Params{"location": "Rome", "days": "7"})
	require.NoError(t, err)
	assert.NotEqual(t, ka, kc)

	kd, err := query.Key("getMarineWeather", a)
	require.NoError(t, err)
	assert.NotEqual(t, ka, kd)

	nested1, _ := query.Key("x", query.Params{"p": map[string]any{"b": 1, "a": 2}})
	nested2, _ := query.Key("x", query.Params{"p": map[string]any{"a": 2, "b": 1}})
	assert.Equal(t, nested1, nested2)

	_, err = query.Key("x", query.Params{"bad": make(chan int)})
	assert.Error(t, err)
}

type recorder struct {
	mu   sync.Mutex
	seen []query.Status
}

func (r *recorder) listen(res query.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, res.Status)
}

func (r *recorder) statuses() []query.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]query.Status(nil), r.seen...)
}

func TestSubscribeFetchesAndNotifies(t *testing.T) {
	remote := newFakeRemote()
	api := newAPI(t, remote)
	rec := &recorder{}

	sub, err := api.Watch(query.CurrentWeather("Paris"), rec.listen)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.Eventually(t, func() bool {
		return len(rec.statuses()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, query.StatusSuccess, sub.Result().Status)
	assert.Equal(t, []query.Status{query.StatusLoading, query.StatusSuccess}, rec.statuses())
	assert.Equal(t, 1, remote.count(weatherapi.PathCurrent))

	res := sub.Refetch(context.Background())
	assert.Equal(t, query.StatusSuccess, res.Status)
	assert.Equal(t, 2, remote.count(weatherapi.PathCurrent))
	assert.Equal(t, []query.Status{
		query.StatusLoading, query.StatusSuccess,
		query.StatusLoading, query.StatusSuccess,
	}, rec.statuses())
}

func TestSubscribeToCachedQueryDoesNotFetch(t *testing.T) {
	remote := newFakeRemote()
	api := newAPI(t, remote)
	api.GetCurrentWeather(context.Background(), "Paris")

	sub, err := api.Watch(query.CurrentWeather("Paris"), nil)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	assert.Equal(t, query.StatusSuccess, sub.Result().Status)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, remote.count(weatherapi.PathCurrent))
}

func TestRevalidateOnlyTouchesMountedQueries(t *testing.T) {
	remote := newFakeRemote()
	api := newAPI(t, remote)
	ctx := context.Background()

	api.GetForecast(ctx, "Rome", 3)
	api.GetCurrentWeather(ctx, "Paris")
	sub, err := api.Watch(query.CurrentWeather("Paris"), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{`getCurrentWeather({"location":"Paris"})`}, api.Manager().Mounted())
	assert.Equal(t, 1, api.Manager().Revalidate(ctx))
	assert.Equal(t, 2, remote.count(weatherapi.PathCurrent))
	assert.Equal(t, 1, remote.count(weatherapi.PathForecast))

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Empty(t, api.Manager().Mounted())
	assert.Equal(t, 0, api.Manager().Revalidate(ctx))
}

func TestUnsubscribedListenerIsNotNotified(t *testing.T) {
	remote := newFakeRemote()
	gate := remote.block()
	api := newAPI(t, remote)
	rec := &recorder{}

	sub, err := api.Watch(query.CurrentWeather("Paris"), rec.listen)
	require.NoError(t, err)
	waitStarted(t, remote)
	sub.Unsubscribe()
	close(gate)

	require.Eventually(t, func() bool {
		return api.Peek(query.CurrentWeather("Paris")).Status == query.StatusSuccess
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []query.Status{query.StatusLoading}, rec.statuses())
}

func TestFocusEventsAreCoalesced(t *testing.T) {
	remote := newFakeRemote()
	api := newAPI(t, remote)
	ctx := context.Background()

	api.GetCurrentWeather(ctx, "Paris")
	sub, err := api.Watch(query.CurrentWeather("Paris"), nil)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	gate := remote.block()
	var wg sync.WaitGroup
	counts := make([]int, 2)
	for i := range counts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counts[i] = api.Manager().OnFocus(ctx)
		}(i)
		if i == 0 {
			waitStarted(t, remote)
		}
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, []int{1, 1}, counts)
	assert.Equal(t, 2, remote.count(weatherapi.PathCurrent), "one initial fetch plus one revalidation")

	// A later event is a new round.
	assert.Equal(t, 1, api.Manager().OnReconnect(ctx))
	assert.Equal(t, 3, remote.count(weatherapi.PathCurrent))
}

func TestDisabledTriggersDoNothing(t *testing.T) {
	remote := newFakeRemote()
	api := newAPI(t, remote, query.WithRefetchOnFocus(false), query.WithRefetchOnReconnect(false))
	ctx := context.Background()

	api.GetCurrentWeather(ctx, "Paris")
	sub, err := api.Watch(query.CurrentWeather("Paris"), nil)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	assert.Equal(t, 0, api.Manager().OnFocus(ctx))
	assert.Equal(t, 0, api.Manager().OnReconnect(ctx))
	assert.Equal(t, 1, remote.count(weatherapi.PathCurrent))
}

func TestRevalidatingAirQualityRefreshesCurrent(t *testing.T) {
	remote := newFakeRemote()
	api := newAPI(t, remote, query.WithWorkers(2))
	ctx := context.Background()

	api.GetAirQuality(ctx, "Tokyo")
	sub, err := api.Watch(query.AirQuality("Tokyo"), nil)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	assert.Equal(t, 1, api.Manager().Revalidate(ctx))
	assert.Equal(t, 2, remote.count(weatherapi.PathCurrent))
	assert.Equal(t, query.StatusSuccess, sub.Result().Status)
}
