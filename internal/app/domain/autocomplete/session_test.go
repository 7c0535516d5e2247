package autocomplete

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/loci-discovery/internal/app/domain/places"
	"github.com/FACorreiaa/loci-discovery/internal/app/models"
	"github.com/FACorreiaa/loci-discovery/internal/pkg/clock"
)

type fakeProvider struct {
	mu           sync.Mutex
	suggestCalls []places.SuggestRequest
	detailCalls  []detailCall
	suggest      func(req places.SuggestRequest) ([]places.Suggestion, error)
	details      func(id string) (models.GeoPoint, error)
}

type detailCall struct {
	id    string
	token places.SessionToken
}

func (f *fakeProvider) Suggest(_ context.Context, req places.SuggestRequest) ([]places.Suggestion, error) {
	f.mu.Lock()
	f.suggestCalls = append(f.suggestCalls, req)
	f.mu.Unlock()
	if f.suggest == nil {
		return nil, nil
	}
	return f.suggest(req)
}

func (f *fakeProvider) Details(_ context.Context, id string, token places.SessionToken) (models.GeoPoint, error) {
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, detailCall{id: id, token: token})
	f.mu.Unlock()
	if f.details == nil {
		return models.GeoPoint{}, places.ErrNoResults
	}
	return f.details(id)
}

// taskQueue defers provider calls so tests control completion order.
type taskQueue struct {
	tasks []func()
}

func (q *taskQueue) push(f func()) { q.tasks = append(q.tasks, f) }

func (q *taskQueue) runAt(i int) { q.tasks[i]() }

type recorder struct {
	suggestions [][]places.Suggestion
	places      []models.GeoPoint
	errs        []error
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		Suggestions: func(s []places.Suggestion) { r.suggestions = append(r.suggestions, s) },
		Place:       func(p models.GeoPoint) { r.places = append(r.places, p) },
		Error:       func(err error) { r.errs = append(r.errs, err) },
	}
}

type fixture struct {
	session  *Session
	provider *fakeProvider
	clock    *clock.Fake
	rec      *recorder
	queue    *taskQueue
}

// newFixture runs provider calls inline unless deferred is set.
func newFixture(t *testing.T, deferred bool, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		provider: &fakeProvider{},
		clock:    clock.NewFake(time.Unix(0, 0)),
		rec:      &recorder{},
		queue:    &taskQueue{},
	}
	run := func(fn func()) { fn() }
	if deferred {
		run = f.queue.push
	}
	n := 0
	tokens := WithTokenSource(func() places.SessionToken {
		n++
		return places.SessionToken(fmt.Sprintf("tok-%d", n))
	})
	opts = append([]Option{WithClock(f.clock), WithRunner(run), tokens}, opts...)
	f.session = NewSession(f.provider, Config{Countries: []string{"gb", "ua"}}, f.rec.handlers(), nil, opts...)
	t.Cleanup(f.session.Close)
	return f
}

func TestOnFocus_Idempotent(t *testing.T) {
	f := newFixture(t, false)
	assert.Empty(t, f.session.Token())

	f.session.OnFocus()
	first := f.session.Token()
	f.session.OnFocus()

	assert.Equal(t, places.SessionToken("tok-1"), first)
	assert.Equal(t, first, f.session.Token())
}

func TestOnInput_DebouncesToLatestText(t *testing.T) {
	f := newFixture(t, false)
	f.session.OnFocus()

	f.session.OnInput("a")
	f.clock.Advance(200 * time.Millisecond)
	f.session.OnInput("ab")
	assert.Equal(t, Debouncing, f.session.State())

	f.clock.Advance(399 * time.Millisecond)
	assert.Empty(t, f.provider.suggestCalls)

	f.session.OnInput("abc")
	f.clock.Advance(DefaultDebounce)

	require.Len(t, f.provider.suggestCalls, 1)
	assert.Equal(t, "abc", f.provider.suggestCalls[0].Input)
}

func TestOnInput_ShortTextNeverRequests(t *testing.T) {
	f := newFixture(t, false)
	f.session.OnFocus()

	f.session.OnInput("a")
	f.session.OnInput("ab")
	f.clock.Advance(time.Second)

	assert.Empty(t, f.provider.suggestCalls)
	assert.Equal(t, Idle, f.session.State())
}

func TestOnInput_SuggestionsReady(t *testing.T) {
	f := newFixture(t, false)
	f.provider.suggest = func(req places.SuggestRequest) ([]places.Suggestion, error) {
		return []places.Suggestion{{ID: "p1", Label: "London, UK"}}, nil
	}
	f.session.OnFocus()

	f.session.OnInput("Lond")
	f.clock.Advance(DefaultDebounce)

	require.Len(t, f.provider.suggestCalls, 1)
	req := f.provider.suggestCalls[0]
	assert.Equal(t, "Lond", req.Input)
	assert.Equal(t, places.SessionToken("tok-1"), req.Token)
	assert.Equal(t, []string{"gb", "ua"}, req.Countries)

	assert.Equal(t, SuggestionsReady, f.session.State())
	assert.Equal(t, []places.Suggestion{{ID: "p1", Label: "London, UK"}}, f.session.Suggestions())
	assert.Len(t, f.rec.suggestions, 1)
}

func TestOnInput_ReusesTokenAcrossRequests(t *testing.T) {
	f := newFixture(t, false)
	f.session.OnFocus()

	for _, text := range []string{"Lon", "Lond", "London"} {
		f.session.OnInput(text)
		f.clock.Advance(DefaultDebounce)
	}

	require.Len(t, f.provider.suggestCalls, 3)
	for _, call := range f.provider.suggestCalls {
		assert.Equal(t, places.SessionToken("tok-1"), call.Token)
	}
}

func TestOnInput_EmptyOrFailedResultGoesIdle(t *testing.T) {
	f := newFixture(t, false)
	boom := errors.New("boom")
	f.provider.suggest = func(req places.SuggestRequest) ([]places.Suggestion, error) {
		if req.Input == "fail" {
			return nil, boom
		}
		return nil, nil
	}

	f.session.OnInput("nothing")
	f.clock.Advance(DefaultDebounce)
	assert.Equal(t, Idle, f.session.State())
	assert.Empty(t, f.rec.errs)

	f.session.OnInput("fail")
	f.clock.Advance(DefaultDebounce)
	assert.Equal(t, Idle, f.session.State())
	assert.Nil(t, f.session.Suggestions())
	assert.Equal(t, []error{boom}, f.rec.errs)
}

func TestOnInput_StaleResponseIgnored(t *testing.T) {
	f := newFixture(t, true)
	f.provider.suggest = func(req places.SuggestRequest) ([]places.Suggestion, error) {
		return []places.Suggestion{{ID: req.Input, Label: req.Input}}, nil
	}

	f.session.OnInput("Kyiv")
	f.clock.Advance(DefaultDebounce)
	f.session.OnInput("Kharkiv")
	f.clock.Advance(DefaultDebounce)
	require.Len(t, f.queue.tasks, 2)

	f.queue.runAt(1)
	f.queue.runAt(0)

	assert.Equal(t, []places.Suggestion{{ID: "Kharkiv", Label: "Kharkiv"}}, f.session.Suggestions())
	assert.Len(t, f.rec.suggestions, 1)
}

func TestOnSelect_ResolvesOriginAndDiscardsToken(t *testing.T) {
	f := newFixture(t, false)
	f.provider.suggest = func(places.SuggestRequest) ([]places.Suggestion, error) {
		return []places.Suggestion{{ID: "p1", Label: "London, UK"}}, nil
	}
	f.provider.details = func(id string) (models.GeoPoint, error) {
		return models.GeoPoint{Lat: 51.5074, Lng: -0.1278}, nil
	}

	f.session.OnFocus()
	f.session.OnInput("Lond")
	f.clock.Advance(DefaultDebounce)

	require.NoError(t, f.session.OnSelect("p1"))

	assert.Nil(t, f.session.Suggestions())
	assert.Equal(t, Idle, f.session.State())
	require.Len(t, f.provider.detailCalls, 1)
	assert.Equal(t, detailCall{id: "p1", token: "tok-1"}, f.provider.detailCalls[0])
	assert.Equal(t, []models.GeoPoint{{Lat: 51.5074, Lng: -0.1278}}, f.rec.places)

	assert.Empty(t, f.session.Token())
	f.session.OnFocus()
	assert.Equal(t, places.SessionToken("tok-2"), f.session.Token())
}

func TestOnSelect_SuppressesInFlightSuggestions(t *testing.T) {
	f := newFixture(t, true)
	f.provider.suggest = func(places.SuggestRequest) ([]places.Suggestion, error) {
		return []places.Suggestion{{ID: "late", Label: "Late"}}, nil
	}

	f.session.OnInput("Dublin")
	f.clock.Advance(DefaultDebounce)
	require.NoError(t, f.session.OnSelect("p9"))

	f.queue.runAt(0)

	assert.Nil(t, f.session.Suggestions())
	assert.Equal(t, Idle, f.session.State())
}

func TestOnSelect_RateLimitedKeepsOrigin(t *testing.T) {
	f := newFixture(t, false)
	f.provider.details = func(string) (models.GeoPoint, error) {
		return models.GeoPoint{}, places.ErrRateLimited
	}

	require.NoError(t, f.session.OnSelect("p1"))

	assert.Empty(t, f.rec.places)
	require.Len(t, f.rec.errs, 1)
	assert.ErrorIs(t, f.rec.errs[0], places.ErrRateLimited)
}

func TestOnSelect_MapNotReady(t *testing.T) {
	f := newFixture(t, false, WithReady(func() bool { return false }))

	err := f.session.OnSelect("p1")

	assert.ErrorIs(t, err, places.ErrMapNotReady)
	assert.Empty(t, f.provider.detailCalls)
}

func TestClose_StopsTimersAndResults(t *testing.T) {
	f := newFixture(t, true)
	f.provider.suggest = func(places.SuggestRequest) ([]places.Suggestion, error) {
		return []places.Suggestion{{ID: "p1"}}, nil
	}

	f.session.OnInput("Paris")
	f.clock.Advance(DefaultDebounce)
	f.session.OnInput("Paris, FR")
	f.session.Close()

	assert.Equal(t, 0, f.clock.Pending())
	f.queue.runAt(0)
	f.clock.Advance(time.Second)

	assert.Empty(t, f.rec.suggestions)
	assert.Len(t, f.provider.suggestCalls, 1)
	assert.Equal(t, Idle, f.session.State())
}
