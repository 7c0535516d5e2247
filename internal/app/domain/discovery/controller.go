// Package discovery hosts the server side of one interactive discovery map:
// the controller wiring filters, venue fetches, markers, selection and the
// location search together, plus its websocket transport.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-discovery/internal/app/domain/autocomplete"
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/geofilter"
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/geolocation"
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/markers"
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/places"
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/selection"
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/venues"
	"github.com/FACorreiaa/loci-discovery/internal/app/models"
	"github.com/FACorreiaa/loci-discovery/internal/pkg/clock"
)

const (
	// FindMeDistance is the radius applied after a successful "find me".
	FindMeDistance = 25000
	// SlugDistance is the radius applied when a deep-linked venue is centred.
	SlugDistance = 1000
)

var (
	msgRateLimited    = Notification{Kind: KindWarning, Header: "Whoa, slow down!", Message: "You've made too many searches in a short time. Please wait a minute and try again."}
	msgGeneric        = Notification{Kind: KindError, Message: "Oops, try again"}
	msgLocationDenied = Notification{Kind: KindWarning, Message: "Location access denied. Please enable it in your browser settings."}
	msgLocationFailed = Notification{Kind: KindError, Message: "Unable to find your location. Please try searching!"}
)

// Config holds the per-view tunables.
type Config struct {
	Countries   []string
	Debounce    time.Duration
	ScrollDelay time.Duration
	PageLimit   int
	Origin      models.GeoPoint
	// Slug deep-links the view to one venue.
	Slug string
}

// Deps are the collaborators shared by every view.
type Deps struct {
	Venues venues.Repository
	Places places.Provider
	Clock  clock.Clock
	// Run dispatches blocking work. Defaults to a new goroutine per call.
	Run    func(func())
	Logger *zap.Logger
}

// Controller owns the state of one map view. Every exported method is safe
// to call from any goroutine; output is delivered through send.
type Controller struct {
	mu sync.Mutex
	// renderMu orders marker redraws with the markers message they produce.
	renderMu sync.Mutex

	cfg     Config
	logger  *zap.Logger
	clock   clock.Clock
	run     func(func())
	send    func(Outbound)
	venues  venues.Repository
	builder *geofilter.Builder

	surface   *opSurface
	markers   *markers.Manager
	selection *selection.Coordinator
	search    *autocomplete.Session

	ctx    context.Context
	cancel context.CancelFunc

	filter       models.FilterState
	items        []models.DiscoverableEntity
	count        int
	total        int
	loading      bool
	showMe       bool
	mapReady     bool
	mobile       bool
	scheme       markers.ColorScheme
	bootstrapped bool
	fetchSeq     uint64
	textTimer    clock.Timer
	textSeq      uint64
	closed       bool
}

// NewController builds a view controller. Nothing is fetched until Start.
func NewController(cfg Config, deps Deps, send func(Outbound)) *Controller {
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = venues.DefaultLimit
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = autocomplete.DefaultDebounce
	}
	if !cfg.Origin.Valid() || cfg.Origin == (models.GeoPoint{}) {
		cfg.Origin = models.London
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Run == nil {
		deps.Run = func(f func()) { go f() }
	}

	ctx, cancel := context.WithCancel(context.Background())
	origin := cfg.Origin
	c := &Controller{
		cfg:     cfg,
		logger:  deps.Logger,
		clock:   deps.Clock,
		run:     deps.Run,
		send:    send,
		venues:  deps.Venues,
		builder: geofilter.NewBuilder(geofilter.VenueSchema, deps.Clock.Now),
		surface: &opSurface{},
		ctx:     ctx,
		cancel:  cancel,
		scheme:  markers.Light,
		filter: models.FilterState{
			DistanceMeters: models.DefaultDistanceMeters,
			Origin:         &origin,
			TargetSlug:     cfg.Slug,
		},
	}

	c.markers = markers.NewManager(c.surface, c.Select, c.run, c.logger)
	c.selection = selection.NewCoordinator(c.clock, cfg.ScrollDelay, c.scrollTo, c.logger)
	c.selection.Subscribe(func(_, _ string) {
		c.redraw()
		c.pushState()
	})
	c.search = autocomplete.NewSession(deps.Places,
		autocomplete.Config{Debounce: cfg.Debounce, Countries: cfg.Countries},
		autocomplete.Handlers{
			Suggestions: func([]places.Suggestion) { c.pushState() },
			Place:       c.applyPlace,
			Error:       c.searchFailed,
		},
		c.logger,
		autocomplete.WithClock(c.clock),
		autocomplete.WithRunner(c.run),
		autocomplete.WithReady(c.isMapReady),
	)
	return c
}

// Start pushes the initial state and issues the first fetch.
func (c *Controller) Start() {
	c.refresh()
}

// Handle dispatches one inbound event. Errors are contract violations by
// the view (unknown message, bad value); user-facing failures become
// notifications instead.
func (c *Controller) Handle(in Inbound) error {
	switch in.Type {
	case MsgFocus:
		c.search.OnFocus()
	case MsgInput:
		c.search.OnInput(in.Text)
		c.pushState()
	case MsgSelectSuggestion:
		return c.search.OnSelect(in.ID)
	case MsgSearch:
		c.SetTextQuery(in.Text)
	case MsgCategory:
		return c.SetCategory(in.Value)
	case MsgDistance:
		return c.SetDistance(in.Meters)
	case MsgFindMe:
		c.FindMe(in.Report())
	case MsgMarkerClick:
		c.markers.Click(in.ID)
	case MsgListClick:
		c.Select(in.ID)
	case MsgPointerOver:
		c.renderMu.Lock()
		c.markers.PointerOver(in.ID)
		c.flushLocked()
		c.renderMu.Unlock()
	case MsgPointerOut:
		c.renderMu.Lock()
		c.markers.PointerOut(in.ID)
		c.flushLocked()
		c.renderMu.Unlock()
	case MsgColorScheme:
		c.SetColorScheme(markers.ColorScheme(in.Value))
	case MsgLayout:
		c.SetMobile(in.Mobile)
	case MsgVisible:
		c.selection.SetVisible(in.IDs)
	case MsgMapReady:
		c.mu.Lock()
		c.mapReady = true
		c.mu.Unlock()
		c.redraw()
	default:
		return fmt.Errorf("%w: unknown message type %q", models.ErrBadRequest, in.Type)
	}
	return nil
}

// SetCategory filters by category; an empty value removes the filter.
func (c *Controller) SetCategory(value string) error {
	var cat *models.Category
	if value != "" {
		parsed, ok := models.ParseCategory(value)
		if !ok {
			return fmt.Errorf("%w: unknown category %q", models.ErrValidation, value)
		}
		cat = &parsed
	}
	c.update(func(f *models.FilterState) { f.Category = cat })
	return nil
}

// SetDistance changes the search radius to one of the offered options.
func (c *Controller) SetDistance(meters int) error {
	for _, d := range models.DistanceOptions {
		if d == meters {
			c.update(func(f *models.FilterState) { f.DistanceMeters = meters })
			return nil
		}
	}
	return fmt.Errorf("%w: unsupported distance %d", models.ErrValidation, meters)
}

// SetTextQuery debounces free-text changes before rebuilding the filter.
// Clearing the text applies immediately.
func (c *Controller) SetTextQuery(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.textTimer != nil {
		c.textTimer.Stop()
		c.textTimer = nil
	}
	c.textSeq++
	seq := c.textSeq

	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		c.update(func(f *models.FilterState) { f.TextQuery = "" })
		return
	}

	c.textTimer = c.clock.AfterFunc(c.cfg.Debounce, func() {
		c.mu.Lock()
		if seq != c.textSeq {
			c.mu.Unlock()
			return
		}
		c.textTimer = nil
		c.mu.Unlock()
		c.update(func(f *models.FilterState) { f.TextQuery = text })
	})
	c.mu.Unlock()
}

// FindMe applies a one-shot geolocation result. Failures are reported and
// never retried.
func (c *Controller) FindMe(r geolocation.Report) {
	pt, err := geolocation.Resolve(r)
	if err != nil {
		c.logger.Info("Find me failed", zap.Error(err))
		if errors.Is(err, geolocation.ErrPermissionDenied) {
			c.notify(msgLocationDenied)
		} else {
			c.notify(msgLocationFailed)
		}
		return
	}
	c.update(func(f *models.FilterState) {
		f.Origin = &pt
		f.DistanceMeters = FindMeDistance
		f.TargetSlug = ""
	}, func() { c.showMe = true })
}

// Select makes id the selected entity.
func (c *Controller) Select(id string) {
	c.selection.Select(id)
}

// SetColorScheme switches marker palettes and redraws.
func (c *Controller) SetColorScheme(s markers.ColorScheme) {
	if s != markers.Light && s != markers.Dark {
		return
	}
	c.mu.Lock()
	c.scheme = s
	c.mu.Unlock()
	c.markers.SetColorScheme(s)
	c.redraw()
	c.pushState()
}

// SetMobile switches between list scrolling and the bottom sheet.
func (c *Controller) SetMobile(mobile bool) {
	c.mu.Lock()
	c.mobile = mobile
	c.mu.Unlock()
	c.selection.SetMobile(mobile)
	c.pushState()
}

// Filter returns the current filter state.
func (c *Controller) Filter() models.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Records exposes the drawn markers, highest z-index first.
func (c *Controller) Records() []markers.Record {
	return c.markers.Records()
}

// Close tears the view down. No output is sent afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.textTimer != nil {
		c.textTimer.Stop()
		c.textTimer = nil
	}
	c.cancel()
	c.mu.Unlock()

	c.search.Close()
	c.selection.Close()
	c.markers.Clear()
	c.surface.Drain()
}

// update replaces the filter with a modified copy and refetches. extra runs
// under the same lock.
func (c *Controller) update(mutate func(*models.FilterState), extra ...func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	next := c.filter
	if next.Origin != nil {
		o := *next.Origin
		next.Origin = &o
	}
	mutate(&next)
	c.filter = next
	for _, f := range extra {
		f()
	}
	c.mu.Unlock()
	c.refresh()
}

func (c *Controller) refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.fetchSeq++
	seq := c.fetchSeq
	where := c.builder.Venues(c.filter)
	params := models.ListParams{Limit: c.cfg.PageLimit}
	c.loading = true
	ctx := c.ctx
	c.mu.Unlock()

	c.pushState()
	c.run(func() {
		page, err := c.venues.Fetch(ctx, where, params)
		c.applyPage(seq, page, err)
	})
}

// applyPage installs the result of fetch seq unless a newer fetch was issued.
func (c *Controller) applyPage(seq uint64, page models.Page, err error) {
	c.mu.Lock()
	if c.closed || seq != c.fetchSeq {
		c.mu.Unlock()
		return
	}
	c.loading = false
	if err != nil {
		c.mu.Unlock()
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn("Venue fetch failed", zap.Error(err))
			c.notify(msgGeneric)
		}
		c.pushState()
		return
	}

	c.items = page.Items
	c.count = page.Count
	c.total = page.Total
	ids := make([]string, 0, len(page.Items))
	for _, e := range page.Items {
		ids = append(ids, e.ID)
	}
	target := c.bootstrapLocked()
	c.mu.Unlock()

	c.selection.SetRows(ids)
	c.redraw()
	c.pushState()
	if target != "" {
		c.selection.Select(target)
	}
}

// bootstrapLocked centres a deep-linked venue once, when the result set is
// exactly that venue.
func (c *Controller) bootstrapLocked() string {
	slug := c.filter.TargetSlug
	if c.bootstrapped || slug == "" || len(c.items) != 1 {
		return ""
	}
	v := c.items[0]
	if v.Slug != slug || v.Location == nil {
		return ""
	}
	c.bootstrapped = true
	loc := *v.Location
	next := c.filter
	next.Origin = &loc
	next.DistanceMeters = SlugDistance
	c.filter = next
	return v.ID
}

func (c *Controller) applyPlace(pt models.GeoPoint) {
	c.update(func(f *models.FilterState) {
		f.Origin = &pt
		f.TargetSlug = ""
	}, func() { c.showMe = false })
}

func (c *Controller) searchFailed(err error) {
	switch {
	case errors.Is(err, places.ErrRateLimited):
		c.notify(msgRateLimited)
	case errors.Is(err, places.ErrNoResults):
	default:
		c.notify(msgGeneric)
	}
	c.pushState()
}

func (c *Controller) isMapReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mapReady
}

// redraw rebuilds every marker from the results and selection read together.
func (c *Controller) redraw() {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	items := c.items
	c.mu.Unlock()

	c.markers.Render(items, c.selection.Selected())
	c.flushLocked()
}

// flushLocked sends pending marker operations. renderMu must be held.
func (c *Controller) flushLocked() {
	ops := c.surface.Drain()
	if len(ops) == 0 {
		return
	}
	c.emit(Outbound{Type: MsgMarkers, Markers: ops})
}

func (c *Controller) scrollTo(id string) {
	c.emit(Outbound{Type: MsgScroll, ID: id})
}

func (c *Controller) notify(n Notification) {
	c.emit(Outbound{Type: MsgNotification, Notification: &n})
}

func (c *Controller) pushState() {
	st := c.State()
	c.emit(Outbound{Type: MsgState, State: &st})
}

// State snapshots what the view renders.
func (c *Controller) State() ViewState {
	selected := c.selection.Selected()
	suggestions := c.search.Suggestions()
	phase := c.search.State().String()

	c.mu.Lock()
	defer c.mu.Unlock()
	st := ViewState{
		Filter:       c.filter,
		Count:        c.count,
		Total:        c.total,
		Summary:      fmt.Sprintf("Showing %d of %d", c.count, c.total),
		Loading:      c.loading,
		Items:        c.items,
		Selected:     selected,
		Suggestions:  suggestions,
		Autocomplete: phase,
		ShowMe:       c.showMe,
		ColorScheme:  c.scheme,
		Mobile:       c.mobile,
	}
	if c.mobile && selected != "" {
		for i := range c.items {
			if c.items[i].ID == selected {
				e := c.items[i]
				st.Sheet = &e
				break
			}
		}
	}
	return st
}

func (c *Controller) emit(out Outbound) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed || c.send == nil {
		return
	}
	c.send(out)
}
