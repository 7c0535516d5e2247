// Package markers reconciles the on-map markers with the current result list.
package markers

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-discovery/internal/app/models"
)

// Handle is the map provider's marker object. Only the Manager touches it.
type Handle any

// Style is the colour set applied to a marker label and its arrow.
type Style struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

// Spec describes a marker to create.
type Spec struct {
	EntityID string          `json:"entity_id"`
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle"`
	Label    string          `json:"label"`
	Position models.GeoPoint `json:"position"`
	ZIndex   int             `json:"z_index"`
	Style    Style           `json:"style"`
	Dot      bool            `json:"dot"`
}

// Surface is the map the markers live on.
type Surface interface {
	Create(spec Spec) Handle
	Remove(h Handle)
	SetLabel(h Handle, label string)
	SetStyle(h Handle, style Style)
	SetZIndex(h Handle, z int)
}

type VisualState string

const (
	StateDefault  VisualState = "default"
	StateHover    VisualState = "hover"
	StateSelected VisualState = "selected"
)

// Tier is the coarse z-ordering bucket of a marker.
type Tier int

const (
	TierPlain Tier = iota + 1
	TierActivity
	TierSelected
)

const hoverBoost = 5

// ZIndex orders markers by tier; hover lifts a marker above its tier
// siblings but never into the next tier.
func ZIndex(t Tier, hovered bool) int {
	z := int(t) * 10
	if hovered {
		z += hoverBoost
	}
	return z
}

type ColorScheme string

const (
	Light ColorScheme = "LIGHT"
	Dark  ColorScheme = "DARK"
)

type schemeStyles struct {
	normal, hover, selected Style
}

var styles = map[ColorScheme]schemeStyles{
	Light: {
		normal:   Style{Background: "#FFFFFF", Foreground: "#1F2937"},
		hover:    Style{Background: "#E5ECF6", Foreground: "#1F2937"},
		selected: Style{Background: "#2557D6", Foreground: "#FFFFFF"},
	},
	Dark: {
		normal:   Style{Background: "#1F2937", Foreground: "#F9FAFB"},
		hover:    Style{Background: "#374151", Foreground: "#F9FAFB"},
		selected: Style{Background: "#FFD500", Foreground: "#111827"},
	},
}

// Record is the manager's bookkeeping for one drawn marker.
type Record struct {
	EntityID           string      `json:"entity_id"`
	Handle             Handle      `json:"-"`
	VisualState        VisualState `json:"visual_state"`
	Tier               Tier        `json:"tier"`
	ZIndex             int         `json:"z_index"`
	HasRelatedActivity bool        `json:"has_related_activity"`

	name     string
	category models.Category
	status   models.Status
}

// Manager owns the markers of one map. Every redraw removes all markers and
// builds them again from the entity list.
type Manager struct {
	mu sync.Mutex

	surface  Surface
	logger   *zap.Logger
	scheme   ColorScheme
	markers  map[string]*Record
	hovered  string
	selected string

	onClick  func(id string)
	nextTick func(func())
}

// NewManager returns a manager drawing on surface. onClick receives marker
// clicks one tick later through deferFn, letting a redraw in progress finish.
func NewManager(surface Surface, onClick func(id string), deferFn func(func()), logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deferFn == nil {
		deferFn = func(f func()) { go f() }
	}
	return &Manager{
		surface:  surface,
		logger:   logger,
		scheme:   Light,
		markers:  make(map[string]*Record),
		onClick:  onClick,
		nextTick: deferFn,
	}
}

// SetColorScheme switches palettes. The caller redraws afterwards.
func (m *Manager) SetColorScheme(s ColorScheme) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := styles[s]; ok {
		m.scheme = s
	}
}

// Render wipes every marker and draws one per entity that has a location.
// selectedID may be empty.
func (m *Manager) Render(entities []models.DiscoverableEntity, selectedID string) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, rec := range m.markers {
		m.surface.Remove(rec.Handle)
		delete(m.markers, id)
	}
	m.selected = selectedID

	present := false
	for _, e := range entities {
		if e.Location == nil {
			continue
		}
		if _, dup := m.markers[e.ID]; dup {
			continue
		}
		rec := &Record{
			EntityID:           e.ID,
			HasRelatedActivity: e.HasRelatedActivity,
			name:               e.Name,
			category:           e.Category,
			status:             e.Status,
		}
		m.classify(rec)
		rec.Handle = m.surface.Create(Spec{
			EntityID: e.ID,
			Title:    e.Name,
			Subtitle: CategoryLabel(e.Category),
			Label:    m.label(rec),
			Position: *e.Location,
			ZIndex:   rec.ZIndex,
			Style:    m.style(rec),
			Dot:      e.HasRelatedActivity,
		})
		m.markers[e.ID] = rec
		if e.ID == m.hovered {
			present = true
		}
	}
	if !present {
		m.hovered = ""
	}

	m.logger.Debug("Markers redrawn", zap.Int("count", len(m.markers)), zap.String("selected", selectedID))
	return m.snapshotLocked()
}

// PointerOver shows the short name and hover colours without rebuilding
// the marker. Selected and pending markers do not react.
func (m *Manager) PointerOver(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.markers[id]
	if !ok || rec.VisualState == StateSelected || rec.status == models.StatusPending {
		return
	}
	if m.hovered != "" && m.hovered != id {
		m.restoreLocked(m.hovered)
	}
	m.hovered = id
	m.classify(rec)
	m.surface.SetStyle(rec.Handle, m.style(rec))
	m.surface.SetZIndex(rec.Handle, rec.ZIndex)
	m.surface.SetLabel(rec.Handle, m.label(rec))
}

// PointerOut reverts a hovered marker to its tier.
func (m *Manager) PointerOut(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hovered != id {
		return
	}
	m.restoreLocked(id)
}

// Click forwards a marker click to the selection owner on the next tick.
func (m *Manager) Click(id string) {
	m.mu.Lock()
	_, ok := m.markers[id]
	m.mu.Unlock()
	if !ok || m.onClick == nil {
		return
	}
	m.nextTick(func() { m.onClick(id) })
}

// Records returns the current markers ordered by z-index, highest first.
func (m *Manager) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Clear removes every marker, e.g. when the view goes away.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.markers {
		m.surface.Remove(rec.Handle)
		delete(m.markers, id)
	}
	m.hovered = ""
}

func (m *Manager) restoreLocked(id string) {
	m.hovered = ""
	rec, ok := m.markers[id]
	if !ok {
		return
	}
	m.classify(rec)
	m.surface.SetStyle(rec.Handle, m.style(rec))
	m.surface.SetZIndex(rec.Handle, rec.ZIndex)
	m.surface.SetLabel(rec.Handle, m.label(rec))
}

// classify derives visual state, tier and z-index from selection and hover.
func (m *Manager) classify(rec *Record) {
	switch {
	case rec.EntityID == m.selected && m.selected != "":
		rec.VisualState = StateSelected
		rec.Tier = TierSelected
	case rec.HasRelatedActivity:
		rec.Tier = TierActivity
		rec.VisualState = StateDefault
	default:
		rec.Tier = TierPlain
		rec.VisualState = StateDefault
	}
	hovered := rec.VisualState != StateSelected && rec.EntityID == m.hovered && rec.status != models.StatusPending
	if hovered {
		rec.VisualState = StateHover
	}
	rec.ZIndex = ZIndex(rec.Tier, hovered)
}

func (m *Manager) label(rec *Record) string {
	if rec.VisualState == StateDefault {
		return IconGlyph(rec.category)
	}
	return ShortName(rec.name)
}

func (m *Manager) style(rec *Record) Style {
	s := styles[m.scheme]
	switch rec.VisualState {
	case StateSelected:
		return s.selected
	case StateHover:
		return s.hover
	}
	return s.normal
}

func (m *Manager) snapshotLocked() []Record {
	out := make([]Record, 0, len(m.markers))
	for _, rec := range m.markers {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZIndex != out[j].ZIndex {
			return out[i].ZIndex > out[j].ZIndex
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}
