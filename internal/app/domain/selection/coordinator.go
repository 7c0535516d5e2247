// Package selection owns the single selected entity of a discovery view.
package selection

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-discovery/internal/pkg/clock"
)

// DefaultScrollDelay lets the list card's expand animation for the same id
// finish before the row is scrolled into view.
const DefaultScrollDelay = 200 * time.Millisecond

// ShouldScroll decides whether selecting next warrants scrolling the list.
// Mobile layouts show a bottom sheet instead of scrolling.
func ShouldScroll(prev, next string, mobile, isRow, onScreen bool) bool {
	return next != "" && next != prev && !mobile && isRow && !onScreen
}

// Listener observes selection changes. It runs after the change is visible
// to readers, never with the coordinator lock held.
type Listener func(prev, next string)

type Coordinator struct {
	mu sync.Mutex

	selected string
	mobile   bool
	rows     map[string]bool
	visible  map[string]bool

	clock     clock.Clock
	delay     time.Duration
	scroll    clock.Timer
	onScroll  func(id string)
	listeners []Listener
	logger    *zap.Logger
}

func NewCoordinator(c clock.Clock, delay time.Duration, onScroll func(id string), logger *zap.Logger) *Coordinator {
	if c == nil {
		c = clock.New()
	}
	if delay <= 0 {
		delay = DefaultScrollDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		rows:     map[string]bool{},
		visible:  map[string]bool{},
		clock:    c,
		delay:    delay,
		onScroll: onScroll,
		logger:   logger,
	}
}

// Subscribe registers l for every future change.
func (c *Coordinator) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Select makes id the only selected entity. Empty ids are ignored: there is
// no way back to "nothing selected" other than a new view.
func (c *Coordinator) Select(id string) {
	c.mu.Lock()
	if id == "" || id == c.selected {
		c.mu.Unlock()
		return
	}
	prev := c.selected
	c.selected = id

	if c.scroll != nil {
		c.scroll.Stop()
		c.scroll = nil
	}
	if ShouldScroll(prev, id, c.mobile, c.rows[id], c.visible[id]) && c.onScroll != nil {
		c.scroll = c.clock.AfterFunc(c.delay, func() { c.fireScroll(id) })
	}
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	c.logger.Debug("Selection changed", zap.String("prev", prev), zap.String("next", id))
	for _, l := range listeners {
		l(prev, id)
	}
}

func (c *Coordinator) fireScroll(id string) {
	c.mu.Lock()
	if c.selected != id {
		c.mu.Unlock()
		return
	}
	c.scroll = nil
	c.mu.Unlock()
	c.onScroll(id)
}

func (c *Coordinator) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

func (c *Coordinator) IsSelected(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return id != "" && id == c.selected
}

// SetMobile switches between list scrolling and the bottom sheet.
func (c *Coordinator) SetMobile(mobile bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mobile = mobile
}

// SetRows records which ids currently have a list row.
func (c *Coordinator) SetRows(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = toSet(ids)
}

// SetVisible records which rows are currently on screen.
func (c *Coordinator) SetVisible(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = toSet(ids)
}

// Close cancels a pending scroll.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scroll != nil {
		c.scroll.Stop()
		c.scroll = nil
	}
	c.onScroll = nil
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
