package selection

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/loci-discovery/internal/pkg/clock"
)

func newTestCoordinator() (*Coordinator, *clock.Fake, *[]string) {
	fake := clock.NewFake(time.Unix(0, 0))
	var scrolled []string
	c := NewCoordinator(fake, 0, func(id string) { scrolled = append(scrolled, id) }, nil)
	c.SetRows([]string{"a", "b", "c"})
	return c, fake, &scrolled
}

func TestSelect_ExactlyOneSelected(t *testing.T) {
	c, _, _ := newTestCoordinator()
	var changes [][2]string
	c.Subscribe(func(prev, next string) {
		assert.True(t, c.IsSelected(next))
		if prev != "" {
			assert.False(t, c.IsSelected(prev))
		}
		changes = append(changes, [2]string{prev, next})
	})

	c.Select("a")
	c.Select("b")

	assert.Equal(t, "b", c.Selected())
	assert.False(t, c.IsSelected("a"))
	assert.Equal(t, [][2]string{{"", "a"}, {"a", "b"}}, changes)
}

func TestSelect_NoExplicitDeselect(t *testing.T) {
	c, _, _ := newTestCoordinator()
	c.Select("a")
	c.Select("")
	assert.Equal(t, "a", c.Selected())
	assert.False(t, c.IsSelected(""))
}

func TestSelect_ConcurrentReadersNeverSeeTwo(t *testing.T) {
	c, _, _ := newTestCoordinator()
	c.Select("a")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				sel := c.Selected()
				assert.True(t, sel == "a" || sel == "b")
			}
		}
	}()
	for i := 0; i < 1000; i++ {
		if i%2 == 0 {
			c.Select("b")
		} else {
			c.Select("a")
		}
	}
	close(stop)
	wg.Wait()
}

func TestSelect_ScrollsOffscreenRowAfterDelay(t *testing.T) {
	c, fake, scrolled := newTestCoordinator()
	c.SetVisible([]string{"a"})

	c.Select("b")
	fake.Advance(DefaultScrollDelay - time.Millisecond)
	assert.Empty(t, *scrolled)
	fake.Advance(time.Millisecond)
	assert.Equal(t, []string{"b"}, *scrolled)

	c.Select("a")
	fake.Advance(time.Second)
	assert.Equal(t, []string{"b"}, *scrolled, "visible rows are not scrolled")
}

func TestSelect_SupersededScrollDropped(t *testing.T) {
	c, fake, scrolled := newTestCoordinator()

	c.Select("a")
	c.Select("c")
	fake.Advance(time.Second)

	assert.Equal(t, []string{"c"}, *scrolled)
}

func TestSelect_MobileNeverScrolls(t *testing.T) {
	c, fake, scrolled := newTestCoordinator()
	c.SetMobile(true)

	c.Select("a")
	c.Select("zzz")
	fake.Advance(time.Second)

	assert.Empty(t, *scrolled)
}

func TestShouldScroll(t *testing.T) {
	assert.True(t, ShouldScroll("", "a", false, true, false))
	assert.False(t, ShouldScroll("a", "a", false, true, false))
	assert.False(t, ShouldScroll("", "a", true, true, false))
	assert.False(t, ShouldScroll("", "a", false, false, false))
	assert.False(t, ShouldScroll("", "a", false, true, true))
	assert.False(t, ShouldScroll("a", "", false, true, false))
}

func TestClose_CancelsPendingScroll(t *testing.T) {
	c, fake, scrolled := newTestCoordinator()
	c.Select("a")
	c.Close()
	fake.Advance(time.Second)
	assert.Empty(t, *scrolled)
}
