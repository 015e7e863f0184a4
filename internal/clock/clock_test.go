package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeNowOnlyMovesOnAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fake(start)

	assert.Equal(t, start, c.Now())
	c.Advance(time.Minute)
	assert.Equal(t, start.Add(time.Minute), c.Now())
}

func TestFakeTickerFiresPerInterval(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	ticker := c.NewTicker(10 * time.Second)

	c.Advance(5 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("ticker fired before its interval")
	default:
	}

	c.Advance(5 * time.Second)
	select {
	case tick := <-ticker.C:
		assert.Equal(t, time.Unix(10, 0), tick)
	default:
		t.Fatal("ticker did not fire")
	}

	ticker.Stop()
	c.Advance(time.Minute)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestFakeNewTickerPanicsOnNonPositive(t *testing.T) {
	assert.Panics(t, func() { Fake(time.Now()).NewTicker(0) })
}
