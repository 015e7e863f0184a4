package network

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-todo-sync/internal/clock"
)

type switchProber struct {
	mu   sync.Mutex
	down bool
}

func (p *switchProber) set(down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.down = down
}

func (p *switchProber) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return errors.New("connection refused")
	}
	return nil
}

type recordingTarget struct {
	mu     sync.Mutex
	online bool
	seen   []bool
	ch     chan bool
}

func (r *recordingTarget) Online() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online
}

func (r *recordingTarget) SetOnline(_ context.Context, online bool) {
	r.mu.Lock()
	r.online = online
	r.seen = append(r.seen, online)
	r.mu.Unlock()
	if r.ch != nil {
		r.ch <- online
	}
}

func TestCheckReportsOnlyDifferences(t *testing.T) {
	prober := &switchProber{}
	target := &recordingTarget{online: true}
	m := NewMonitor(zerolog.Nop(), prober, target, clock.Real(), time.Second)
	ctx := context.Background()

	assert.True(t, m.Check(ctx))
	prober.set(true)
	assert.False(t, m.Check(ctx))
	assert.False(t, m.Check(ctx))
	prober.set(false)
	assert.True(t, m.Check(ctx))

	assert.Equal(t, []bool{false, true}, target.seen)
}

func TestCheckRestoresTargetMarkedOfflineElsewhere(t *testing.T) {
	target := &recordingTarget{online: false}
	m := NewMonitor(zerolog.Nop(), &switchProber{}, target, clock.Real(), time.Second)

	assert.True(t, m.Check(context.Background()))
	assert.True(t, target.Online())
	assert.Equal(t, []bool{true}, target.seen)
}

func TestRunProbesOnTicks(t *testing.T) {
	prober := &switchProber{down: true}
	target := &recordingTarget{online: true, ch: make(chan bool, 4)}
	fake := clock.Fake(time.Unix(0, 0))
	m := NewMonitor(zerolog.Nop(), prober, target, fake, 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.False(t, <-target.ch)
	fake.WaitForTickers(1)

	prober.set(false)
	fake.Advance(10 * time.Second)

	select {
	case online := <-target.ch:
		assert.True(t, online)
	case <-time.After(5 * time.Second):
		t.Fatal("no transition after tick")
	}

	cancel()
	<-done
}
