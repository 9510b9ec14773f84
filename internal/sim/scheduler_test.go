package sim

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/time/rate"

	"fleetsim/internal/dispatch"
	"fleetsim/internal/model"
)

type countingDispatcher struct{ calls int }

func (d *countingDispatcher) Update() dispatch.Outcome {
	d.calls++
	return dispatch.Idle
}

type fakeAgent struct {
	id      string
	updates int
	failAt  int
	err     error
	order   *[]string
}

func (a *fakeAgent) Update() error {
	a.updates++
	if a.order != nil {
		*a.order = append(*a.order, a.id)
	}
	if a.failAt > 0 && a.updates == a.failAt {
		return a.err
	}
	return nil
}

func (a *fakeAgent) Status() model.RobotStatus {
	return model.RobotStatus{ID: a.id, Steps: a.updates}
}

type fixedBacklog int

func (b fixedBacklog) Len() int { return int(b) }

func TestTickOrderAndStatus(t *testing.T) {
	var order []string
	d := &countingDispatcher{}
	a := &fakeAgent{id: "a", order: &order}
	b := &fakeAgent{id: "b", order: &order}
	s := New(d, fixedBacklog(3), []Agent{a, b}, Options{})

	var got []model.StatusEvent
	s.AddObserver(ObserverFunc(func(e model.StatusEvent) { got = append(got, e) }))

	for i := 0; i < 2; i++ {
		if err := s.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	if d.calls != 2 {
		t.Fatalf("dispatcher calls = %d, want 2", d.calls)
	}
	if len(order) != 4 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("robot update order = %v", order)
	}
	if len(got) != 2 || got[1].Step != 2 || got[1].Queued != 3 || len(got[1].Robots) != 2 {
		t.Fatalf("published = %+v", got)
	}
	if snap := s.Snapshot(); snap.Step != 2 || snap.Robots[0].Steps != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestStatusEvery(t *testing.T) {
	s := New(&countingDispatcher{}, nil, nil, Options{StatusEvery: 3})
	n := 0
	s.AddObserver(ObserverFunc(func(model.StatusEvent) { n++ }))
	for i := 0; i < 7; i++ {
		if err := s.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	if n != 2 {
		t.Fatalf("published %d times, want 2", n)
	}
	if s.Snapshot().Step != 7 {
		t.Fatalf("snapshot step = %d, want 7", s.Snapshot().Step)
	}
}

func TestRunStopsAtMaxSteps(t *testing.T) {
	a := &fakeAgent{id: "a"}
	s := New(&countingDispatcher{}, nil, []Agent{a}, Options{MaxSteps: 25})
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Step() != 25 || a.updates != 25 {
		t.Fatalf("step = %d updates = %d, want 25", s.Step(), a.updates)
	}
}

func TestRunStopsOnRobotError(t *testing.T) {
	boom := errors.New("energy below zero")
	a := &fakeAgent{id: "a", failAt: 4, err: boom}
	published := 0
	s := New(&countingDispatcher{}, nil, []Agent{a}, Options{})
	s.AddObserver(ObserverFunc(func(model.StatusEvent) { published++ }))
	err := s.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if published != 3 {
		t.Fatalf("published %d ticks, want 3 before the failure", published)
	}
}

func TestRunReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(&countingDispatcher{}, nil, nil, Options{})
	s.AddObserver(ObserverFunc(func(e model.StatusEvent) {
		if e.Step == 10 {
			cancel()
		}
	}))
	if err := s.Run(ctx); err != nil {
		t.Fatalf("cancel should not be an error: %v", err)
	}
	if s.Step() != 10 {
		t.Fatalf("step = %d, want 10", s.Step())
	}
}

func TestSetSpeed(t *testing.T) {
	s := New(&countingDispatcher{}, nil, nil, Options{Speed: 4})
	if s.limiter.Limit() != 4 {
		t.Fatalf("limit = %v, want 4", s.limiter.Limit())
	}
	s.SetSpeed(0)
	if s.limiter.Limit() != rate.Inf {
		t.Fatalf("limit = %v, want unpaced", s.limiter.Limit())
	}
}
