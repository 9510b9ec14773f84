package dispatch

import (
	"errors"
	"sync"
	"testing"

	"fleetsim/internal/geom"
	"fleetsim/internal/model"
	"fleetsim/internal/robot"
	"fleetsim/internal/trajectory"
)

type straightPlanner struct{ blocked map[geom.Point]bool }

func (p straightPlanner) FindTrajectory(start, end geom.Point) *trajectory.Trajectory {
	if p.blocked[end] {
		return nil
	}
	return trajectory.New([]geom.Point{start, end}, &trajectory.Env{})
}

// flakyPlanner misses its first search and plans straight segments after.
type flakyPlanner struct{ calls int }

func (p *flakyPlanner) FindTrajectory(start, end geom.Point) *trajectory.Trajectory {
	p.calls++
	if p.calls == 1 {
		return nil
	}
	return trajectory.New([]geom.Point{start, end}, &trajectory.Env{})
}

func newRobot(t *testing.T, station geom.Point, p robot.Planner) *robot.Robot {
	t.Helper()
	r, err := robot.New(station, p, robot.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func mustRequest(t *testing.T, sx, sy, ex, ey int) model.Request {
	t.Helper()
	req, err := model.NewRequest(geom.Point{X: sx, Y: sy}, geom.Point{X: ex, Y: ey})
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	if _, ok := q.Peek(); ok {
		t.Fatal("peek on empty queue")
	}
	a, b, c := mustRequest(t, 1, 1, 2, 2), mustRequest(t, 3, 3, 4, 4), mustRequest(t, 5, 5, 6, 6)
	for _, r := range []model.Request{a, b, c} {
		if err := q.Append(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := q.Append(model.Request{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
	if got, _ := q.Peek(); got != a {
		t.Fatalf("peek = %v, want %v", got, a)
	}
	q.Rotate()
	snap := q.Snapshot()
	if len(snap) != 3 || snap[0] != b || snap[1] != c || snap[2] != a {
		t.Fatalf("after rotate = %v", snap)
	}
	if got, _ := q.Pop(); got != b {
		t.Fatalf("pop = %v, want %v", got, b)
	}
	if q.Len() != 2 {
		t.Fatalf("len = %d, want 2", q.Len())
	}
}

func TestQueueConcurrentAppend(t *testing.T) {
	q := NewQueue()
	req := mustRequest(t, 1, 1, 2, 2)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = q.Append(req)
				q.Peek()
			}
		}()
	}
	wg.Wait()
	if q.Len() != 800 {
		t.Fatalf("len = %d, want 800", q.Len())
	}
}

func TestSubscribe(t *testing.T) {
	m, err := NewManager(NewQueue())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Subscribe(nil); !errors.Is(err, ErrNilRobot) {
		t.Fatalf("err = %v, want ErrNilRobot", err)
	}
	r := newRobot(t, geom.Point{X: 10, Y: 10}, straightPlanner{})
	if err := m.Subscribe(r); err != nil {
		t.Fatal(err)
	}
	if av := m.Available(); len(av) != 1 || av[0] != r {
		t.Fatalf("available = %v", av)
	}
	stranger := newRobot(t, geom.Point{X: 10, Y: 10}, straightPlanner{})
	if err := m.Notify(stranger, robot.Charging); !errors.Is(err, ErrUnknownRobot) {
		t.Fatalf("err = %v, want ErrUnknownRobot", err)
	}
	if _, err := NewManager(nil); !errors.Is(err, ErrNilQueue) {
		t.Fatalf("err = %v, want ErrNilQueue", err)
	}
}

func TestUpdatePicksShortestRoute(t *testing.T) {
	q := NewQueue()
	m, _ := NewManager(q)
	far := newRobot(t, geom.Point{X: 100, Y: 100}, straightPlanner{})
	near := newRobot(t, geom.Point{X: 300, Y: 300}, straightPlanner{})
	for _, r := range []*robot.Robot{far, near} {
		if err := m.Subscribe(r); err != nil {
			t.Fatal(err)
		}
	}
	req := mustRequest(t, 310, 300, 320, 320)
	_ = q.Append(req)

	if got := m.Update(); got != Assigned {
		t.Fatalf("outcome = %s, want assigned", got)
	}
	if q.Len() != 0 {
		t.Fatalf("queue len = %d, want 0", q.Len())
	}
	if got, ok := m.AssignedRequest(near); !ok || got != req {
		t.Fatalf("assigned to near robot = %v %v", got, ok)
	}
	if _, ok := m.AssignedRequest(far); ok {
		t.Fatal("far robot should not be assigned")
	}
	if av := m.Available(); len(av) != 1 || av[0] != far {
		t.Fatalf("available = %v, want only the far robot", av)
	}
	if near.State() != robot.Enroute {
		t.Fatalf("near state = %s, want ENROUTE", near.State())
	}
}

func TestUpdateNeverDoubleAssigns(t *testing.T) {
	q := NewQueue()
	m, _ := NewManager(q)
	robots := []*robot.Robot{
		newRobot(t, geom.Point{X: 100, Y: 100}, straightPlanner{}),
		newRobot(t, geom.Point{X: 110, Y: 100}, straightPlanner{}),
	}
	for _, r := range robots {
		_ = m.Subscribe(r)
	}
	first, second := mustRequest(t, 120, 120, 130, 130), mustRequest(t, 140, 140, 150, 150)
	_ = q.Append(first)
	_ = q.Append(second)

	m.Update()
	busy := 0
	for _, r := range robots {
		if _, ok := m.AssignedRequest(r); ok {
			busy++
		}
	}
	if busy != 1 || q.Len() != 1 {
		t.Fatalf("after one update busy = %d queued = %d, want 1 and 1", busy, q.Len())
	}

	m.Update()
	a, _ := m.AssignedRequest(robots[0])
	b, _ := m.AssignedRequest(robots[1])
	if a.ID == b.ID || a.ID == "" || b.ID == "" {
		t.Fatalf("robots hold %v and %v", a, b)
	}
	if got := m.Update(); got != Idle {
		t.Fatalf("outcome = %s on empty queue, want idle", got)
	}
}

func TestUpdateRequeuesUnreachable(t *testing.T) {
	blocked := geom.Point{X: 500, Y: 500}
	q := NewQueue()
	m, _ := NewManager(q)
	_ = m.Subscribe(newRobot(t, geom.Point{X: 100, Y: 100}, straightPlanner{blocked: map[geom.Point]bool{blocked: true}}))

	stuck := mustRequest(t, 200, 200, blocked.X, blocked.Y)
	next := mustRequest(t, 150, 150, 160, 160)
	_ = q.Append(stuck)
	_ = q.Append(next)

	if got := m.Update(); got != Requeued {
		t.Fatalf("outcome = %s, want requeued", got)
	}
	snap := q.Snapshot()
	if len(snap) != 2 || snap[0] != next || snap[1] != stuck {
		t.Fatalf("queue = %v, want rotated by one", snap)
	}
	if got := m.Update(); got != Assigned {
		t.Fatalf("outcome = %s, want the next request assigned", got)
	}
}

func TestUpdateRetriesAfterPlannerMiss(t *testing.T) {
	q := NewQueue()
	m, _ := NewManager(q)
	p := &flakyPlanner{}
	r := newRobot(t, geom.Point{X: 100, Y: 100}, p)
	_ = m.Subscribe(r)
	req := mustRequest(t, 150, 100, 200, 100)
	_ = q.Append(req)

	if got := m.Update(); got != Requeued {
		t.Fatalf("outcome = %s after a planner miss, want requeued", got)
	}
	if got := m.Update(); got != Assigned {
		t.Fatalf("outcome = %s on retry, want assigned (planner calls %d)", got, p.calls)
	}
	if got, ok := m.AssignedRequest(r); !ok || got != req {
		t.Fatalf("assigned = %v %v", got, ok)
	}
}

func TestRobotReturnsToAvailable(t *testing.T) {
	q := NewQueue()
	m, _ := NewManager(q)
	r := newRobot(t, geom.Point{X: 100, Y: 100}, straightPlanner{})
	_ = m.Subscribe(r)
	_ = q.Append(mustRequest(t, 105, 100, 110, 100))
	m.Update()

	for i := 0; i < 20 && r.State() != robot.Standby; i++ {
		if err := r.Update(); err != nil {
			t.Fatal(err)
		}
	}
	if r.State() != robot.Standby {
		t.Fatalf("state = %s, want STANDBY after delivery", r.State())
	}
	if av := m.Available(); len(av) != 1 {
		t.Fatalf("robot not available again: %v", av)
	}
	if _, ok := m.AssignedRequest(r); ok {
		t.Fatal("assignment should be cleared after delivery")
	}
}
