package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"oss.nandlabs.io/enforcer/clock"
)

func mustPopImmediate(t *testing.T, s *Scheduler) *Task {
	t.Helper()
	task, ok := s.PopImmediate()
	if !ok {
		t.Fatalf("PopImmediate: expected a task, got none")
	}
	return task
}

// E1: basic ordering by due date regardless of schedule order.
func TestBasicOrdering(t *testing.T) {
	clk := clock.NewVirtualClock(200)
	s := New(clk)
	defer s.Close()

	a := Identity{Class: "enforce", Type: "zone", Owner: "A"}
	b := Identity{Class: "enforce", Type: "zone", Owner: "B"}
	c := Identity{Class: "enforce", Type: "zone", Owner: "C"}

	if _, err := s.Schedule(a, 100, nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Schedule(b, 50, nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Schedule(c, 75, nil, nil); err != nil {
		t.Fatal(err)
	}

	first := mustPopImmediate(t, s)
	second := mustPopImmediate(t, s)
	third := mustPopImmediate(t, s)

	if first.Identity() != b || second.Identity() != c || third.Identity() != a {
		t.Fatalf("expected order B,C,A got %s,%s,%s", first.Identity(), second.Identity(), third.Identity())
	}
}

// E2: coalescing schedule lowers due date, replaces context, releases the old one.
func TestCoalescing(t *testing.T) {
	clk := clock.NewVirtualClock(0)
	s := New(clk)
	defer s.Close()

	id := Identity{Class: "enforce", Type: "zone", Owner: "example.com"}

	var releasedCount int
	var releasedCtx any
	release := func(ctx any) {
		releasedCount++
		releasedCtx = ctx
	}

	if _, err := s.Schedule(id, 500, "X", release); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Schedule(id, 300, "Y", nil); err != nil {
		t.Fatal(err)
	}

	if got := s.TaskCount(); got != 1 {
		t.Fatalf("TaskCount() = %d, want 1", got)
	}
	if got := s.PeekFirstTime(); got != 300 {
		t.Fatalf("PeekFirstTime() = %d, want 300", got)
	}
	if releasedCount != 1 {
		t.Fatalf("release invoked %d times, want 1", releasedCount)
	}
	if releasedCtx != "X" {
		t.Fatalf("release got context %v, want X", releasedCtx)
	}
}

// E3: FlushAll makes every task immediately ready and wakes a parked Pop;
// the worker, re-entering Pop after the wake as the Pop contract requires,
// gets a task.
func TestFlushAll(t *testing.T) {
	clk := clock.NewVirtualClock(0)
	s := New(clk)
	defer s.Close()

	for i := 0; i < 5; i++ {
		id := Identity{Class: "enforce", Type: "zone", Owner: string(rune('A' + i))}
		if _, err := s.Schedule(id, 1000, nil, nil); err != nil {
			t.Fatal(err)
		}
	}

	done := make(chan *Task, 1)
	go func() {
		for {
			task, ok := s.Pop(context.Background())
			if ok {
				done <- task
				return
			}
		}
	}()

	// Give the worker a moment to park before flushing.
	time.Sleep(20 * time.Millisecond)
	s.FlushAll()

	select {
	case task := <-done:
		if task == nil {
			t.Fatalf("Pop returned no task after FlushAll")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Pop did not return within bounded time after FlushAll")
	}

	if got := s.PeekFirstTime(); got != 0 {
		t.Fatalf("PeekFirstTime() = %d, want 0 for remaining flushed tasks", got)
	}
}

// E4: two tasks with identical identity execute with serialized access to
// the per-identity lock even when the second is scheduled from inside the
// first's critical section.
func TestPerIdentityMutexSerializesExecution(t *testing.T) {
	clk := clock.NewVirtualClock(0)
	s := New(clk)
	defer s.Close()

	id := Identity{Class: "enforce", Type: "zone", Owner: "example.com"}
	if _, err := s.Schedule(id, 0, nil, nil); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var order []string

	task1, ok := s.PopImmediate()
	if !ok {
		t.Fatalf("expected first task")
	}

	worker1Locked := make(chan struct{})
	worker2Done := make(chan struct{})
	go func() {
		task1.Lock()
		defer task1.Unlock()
		mu.Lock()
		order = append(order, "worker1-start")
		mu.Unlock()
		close(worker1Locked)
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		order = append(order, "worker1-end")
		mu.Unlock()
	}()

	// Once worker 1 is inside its critical section, reschedule the same
	// identity so a second logical task exists; simulate worker 2
	// contending for the same lock.
	<-worker1Locked
	if _, err := s.Schedule(id, 0, nil, nil); err != nil {
		t.Fatal(err)
	}
	task2, ok := s.PopImmediate()
	if !ok {
		t.Fatalf("expected second task")
	}

	go func() {
		task2.Lock()
		defer task2.Unlock()
		mu.Lock()
		order = append(order, "worker2-start")
		mu.Unlock()
		close(worker2Done)
	}()

	select {
	case <-worker2Done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker2 never acquired the identity lock")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != "worker1-start" || order[1] != "worker1-end" || order[2] != "worker2-start" {
		t.Fatalf("execution not serialized, got order: %v", order)
	}
}

// E5: PurgeOwner removes exactly the matching tasks and retains all locks.
func TestPurgeOwner(t *testing.T) {
	clk := clock.NewVirtualClock(0)
	s := New(clk)
	defer s.Close()

	idAX := Identity{Class: "A", Type: "zone", Owner: "X"}
	idAY := Identity{Class: "A", Type: "zone", Owner: "Y"}
	idBX := Identity{Class: "B", Type: "zone", Owner: "X"}

	for _, id := range []Identity{idAX, idAY, idBX} {
		if _, err := s.Schedule(id, 100, nil, nil); err != nil {
			t.Fatal(err)
		}
	}

	s.PurgeOwner("A", "X")

	if got := s.TaskCount(); got != 2 {
		t.Fatalf("TaskCount() = %d, want 2", got)
	}
	if got := s.LockCount(); got != 3 {
		t.Fatalf("LockCount() = %d, want 3 (locks retained)", got)
	}
	if !s.HasLock(idAX) || !s.HasLock(idAY) || !s.HasLock(idBX) {
		t.Fatalf("expected all three identity locks to remain")
	}
}

// E6: ReleaseAll wakes every goroutine parked in Pop.
func TestReleaseAll(t *testing.T) {
	clk := clock.NewVirtualClock(0)
	s := New(clk)
	defer s.Close()

	var wg sync.WaitGroup
	results := make(chan bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := s.Pop(context.Background())
			results <- ok
		}()
	}

	time.Sleep(20 * time.Millisecond)
	s.ReleaseAll()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("not all workers released within bounded time")
	}
	close(results)
	for ok := range results {
		if ok {
			t.Fatalf("ReleaseAll should wake Pop with no task, got ok=true")
		}
	}
}

// Property 1 & 2: heap and identity index stay in lockstep, at most one
// entry per identity.
func TestHeapIdentityParity(t *testing.T) {
	clk := clock.NewVirtualClock(0)
	s := New(clk)
	defer s.Close()

	ids := []Identity{
		{Class: "enforce", Type: "zone", Owner: "a"},
		{Class: "enforce", Type: "zone", Owner: "b"},
		{Class: "enforce", Type: "zone", Owner: "c"},
	}
	for i, id := range ids {
		if _, err := s.Schedule(id, int64(100+i), nil, nil); err != nil {
			t.Fatal(err)
		}
	}
	// Re-schedule one identity: must coalesce, not grow the count.
	if _, err := s.Schedule(ids[0], 10, nil, nil); err != nil {
		t.Fatal(err)
	}
	if got := s.TaskCount(); got != len(ids) {
		t.Fatalf("TaskCount() = %d, want %d", got, len(ids))
	}

	s.PopImmediate()
	if got := s.TaskCount(); got != len(ids)-1 {
		t.Fatalf("TaskCount() after pop = %d, want %d", got, len(ids)-1)
	}
}

// Property 3: head of the schedule always has the minimum due date.
func TestHeadHasMinimumDueDate(t *testing.T) {
	clk := clock.NewVirtualClock(0)
	s := New(clk)
	defer s.Close()

	dueDates := []int64{50, 10, 40, 5, 30}
	for i, d := range dueDates {
		id := Identity{Class: "enforce", Type: "zone", Owner: string(rune('a' + i))}
		if _, err := s.Schedule(id, d, nil, nil); err != nil {
			t.Fatal(err)
		}
	}
	if got := s.PeekFirstTime(); got != 5 {
		t.Fatalf("PeekFirstTime() = %d, want 5", got)
	}
}

// Property 7: concurrent Schedule/Pop never double-delivers or loses a task.
func TestConcurrentScheduleAndPop(t *testing.T) {
	clk := clock.NewVirtualClock(0)
	s := New(clk)
	defer s.Close()

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := Identity{Class: "enforce", Type: "zone", Owner: string(rune(i))}
			s.Schedule(id, 0, i, nil)
		}(i)
	}
	wg.Wait()

	seen := make(map[Identity]bool)
	for {
		task, ok := s.PopImmediate()
		if !ok {
			break
		}
		if seen[task.Identity()] {
			t.Fatalf("identity %s delivered twice", task.Identity())
		}
		seen[task.Identity()] = true
	}
	if len(seen) != n {
		t.Fatalf("delivered %d tasks, want %d", len(seen), n)
	}
}

// Pop blocks when nothing is due; once FlushAll makes the head task ready
// and wakes the parked Pop, a worker re-entering Pop promptly gets it.
func TestPopBlocksUntilDue(t *testing.T) {
	clk := clock.NewVirtualClock(0)
	s := New(clk)
	defer s.Close()

	id := Identity{Class: "enforce", Type: "zone", Owner: "example.com"}
	if _, err := s.Schedule(id, 1000, nil, nil); err != nil {
		t.Fatal(err)
	}

	result := make(chan bool, 1)
	go func() {
		for {
			if _, ok := s.Pop(context.Background()); ok {
				result <- ok
				return
			}
		}
	}()

	select {
	case <-result:
		t.Fatalf("Pop returned before the task's due date")
	case <-time.After(50 * time.Millisecond):
	}

	s.FlushAll()

	select {
	case ok := <-result:
		if !ok {
			t.Fatalf("Pop returned ok=false after FlushAll, want a task")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Pop did not wake after FlushAll")
	}
}

// Pop honors context cancellation and returns (nil, false) promptly.
func TestPopRespectsContextCancellation(t *testing.T) {
	clk := clock.NewVirtualClock(0)
	s := New(clk)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan bool, 1)
	go func() {
		_, ok := s.Pop(ctx)
		result <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case ok := <-result:
		if ok {
			t.Fatalf("Pop should return ok=false on context cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Pop did not return after context cancellation")
	}
}

// Schedule on a nil *Scheduler returns ErrNoSchedule without panicking.
func TestScheduleNilScheduler(t *testing.T) {
	var s *Scheduler
	if _, err := s.Schedule(Identity{}, 0, nil, nil); err != ErrNoSchedule {
		t.Fatalf("err = %v, want ErrNoSchedule", err)
	}
}

// A failing lock factory surfaces ErrLockAlloc instead of scheduling the task.
func TestScheduleLockAllocFailure(t *testing.T) {
	clk := clock.NewVirtualClock(0)
	s := New(clk, WithLockFactory(func() (*sync.Mutex, error) { return nil, errLockFactory }))
	defer s.Close()

	if _, err := s.Schedule(Identity{Class: "enforce", Type: "zone", Owner: "x"}, 0, nil, nil); err != ErrLockAlloc {
		t.Fatalf("err = %v, want ErrLockAlloc", err)
	}
	if got := s.TaskCount(); got != 0 {
		t.Fatalf("TaskCount() = %d, want 0 after failed schedule", got)
	}
}

// PurgeOwner and Purge invoke release hooks only after releasing the lock,
// i.e. a release hook can itself call back into the scheduler without
// deadlocking.
func TestPurgeReleaseHooksRunUnlocked(t *testing.T) {
	clk := clock.NewVirtualClock(0)
	s := New(clk)
	defer s.Close()

	id := Identity{Class: "enforce", Type: "zone", Owner: "x"}
	release := func(any) {
		// Reentrant call: if Purge held s.mu while invoking this, this
		// would deadlock.
		s.TaskCount()
	}
	if _, err := s.Schedule(id, 0, nil, release); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		s.Purge()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Purge deadlocked calling a release hook")
	}
}

var errLockFactory = lockAllocError{}

type lockAllocError struct{}

func (lockAllocError) Error() string { return "injected lock allocation failure" }
