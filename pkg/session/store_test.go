package session

import (
	"sync"
	"testing"
	"time"
)

func TestGetOrCreateIsLazy(t *testing.T) {
	st := NewStore()
	if st.Size() != 0 {
		t.Fatalf("expected empty store, got size %d", st.Size())
	}

	s := st.GetOrCreate("alice")
	if s == nil {
		t.Fatal("expected session, got nil")
	}
	if len(s.Turns) != 0 {
		t.Fatalf("expected fresh session with no turns, got %d", len(s.Turns))
	}
	if st.Size() != 1 {
		t.Fatalf("expected size 1 after first access, got %d", st.Size())
	}

	again := st.GetOrCreate("alice")
	if again != s {
		t.Fatal("expected same session instance on repeat access")
	}
	if st.Size() != 1 {
		t.Fatalf("repeat access must not grow the store, got %d", st.Size())
	}
}

func TestGetDoesNotCreate(t *testing.T) {
	st := NewStore()

	if _, ok := st.Get("nobody"); ok {
		t.Fatal("Get on an unseen user must report absent")
	}
	if st.Size() != 0 {
		t.Fatalf("Get must not materialize a session, got size %d", st.Size())
	}

	created := st.GetOrCreate("alice")
	got, ok := st.Get("alice")
	if !ok {
		t.Fatal("Get must find an existing session")
	}
	if got != created {
		t.Fatal("Get must return the stored session instance")
	}
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	st := NewStore()

	a := st.GetOrCreate("alice")
	a.Append(Turn{Human: "hi", Assistant: "hello"})

	b := st.GetOrCreate("bob")
	if len(b.Turns) != 0 {
		t.Fatalf("bob's session must not see alice's turns, got %d", len(b.Turns))
	}
}

func TestConcurrentGetOrCreateSingleSession(t *testing.T) {
	st := NewStore()

	const goroutines = 32
	sessions := make([]*Session, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			sessions[i] = st.GetOrCreate("carol")
		}(i)
	}
	wg.Wait()

	if st.Size() != 1 {
		t.Fatalf("concurrent access for one key must create one session, got %d", st.Size())
	}
	for i := 1; i < goroutines; i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("all goroutines must observe the same session instance")
		}
	}
}

func TestAcquireSerializesSameUser(t *testing.T) {
	st := NewStore()

	release := st.Acquire("dave")

	second := make(chan struct{})
	go func() {
		r := st.Acquire("dave")
		close(second)
		r()
	}()

	select {
	case <-second:
		t.Fatal("second Acquire for the same user must block while the first holds the lock")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("second Acquire must proceed once the first releases")
	}
}

func TestAcquireDifferentUsersDoNotBlock(t *testing.T) {
	st := NewStore()

	releaseA := st.Acquire("alice")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB := st.Acquire("bob")
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("different users must acquire independently")
	}
}

func TestReplaceSwapsSession(t *testing.T) {
	st := NewStore()
	old := st.GetOrCreate("erin")
	old.Append(Turn{Human: "a", Assistant: "b"})

	fresh := NewSession("erin")
	st.Replace("erin", fresh)

	got := st.GetOrCreate("erin")
	if got != fresh {
		t.Fatal("expected replaced session instance")
	}
	if len(got.Turns) != 0 {
		t.Fatalf("replaced session must be fresh, got %d turns", len(got.Turns))
	}
	if st.Size() != 1 {
		t.Fatalf("replace must not grow the store, got %d", st.Size())
	}
}

func TestEvictIdleOlderThan(t *testing.T) {
	st := NewStore()

	stale := st.GetOrCreate("old")
	stale.LastActive = time.Now().Add(-2 * time.Hour)
	st.GetOrCreate("fresh").Touch()

	n := st.EvictIdleOlderThan(time.Now().Add(-time.Hour))
	if n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if st.Size() != 1 {
		t.Fatalf("expected 1 surviving session, got %d", st.Size())
	}
}

func TestAcquireSurvivesConcurrentEviction(t *testing.T) {
	st := NewStore()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				// Cutoff in the future evicts every idle session.
				st.EvictIdleOlderThan(time.Now().Add(time.Minute))
			}
		}
	}()

	for i := 0; i < 500; i++ {
		release := st.Acquire("frank")
		sess := st.GetOrCreate("frank")
		sess.Append(Turn{Human: "q", Assistant: "a"})
		st.Replace("frank", sess)
		if _, ok := st.Get("frank"); !ok {
			release()
			close(done)
			wg.Wait()
			t.Fatal("session vanished from the store while its turn lock was held")
		}
		release()
	}
	close(done)
	wg.Wait()
}

func TestEvictSkipsBusySessions(t *testing.T) {
	st := NewStore()

	busy := st.GetOrCreate("busy")
	busy.LastActive = time.Now().Add(-2 * time.Hour)

	release := st.Acquire("busy")
	defer release()

	if n := st.EvictIdleOlderThan(time.Now().Add(-time.Hour)); n != 0 {
		t.Fatalf("busy session must not be evicted, got %d evictions", n)
	}
	if st.Size() != 1 {
		t.Fatalf("busy session must survive, size %d", st.Size())
	}
}
