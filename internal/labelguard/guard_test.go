package labelguard

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireSerializesSamePath(t *testing.T) {
	g := New()
	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			lease := g.Acquire("note.md", "h")
			time.Sleep(time.Millisecond)
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			require.NoError(t, lease.Commit("h"))
		}(i)
	}
	wg.Wait()
	assert.Len(t, order, 5)
}

func TestCommitDetectsWriteConflict(t *testing.T) {
	g := New()
	lease := g.Acquire("note.md", "hash-at-read")
	err := lease.Commit("hash-changed")
	assert.ErrorIs(t, err, ErrWriteConflict)
}

func TestAbortReleasesWithoutCheck(t *testing.T) {
	g := New()
	lease := g.Acquire("note.md", "h")
	lease.Abort()

	lease2 := g.Acquire("note.md", "h2")
	require.NoError(t, lease2.Commit("h2"))
}

func TestDifferentPathsDoNotBlock(t *testing.T) {
	g := New()
	l1 := g.Acquire("a.md", "h")
	done := make(chan struct{})
	go func() {
		l2 := g.Acquire("b.md", "h")
		l2.Abort()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquiring a different path should not block")
	}
	l1.Abort()
}
