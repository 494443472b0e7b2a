package collab

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/picshed/picshed/storage"
)

func testSession(userID, pictureID int64) *Session {
	return newSession(&storage.User{ID: userID, Name: "u"}, pictureID, nil, 16)
}

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry()
	s1 := testSession(1, 10)
	s2 := testSession(2, 10)

	r.Add(10, s1)
	r.Add(10, s2)
	assert.Equal(t, 2, r.Count(10))

	t.Run("add is idempotent", func(t *testing.T) {
		r.Add(10, s1)
		assert.Equal(t, 2, r.Count(10))
	})

	t.Run("remove reports presence", func(t *testing.T) {
		assert.True(t, r.Remove(10, s1))
		assert.False(t, r.Remove(10, s1), "second remove of the same session is a no-op")
		assert.Equal(t, 1, r.Count(10))
	})

	t.Run("remove from unknown picture", func(t *testing.T) {
		assert.False(t, r.Remove(99, s1))
	})

	t.Run("empty set is pruned", func(t *testing.T) {
		assert.True(t, r.Remove(10, s2))
		assert.Empty(t, r.Pictures(), "no picture entry may linger with zero members")
	})
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	s1 := testSession(1, 10)
	s2 := testSession(2, 10)
	s3 := testSession(3, 20)

	r.Add(10, s1)
	r.Add(10, s2)
	r.Add(20, s3)

	snap := r.Snapshot(10)
	assert.Len(t, snap, 2)
	assert.Contains(t, snap, s1)
	assert.Contains(t, snap, s2)
	assert.NotContains(t, snap, s3, "snapshot must be scoped to one picture")

	t.Run("snapshot is a copy", func(t *testing.T) {
		r.Remove(10, s1)
		assert.Len(t, snap, 2, "earlier snapshot must not observe later removals")
		assert.Len(t, r.Snapshot(10), 1)
	})

	t.Run("unknown picture yields nil", func(t *testing.T) {
		assert.Nil(t, r.Snapshot(99))
	})
}

func TestRegistryConcurrentChurn(t *testing.T) {
	const workers = 16
	const rounds = 100
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		pictureID := int64(i % 4)
		s := testSession(int64(i), pictureID)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				r.Add(pictureID, s)
				r.Snapshot(pictureID)
				r.Remove(pictureID, s)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, r.Pictures(), "all sessions removed, all entries pruned")
}
