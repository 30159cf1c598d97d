package collections

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundedMap_SetGet(t *testing.T) {
	t.Run("Should return stored value", func(t *testing.T) {
		m := NewBoundedMap[string, int](4)
		m.Set("a", 1)

		v, ok := m.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, v)
	})

	t.Run("Should report missing key", func(t *testing.T) {
		m := NewBoundedMap[string, int](4)

		v, ok := m.Get("missing")
		assert.False(t, ok)
		assert.Equal(t, 0, v)
	})

	t.Run("Should overwrite existing key without growing", func(t *testing.T) {
		m := NewBoundedMap[string, int](4)
		m.Set("a", 1)
		m.Set("a", 2)

		v, _ := m.Get("a")
		assert.Equal(t, 2, v)
		assert.Equal(t, 1, m.Len())
	})
}

func TestBoundedMap_Eviction(t *testing.T) {
	t.Run("Should evict oldest inserted entry when full", func(t *testing.T) {
		m := NewBoundedMap[string, int](3)
		m.Set("a", 1)
		m.Set("b", 2)
		m.Set("c", 3)
		m.Set("d", 4)

		_, ok := m.Get("a")
		assert.False(t, ok, "oldest entry should be gone")
		assert.Equal(t, 3, m.Len())

		v, ok := m.Get("d")
		assert.True(t, ok)
		assert.Equal(t, 4, v)
	})

	t.Run("Should keep insertion position on update", func(t *testing.T) {
		m := NewBoundedMap[string, int](2)
		m.Set("a", 1)
		m.Set("b", 2)
		// Updating "a" must not make it the newest entry.
		m.Set("a", 10)
		m.Set("c", 3)

		_, ok := m.Get("a")
		assert.False(t, ok, "updated entry keeps its age and is evicted first")

		_, ok = m.Get("b")
		assert.True(t, ok)
	})

	t.Run("Should treat non-positive capacity as one", func(t *testing.T) {
		m := NewBoundedMap[string, int](0)
		m.Set("a", 1)
		m.Set("b", 2)

		assert.Equal(t, 1, m.Len())
		_, ok := m.Get("b")
		assert.True(t, ok)
	})
}

func TestBoundedMap_Range(t *testing.T) {
	t.Run("Should visit entries in insertion order", func(t *testing.T) {
		m := NewBoundedMap[string, int](8)
		m.Set("a", 1)
		m.Set("b", 2)
		m.Set("c", 3)

		var keys []string
		m.Range(func(key string, _ int) bool {
			keys = append(keys, key)
			return true
		})

		assert.Equal(t, []string{"a", "b", "c"}, keys)
	})

	t.Run("Should stop when callback returns false", func(t *testing.T) {
		m := NewBoundedMap[string, int](8)
		m.Set("a", 1)
		m.Set("b", 2)

		count := 0
		m.Range(func(string, int) bool {
			count++
			return false
		})

		assert.Equal(t, 1, count)
	})

	t.Run("Should allow deleting while ranging", func(t *testing.T) {
		m := NewBoundedMap[string, int](8)
		m.Set("a", 1)
		m.Set("b", 2)

		m.Range(func(key string, _ int) bool {
			m.Delete(key)
			return true
		})

		assert.Equal(t, 0, m.Len())
	})
}

func TestBoundedMap_Concurrency(t *testing.T) {
	t.Run("Should stay within capacity under concurrent writers", func(t *testing.T) {
		m := NewBoundedMap[string, int](64)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				for j := 0; j < 200; j++ {
					m.Set(fmt.Sprintf("w%d-%d", worker, j), j)
				}
			}(i)
		}
		wg.Wait()

		assert.LessOrEqual(t, m.Len(), 64)
	})
}
