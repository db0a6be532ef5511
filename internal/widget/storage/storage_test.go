package storage

import (
	"sync"
	"testing"
)

func TestMemory(t *testing.T) {
	m := NewMemory()

	if _, ok := m.Get("missing"); ok {
		t.Error("Get on empty store reported a hit")
	}

	m.Set("k", "v1")
	if v, ok := m.Get("k"); !ok || v != "v1" {
		t.Errorf("Get = %q, %v", v, ok)
	}

	m.Set("k", "v2")
	if v, _ := m.Get("k"); v != "v2" {
		t.Errorf("overwrite Get = %q", v)
	}

	m.Delete("k")
	if _, ok := m.Get("k"); ok {
		t.Error("Get after Delete reported a hit")
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Set("shared", "v")
				m.Get("shared")
				m.Delete("shared")
			}
		}()
	}
	wg.Wait()
}
