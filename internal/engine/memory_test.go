package engine

import "testing"

func TestMemorySetGetDelete(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	if err := m.Set([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := m.Get([]byte("a"))
	if err != nil || !ok || string(v) != "1" {
		t.Fatalf("get mismatch: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := m.Delete([]byte("a")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, ok, err = m.Get([]byte("a"))
	if err != nil || ok {
		t.Fatalf("expected key absent after delete, ok=%v err=%v", ok, err)
	}
}

func TestMemoryScanOrdering(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	for _, k := range []string{"b", "a", "c"} {
		if err := m.Set([]byte(k), []byte(k)); err != nil {
			t.Fatalf("set: %v", err)
		}
	}

	pairs, err := m.Scan(nil, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}
	for i, want := range []string{"a", "b", "c"} {
		if string(pairs[i].Key) != want {
			t.Fatalf("order mismatch at %d: got %q want %q", i, pairs[i].Key, want)
		}
	}
}

func TestMemoryScanPrefix(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	for _, k := range []string{"app", "apple", "banana", "apply"} {
		if err := m.Set([]byte(k), []byte(k)); err != nil {
			t.Fatalf("set: %v", err)
		}
	}

	pairs, err := m.ScanPrefix([]byte("app"))
	if err != nil {
		t.Fatalf("scan prefix: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs with prefix app, got %d", len(pairs))
	}
}

func TestMemoryClosedErrors(t *testing.T) {
	m := NewMemory()
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := m.Set([]byte("a"), []byte("1")); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
