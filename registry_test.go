package ndfilter

import (
	"errors"
	"slices"
	"testing"
)

func registerMock(t *testing.T, name string, m *mockBackend) {
	t.Helper()
	RegisterBackend(name, func() Backend { return m })
	t.Cleanup(func() { UnregisterBackend(name) })
}

func TestOpenBackendUnknown(t *testing.T) {
	if _, err := OpenBackend("no-such-backend"); !errors.Is(err, ErrNoBackend) {
		t.Errorf("OpenBackend() = %v, want ErrNoBackend", err)
	}
}

func TestOpenBackendShared(t *testing.T) {
	created := 0
	RegisterBackend("shared-test", func() Backend {
		created++
		return &mockBackend{name: "shared-test"}
	})
	t.Cleanup(func() { UnregisterBackend("shared-test") })

	a, err := OpenBackend("shared-test")
	if err != nil {
		t.Fatal(err)
	}
	b, err := OpenBackend("shared-test")
	if err != nil {
		t.Fatal(err)
	}
	if a != b || created != 1 {
		t.Errorf("backend created %d times, want shared instance", created)
	}
}

func TestOpenBackendInitError(t *testing.T) {
	initErr := errors.New("no device")
	registerMock(t, "init-error-test", &mockBackend{initErr: initErr})

	_, err := OpenBackend("init-error-test")
	if !errors.Is(err, initErr) {
		t.Errorf("OpenBackend() = %v, want %v", err, initErr)
	}
}

func TestOpenBackendInitFailureRemembered(t *testing.T) {
	failing := &mockBackend{name: BackendWGPU, initErr: errors.New("no adapter")}
	registerMock(t, BackendWGPU, failing)
	registerMock(t, BackendCPU, &mockBackend{name: BackendCPU})

	for range 5 {
		if _, err := OpenBackend(BackendWGPU); !errors.Is(err, failing.initErr) {
			t.Fatalf("OpenBackend() = %v, want %v", err, failing.initErr)
		}
		b, err := DefaultBackend()
		if err != nil {
			t.Fatal(err)
		}
		if b.Name() != BackendCPU {
			t.Fatalf("DefaultBackend() = %q, want %q", b.Name(), BackendCPU)
		}
	}
	if n := failing.initCount(); n != 1 {
		t.Errorf("Init called %d times, want 1", n)
	}

	// RetryBackend forgets the failure
	RetryBackend(BackendWGPU)
	if _, err := OpenBackend(BackendWGPU); !errors.Is(err, failing.initErr) {
		t.Fatalf("OpenBackend() after RetryBackend = %v", err)
	}
	if n := failing.initCount(); n != 2 {
		t.Errorf("Init called %d times after RetryBackend, want 2", n)
	}

	// registering again forgets the failure
	retry := &mockBackend{name: BackendWGPU}
	RegisterBackend(BackendWGPU, func() Backend { return retry })
	if _, err := OpenBackend(BackendWGPU); err != nil {
		t.Fatalf("OpenBackend() after re-register = %v", err)
	}
	if n := retry.initCount(); n != 1 {
		t.Errorf("re-registered Init called %d times, want 1", n)
	}
}

func TestOpenBackendNilFactory(t *testing.T) {
	RegisterBackend("nil-test", func() Backend { return nil })
	t.Cleanup(func() { UnregisterBackend("nil-test") })
	if _, err := OpenBackend("nil-test"); !errors.Is(err, ErrNoBackend) {
		t.Errorf("OpenBackend() = %v, want ErrNoBackend", err)
	}
}

func TestRegisterBackendReplacesOld(t *testing.T) {
	first := &mockBackend{name: "first"}
	RegisterBackend("replace-test", func() Backend { return first })
	t.Cleanup(func() { UnregisterBackend("replace-test") })
	if _, err := OpenBackend("replace-test"); err != nil {
		t.Fatal(err)
	}

	second := &mockBackend{name: "second"}
	RegisterBackend("replace-test", func() Backend { return second })
	if !first.isClosed() {
		t.Error("replaced backend was not closed")
	}
	b, err := OpenBackend("replace-test")
	if err != nil {
		t.Fatal(err)
	}
	if b.Name() != "second" {
		t.Errorf("Name() = %q, want second", b.Name())
	}
}

func TestAvailableBackendsOrder(t *testing.T) {
	registerMock(t, "zz-test", &mockBackend{})
	registerMock(t, "aa-test", &mockBackend{})
	registerMock(t, BackendCPU, &mockBackend{name: BackendCPU})

	names := AvailableBackends()
	cpu := slices.Index(names, BackendCPU)
	aa := slices.Index(names, "aa-test")
	zz := slices.Index(names, "zz-test")
	if cpu < 0 || aa < 0 || zz < 0 {
		t.Fatalf("AvailableBackends() = %v", names)
	}
	if !(cpu < aa && aa < zz) {
		t.Errorf("AvailableBackends() = %v, want priority then lexical order", names)
	}
}

func TestDefaultBackendSkipsFailing(t *testing.T) {
	registerMock(t, BackendWGPU, &mockBackend{initErr: errors.New("no adapter")})
	registerMock(t, BackendCPU, &mockBackend{name: BackendCPU})

	b, err := DefaultBackend()
	if err != nil {
		t.Fatal(err)
	}
	if b.Name() != BackendCPU {
		t.Errorf("DefaultBackend() = %q, want %q", b.Name(), BackendCPU)
	}
}

func TestCloseBackends(t *testing.T) {
	m := &mockBackend{name: "close-test"}
	registerMock(t, "close-test", m)
	if _, err := OpenBackend("close-test"); err != nil {
		t.Fatal(err)
	}
	CloseBackends()
	if !m.isClosed() {
		t.Error("CloseBackends did not close the opened backend")
	}
	if slices.Contains(AvailableBackends(), "close-test") == false {
		t.Error("CloseBackends removed the factory")
	}
}
