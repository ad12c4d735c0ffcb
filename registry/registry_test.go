package registry

import "testing"

func TestDispatchAdd(t *testing.T) {
	r := New(nil)
	if err := r.Register("add", func(a, b int) (int, error) { return a + b, nil }); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := r.Dispatch("add", 3, 4)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if got.(int) != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestDispatchMissingMethod(t *testing.T) {
	r := New(nil)
	_, err := r.Dispatch("doesnotexist", 3, 4)
	if err == nil {
		t.Fatal("expected an error for a missing method")
	}
	missing, ok := err.(*MissingMethod)
	if !ok {
		t.Fatalf("expected *MissingMethod, got %T (%v)", err, err)
	}
	if missing.Name != "doesnotexist" {
		t.Fatalf("expected Name %q, got %q", "doesnotexist", missing.Name)
	}
}

func TestDispatchDottedName(t *testing.T) {
	r := New(nil)
	if err := r.Register("math.add", func(a, b int) (int, error) { return a + b, nil }); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	got, err := r.Dispatch("math.add", 3, 4)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if got.(int) != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestRegisterReplacesSilentlyButWarns(t *testing.T) {
	warned := false
	logger := &recordingLogger{onWarnf: func(string, ...any) { warned = true }}
	r := New(logger)

	_ = r.Register("add", func(a, b int) (int, error) { return a + b, nil })
	_ = r.Register("add", func(a, b int) (int, error) { return a * b, nil })

	if !warned {
		t.Fatal("expected a warning on re-registration")
	}
	got, err := r.Dispatch("add", 3, 4)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if got.(int) != 12 {
		t.Fatalf("expected the replacement handler (3*4=12), got %v", got)
	}
}

func TestHandlerError(t *testing.T) {
	r := New(nil)
	_ = r.Register("raises_error", func() (any, error) {
		return nil, &handlerError{msg: "some error occurred"}
	})

	_, err := r.Dispatch("raises_error")
	if err == nil || err.Error() != "some error occurred" {
		t.Fatalf("expected handler error to propagate unchanged, got %v", err)
	}
}

type handlerError struct{ msg string }

func (e *handlerError) Error() string { return e.msg }

type recordingLogger struct {
	onWarnf func(string, ...any)
}

func (recordingLogger) Debugf(string, ...any) {}
func (recordingLogger) Infof(string, ...any)  {}
func (l *recordingLogger) Warnf(format string, args ...any) {
	if l.onWarnf != nil {
		l.onWarnf(format, args...)
	}
}
func (recordingLogger) Errorf(string, ...any) {}
