package dnsclient

import "testing"

func TestHostResultAnyRecord(t *testing.T) {
	h := HostResult{MX: RecordSet{Exists: true}}
	if !h.AnyRecord() {
		t.Error("expected AnyRecord true when MX exists")
	}
	empty := HostResult{}
	if empty.AnyRecord() {
		t.Error("expected AnyRecord false on empty result")
	}
}

func TestHostResultAnyError(t *testing.T) {
	h := HostResult{NS: RecordSet{Errors: []string{"timeout"}}}
	if !h.AnyError() {
		t.Error("expected AnyError true when NS has errors")
	}
}

func TestNewDefaultsTimeout(t *testing.T) {
	c := New(0)
	if c.Timeout <= 0 {
		t.Errorf("expected positive default timeout, got %v", c.Timeout)
	}
}
