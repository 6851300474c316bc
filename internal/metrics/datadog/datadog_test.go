package datadog

import (
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"hanami/internal/metrics"
)

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("expected error for empty Addr")
	}
}

func TestLabelsToTags_Sorted(t *testing.T) {
	t.Parallel()

	got := labelsToTags(metrics.Labels{"step": "parse", "job": "upload", "status": "error"})
	want := []string{"job:upload", "status:error", "step:parse"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tags = %v, want %v", got, want)
	}
	if labelsToTags(nil) != nil {
		t.Fatalf("nil labels should produce nil tags")
	}
}

func TestBackend_SendsOverUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listen: %v", err)
	}
	defer pc.Close()

	b, err := NewBackend(Config{Addr: pc.LocalAddr().String(), Namespace: "hanami."})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	defer b.Close()

	b.IncCounter(metrics.RowsTotal, 3, metrics.Labels{"kind": "saved"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	_ = pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := string(buf[:n])
	if !strings.Contains(got, "hanami."+metrics.RowsTotal+":3|c") || !strings.Contains(got, "kind:saved") {
		t.Fatalf("payload = %q", got)
	}
}
