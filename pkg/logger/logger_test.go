package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLoggerCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	ctx := logg.WithTenantID(context.Background(), "tenant-1")
	ctx = logg.WithOrderID(ctx, "order-9")
	logg.Info(ctx, "hello")

	out := buf.String()
	for _, want := range []string{`"tenant_id":"tenant-1"`, `"order_id":"order-9"`, `"service":"test"`, `"message":"hello"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %s, got %s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if got := ParseLevel("warn"); got.String() != "warn" {
		t.Fatalf("unexpected level %s", got)
	}
	if got := ParseLevel("not-a-level"); got.String() != "info" {
		t.Fatalf("unexpected fallback level %s", got)
	}
}
