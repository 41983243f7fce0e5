package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/", "200", 0.1)
	m.AuthzDenied("delete_post")
	m.Notification("email", NotifyDelivered)
	m.Visitor("KE")
	m.Registered()
	m.CommentModerated(true)
}

func TestCounters(t *testing.T) {
	m := New()
	m.Visitor("")
	m.Visitor("NG")
	m.Visitor("NG")
	m.AuthzDenied("delete_post")
	m.Notification("email", NotifyDropped)

	if got := testutil.ToFloat64(m.visitors.WithLabelValues("NG")); got != 2 {
		t.Fatalf("expected 2 NG visitors, got %v", got)
	}
	if got := testutil.ToFloat64(m.visitors.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected 1 unknown visitor, got %v", got)
	}
	if got := testutil.ToFloat64(m.authzDenials.WithLabelValues("delete_post")); got != 1 {
		t.Fatalf("expected 1 denial, got %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.Registered()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "devforum_registrations_total 1") {
		t.Fatalf("registrations counter missing from output")
	}
}
