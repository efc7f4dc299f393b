package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	rentalAuth "github.com/MrEthical07/rentalAuth"
)

type fakeSource struct {
	snapshot rentalAuth.MetricsSnapshot
	dropped  map[string]uint64
}

func (f fakeSource) MetricsSnapshot() rentalAuth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) EventsDroppedByName() map[string]uint64      { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: rentalAuth.MetricsSnapshot{
			Counters:   map[rentalAuth.MetricID]uint64{},
			Histograms: map[rentalAuth.MetricID][]uint64{},
		},
	})
	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderCountersAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: rentalAuth.MetricsSnapshot{
			Counters: map[rentalAuth.MetricID]uint64{
				rentalAuth.MetricAuthenticateRevoked: 4,
				rentalAuth.MetricReissueSuccess:      9,
			},
			Histograms: map[rentalAuth.MetricID][]uint64{
				rentalAuth.MetricAuthenticateLatency: {5, 4, 3, 2, 1, 0, 0, 1},
			},
		},
		dropped: map[string]uint64{"token.reissued": 1, "login.success": 3},
	})

	out := exp.Render()
	for _, want := range []string{
		"# TYPE rentalauth_authenticate_total counter",
		`rentalauth_authenticate_total{outcome="revoked"} 4`,
		`rentalauth_authenticate_total{outcome="signature_invalid"} 0`,
		`rentalauth_reissue_total{outcome="success"} 9`,
		`rentalauth_login_total{outcome="locked"} 0`,
		"rentalauth_logout_total 0",
		"# TYPE rentalauth_authenticate_latency_seconds histogram",
		`rentalauth_authenticate_latency_seconds_bucket{le="0.0005"} 5`,
		`rentalauth_authenticate_latency_seconds_bucket{le="0.005"} 14`,
		`rentalauth_authenticate_latency_seconds_bucket{le="+Inf"} 16`,
		"rentalauth_authenticate_latency_seconds_count 16",
		"rentalauth_events_dropped_total{event=\"login.success\"} 3\nrentalauth_events_dropped_total{event=\"token.reissued\"} 1\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestRenderShortHistogramPadsBuckets(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: rentalAuth.MetricsSnapshot{
			Counters: map[rentalAuth.MetricID]uint64{rentalAuth.MetricLogout: 2},
			Histograms: map[rentalAuth.MetricID][]uint64{
				rentalAuth.MetricAuthenticateLatency: {1, 2},
			},
		},
	})

	out := exp.Render()
	for _, want := range []string{
		"rentalauth_logout_total 2",
		`rentalauth_authenticate_latency_seconds_bucket{le="0.05"} 3`,
		"rentalauth_authenticate_latency_seconds_count 3",
		"# TYPE rentalauth_events_dropped_total counter\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "rentalauth_events_dropped_total{") {
		t.Fatalf("no dropped series expected:\n%s", out)
	}
}

func TestEscapeLabel(t *testing.T) {
	if got := escapeLabel("a\"b\\c\nd"); got != `a\"b\\c\nd` {
		t.Fatalf("escapeLabel = %q", got)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: rentalAuth.MetricsSnapshot{
			Counters:   map[rentalAuth.MetricID]uint64{rentalAuth.MetricLogout: 1},
			Histograms: map[rentalAuth.MetricID][]uint64{},
		},
	})

	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: rentalAuth.MetricsSnapshot{
			Counters: map[rentalAuth.MetricID]uint64{
				rentalAuth.MetricAuthenticateSuccess: 100000,
				rentalAuth.MetricAuthenticateRevoked: 120,
				rentalAuth.MetricLoginSuccess:        1000,
				rentalAuth.MetricReissueSuccess:      800,
				rentalAuth.MetricLogout:              300,
			},
			Histograms: map[rentalAuth.MetricID][]uint64{
				rentalAuth.MetricAuthenticateLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	for b.Loop() {
		_ = exp.Render()
	}
}
