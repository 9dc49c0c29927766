package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"

	"github.com/srodi/appwatch/pkg/types"
)

func gaugeValues(t *testing.T, name string) map[string]float64 {
	t.Helper()
	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	values := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			values[labelValue(m, "app")] = m.GetGauge().GetValue()
		}
	}
	return values
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestUpdateReplacesAppGauges(t *testing.T) {
	table := types.NewUsageTable()
	table.Apps["editor"] = types.UsageRecord{TimeSpent: 4, RAMUsage: 400, DiskUsage: 40}
	table.Apps["old"] = types.UsageRecord{TimeSpent: 1}
	table.TotalSystemUsage = 5
	Update(table)

	next := types.NewUsageTable()
	next.Apps["editor"] = types.UsageRecord{TimeSpent: 6, RAMUsage: 600, DiskUsage: 60}
	next.TotalSystemUsage = 6
	Update(next)

	seconds := gaugeValues(t, "appwatch_app_time_spent_seconds")
	if len(seconds) != 1 || seconds["editor"] != 6 {
		t.Fatalf("unexpected seconds gauges: %v", seconds)
	}
	if ram := gaugeValues(t, "appwatch_app_ram_usage_bytes"); ram["editor"] != 600 {
		t.Fatalf("unexpected ram gauges: %v", ram)
	}
	if total := gaugeValues(t, "appwatch_total_system_usage_seconds"); total[""] != 6 {
		t.Fatalf("unexpected total gauge: %v", total)
	}
}

func TestHandlerServesMetricsAndHealth(t *testing.T) {
	ObserveSave(nil)
	ObserveSave(errors.New("disk full"))

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, want := range []string{`appwatch_saves_total{result="ok"}`, `appwatch_saves_total{result="error"}`} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %s:\n%s", want, body)
		}
	}

	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected health status %d", resp.StatusCode)
	}
}

func TestServerStartStop(t *testing.T) {
	s := NewServer("127.0.0.1:0", zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	resp.Body.Close()
	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
