package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewRecorder(reg)
	r.SetRegistered(3)
	r.IncFiring("heartbeat")
	r.IncParseFailure()
	r.ObserveSearch(150 * time.Microsecond)
	r.ObserveCatchup(2 * time.Second)
	r.IncReload("success")
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}
