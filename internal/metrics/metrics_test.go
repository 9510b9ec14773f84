package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterDefaultIdempotent(t *testing.T) {
	RegisterDefault()
	RegisterDefault()

	before := testutil.ToFloat64(DispatchDecisions.WithLabelValues("assigned"))
	DispatchDecisions.WithLabelValues("assigned").Inc()
	if got := testutil.ToFloat64(DispatchDecisions.WithLabelValues("assigned")); got != before+1 {
		t.Fatalf("assigned = %v, want %v", got, before+1)
	}

	mfs, err := Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "dispatch_decisions_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("dispatch_decisions_total not gathered")
	}
}
