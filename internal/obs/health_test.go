package obs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shieldedpay/transferzk/internal/transfer"
)

func TestCheckHealthAllHealthy(t *testing.T) {
	hc := NewHealthChecker("v0.1.0")
	hc.RegisterComponent("key_context", func() error { return nil })
	hc.RegisterComponent("rate_limiter", func() error { return nil })

	health := hc.CheckHealth()
	if health.OverallStatus != Healthy {
		t.Fatalf("expected overall status healthy, got %s", health.OverallStatus)
	}
	if len(health.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(health.Components))
	}
}

func TestCheckHealthPropagatesUnhealthyComponent(t *testing.T) {
	hc := NewHealthChecker("v0.1.0")
	hc.RegisterComponent("key_context", func() error { return errors.New("proving key missing") })

	health := hc.CheckHealth()
	if health.OverallStatus != Unhealthy {
		t.Fatalf("expected overall status unhealthy, got %s", health.OverallStatus)
	}
}

func TestUpdateComponentOverridesStatus(t *testing.T) {
	hc := NewHealthChecker("v0.1.0")
	hc.RegisterComponent("audit_log", func() error { return nil })
	hc.UpdateComponent("audit_log", Degraded, "disk usage above threshold")

	health := hc.GetHealth()
	if health.OverallStatus != Degraded {
		t.Fatalf("expected overall status degraded, got %s", health.OverallStatus)
	}
}

func TestCheckHealthDegradesOnTransientIOFailure(t *testing.T) {
	hc := NewHealthChecker("v0.1.0")
	hc.RegisterComponent("epoch_keycontext", func() error {
		return fmt.Errorf("transferproofd: load epoch key context: %w", transfer.ErrIO)
	})

	health := hc.CheckHealth()
	if health.OverallStatus != Degraded {
		t.Fatalf("expected overall status degraded for a transient I/O failure, got %s", health.OverallStatus)
	}
	if health.Components[0].Status != Degraded {
		t.Fatalf("expected component status degraded, got %s", health.Components[0].Status)
	}
}

func TestCheckHealthStaysUnhealthyOnSynthesisFailure(t *testing.T) {
	hc := NewHealthChecker("v0.1.0")
	hc.RegisterComponent("keycontext", func() error {
		return fmt.Errorf("transferproofd: prove: %w", transfer.ErrSynthesisFailed)
	})

	health := hc.CheckHealth()
	if health.OverallStatus != Unhealthy {
		t.Fatalf("expected overall status unhealthy for a synthesis failure, got %s", health.OverallStatus)
	}
}

func TestCreateHealthResponseReflectsStatus(t *testing.T) {
	hc := NewHealthChecker("v0.1.0")
	hc.RegisterComponent("key_context", func() error { return errors.New("boom") })
	health := hc.CheckHealth()

	resp := CreateHealthResponse(health)
	if resp.Status != "error" {
		t.Fatalf("expected response status error, got %s", resp.Status)
	}
}
