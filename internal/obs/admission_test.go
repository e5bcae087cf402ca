package obs

import (
	"testing"
	"time"
)

func testConfig(burst, perSecond, maxConcurrency, timeoutSeconds int) *Config {
	cfg := DefaultConfig()
	cfg.RateLimitBurst = burst
	cfg.RateLimitPerSecond = perSecond
	cfg.MaxConcurrency = maxConcurrency
	cfg.TimeoutSeconds = timeoutSeconds
	return cfg
}

func TestProofAdmissionThrottlesPerCaller(t *testing.T) {
	a := NewProofAdmission(testConfig(1, 1, 4, 5))

	release, err := a.Admit("alice")
	if err != nil {
		t.Fatalf("alice's first request should be admitted: %v", err)
	}
	release()

	if _, err := a.Admit("alice"); err == nil {
		t.Fatal("alice's second request should be rate-limited: bucket exhausted")
	}

	if _, err := a.Admit("bob"); err != nil {
		t.Fatalf("bob should have his own independent bucket: %v", err)
	}
}

func TestProofAdmissionBoundsConcurrency(t *testing.T) {
	a := NewProofAdmission(testConfig(10, 10, 1, 1))

	release1, err := a.Admit("alice")
	if err != nil {
		t.Fatalf("first slot should be admitted: %v", err)
	}
	defer release1()

	start := time.Now()
	if _, err := a.Admit("bob"); err == nil {
		t.Fatal("second caller should time out: only one concurrency slot configured")
	} else if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("expected Admit to block for roughly the configured timeout, returned after %v", elapsed)
	}
}

func TestProofAdmissionReleaseFreesSlot(t *testing.T) {
	a := NewProofAdmission(testConfig(10, 10, 1, 2))

	release, err := a.Admit("alice")
	if err != nil {
		t.Fatalf("first request should be admitted: %v", err)
	}
	release()

	if _, err := a.Admit("bob"); err != nil {
		t.Fatalf("releasing the first slot should free it for bob: %v", err)
	}
}

func TestProofAdmissionResetRestoresTokens(t *testing.T) {
	a := NewProofAdmission(testConfig(1, 1, 4, 1))

	release, err := a.Admit("alice")
	if err != nil {
		t.Fatalf("first request should be admitted: %v", err)
	}
	release()

	if a.Remaining("alice") != 0 {
		t.Fatalf("expected 0 tokens remaining after exhausting the bucket, got %d", a.Remaining("alice"))
	}
	a.Reset("alice")
	if a.Remaining("alice") != 1 {
		t.Fatalf("expected 1 token after reset, got %d", a.Remaining("alice"))
	}
}
