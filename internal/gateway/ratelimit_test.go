package gateway

import "testing"

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, 5)
	if rl.Enabled() {
		t.Fatal("rpm=0 should disable the limiter")
	}
	for i := 0; i < 100; i++ {
		if !rl.Allow("k") {
			t.Fatal("disabled limiter denied a request")
		}
	}
}

func TestRateLimiterBurstThenDeny(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	for i := 0; i < 3; i++ {
		if !rl.Allow("k") {
			t.Fatalf("burst request %d denied", i)
		}
	}
	if rl.Allow("k") {
		t.Error("request beyond burst allowed")
	}
	// Keys are independent.
	if !rl.Allow("other") {
		t.Error("fresh key denied")
	}
	// Forget resets the key's budget.
	rl.Forget("k")
	if !rl.Allow("k") {
		t.Error("forgotten key still limited")
	}
}
