package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTokenBucket_Allow(t *testing.T) {
	bucket := newTokenBucket(10, 1.0) // 10 tokens, 1 token per second

	// Should allow 10 requests immediately (burst)
	for i := 0; i < 10; i++ {
		if !bucket.allow() {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}

	// 11th request should be denied (no tokens left)
	if bucket.allow() {
		t.Error("Expected 11th request to be denied")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	bucket := newTokenBucket(10, 1.0) // 1 token per second

	for i := 0; i < 10; i++ {
		bucket.allow()
	}

	// Wait for 1 token to refill
	time.Sleep(1100 * time.Millisecond)

	if !bucket.allow() {
		t.Error("Expected request to be allowed after refill")
	}
	if bucket.allow() {
		t.Error("Expected request to be denied after consuming refilled token")
	}
}

func TestTokenBucket_GetStatus(t *testing.T) {
	bucket := newTokenBucket(10, 1.0)

	for i := 0; i < 5; i++ {
		bucket.allow()
	}

	remaining, resetTime := bucket.getStatus()
	if remaining != 5 {
		t.Errorf("Expected 5 remaining tokens, got %d", remaining)
	}
	if resetTime.Before(time.Now()) {
		t.Error("Reset time should be in the future")
	}
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, rateInfo := limiter.Allow("127.0.0.1", "/tasks", "GET")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if rateInfo.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", rateInfo.Limit)
		}
		if rateInfo.Remaining != 9-i {
			t.Errorf("Expected remaining %d, got %d", 9-i, rateInfo.Remaining)
		}
	}

	allowed, rateInfo := limiter.Allow("127.0.0.1", "/tasks", "GET")
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if rateInfo.Remaining != 0 {
		t.Errorf("Expected remaining 0, got %d", rateInfo.Remaining)
	}
	if rateInfo.RetryAfter <= 0 || rateInfo.RetryAfter > 6*time.Second+time.Millisecond {
		t.Errorf("Expected retry after about one token interval, got %v", rateInfo.RetryAfter)
	}
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, rateInfo := limiter.Allow("127.0.0.1", "/generate", "POST")
		if !allowed {
			t.Errorf("Expected whitelisted request %d to be allowed", i+1)
		}
		if rateInfo.Limit != 0 {
			t.Errorf("Expected limit 0 for whitelisted, got %d", rateInfo.Limit)
		}
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	if allowed, _ := limiter.Allow("192.168.1.1", "/health", "GET"); allowed {
		t.Error("Expected blacklisted request to be denied")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, rateInfo := limiter.Allow("127.0.0.1", "/generate", "POST")
		if !allowed {
			t.Errorf("Expected request %d to be allowed when disabled", i+1)
		}
		if rateInfo.Limit != 0 {
			t.Errorf("Expected limit 0 when disabled, got %d", rateInfo.Limit)
		}
	}
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Hour,
	})
	defer limiter.Stop()

	for i := 0; i < 20; i++ {
		if allowed, _ := limiter.Allow("127.0.0.1", "/health", "GET"); !allowed {
			t.Fatalf("Expected health request %d to be allowed", i+1)
		}
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/generate", Method: "POST", Limit: 5, Window: time.Hour, Burst: 5},
		},
	})
	defer limiter.Stop()

	clientID := "127.0.0.1"

	for i := 0; i < 5; i++ {
		allowed, rateInfo := limiter.Allow(clientID, "/generate", "POST")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if rateInfo.Limit != 5 {
			t.Errorf("Expected limit 5, got %d", rateInfo.Limit)
		}
	}

	allowed, rateInfo := limiter.Allow(clientID, "/generate", "POST")
	if allowed {
		t.Error("Expected 6th request to be denied")
	}
	if rateInfo.Limit != 5 {
		t.Errorf("Expected limit 5, got %d", rateInfo.Limit)
	}

	// Different endpoint should use default limit
	allowed, rateInfo = limiter.Allow(clientID, "/config", "GET")
	if !allowed {
		t.Error("Expected different endpoint to be allowed")
	}
	if rateInfo.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", rateInfo.Limit)
	}
}

func TestLimiter_PrefixSharesBucket(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/tasks/", Method: "GET", Limit: 2, Window: time.Hour, Burst: 2},
		},
	})
	defer limiter.Stop()

	limiter.Allow("127.0.0.1", "/tasks/a", "GET")
	limiter.Allow("127.0.0.1", "/tasks/b", "GET")
	if allowed, _ := limiter.Allow("127.0.0.1", "/tasks/c", "GET"); allowed {
		t.Error("Expected prefix-matched paths to share one bucket")
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Hour,
	})
	defer limiter.Stop()

	var wg sync.WaitGroup
	allowedCount := 0
	var mu sync.Mutex

	// Make 200 concurrent requests (should only allow 100)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _ := limiter.Allow("127.0.0.1", "/tasks", "GET")
			if allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if allowedCount != 100 {
		t.Errorf("Expected 100 allowed requests, got %d", allowedCount)
	}
}

func TestLimiter_CleanupBuckets(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/tasks", "GET")
	}
	if n := limiter.bucketCount(); n != 10 {
		t.Fatalf("Expected 10 buckets, got %d", n)
	}

	limiter.cleanupBuckets(time.Hour)
	if n := limiter.bucketCount(); n != 10 {
		t.Errorf("Expected recent buckets to survive cleanup, got %d", n)
	}

	time.Sleep(5 * time.Millisecond)
	limiter.cleanupBuckets(time.Millisecond)
	if n := limiter.bucketCount(); n != 0 {
		t.Errorf("Expected idle buckets to be removed, got %d", n)
	}
}

func TestLimiter_Burst(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/evaluate", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		},
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		if allowed, _ := limiter.Allow("127.0.0.1", "/evaluate", "POST"); !allowed {
			t.Errorf("Expected burst request %d to be allowed", i+1)
		}
	}

	if allowed, _ := limiter.Allow("127.0.0.1", "/evaluate", "POST"); allowed {
		t.Error("Expected request after burst to be denied")
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(nil)
	limiter.Stop()
	limiter.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, rateInfo := limiter.Allow("127.0.0.1", "/tasks", "GET")
	if !allowed {
		t.Error("Expected request to be allowed with default config")
	}
	if rateInfo.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", rateInfo.Limit)
	}
}

func TestDefaultEndpointConfigs(t *testing.T) {
	configs := DefaultEndpointConfigs()
	for _, path := range []string{"/generate", "/generate/loop", "/evaluate"} {
		if MatchEndpoint(path, "POST", configs) == nil {
			t.Errorf("Expected a limit for POST %s", path)
		}
	}
	for _, path := range []string{"/stream/abc", "/generate/stream/abc", "/tasks/abc"} {
		if MatchEndpoint(path, "GET", configs) == nil {
			t.Errorf("Expected a read limit for GET %s", path)
		}
	}
	if MatchEndpoint("/config", "GET", configs) != nil {
		t.Error("Expected GET /config to use the default limit")
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/generate", Method: "POST", Limit: 1},
		{Path: "/generate/", Method: "GET", Limit: 2},
		{Path: "/generate/stream/", Method: "GET", Limit: 3},
	}

	tests := []struct {
		path   string
		method string
		limit  int
		found  bool
	}{
		{"/generate", "POST", 1, true},
		{"/generate", "GET", 0, false},
		{"/generate/loop", "POST", 0, false},
		{"/generate/x", "GET", 2, true},
		{"/generate/stream/abc", "GET", 3, true},
		{"/health", "GET", 0, true},
		{"/other", "POST", 0, false},
	}

	for _, tt := range tests {
		got := MatchEndpoint(tt.path, tt.method, configs)
		if (got != nil) != tt.found {
			t.Errorf("%s %s: found = %v, want %v", tt.method, tt.path, got != nil, tt.found)
			continue
		}
		if got != nil && got.Limit != tt.limit {
			t.Errorf("%s %s: limit = %d, want %d", tt.method, tt.path, got.Limit, tt.limit)
		}
	}
}

func TestLoadConfigFrom(t *testing.T) {
	vars := map[string]string{
		"RATE_LIMIT_DEFAULT_LIMIT":  "50",
		"RATE_LIMIT_DEFAULT_WINDOW": "30s",
		"RATE_LIMIT_GENERATE_LIMIT": "3",
		"RATE_LIMIT_READ_LIMIT":     "bogus",
		"RATE_LIMIT_WHITELIST":      "10.0.0.1, 10.0.0.2,",
	}
	cfg := LoadConfigFrom(func(k string) string { return vars[k] })

	if !cfg.Enabled {
		t.Fatal("Expected rate limiting to be enabled by default")
	}
	if cfg.DefaultLimit != 50 || cfg.DefaultWindow != 30*time.Second {
		t.Errorf("default = %d/%s, want 50/30s", cfg.DefaultLimit, cfg.DefaultWindow)
	}
	if cfg.CleanupInterval != 5*time.Minute {
		t.Errorf("cleanup interval = %s, want 5m", cfg.CleanupInterval)
	}
	if len(cfg.Whitelist) != 2 || !cfg.Whitelist["10.0.0.2"] {
		t.Errorf("whitelist = %v", cfg.Whitelist)
	}
	if got := MatchEndpoint("/generate", "POST", cfg.EndpointConfigs); got == nil || got.Limit != 3 {
		t.Errorf("generate limit = %v, want 3", got)
	}
	if got := MatchEndpoint("/tasks/x", "GET", cfg.EndpointConfigs); got == nil || got.Limit != 300 {
		t.Errorf("malformed read limit should fall back to 300, got %v", got)
	}
}

func TestLoadConfigFrom_Disabled(t *testing.T) {
	cfg := LoadConfigFrom(func(k string) string {
		if k == "RATE_LIMIT_ENABLED" {
			return "false"
		}
		return ""
	})
	if cfg.Enabled {
		t.Error("Expected rate limiting to be disabled")
	}
}
