package httpmiddleware

import (
	"testing"
	"time"
)

func TestTokenBucketExhaustsAndRefills(t *testing.T) {
	l := NewTokenBucket(2, 60) // 1 token per second
	now := time.Now()

	if !l.allow("ip", now) || !l.allow("ip", now) {
		t.Fatal("first two requests should pass")
	}
	if l.allow("ip", now) {
		t.Error("third request should be limited")
	}
	if !l.allow("ip", now.Add(2*time.Second)) {
		t.Error("request after refill should pass")
	}
	if !l.allow("other", now) {
		t.Error("independent client should not be limited")
	}
}
