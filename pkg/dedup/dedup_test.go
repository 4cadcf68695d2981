package dedup

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestDeduper(ttl time.Duration, max int) (*Deduper, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	d := New(ttl, max)
	d.now = clk.Now
	return d, clk
}

func TestAllow_WithinTTL(t *testing.T) {
	d, clk := newTestDeduper(time.Minute, 10)

	if !d.Allow("missing|a.csv") {
		t.Fatalf("first occurrence must be allowed")
	}
	if d.Allow("missing|a.csv") {
		t.Fatalf("repeat within TTL must be suppressed")
	}
	clk.t = clk.t.Add(time.Minute)
	if !d.Allow("missing|a.csv") {
		t.Fatalf("key must be allowed again after TTL")
	}
}

func TestAllow_EmptyKeyAndNil(t *testing.T) {
	d, _ := newTestDeduper(time.Minute, 10)
	if !d.Allow("") || !d.Allow("") {
		t.Fatalf("empty key must always be allowed")
	}
	var nilD *Deduper
	if !nilD.Allow("x") {
		t.Fatalf("nil deduper must allow")
	}
}

func TestForget(t *testing.T) {
	d, _ := newTestDeduper(time.Hour, 10)
	d.Allow("k")
	d.Forget("k")
	if !d.Allow("k") {
		t.Fatalf("forgotten key must be allowed")
	}
}

func TestAllow_BoundedSize(t *testing.T) {
	d, clk := newTestDeduper(time.Hour, 3)
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		clk.t = clk.t.Add(time.Second)
		d.Allow(k)
	}
	if n := d.Len(); n != 3 {
		t.Fatalf("len=%d", n)
	}
	// "a" è stata rimossa per prima: torna ammessa
	if !d.Allow("a") {
		t.Fatalf("evicted key should be allowed again")
	}
	if d.Allow("e") {
		t.Fatalf("most recent key should still be tracked")
	}
}
