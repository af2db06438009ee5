package analytics

import (
	"testing"
	"time"
)

func TestTimeframeStart(t *testing.T) {
	ref := time.Date(2025, 11, 5, 15, 30, 0, 0, time.UTC)
	cases := map[string]string{
		"24h": "2025-11-04",
		"3d":  "2025-11-02",
		"7d":  "2025-10-29",
		"30d": "2025-10-06",
		"3m":  "2025-08-07",
		"6m":  "2025-05-09",
		"12m": "2024-11-05",
	}
	for raw, want := range cases {
		tf, err := ParseTimeframe(raw)
		if err != nil {
			t.Fatalf("parse %s: %v", raw, err)
		}
		got := tf.Start(ref)
		if got == nil || got.Format("2006-01-02") != want {
			t.Fatalf("%s: expected %s, got %v", raw, want, got)
		}
	}
}

func TestTimeframeAll(t *testing.T) {
	for _, raw := range []string{"", "all", " ALL "} {
		tf, err := ParseTimeframe(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if tf.Start(time.Now()) != nil {
			t.Fatalf("%q: expected open start", raw)
		}
	}
	if _, err := ParseTimeframe("2w"); err == nil {
		t.Fatalf("expected error for unknown timeframe")
	}
}
