package log

import "testing"

func TestSetupLevels(t *testing.T) {
	t.Cleanup(func() { _ = Setup("info", "json") })

	cases := map[string]bool{"debug": true, "info": false, "warn": false, "bogus": false}
	for level, debug := range cases {
		if err := Setup(level, "console"); err != nil {
			t.Fatalf("%s: unexpected error: %v", level, err)
		}
		if got := Logger().Core().Enabled(-1); got != debug {
			t.Errorf("%s: debug enabled = %v, want %v", level, got, debug)
		}
	}
}
