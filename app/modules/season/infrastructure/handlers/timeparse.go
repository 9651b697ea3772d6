package seasonhandlers

import (
	"fmt"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"
)

// parseTimeInput accepts an RFC3339 timestamp or English natural language
// ("sunday 11pm", "in 2 days"). Natural-language inputs resolve relative to
// base.
func parseTimeInput(raw string, base time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}

	w := when.New(nil)
	w.Add(en.All...)

	result, err := w.Parse(raw, base)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", raw, err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("no time found in %q", raw)
	}
	return result.Time.UTC(), nil
}
