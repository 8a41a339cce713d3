package extractor

import "time"

// SetClock replaces the time source used for circuit decisions.
func (f *FallbackExtractor) SetClock(now func() time.Time) {
	f.now = now
}
