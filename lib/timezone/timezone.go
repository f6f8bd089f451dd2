// Package timezone resolves the zone scheduled runs and report stamps
// are expressed in.
package timezone

import (
	"fmt"
	"time"
)

// Load resolves an IANA zone name, "" means the machine's local zone.
func Load(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", name, err)
	}
	return loc, nil
}
