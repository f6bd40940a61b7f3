// Package theme holds named brightness limit presets.
package theme

import (
	"fmt"
	"sort"
	"strings"
)

type Limits struct {
	Max int `mapstructure:"max" yaml:"max" json:"max"`
	Min int `mapstructure:"min" yaml:"min" json:"min"`
}

// Set maps theme names to limits.
type Set map[string]Limits

// Defaults are the built-in presets.
func Defaults() Set {
	return Set{
		"Outdoor": {Max: 100, Min: 50},
		"Indoor":  {Max: 50, Min: 10},
	}
}

// Lookup finds a theme ignoring case and returns its canonical name.
func (s Set) Lookup(name string) (string, Limits, bool) {
	if l, ok := s[name]; ok {
		return name, l, true
	}
	for n, l := range s {
		if strings.EqualFold(n, name) {
			return n, l, true
		}
	}
	return "", Limits{}, false
}

func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate rejects presets the controller would refuse.
func (s Set) Validate() error {
	for _, n := range s.Names() {
		l := s[n]
		if l.Min < 0 || l.Min > l.Max || l.Max > 100 {
			return fmt.Errorf("theme %q: need 0 <= min <= max <= 100, got min=%d max=%d", n, l.Min, l.Max)
		}
	}
	return nil
}
