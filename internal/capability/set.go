package capability

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/emberlink/ecomax-bridge/internal/ecomax"
)

// Well-known capability tokens. Base tokens are named after the device
// value whose presence they record; TokenWaterHeater is synthetic,
// derived from the water heater temperature reading.
const (
	TokenWaterHeater = "water_heater"
	TokenControl     = ecomax.ValueControl
	TokenSchedules   = ecomax.ValueSchedules
	TokenMixers      = ecomax.ValueMixers
)

// mixerTokenPrefix starts every per-mixer attribute token,
// "mixer_{index}_{attribute}".
const mixerTokenPrefix = "mixer_"

// Set records which optional features one installation exposes. Base
// value names and per-mixer attributes are kept separately so presence
// checks are typed lookups rather than string matching.
//
// The zero value is not usable; construct with New or FromStrings.
type Set struct {
	values map[string]struct{}
	mixers map[int]map[string]struct{}
}

// New returns an empty set.
func New() *Set {
	return &Set{
		values: make(map[string]struct{}),
		mixers: make(map[int]map[string]struct{}),
	}
}

// AddValue records a top-level value name as present.
func (s *Set) AddValue(name string) {
	s.values[name] = struct{}{}
}

// AddMixerAttribute records that the mixer at index exposes attr.
func (s *Set) AddMixerAttribute(index int, attr string) {
	m, ok := s.mixers[index]
	if !ok {
		m = make(map[string]struct{})
		s.mixers[index] = m
	}
	m[attr] = struct{}{}
}

// Has reports whether a base token is present.
func (s *Set) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// HasWaterHeater reports whether an indirect water heater was found.
func (s *Set) HasWaterHeater() bool {
	return s.Has(TokenWaterHeater)
}

// HasControl reports whether the on/off control switch was found.
func (s *Set) HasControl() bool {
	return s.Has(TokenControl)
}

// HasMixer reports whether a mixer exists at index.
func (s *Set) HasMixer(index int) bool {
	_, ok := s.mixers[index]
	return ok
}

// MixerIndices returns the installed mixer indices in ascending order.
func (s *Set) MixerIndices() []int {
	out := make([]int, 0, len(s.mixers))
	for i := range s.mixers {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// MixerAttributes returns the attribute names mixer index exposes, in
// ascending order, or nil when the mixer is absent.
func (s *Set) MixerAttributes(index int) []string {
	m, ok := s.mixers[index]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(m))
	for attr := range m {
		out = append(out, attr)
	}
	sort.Strings(out)
	return out
}

// Len returns the total token count, counting each mixer attribute
// token individually.
func (s *Set) Len() int {
	n := len(s.values)
	for _, m := range s.mixers {
		n += len(m)
	}
	return n
}

// Equal reports whether two sets carry the same tokens.
func (s *Set) Equal(other *Set) bool {
	if other == nil || s.Len() != other.Len() {
		return false
	}
	for name := range s.values {
		if !other.Has(name) {
			return false
		}
	}
	for i, m := range s.mixers {
		for attr := range m {
			o, ok := other.mixers[i]
			if !ok {
				return false
			}
			if _, ok := o[attr]; !ok {
				return false
			}
		}
	}
	return true
}

// Strings renders the set as sorted flat tokens for persistence. Mixer
// attributes render as "mixer_{index}_{attribute}".
func (s *Set) Strings() []string {
	out := make([]string, 0, s.Len())
	for name := range s.values {
		out = append(out, name)
	}
	for i, m := range s.mixers {
		for attr := range m {
			out = append(out, fmt.Sprintf("%s%d_%s", mixerTokenPrefix, i, attr))
		}
	}
	sort.Strings(out)
	return out
}

// FromStrings rebuilds a set from its persisted token form. Tokens of
// the form "mixer_{index}_{attribute}" become mixer attributes; any
// other token, including "mixer_" strings without a numeric index, is
// a base value name.
func FromStrings(tokens []string) *Set {
	s := New()
	for _, tok := range tokens {
		if index, attr, ok := parseMixerToken(tok); ok {
			s.AddMixerAttribute(index, attr)
			continue
		}
		s.AddValue(tok)
	}
	return s
}

func parseMixerToken(tok string) (index int, attr string, ok bool) {
	rest, found := strings.CutPrefix(tok, mixerTokenPrefix)
	if !found {
		return 0, "", false
	}
	idx, attr, found := strings.Cut(rest, "_")
	if !found || attr == "" {
		return 0, "", false
	}
	index, err := strconv.Atoi(idx)
	if err != nil || index < 0 {
		return 0, "", false
	}
	return index, attr, true
}
