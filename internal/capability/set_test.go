package capability

import (
	"reflect"
	"testing"
)

func TestSetStringsRoundTrip(t *testing.T) {
	s := New()
	s.AddValue("sensors")
	s.AddValue("ecomax_control")
	s.AddValue(TokenWaterHeater)
	s.AddMixerAttribute(0, "target_temp")
	s.AddMixerAttribute(0, "pump")
	s.AddMixerAttribute(1, "target_temp")

	tokens := s.Strings()
	want := []string{
		"ecomax_control",
		"mixer_0_pump",
		"mixer_0_target_temp",
		"mixer_1_target_temp",
		"sensors",
		"water_heater",
	}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("Strings() = %v, want %v", tokens, want)
	}

	back := FromStrings(tokens)
	if !s.Equal(back) {
		t.Fatalf("round trip lost tokens: %v != %v", back.Strings(), tokens)
	}
}

func TestFromStringsOrderIndependent(t *testing.T) {
	a := FromStrings([]string{"sensors", "mixer_1_pump", "mixer_0_pump", "water_heater"})
	b := FromStrings([]string{"water_heater", "mixer_0_pump", "sensors", "mixer_1_pump"})

	if !a.Equal(b) {
		t.Fatalf("permuted token order produced different sets: %v vs %v", a.Strings(), b.Strings())
	}
}

func TestFromStringsMixerParsing(t *testing.T) {
	tests := []struct {
		token     string
		wantMixer bool
		index     int
		attr      string
	}{
		{"mixer_0_target_temp", true, 0, "target_temp"},
		{"mixer_12_pump", true, 12, "pump"},
		{"mixer_0_a_b", true, 0, "a_b"},
		{"mixer_count", false, 0, ""},
		{"mixer_x_pump", false, 0, ""},
		{"mixer_", false, 0, ""},
		{"mixers", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			s := FromStrings([]string{tt.token})
			if tt.wantMixer {
				if !s.HasMixer(tt.index) {
					t.Fatalf("expected mixer %d present", tt.index)
				}
				attrs := s.MixerAttributes(tt.index)
				if len(attrs) != 1 || attrs[0] != tt.attr {
					t.Fatalf("attributes = %v, want [%s]", attrs, tt.attr)
				}
				if s.Has(tt.token) {
					t.Error("mixer token also recorded as base value")
				}
			} else {
				if len(s.MixerIndices()) != 0 {
					t.Fatalf("token %q unexpectedly parsed as mixer", tt.token)
				}
				if !s.Has(tt.token) {
					t.Errorf("token %q not kept as base value", tt.token)
				}
			}
		})
	}
}

func TestSetAccessors(t *testing.T) {
	s := New()
	s.AddValue(TokenControl)
	s.AddMixerAttribute(2, "pump")

	if !s.HasControl() {
		t.Error("HasControl() = false")
	}
	if s.HasWaterHeater() {
		t.Error("HasWaterHeater() = true for set without one")
	}
	if !s.HasMixer(2) || s.HasMixer(0) {
		t.Error("HasMixer reported wrong indices")
	}
	if got := s.MixerIndices(); len(got) != 1 || got[0] != 2 {
		t.Errorf("MixerIndices() = %v, want [2]", got)
	}
	if s.MixerAttributes(0) != nil {
		t.Error("MixerAttributes for absent mixer should be nil")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}
