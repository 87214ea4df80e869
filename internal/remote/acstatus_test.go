package remote

import (
	"testing"
)

func TestDecodeACStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  uint16
		want ACStatus
	}{
		{
			name: "cool 21C medium fan",
			raw:  0x2520,
			want: ACStatus{Mode: ModeCool, TargetCelsius: 21, Fan: FanMedium},
		},
		{
			name: "heat 31C auto fan swing 3",
			raw:  0x3FA3,
			want: ACStatus{Mode: ModeHeat, TargetCelsius: 31, Fan: FanAuto, Swing: 3},
		},
		{
			name: "all zero is off at 16C",
			raw:  0x0000,
			want: ACStatus{Mode: ModeOff, TargetCelsius: 16},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeACStatus(tt.raw)
			if got != tt.want {
				t.Errorf("DecodeACStatus(%#04x) = %+v, want %+v", tt.raw, got, tt.want)
			}

			encoded, err := got.Encode()
			if err != nil {
				t.Fatalf("Encode() failed: %v", err)
			}
			if encoded != tt.raw {
				t.Errorf("Encode() = %#04x, want %#04x", encoded, tt.raw)
			}
		})
	}
}

func TestParseACStatus(t *testing.T) {
	got, err := ParseACStatus("2520")
	if err != nil {
		t.Fatalf("ParseACStatus() failed: %v", err)
	}
	if got.Mode != ModeCool || got.TargetCelsius != 21 || got.Fan != FanMedium {
		t.Errorf("ParseACStatus() = %+v", got)
	}

	if _, err := ParseACStatus("nope"); err == nil {
		t.Error("ParseACStatus() accepted a non-hex word")
	}
}

func TestEncodeRejectsOutOfRangeTemperature(t *testing.T) {
	for _, temp := range []int{15, 32, 0} {
		s := ACStatus{Mode: ModeCool, TargetCelsius: temp, Fan: FanAuto}
		if _, err := s.Encode(); err == nil {
			t.Errorf("Encode() accepted %d°C", temp)
		}
	}
}

func TestTargetFahrenheit(t *testing.T) {
	s := ACStatus{TargetCelsius: 20}
	if got := s.TargetFahrenheit(); got != 68 {
		t.Errorf("TargetFahrenheit() = %v, want 68", got)
	}

	adjusted := s.WithTargetFahrenheit(71.6)
	if adjusted.TargetCelsius != 22 {
		t.Errorf("WithTargetFahrenheit(71.6) = %d°C, want 22", adjusted.TargetCelsius)
	}
}
