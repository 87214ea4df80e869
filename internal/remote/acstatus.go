// Package remote persists learned commands onto hub virtual remotes and
// models the AC status word used by air conditioner remotes.
package remote

import (
	"fmt"
)

// OperatingMode occupies the high nibble of the AC status word.
type OperatingMode uint16

const (
	ModeOff  OperatingMode = 0x0
	ModeAuto OperatingMode = 0x1
	ModeCool OperatingMode = 0x2
	ModeHeat OperatingMode = 0x3
)

func (m OperatingMode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeAuto:
		return "auto"
	case ModeCool:
		return "cool"
	case ModeHeat:
		return "heat"
	default:
		return fmt.Sprintf("mode_%X", uint16(m))
	}
}

// FanSpeed occupies the second-lowest nibble of the AC status word.
type FanSpeed uint16

const (
	FanMinimum FanSpeed = 0x1
	FanMedium  FanSpeed = 0x2
	FanMaximum FanSpeed = 0x3
	FanAuto    FanSpeed = 0xA
)

func (f FanSpeed) String() string {
	switch f {
	case FanMinimum:
		return "minimum"
	case FanMedium:
		return "medium"
	case FanMaximum:
		return "maximum"
	case FanAuto:
		return "auto"
	default:
		return fmt.Sprintf("fan_%X", uint16(f))
	}
}

// SwingMode occupies the low nibble of the AC status word. The hub
// does not document individual values, so it is carried verbatim.
type SwingMode uint16

// Temperature limits the hub encoding can represent. The target
// temperature rides in one nibble as an offset over 16°C.
const (
	MinTargetCelsius = 16
	MaxTargetCelsius = 31
)

// ACStatus is the decoded form of the hub's 16-bit AC state word. The
// wire layout is MTFS: mode, temperature offset, fan, swing, one
// nibble each.
type ACStatus struct {
	Mode          OperatingMode
	TargetCelsius int
	Fan           FanSpeed
	Swing         SwingMode
}

// ParseACStatus decodes a status word from its four-digit hex form as
// reported in a remote's Status field.
func ParseACStatus(word string) (ACStatus, error) {
	var raw uint16
	if _, err := fmt.Sscanf(word, "%04X", &raw); err != nil {
		return ACStatus{}, fmt.Errorf("bad AC status word %q: %w", word, err)
	}
	return DecodeACStatus(raw), nil
}

// DecodeACStatus unpacks the nibbles of a raw status word.
func DecodeACStatus(raw uint16) ACStatus {
	return ACStatus{
		Mode:          OperatingMode(raw >> 12),
		TargetCelsius: int((raw>>8)&0xF) + 16,
		Fan:           FanSpeed((raw >> 4) & 0xF),
		Swing:         SwingMode(raw & 0xF),
	}
}

// Encode packs the status back into the 16-bit wire word.
func (s ACStatus) Encode() (uint16, error) {
	if s.TargetCelsius < MinTargetCelsius || s.TargetCelsius > MaxTargetCelsius {
		return 0, fmt.Errorf("target temperature %d°C out of range %d-%d",
			s.TargetCelsius, MinTargetCelsius, MaxTargetCelsius)
	}
	return uint16(s.Mode)<<12 |
		uint16(s.TargetCelsius-16)<<8 |
		uint16(s.Fan)<<4 |
		uint16(s.Swing), nil
}

// TargetFahrenheit returns the target temperature converted to
// Fahrenheit.
func (s ACStatus) TargetFahrenheit() float64 {
	return float64(s.TargetCelsius)*9/5 + 32
}

// WithTargetFahrenheit returns a copy targeting the given Fahrenheit
// temperature, rounded to the nearest whole degree Celsius.
func (s ACStatus) WithTargetFahrenheit(f float64) ACStatus {
	c := (f - 32) * 5 / 9
	s.TargetCelsius = int(c + 0.5)
	return s
}

func (s ACStatus) String() string {
	return fmt.Sprintf("%s %d°C fan=%s swing=%X", s.Mode, s.TargetCelsius, s.Fan, uint16(s.Swing))
}
