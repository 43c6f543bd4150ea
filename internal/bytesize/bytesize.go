// Package bytesize parses and prints human-readable byte sizes such as
// "512KiB" or "10MB" in configuration files.
package bytesize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Size is a number of bytes. It decodes from plain numbers or from a
// number with a decimal (KB, MB, GB, TB) or binary (KiB, MiB, GiB, TiB)
// unit; the trailing "B" of a unit is optional.
type Size uint64

const (
	B  Size = 1
	KB Size = 1000 * B
	MB Size = 1000 * KB
	GB Size = 1000 * MB
	TB Size = 1000 * GB

	KiB Size = 1 << 10
	MiB Size = 1 << 20
	GiB Size = 1 << 30
	TiB Size = 1 << 40
)

var sizePattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*([a-z]*)\s*$`)

var units = map[string]Size{
	"": B, "b": B,
	"k": KB, "kb": KB, "m": MB, "mb": MB, "g": GB, "gb": GB, "t": TB, "tb": TB,
	"ki": KiB, "kib": KiB, "mi": MiB, "mib": MiB, "gi": GiB, "gib": GiB, "ti": TiB, "tib": TiB,
}

// Parse converts s to a Size.
func Parse(s string) (Size, error) {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}

	unit, ok := units[strings.ToLower(m[2])]
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit %q", m[2])
	}

	if !strings.Contains(m[1], ".") {
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
		}
		return Size(n) * unit, nil
	}

	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	return Size(f * float64(unit)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Size) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalText implements encoding.TextMarshaler. Exact multiples keep an
// integer form so the value round-trips.
func (s Size) MarshalText() ([]byte, error) {
	for _, u := range []struct {
		size Size
		name string
	}{{TiB, "TiB"}, {GiB, "GiB"}, {MiB, "MiB"}, {KiB, "KiB"}} {
		if s >= u.size && s%u.size == 0 {
			return []byte(strconv.FormatUint(uint64(s/u.size), 10) + u.name), nil
		}
	}
	return []byte(strconv.FormatUint(uint64(s), 10)), nil
}

// String returns s rounded to one decimal in the largest binary unit.
func (s Size) String() string {
	switch {
	case s >= TiB:
		return fmt.Sprintf("%.1fTiB", float64(s)/float64(TiB))
	case s >= GiB:
		return fmt.Sprintf("%.1fGiB", float64(s)/float64(GiB))
	case s >= MiB:
		return fmt.Sprintf("%.1fMiB", float64(s)/float64(MiB))
	case s >= KiB:
		return fmt.Sprintf("%.1fKiB", float64(s)/float64(KiB))
	default:
		return fmt.Sprintf("%dB", uint64(s))
	}
}

// Int64 returns s as an int64.
func (s Size) Int64() int64 {
	return int64(s)
}
