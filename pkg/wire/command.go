package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Protocol errors.
var (
	ErrMalformed      = errors.New("malformed command")
	ErrUnknownCommand = errors.New("unknown command")
	ErrOutOfRange     = errors.New("value out of range")
)

// Protocol limits.
const (
	// MaxCommandSize is the longest encoded command, in bytes.
	MaxCommandSize = 20

	// MaxBrightness is the highest brightness value.
	MaxBrightness = 100
)

const (
	prefix = "$"
	suffix = "?"

	tagColor      = "COL"
	tagBrightness = "BRI"
	tagOn         = "GON"
	tagOff        = "GOF"
)

// Kind identifies a command.
type Kind uint8

const (
	// KindColor sets the RGB color.
	KindColor Kind = iota + 1

	// KindBrightness sets the brightness.
	KindBrightness

	// KindOnOff switches the fixture on or off.
	KindOnOff
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindColor:
		return "COLOR"
	case KindBrightness:
		return "BRIGHTNESS"
	case KindOnOff:
		return "ON_OFF"
	default:
		return "UNKNOWN"
	}
}

// Command is one fixture command.
type Command struct {
	Kind Kind

	// R, G, B are set for KindColor.
	R, G, B uint8

	// Brightness is set for KindBrightness, within [0, MaxBrightness].
	Brightness int

	// On is set for KindOnOff.
	On bool
}

// SetColor returns a color command.
func SetColor(r, g, b uint8) Command {
	return Command{Kind: KindColor, R: r, G: g, B: b}
}

// SetBrightness returns a brightness command with v clamped to
// [0, MaxBrightness].
func SetBrightness(v int) Command {
	return Command{Kind: KindBrightness, Brightness: ClampBrightness(v)}
}

// SetOnOff returns an on or off command.
func SetOnOff(on bool) Command {
	return Command{Kind: KindOnOff, On: on}
}

// ClampBrightness limits v to [0, MaxBrightness].
func ClampBrightness(v int) int {
	return max(0, min(v, MaxBrightness))
}

// Encode returns the ASCII form of the command.
func (c Command) Encode() []byte {
	return []byte(c.String())
}

// String returns the ASCII form of the command.
func (c Command) String() string {
	switch c.Kind {
	case KindColor:
		return fmt.Sprintf("%s%s,%d,%d,%d%s", prefix, tagColor, c.R, c.G, c.B, suffix)
	case KindBrightness:
		v := ClampBrightness(c.Brightness)
		return fmt.Sprintf("%s%s,%d,%d%s", prefix, tagBrightness, v, v, suffix)
	case KindOnOff:
		if c.On {
			return prefix + tagOn + suffix
		}
		return prefix + tagOff + suffix
	default:
		return ""
	}
}

// Decode parses an encoded command.
func Decode(data []byte) (Command, error) {
	if len(data) > MaxCommandSize {
		return Command{}, fmt.Errorf("%w: %d bytes", ErrMalformed, len(data))
	}
	s := string(data)
	if !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, suffix) || len(s) < len(prefix)+len(suffix)+3 {
		return Command{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	fields := strings.Split(s[len(prefix):len(s)-len(suffix)], ",")
	switch fields[0] {
	case tagOn, tagOff:
		if len(fields) != 1 {
			return Command{}, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		return SetOnOff(fields[0] == tagOn), nil

	case tagColor:
		vals, err := parseInts(fields[1:], 3, 255)
		if err != nil {
			return Command{}, fmt.Errorf("%q: %w", s, err)
		}
		return SetColor(uint8(vals[0]), uint8(vals[1]), uint8(vals[2])), nil

	case tagBrightness:
		vals, err := parseInts(fields[1:], 2, MaxBrightness)
		if err != nil {
			return Command{}, fmt.Errorf("%q: %w", s, err)
		}
		if vals[0] != vals[1] {
			return Command{}, fmt.Errorf("%w: brightness values differ in %q", ErrMalformed, s)
		}
		return SetBrightness(vals[0]), nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
}

func parseInts(fields []string, n, limit int) ([]int, error) {
	if len(fields) != n {
		return nil, fmt.Errorf("%w: want %d values, got %d", ErrMalformed, n, len(fields))
	}
	out := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if v < 0 || v > limit {
			return nil, fmt.Errorf("%w: %d", ErrOutOfRange, v)
		}
		out[i] = v
	}
	return out, nil
}
