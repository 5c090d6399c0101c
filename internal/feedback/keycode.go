package feedback

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// KeyCode identifies the key that was pressed.
// Printable keys use their rune value; functional keys use negative codes.
type KeyCode int

const (
	// CodeDelete is the backspace/delete key.
	CodeDelete KeyCode = -5
	// CodeEnter is the enter/return key.
	CodeEnter KeyCode = '\n'
	// CodeSpace is the space bar.
	CodeSpace KeyCode = ' '
)

// String returns a readable name for the key code.
func (c KeyCode) String() string {
	switch c {
	case CodeDelete:
		return "delete"
	case CodeEnter:
		return "enter"
	case CodeSpace:
		return "space"
	}
	if c > ' ' && utf8.ValidRune(rune(c)) {
		return string(rune(c))
	}
	return strconv.Itoa(int(c))
}

// ParseKeyCode parses a key name as accepted on the command line and the
// D-Bus interface. Accepts "delete", "backspace", "enter", "return",
// "space", a single character, or an integer code.
func ParseKeyCode(s string) (KeyCode, error) {
	switch strings.ToLower(s) {
	case "delete", "backspace", "del", "bs":
		return CodeDelete, nil
	case "enter", "return", "ret":
		return CodeEnter, nil
	case "space", "spacebar":
		return CodeSpace, nil
	case "":
		return 0, fmt.Errorf("empty key name")
	}

	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return KeyCode(r), nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unknown key %q: must be delete, enter, space, a single character or an integer code", s)
	}
	return KeyCode(n), nil
}

// SoundVariant selects which key-click sound is played.
type SoundVariant int

const (
	SoundStandard SoundVariant = iota
	SoundDelete
	SoundReturn
	SoundSpacebar
)

// String returns the string representation of the sound variant.
func (v SoundVariant) String() string {
	switch v {
	case SoundDelete:
		return "delete"
	case SoundReturn:
		return "return"
	case SoundSpacebar:
		return "spacebar"
	default:
		return "standard"
	}
}

// SoundVariants returns all sound variants.
func SoundVariants() []SoundVariant {
	return []SoundVariant{SoundStandard, SoundDelete, SoundReturn, SoundSpacebar}
}

// VariantForKey maps a key code to its sound variant.
// Every code not explicitly listed plays the standard click.
func VariantForKey(code KeyCode) SoundVariant {
	switch code {
	case CodeDelete:
		return SoundDelete
	case CodeEnter:
		return SoundReturn
	case CodeSpace:
		return SoundSpacebar
	default:
		return SoundStandard
	}
}
