package overtone

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NoteResolver resolves a note name to a frequency in Hz. Resolution
// failures are reported as errors matching ErrUnknownNoteName.
type NoteResolver interface {
	Resolve(name string) (float64, error)
}

// NoteResolverFunc adapts a plain function to a NoteResolver.
type NoteResolverFunc func(name string) (float64, error)

func (f NoteResolverFunc) Resolve(name string) (float64, error) { return f(name) }

// NoteFrequency resolves a scientific pitch name such as "A4", "c#3" or
// "Gb2" to its equal-temperament frequency, tuned to A4 = 440 Hz. The name
// is a letter A-G in either case, an optional single accidental '#' or 'b',
// and an integer octave ("C4" is middle C). It is the default NoteResolver
// of an Instrument.
func NoteFrequency(name string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return 0, fmt.Errorf("empty note name: %w", ErrUnknownNoteName)
	}
	var step int
	switch s[0] {
	case 'c':
		step = 0
	case 'd':
		step = 2
	case 'e':
		step = 4
	case 'f':
		step = 5
	case 'g':
		step = 7
	case 'a':
		step = 9
	case 'b':
		step = 11
	default:
		return 0, fmt.Errorf("note %q: %w", name, ErrUnknownNoteName)
	}
	s = s[1:]
	if s != "" {
		switch s[0] {
		case '#':
			step++
			s = s[1:]
		case 'b':
			// "b4" is the note B, but "bb4" or "eb4" flatten. A lone 'b'
			// followed by an octave was already consumed as the letter.
			if len(s) > 1 && (s[1] == '-' || (s[1] >= '0' && s[1] <= '9')) {
				step--
				s = s[1:]
			}
		}
	}
	octave, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("note %q: %w", name, ErrUnknownNoteName)
	}
	key := (octave+1)*12 + step
	return 440 * math.Pow(2, (float64(key)-69)/12), nil
}
