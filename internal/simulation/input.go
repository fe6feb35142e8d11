package simulation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/homesim/internal/automation"
)

// ErrMalformedInput is returned for a time or temperature line that cannot
// be parsed. The driver logs it and keeps the previous value.
var ErrMalformedInput = errors.New("simulation: malformed input")

// Prompt keywords.
const (
	quitKeyword = "quit"
	skipKeyword = "skip"
)

// TimeCommand is the parsed answer to the time prompt.
type TimeCommand struct {
	// Quit ends the loop.
	Quit bool
	// Override, when set, replaces the clock's time of day.
	Override *automation.TimeOfDay
}

// ParseTimeLine parses an "HH MM SS" line. "quit" ends the run and a blank
// line keeps the clock as is.
func ParseTimeLine(line string) (TimeCommand, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return TimeCommand{}, nil
	case strings.EqualFold(line, quitKeyword):
		return TimeCommand{Quit: true}, nil
	}

	fields := strings.Fields(line)
	if len(fields) != 3 {
		return TimeCommand{}, fmt.Errorf("%w: want HH MM SS, got %q", ErrMalformedInput, line)
	}

	var parts [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return TimeCommand{}, fmt.Errorf("%w: %q is not a number", ErrMalformedInput, f)
		}
		parts[i] = n
	}

	at := automation.TimeOfDay{Hour: parts[0], Minute: parts[1], Second: parts[2]}
	if err := at.Validate(); err != nil {
		return TimeCommand{}, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return TimeCommand{Override: &at}, nil
}

// TemperatureCommand is the parsed answer to the temperature prompt.
type TemperatureCommand struct {
	// Skip keeps the current temperature.
	Skip bool
	// Value, when set, becomes the new temperature.
	Value *int
}

// ParseTemperatureLine parses an integer temperature in °C. "skip" and a
// blank line both keep the current temperature.
func ParseTemperatureLine(line string) (TemperatureCommand, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return TemperatureCommand{}, nil
	case strings.EqualFold(line, skipKeyword):
		return TemperatureCommand{Skip: true}, nil
	}

	n, err := strconv.Atoi(line)
	if err != nil {
		return TemperatureCommand{}, fmt.Errorf("%w: %q is not an integer temperature", ErrMalformedInput, line)
	}
	return TemperatureCommand{Value: &n}, nil
}
