package simulation

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nerrad567/homesim/internal/device"
)

// clearScreen is the ANSI sequence that homes the cursor and clears the terminal.
const clearScreen = "\033[H\033[2J"

// Greeting returns the salutation for the given hour.
func Greeting(hour int) string {
	switch {
	case hour >= 4 && hour < 12:
		return "Good Morning!"
	case hour >= 12 && hour < 17:
		return "Good Afternoon!"
	case hour >= 17 && hour < 21:
		return "Good Evening!"
	default:
		return "Good Night!"
	}
}

// StatusLine renders one device status as a sentence.
func StatusLine(rec device.StatusRecord) string {
	label := rec.Kind.Label()
	if rec.Kind.ShowsTime() {
		return fmt.Sprintf("%s %s shows the time: %s.", label, rec.Name, rec.RenderedTime)
	}

	power := "off"
	if rec.Power {
		power = "on"
	}
	if rec.Setting == nil {
		return fmt.Sprintf("%s %s is %s.", label, rec.Name, power)
	}
	return fmt.Sprintf("%s %s is %s with %s %d%s.",
		label, rec.Name, power, rec.SettingName, *rec.Setting, rec.Kind.SettingUnit())
}

// Frame is everything printed for one tick.
type Frame struct {
	Now         time.Time
	Temperature int
	Devices     []device.StatusRecord
	Next        time.Time
}

// Console writes frames to a terminal or any other writer.
type Console struct {
	w     io.Writer
	clear bool
}

// NewConsole creates a console. When clear is set each frame starts on a
// cleared screen.
func NewConsole(w io.Writer, clear bool) *Console {
	return &Console{w: w, clear: clear}
}

// Render writes the frame.
func (c *Console) Render(f Frame) error {
	var b strings.Builder
	if c.clear {
		b.WriteString(clearScreen)
	}
	fmt.Fprintf(&b, "Current time: %s\n", f.Now.Format(device.TimeLayout))
	fmt.Fprintf(&b, "Current temperature: %d°C\n", f.Temperature)
	b.WriteString(Greeting(f.Now.Hour()))
	b.WriteByte('\n')
	for _, rec := range f.Devices {
		b.WriteString(StatusLine(rec))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Time after %s will be: %s\n", humanStep(f.Next.Sub(f.Now)), f.Next.Format(device.TimeLayout))

	_, err := io.WriteString(c.w, b.String())
	return err
}

// Prompt writes a prompt without a trailing newline.
func (c *Console) Prompt(text string) error {
	_, err := io.WriteString(c.w, text)
	return err
}

func humanStep(d time.Duration) string {
	if d%time.Second == 0 {
		n := int(d / time.Second)
		if n == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", n)
	}
	return d.String()
}
