package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dshills/numbertheorist/internal/event"
	"github.com/dshills/numbertheorist/internal/event/events"
	"github.com/dshills/numbertheorist/internal/event/topic"
)

// Console renders display and progress signals as text lines.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Attach subscribes the console to every display and progress topic.
func (c *Console) Attach(g *event.Group) error {
	for _, pattern := range []topic.Topic{"display.**", "progress.**"} {
		if _, err := g.SubscribeFunc(pattern, c.handle, event.WithPriority(event.PriorityLow)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) handle(_ context.Context, env event.Envelope) error {
	if line := FormatEvent(env.Payload); line != "" {
		c.Println(line)
	}
	return nil
}

// Println writes one line.
func (c *Console) Println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

// Printf writes one formatted line.
func (c *Console) Printf(format string, args ...any) {
	c.Println(fmt.Sprintf(format, args...))
}

// FormatEvent renders a display or progress payload. Payloads with
// nothing worth showing render as "".
func FormatEvent(payload any) string {
	switch p := payload.(type) {
	case events.LogEntry:
		return p.Text
	case events.LevelChanged:
		return fmt.Sprintf("level %d", p.Level)
	case events.SkillPointsChanged:
		return fmt.Sprintf("skill points: %d", p.Points)
	case events.ExperienceBar:
		return fmt.Sprintf("experience %g/%g", p.Current, p.Max)
	case events.CooldownChanged:
		if p.Total <= 0 {
			return ""
		}
		return fmt.Sprintf("%s busy for %s", p.Skill, p.Remaining.Round(time.Millisecond))
	case events.SlotPopulated:
		return fmt.Sprintf("slot %d: %s", p.Index, p.Skill)
	case events.SlotCleared:
		return ""
	case events.SkillLevelChanged:
		return fmt.Sprintf("%s level %d", p.Skill, p.Level)
	case events.UpgradeAvailability:
		if p.Available {
			return fmt.Sprintf("%s can be upgraded (up %s)", p.Skill, p.Skill)
		}
		return ""
	case events.Status:
		last := "none"
		if p.Count > 0 {
			last = fmt.Sprint(p.Current)
		}
		return fmt.Sprintf("level %d, experience %g/%g, skill points %d, primes %d (last %s)",
			p.Level, p.Experience, p.NextLevelAt, p.SkillPoints, p.Count, last)
	}
	return ""
}
