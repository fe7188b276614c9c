package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/dshills/numbertheorist/internal/config/loader"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NUMBERTHEORIST_"

// Settings are the user-facing parameters behind Rules.
type Settings struct {
	Logging      LoggingSettings      `toml:"logging" yaml:"logging" envPrefix:"LOG_"`
	Ledger       LedgerSettings       `toml:"ledger" yaml:"ledger" envPrefix:"LEDGER_"`
	Roster       RosterSettings       `toml:"roster" yaml:"roster" envPrefix:"ROSTER_"`
	Enter        EnterSettings        `toml:"enter" yaml:"enter" envPrefix:"ENTER_"`
	Auto         AutoSettings         `toml:"auto" yaml:"auto" envPrefix:"AUTO_"`
	PrimeTheorem PrimeTheoremSettings `toml:"prime_theorem" yaml:"prime_theorem" envPrefix:"PRIME_THEOREM_"`
	Session      SessionSettings      `toml:"session" yaml:"session" envPrefix:"SESSION_"`
}

// LoggingSettings configure the zap logger.
type LoggingSettings struct {
	// Level is one of debug, info, warn or error.
	Level string `toml:"level" yaml:"level" env:"LEVEL"`

	// Development switches to zap's human-friendly development config.
	Development bool `toml:"development" yaml:"development" env:"DEVELOPMENT"`
}

// LedgerSettings shape the level-up cost: base + per_level*level.
type LedgerSettings struct {
	CostBase     float64 `toml:"cost_base" yaml:"cost_base" env:"COST_BASE"`
	CostPerLevel float64 `toml:"cost_per_level" yaml:"cost_per_level" env:"COST_PER_LEVEL"`
}

// RosterSettings describe the skill slots.
type RosterSettings struct {
	Slots    int      `toml:"slots" yaml:"slots" env:"SLOTS"`
	Unlocked []string `toml:"unlocked" yaml:"unlocked" env:"UNLOCKED" envSeparator:","`
}

// EnterSettings shape the Enter cooldown: cooldown + per_level*level.
type EnterSettings struct {
	Cooldown         Duration `toml:"cooldown" yaml:"cooldown" env:"COOLDOWN"`
	CooldownPerLevel Duration `toml:"cooldown_per_level" yaml:"cooldown_per_level" env:"COOLDOWN_PER_LEVEL"`
}

// AutoSettings shape the Auto cycle:
// interval = base + scale/sqrt(level), repeat = repeat_base + level (0 at level 0).
type AutoSettings struct {
	BaseInterval  Duration `toml:"base_interval" yaml:"base_interval" env:"BASE_INTERVAL"`
	IntervalScale Duration `toml:"interval_scale" yaml:"interval_scale" env:"INTERVAL_SCALE"`
	RepeatBase    int      `toml:"repeat_base" yaml:"repeat_base" env:"REPEAT_BASE"`
}

// PrimeTheoremSettings shape the bonus: floor(factor*level*|ratio-1|).
type PrimeTheoremSettings struct {
	Factor float64 `toml:"factor" yaml:"factor" env:"FACTOR"`
}

// SessionSettings configure the terminal session.
type SessionSettings struct {
	SaveFile string   `toml:"save_file" yaml:"save_file" env:"SAVE_FILE"`
	Autosave Duration `toml:"autosave" yaml:"autosave" env:"AUTOSAVE"`
}

// DefaultSettings returns the classic game's parameters.
func DefaultSettings() Settings {
	return Settings{
		Logging: LoggingSettings{Level: "info"},
		Ledger: LedgerSettings{
			CostBase:     1,
			CostPerLevel: 3,
		},
		Roster: RosterSettings{
			Slots:    4,
			Unlocked: []string{SkillEnter, SkillAuto},
		},
		Enter: EnterSettings{
			Cooldown: Duration(100 * time.Millisecond),
		},
		Auto: AutoSettings{
			BaseInterval:  Duration(100 * time.Millisecond),
			IntervalScale: Duration(5 * time.Second),
			RepeatBase:    2,
		},
		PrimeTheorem: PrimeTheoremSettings{Factor: 10},
		Session: SessionSettings{
			SaveFile: "numbertheorist.json",
			Autosave: Duration(30 * time.Second),
		},
	}
}

// Load reads settings from path over the defaults and applies environment
// overrides. An empty path or a missing file yields the defaults.
func Load(path string) (Settings, error) {
	return LoadWith(loader.DefaultFS(), path, nil)
}

// LoadWith is Load reading from fsys and, when environ is non-nil, taking
// overrides from environ instead of the process environment.
func LoadWith(fsys loader.FileSystem, path string, environ map[string]string) (Settings, error) {
	s := DefaultSettings()

	if path != "" {
		if _, err := loader.New(fsys).Load(path, &s); err != nil {
			return Settings{}, err
		}
	}
	if err := loader.ApplyEnvFrom(&s, EnvPrefix, environ); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks every parameter.
func (s Settings) Validate() error {
	if _, err := s.Logging.ZapLevel(); err != nil {
		return err
	}

	switch {
	case !(s.Ledger.CostBase > 0) || math.IsInf(s.Ledger.CostBase, 0):
		return invalid("ledger.cost_base", s.Ledger.CostBase, "must be positive")
	case !(s.Ledger.CostPerLevel >= 0) || math.IsInf(s.Ledger.CostPerLevel, 0):
		return invalid("ledger.cost_per_level", s.Ledger.CostPerLevel, "must not be negative")
	case s.Roster.Slots < 1:
		return invalid("roster.slots", s.Roster.Slots, "must be at least 1")
	case len(s.Roster.Unlocked) > s.Roster.Slots:
		return invalid("roster.unlocked", s.Roster.Unlocked, "more skills than slots (%d)", s.Roster.Slots)
	case s.Enter.Cooldown < 0:
		return invalid("enter.cooldown", s.Enter.Cooldown, "must not be negative")
	case s.Enter.CooldownPerLevel < 0:
		return invalid("enter.cooldown_per_level", s.Enter.CooldownPerLevel, "must not be negative")
	case s.Auto.BaseInterval <= 0:
		return invalid("auto.base_interval", s.Auto.BaseInterval, "must be positive")
	case s.Auto.IntervalScale < 0:
		return invalid("auto.interval_scale", s.Auto.IntervalScale, "must not be negative")
	case s.Auto.RepeatBase < 0:
		return invalid("auto.repeat_base", s.Auto.RepeatBase, "must not be negative")
	case !(s.PrimeTheorem.Factor >= 0) || math.IsInf(s.PrimeTheorem.Factor, 0):
		return invalid("prime_theorem.factor", s.PrimeTheorem.Factor, "must not be negative")
	case s.Session.Autosave < 0:
		return invalid("session.autosave", s.Session.Autosave, "must not be negative")
	}
	return nil
}

// ZapLevel parses the logging level.
func (l LoggingSettings) ZapLevel() (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, invalid("logging.level", l.Level, "unknown level")
	}
}

// Rules builds the formula set described by the settings.
func (s Settings) Rules() Rules {
	ledger, roster, enter, auto, theorem := s.Ledger, s.Roster, s.Enter, s.Auto, s.PrimeTheorem
	unlocked := append([]string(nil), roster.Unlocked...)

	return Rules{
		LevelUpCost: func(level int) float64 {
			return ledger.CostBase + ledger.CostPerLevel*float64(level)
		},
		SkillCount: roster.Slots,
		Unlocked:   unlocked,
		EnterCooldown: func(level int) time.Duration {
			return enter.Cooldown.Std() + time.Duration(level)*enter.CooldownPerLevel.Std()
		},
		AutoInterval: func(level int) time.Duration {
			if level < 1 {
				level = 1
			}
			scale := float64(auto.IntervalScale.Std()) / math.Sqrt(float64(level))
			return auto.BaseInterval.Std() + time.Duration(scale)
		},
		AutoRepeat: func(level int) int {
			if level <= 0 {
				return 0
			}
			return auto.RepeatBase + level
		},
		PrimeTheoremBonus: func(level int, ratio float64) float64 {
			if level <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
				return 0
			}
			return math.Floor(theorem.Factor * float64(level) * math.Abs(ratio-1))
		},
	}
}

// String summarises the settings for logs.
func (s Settings) String() string {
	return fmt.Sprintf("slots=%d unlocked=%v cost=%g+%g*lv enter=%s auto=%s+%s/sqrt(lv) repeat=%d+lv theorem=%g",
		s.Roster.Slots, s.Roster.Unlocked, s.Ledger.CostBase, s.Ledger.CostPerLevel,
		s.Enter.Cooldown, s.Auto.BaseInterval, s.Auto.IntervalScale, s.Auto.RepeatBase, s.PrimeTheorem.Factor)
}
