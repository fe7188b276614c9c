package app

import (
	"fmt"
	"strings"
)

// CommandKind identifies a console command.
type CommandKind int

// Console commands.
const (
	CmdEnter CommandKind = iota
	CmdUpgrade
	CmdSave
	CmdLoad
	CmdReset
	CmdStatus
	CmdHelp
	CmdQuit
)

var commandNames = map[CommandKind]string{
	CmdEnter:   "enter",
	CmdUpgrade: "up",
	CmdSave:    "save",
	CmdLoad:    "load",
	CmdReset:   "reset",
	CmdStatus:  "status",
	CmdHelp:    "help",
	CmdQuit:    "quit",
}

// String returns the command word.
func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command is one parsed input line.
type Command struct {
	Kind CommandKind

	// Skill is the upgrade target of CmdUpgrade.
	Skill string
}

var aliases = map[string]CommandKind{
	"enter":   CmdEnter,
	"e":       CmdEnter,
	"up":      CmdUpgrade,
	"upgrade": CmdUpgrade,
	"save":    CmdSave,
	"load":    CmdLoad,
	"reset":   CmdReset,
	"status":  CmdStatus,
	"s":       CmdStatus,
	"help":    CmdHelp,
	"?":       CmdHelp,
	"quit":    CmdQuit,
	"exit":    CmdQuit,
	"q":       CmdQuit,
}

// ParseCommand parses an input line. An empty line is the primary action.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Kind: CmdEnter}, nil
	}

	kind, ok := aliases[strings.ToLower(fields[0])]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}

	cmd := Command{Kind: kind}
	switch kind {
	case CmdUpgrade:
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%w: usage: up <skill>", ErrUnknownCommand)
		}
		cmd.Skill = fields[1]
	default:
		if len(fields) != 1 {
			return Command{}, fmt.Errorf("%w: %s takes no arguments", ErrUnknownCommand, fields[0])
		}
	}
	return cmd, nil
}

const helpText = `commands:
  <enter>, enter   discover a prime (when the cooldown allows)
  up <skill>       spend a skill point on a skill
  status           show level, experience and primes
  save, load       write or read the save file
  reset            start over
  help             show this text
  quit             save and leave`
