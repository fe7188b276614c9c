package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/dshills/numbertheorist/internal/ledger"
	"github.com/dshills/numbertheorist/internal/roster"
)

// Version is the snapshot format written by Marshal.
const Version = 1

// Errors returned by snapshot operations.
var (
	// ErrMalformed is matched by every ShapeError.
	ErrMalformed = errors.New("snapshot: malformed")

	// ErrInvalid is returned when a well-formed snapshot violates a game
	// invariant.
	ErrInvalid = errors.New("snapshot: invalid")

	// ErrUnsupportedVersion is returned for snapshots from a newer format.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
)

// Snapshot is the saved state of one game.
type Snapshot struct {
	Version        int             `json:"version"`
	Session        string          `json:"session,omitempty"`
	SavedAt        time.Time       `json:"savedAt,omitzero"`
	PrimesConsumed int             `json:"primesConsumed"`
	Ledger         ledger.State    `json:"ledger"`
	Roster         []*roster.Entry `json:"roster"`
}

// ShapeError reports a value of the wrong kind in a snapshot document.
type ShapeError struct {
	// Path is the gjson path of the offending value, "$" for the root.
	Path string
	// Want is the expected kind.
	Want string
	// Got is the kind found.
	Got string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("snapshot: %s: expected %s, got %s", e.Path, e.Want, e.Got)
}

// Is allows errors.Is to match ShapeError with ErrMalformed.
func (e *ShapeError) Is(target error) bool {
	return target == ErrMalformed
}

// Validate checks the snapshot against the game invariants for a roster
// of the given size.
func (s Snapshot) Validate(slots int) error {
	switch {
	case s.Version != Version:
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	case s.PrimesConsumed < 0:
		return fmt.Errorf("%w: primesConsumed %d", ErrInvalid, s.PrimesConsumed)
	case len(s.Roster) > slots:
		return fmt.Errorf("%w: %d roster entries for %d slots", ErrInvalid, len(s.Roster), slots)
	}
	if err := s.Ledger.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	for i, e := range s.Roster {
		if e != nil && e.Name == "" {
			return fmt.Errorf("%w: roster.%d: empty skill name", ErrInvalid, i)
		}
	}
	return nil
}

// Marshal encodes s as indented JSON.
func Marshal(s Snapshot) ([]byte, error) {
	if s.Version == 0 {
		s.Version = Version
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(data), nil
}

// Unmarshal decodes a snapshot document, migrating legacy saves.
// Shape problems are reported as *ShapeError.
func Unmarshal(data []byte) (Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return Snapshot{}, &ShapeError{Path: "$", Want: "JSON document", Got: "invalid JSON"}
	}

	root := gjson.ParseBytes(data)
	if root.IsArray() {
		migrated, err := Migrate(data)
		if err != nil {
			return Snapshot{}, err
		}
		data = migrated
		root = gjson.ParseBytes(data)
	}

	if err := checkShape(root); err != nil {
		return Snapshot{}, err
	}
	if v := root.Get("version").Int(); v != Version {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return s, nil
}

type field struct {
	path     string
	want     string
	optional bool
}

var fields = []field{
	{path: "version", want: "integer"},
	{path: "session", want: "string", optional: true},
	{path: "savedAt", want: "string", optional: true},
	{path: "primesConsumed", want: "integer"},
	{path: "ledger", want: "object"},
	{path: "ledger.experience", want: "number"},
	{path: "ledger.level", want: "integer"},
	{path: "ledger.skillPoints", want: "integer"},
	{path: "ledger.experienceToNextLevel", want: "number"},
	{path: "roster", want: "array"},
}

func checkShape(root gjson.Result) error {
	if !root.IsObject() {
		return &ShapeError{Path: "$", Want: "object", Got: kindOf(root)}
	}

	for _, f := range fields {
		v := root.Get(f.path)
		if f.optional && !v.Exists() {
			continue
		}
		if !hasKind(v, f.want) {
			return &ShapeError{Path: f.path, Want: f.want, Got: kindOf(v)}
		}
	}

	for i, entry := range root.Get("roster").Array() {
		path := fmt.Sprintf("roster.%d", i)
		if entry.Type == gjson.Null {
			continue
		}
		if !entry.IsObject() {
			return &ShapeError{Path: path, Want: "object or null", Got: kindOf(entry)}
		}
		if name := entry.Get("name"); !hasKind(name, "string") {
			return &ShapeError{Path: path + ".name", Want: "string", Got: kindOf(name)}
		}
	}
	return nil
}

func hasKind(v gjson.Result, want string) bool {
	switch want {
	case "integer":
		return v.Type == gjson.Number && v.Num == math.Trunc(v.Num)
	case "number":
		return v.Type == gjson.Number
	case "string":
		return v.Type == gjson.String
	case "boolean":
		return v.Type == gjson.True || v.Type == gjson.False
	case "object":
		return v.IsObject()
	case "array":
		return v.IsArray()
	}
	return false
}

func kindOf(v gjson.Result) string {
	if !v.Exists() {
		return "missing"
	}
	switch v.Type {
	case gjson.Null:
		return "null"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Number:
		if v.Num == math.Trunc(v.Num) {
			return "integer"
		}
		return "number"
	case gjson.String:
		return "string"
	}
	if v.IsArray() {
		return "array"
	}
	return "object"
}
