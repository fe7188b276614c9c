package snapshot

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/numbertheorist/internal/config"
)

// IsLegacy reports whether data is a save from the original browser game,
// which stored the game as a bare array:
//
//	[generatedCount, [experience, level, skillPoints, experienceToNextLevel], roster]
//
// with roster entries [name, state] or null.
func IsLegacy(data []byte) bool {
	return gjson.ValidBytes(data) && gjson.ParseBytes(data).IsArray()
}

// legacyState translates a legacy skill state into its current payload.
type legacyState func(state gjson.Result, path string) ([]byte, error)

var legacyStates = map[string]legacyState{
	// [level, [elapsedMs, durationMs]]
	config.SkillEnter: func(state gjson.Result, path string) ([]byte, error) {
		if err := expectArray(state, path, 2); err != nil {
			return nil, err
		}
		if err := expectArray(state.Get("1"), path+".1", 2); err != nil {
			return nil, err
		}
		elapsed := state.Get("1.0").Int()
		if elapsed < 0 {
			elapsed = 0
		}
		return set(`{}`,
			kv{"level", state.Get("0").Int()},
			kv{"cooldown.elapsedMs", elapsed},
			kv{"cooldown.durationMs", state.Get("1.1").Int()},
		)
	},
	// [level, running, remaining]
	config.SkillAuto: func(state gjson.Result, path string) ([]byte, error) {
		if err := expectArray(state, path, 3); err != nil {
			return nil, err
		}
		return set(`{}`,
			kv{"level", state.Get("0").Int()},
			kv{"running", state.Get("1").Bool()},
			kv{"remaining", state.Get("2").Int()},
		)
	},
	// level
	config.SkillPrimeTheorem: func(state gjson.Result, path string) ([]byte, error) {
		if !hasKind(state, "integer") {
			return nil, &ShapeError{Path: path, Want: "integer", Got: kindOf(state)}
		}
		return set(`{}`, kv{"level", state.Int()})
	},
}

// Migrate converts a legacy save into a version 1 snapshot document.
func Migrate(data []byte) ([]byte, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ShapeError{Path: "$", Want: "JSON document", Got: "invalid JSON"}
	}
	root := gjson.ParseBytes(data)
	if err := expectArray(root, "$", 3); err != nil {
		return nil, err
	}

	count := root.Get("0")
	if !hasKind(count, "integer") {
		return nil, &ShapeError{Path: "0", Want: "integer", Got: kindOf(count)}
	}
	fund := root.Get("1")
	if err := expectArray(fund, "1", 4); err != nil {
		return nil, err
	}
	for i, v := range fund.Array() {
		if !hasKind(v, "number") {
			return nil, &ShapeError{Path: fmt.Sprintf("1.%d", i), Want: "number", Got: kindOf(v)}
		}
	}
	skills := root.Get("2")
	if !skills.IsArray() {
		return nil, &ShapeError{Path: "2", Want: "array", Got: kindOf(skills)}
	}

	// The legacy count is the number of primes generated, all of which
	// were marked consumed on load.
	out, err := set(`{}`,
		kv{"version", Version},
		kv{"primesConsumed", count.Int()},
		kv{"ledger.experience", fund.Get("0").Float()},
		kv{"ledger.level", fund.Get("1").Int()},
		kv{"ledger.skillPoints", fund.Get("2").Int()},
		kv{"ledger.experienceToNextLevel", fund.Get("3").Float()},
	)
	if err != nil {
		return nil, err
	}
	if out, err = sjson.SetRawBytes(out, "roster", []byte(`[]`)); err != nil {
		return nil, err
	}

	for i, entry := range skills.Array() {
		path := fmt.Sprintf("2.%d", i)
		raw, err := migrateEntry(entry, path)
		if err != nil {
			return nil, err
		}
		if out, err = sjson.SetRawBytes(out, "roster.-1", raw); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func migrateEntry(entry gjson.Result, path string) ([]byte, error) {
	if entry.Type == gjson.Null || !entry.Exists() {
		return []byte(`null`), nil
	}
	if err := expectArray(entry, path, 2); err != nil {
		return nil, err
	}

	name := entry.Get("0")
	if name.Type != gjson.String {
		return nil, &ShapeError{Path: path + ".0", Want: "string", Got: kindOf(name)}
	}
	translate, ok := legacyStates[name.String()]
	if !ok {
		return nil, &ShapeError{Path: path + ".0", Want: "legacy skill name", Got: fmt.Sprintf("%q", name.String())}
	}

	state, err := translate(entry.Get("1"), path+".1")
	if err != nil {
		return nil, err
	}
	out, err := set(`{}`, kv{"name", name.String()})
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(out, "state", state)
}

type kv struct {
	path  string
	value any
}

func set(doc string, pairs ...kv) ([]byte, error) {
	out := []byte(doc)
	for _, p := range pairs {
		var err error
		if out, err = sjson.SetBytes(out, p.path, p.value); err != nil {
			return nil, fmt.Errorf("migrate %s: %w", p.path, err)
		}
	}
	return out, nil
}

func expectArray(v gjson.Result, path string, n int) error {
	if !v.IsArray() {
		return &ShapeError{Path: path, Want: "array", Got: kindOf(v)}
	}
	if got := len(v.Array()); got < n {
		return &ShapeError{Path: path, Want: fmt.Sprintf("array of %d", n), Got: fmt.Sprintf("array of %d", got)}
	}
	return nil
}
