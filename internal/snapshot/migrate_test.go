package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const legacySave = `[15,[3,2,1,7],[["Enter",[1234,100]],["Auto",[1,true,2]],["PrimeTheorem",3],null]]`

func TestMigrate(t *testing.T) {
	assert.True(t, IsLegacy([]byte(legacySave)))
	assert.False(t, IsLegacy([]byte(`{"version":1}`)))

	out, err := Migrate([]byte(legacySave))
	require.NoError(t, err)

	doc := gjson.ParseBytes(out)
	assert.Equal(t, int64(Version), doc.Get("version").Int())
	assert.Equal(t, int64(15), doc.Get("primesConsumed").Int())
	assert.Equal(t, 3.0, doc.Get("ledger.experience").Float())
	assert.Equal(t, int64(2), doc.Get("ledger.level").Int())
	assert.Equal(t, int64(1), doc.Get("ledger.skillPoints").Int())
	assert.Equal(t, 7.0, doc.Get("ledger.experienceToNextLevel").Float())

	assert.Equal(t, int64(4), doc.Get("roster.#").Int())
	assert.JSONEq(t, `{"name":"Enter","state":{"level":1,"cooldown":{"elapsedMs":1234,"durationMs":100}}}`, doc.Get("roster.0").Raw)
	assert.JSONEq(t, `{"name":"Auto","state":{"level":1,"running":true,"remaining":2}}`, doc.Get("roster.1").Raw)
	assert.JSONEq(t, `{"name":"PrimeTheorem","state":{"level":3}}`, doc.Get("roster.2").Raw)
	assert.Equal(t, gjson.Null, doc.Get("roster.3").Type)
}

func TestUnmarshal_MigratesLegacy(t *testing.T) {
	s, err := Unmarshal([]byte(legacySave))
	require.NoError(t, err)

	assert.Equal(t, Version, s.Version)
	assert.Equal(t, 15, s.PrimesConsumed)
	assert.Equal(t, 2, s.Ledger.Level)
	require.Len(t, s.Roster, 4)
	assert.Equal(t, "Auto", s.Roster[1].Name)
	assert.Nil(t, s.Roster[3])
	assert.NoError(t, s.Validate(4))
}

func TestMigrate_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		path string
	}{
		{"short", `[1,[0,0,0,1]]`, "$"},
		{"count string", `["1",[0,0,0,1],[]]`, "0"},
		{"ledger short", `[1,[0,0,1],[]]`, "1"},
		{"ledger value", `[1,[0,"x",0,1],[]]`, "1.1"},
		{"roster object", `[1,[0,0,0,1],{}]`, "2"},
		{"unknown skill", `[1,[0,0,0,1],[["Sieve",1]]]`, "2.0.0"},
		{"enter state", `[1,[0,0,0,1],[["Enter",[1]]]]`, "2.0.1"},
		{"theorem state", `[1,[0,0,0,1],[["PrimeTheorem","x"]]]`, "2.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Migrate([]byte(tt.data))
			require.ErrorIs(t, err, ErrMalformed)
			var shape *ShapeError
			require.ErrorAs(t, err, &shape)
			assert.Equal(t, tt.path, shape.Path)
		})
	}
}
