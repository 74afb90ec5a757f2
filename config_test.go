package arena

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverrides(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Overrides
	}{
		{name: "pairs", text: "a:2,b:4", want: Overrides{"a": 2, "b": 4}},
		{name: "empty", text: "", want: Overrides{}},
		{name: "blank", text: "   ", want: Overrides{}},
		{name: "missing separator skipped", text: "a:2,bad", want: Overrides{"a": 2}},
		{name: "empty name skipped", text: ":3,b:1", want: Overrides{"b": 1}},
		{name: "trailing comma", text: "a:2,", want: Overrides{"a": 2}},
		{name: "whitespace", text: " a : 2 , b:3 ", want: Overrides{"a": 2, "b": 3}},
		{name: "last wins", text: "a:2,a:5", want: Overrides{"a": 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOverrides(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOverridesInvalidCount(t *testing.T) {
	for _, text := range []string{"a:two", "a:2,b:", "a:0", "a:-1", "a:2,b:x,c:3"} {
		t.Run(text, func(t *testing.T) {
			got, err := ParseOverrides(text)
			require.Error(t, err)
			assert.Nil(t, got, "a bad count aborts the whole parse")

			var pe *ConfigParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Error(), "invalid parallel control entry")
		})
	}
}

func TestParseOverridesWrapsStrconv(t *testing.T) {
	_, err := ParseOverrides("a:abc")
	assert.ErrorIs(t, err, strconv.ErrSyntax)
}

func TestOverridesMerge(t *testing.T) {
	base := Overrides{"a": 1, "b": 2}
	merged := base.Merge(Overrides{"b": 3, "c": 4})

	assert.Equal(t, Overrides{"a": 1, "b": 3, "c": 4}, merged)
	assert.Equal(t, Overrides{"a": 1, "b": 2}, base, "Merge must not modify the receiver")

	n, ok := merged.Lookup("c")
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	_, ok = merged.Lookup("missing")
	assert.False(t, ok)
}

func TestResolverResolvesOnce(t *testing.T) {
	var calls atomic.Int32
	r := NewResolverFunc(func() (Overrides, error) {
		calls.Add(1)
		return Overrides{"a": 2}, nil
	})

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Resolve()
			assert.NoError(t, err)
			assert.Equal(t, Overrides{"a": 2}, got)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "source should run exactly once")
}

func TestResolverCachesError(t *testing.T) {
	r := NewResolver("a:nope")

	_, err1 := r.Resolve()
	_, err2 := r.Resolve()
	require.Error(t, err1)
	assert.Same(t, err1, err2, "the failure is cached like a success")
}

func TestEnvResolver(t *testing.T) {
	const key = "ARENA_TEST_PARALLEL_CONTROL"
	t.Setenv(key, "io:3")

	got, err := EnvResolver(key).Resolve()
	require.NoError(t, err)
	assert.Equal(t, Overrides{"io": 3}, got)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arenas.toml")
	content := `control = "decode:2,encode:4"

[arenas]
encode = 8
render = 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Overrides{"decode": 2, "encode": 8, "render": 1}, got)

	got, err = FileResolver(path).Resolve()
	require.NoError(t, err)
	assert.Equal(t, 8, got["encode"])
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "nope.toml"))
		assert.Error(t, err)
	})

	t.Run("bad control", func(t *testing.T) {
		path := filepath.Join(dir, "control.toml")
		require.NoError(t, os.WriteFile(path, []byte(`control = "a:x"`), 0o644))

		_, err := LoadFile(path)
		var pe *ConfigParseError
		assert.ErrorAs(t, err, &pe)
	})

	t.Run("non-positive table entry", func(t *testing.T) {
		path := filepath.Join(dir, "table.toml")
		require.NoError(t, os.WriteFile(path, []byte("[arenas]\nio = 0\n"), 0o644))

		_, err := LoadFile(path)
		var pe *ConfigParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "io:0", pe.Entry)
	})
}
