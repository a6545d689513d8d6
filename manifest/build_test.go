package manifest

import (
	"testing"

	"github.com/mgomes/compound/compound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeYAML(t *testing.T, src string) *Manifest {
	t.Helper()
	m, err := Decode(FormatYAML, []byte(src))
	require.NoError(t, err)
	return m
}

func TestApplyRedefinesInPlace(t *testing.T) {
	set, err := decodeYAML(t, `
modules:
  - name: Foo
    operations:
      - name: foo
        steps: [{value: one}]
      - name: old
        steps: [{value: old}]
host:
  kind: Widget
  attach: [Foo]
  operations:
    - name: label
      steps: [{value: first}]
`).Build(nil)
	require.NoError(t, err)
	foo := set.Modules["Foo"]
	part, ok := set.Host.Registry().Part(foo)
	require.True(t, ok)

	err = set.Apply(decodeYAML(t, `
modules:
  - name: Foo
    operations:
      - name: foo
        steps: [{value: two}]
  - name: Extra
    operations:
      - name: extra
        steps: [{value: extra}]
host:
  kind: Widget
  operations:
    - name: title
      steps: [{value: second}]
`))
	require.NoError(t, err)

	assert.Same(t, foo, set.Modules["Foo"])
	again, _ := set.Host.Registry().Part(foo)
	assert.Same(t, part, again)
	assertCall(t, set.Host, "two", "foo")
	assertCall(t, set.Host, "second", "title")

	_, err = set.Host.Call("old")
	assert.ErrorIs(t, err, compound.ErrNoOperation)
	_, err = set.Host.Call("label")
	assert.ErrorIs(t, err, compound.ErrNoOperation)

	var extra *compound.Module
	extra, ok = set.Module("Extra")
	require.True(t, ok)
	assert.False(t, set.Host.IsA(extra))
	assert.Equal(t, []string{"Foo", "Extra"}, set.Names())
}

func TestApplyRejectsInvalidManifestWithoutChanges(t *testing.T) {
	set, err := decodeYAML(t, `
modules:
  - name: Foo
    operations:
      - name: foo
        steps: [{value: one}]
host:
  kind: Widget
  attach: [Foo]
`).Build(nil)
	require.NoError(t, err)

	err = set.Apply(decodeYAML(t, `
modules:
  - name: Foo
    include: [Nowhere]
    operations:
      - name: foo
        steps: [{value: two}]
`))
	require.Error(t, err)
	assertCall(t, set.Host, "one", "foo")
}

func TestPlaceholders(t *testing.T) {
	set, err := decodeYAML(t, `
modules:
  - name: Echo
    operations:
      - name: echo
        steps: [{value: "{{1}}"}]
      - name: describe
        steps: [{value: "{{0}}/{{ mood }}/{{9}}"}]
      - name: stash
        steps:
          - set: last
            value: "{{0}}"
          - value: "stored {{@last}}"
      - name: chain
        steps:
          - call: echo
            args: ["{{0}}", "{{1}}"]
          - set: seen
          - get: seen
`).Build(nil)
	require.NoError(t, err)

	h := compound.NewHost("Probe")
	_, err = h.Attach(set.Modules["Echo"])
	require.NoError(t, err)

	got, err := h.Invoke("describe", []any{"a"}, map[string]any{"mood": "calm"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a/calm/", got)

	assertCall(t, h, true, "echo", "x", true)
	assertCall(t, h, "stored 7", "stash", 7)
	assertCall(t, h, 3.5, "chain", "ignored", 3.5)
}

func TestBuildWithoutHost(t *testing.T) {
	set, err := decodeYAML(t, `
modules:
  - name: Lone
`).Build(nil)
	require.NoError(t, err)
	assert.Nil(t, set.Host)
	assert.Contains(t, set.Modules, "Lone")
}
