package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func strPtr(s string) *string { return &s }

func TestValidateAggregatesErrors(t *testing.T) {
	m := &Manifest{
		Modules: []ModuleSpec{
			{Name: "A", Include: []string{"Missing"}, Guard: "sometimes"},
			{Name: "A"},
			{Name: ""},
			{Name: "B", Operations: []OperationSpec{
				{Name: "x", Steps: []StepSpec{{}}},
				{Name: "x", Steps: []StepSpec{{Call: "y", Get: "z"}}},
				{Name: "", Steps: nil},
				{Name: "w", Steps: []StepSpec{{Value: strPtr("v"), Args: []string{"1"}}}},
			}},
		},
		Host: &HostSpec{Kind: "H", Attach: []string{"Nope"}},
	}

	err := m.Validate()
	require.Error(t, err)
	errs := multierr.Errors(err)
	assert.Len(t, errs, 10)
	for _, want := range []string{
		`module #3: name is required`,
		`module "A": declared more than once`,
		`module "A": unknown guard "sometimes"`,
		`module "A": includes unknown module "Missing"`,
		`module "B": operation "x": step #1: no action given`,
		`module "B": operation "x" declared more than once`,
		`module "B": operation "x": step #1: more than one action given`,
		`module "B": operation #3: name is required`,
		`module "B": operation "w": step #1: args given without call`,
		`host: attaches unknown module "Nope"`,
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateArgsWithoutCall(t *testing.T) {
	m := &Manifest{Modules: []ModuleSpec{{Name: "A", Operations: []OperationSpec{
		{Name: "x", Steps: []StepSpec{{Get: "k", Args: []string{"1"}}}},
	}}}}
	assert.ErrorContains(t, m.Validate(), "args given without call")
}

func TestValidateSetWithValueIsOneAction(t *testing.T) {
	m := &Manifest{Modules: []ModuleSpec{{Name: "A", Operations: []OperationSpec{
		{Name: "x", Steps: []StepSpec{{Set: "k", Value: strPtr("{{0}}")}}},
	}}}}
	assert.NoError(t, m.Validate())
}

func TestValidateIncludeCycle(t *testing.T) {
	m := &Manifest{Modules: []ModuleSpec{
		{Name: "A", Include: []string{"B"}},
		{Name: "B", Include: []string{"A"}},
	}}
	assert.ErrorContains(t, m.Validate(), "include cycle: A -> B -> A")
}

func TestBuildRejectsInvalidManifest(t *testing.T) {
	m := &Manifest{Host: &HostSpec{Attach: []string{"Ghost"}}}
	_, err := m.Build(nil)
	assert.ErrorContains(t, err, `unknown module "Ghost"`)
}
