package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedData(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)
	assert.Len(t, reg.Facilities(), 10)

	for _, category := range []string{"CARDIAC", "TRAUMA", "RESPIRATORY", "NEUROLOGICAL", "BURNS", "GENERAL"} {
		tmpl := reg.TemplateFor(category)
		assert.NotEmpty(t, tmpl.Services, category)
		assert.NotEmpty(t, tmpl.RoomType, category)
		assert.NotEmpty(t, tmpl.Exclusions, category)
	}
}

func TestFindByNameCaseInsensitive(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	f, ok := reg.FindByName("makati medical center")
	require.True(t, ok)
	assert.Equal(t, "H002", f.ID)

	f, ok = reg.FindByName("  Makati Medical Center  ")
	require.True(t, ok)
	assert.Equal(t, "H002", f.ID)

	_, ok = reg.FindByName("Makati Medical")
	assert.False(t, ok, "partial names must not match")
}

func TestTemplateForUnknownFallsBackToGeneral(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	tmpl := reg.TemplateFor("OBSTETRIC")
	assert.Equal(t, reg.TemplateFor("GENERAL"), tmpl)
}

func TestRequiredCapabilitiesDedupes(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	tmpl := reg.TemplateFor("CARDIAC")
	keys := tmpl.RequiredCapabilities([]string{
		"Cardiac catheterization (Cath Lab) procedures",
		"Emergency coronary intervention if indicated",
		"ICU admission and continuous cardiac monitoring",
		"12-lead ECG and cardiac enzyme testing",
	})
	// Both cath-lab labels resolve to the same key; the unkeyed label adds none.
	assert.Equal(t, []string{"cardiac_cath_lab", "icu"}, keys)
}

func TestEligibleFailureOrder(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	// H009 accepts only Insular Life and lacks cardiac support.
	f, ok := reg.FindByName("Ospital ng Maynila Medical Center")
	require.True(t, ok)

	// Payer failure is reported first even when category would also fail.
	pass, reason := Eligible(f, "Maxicare", "CARDIAC", nil)
	assert.False(t, pass)
	assert.Contains(t, reason, "Maxicare")

	pass, reason = Eligible(f, "Insular Life Assurance Company", "CARDIAC", nil)
	assert.False(t, pass)
	assert.Contains(t, reason, "CARDIAC")

	pass, reason = Eligible(f, "Insular Life Assurance Company", "TRAUMA", []string{"mri"})
	assert.False(t, pass)
	assert.Contains(t, reason, "mri")

	pass, reason = Eligible(f, "Insular Life Assurance Company", "TRAUMA", []string{"trauma_unit", "icu"})
	assert.True(t, pass)
	assert.Empty(t, reason)
}
