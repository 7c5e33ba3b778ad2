package claims_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/claims-engine/claims"
)

// =============================================================================
// CATALOG RESOLUTION TESTS
// =============================================================================

func TestGate_ResolveDefault_KnownCause(t *testing.T) {
	// GIVEN: The built-in catalog
	// WHEN: Resolving a street-robbery claim
	// THEN: The cause-specific list comes back, all items unsatisfied

	gate := claims.NewGate(nil)
	items := gate.ResolveDefault("ROBO EN VIA PUBLICA")

	require.Len(t, items, 4)
	assert.Equal(t, "DNI", items[0].Label)
	assert.Equal(t, "DENUNCIA POLICIAL", items[1].Label)
	for _, item := range items {
		assert.False(t, item.Satisfied)
	}
}

func TestGate_ResolveDefault_CaseInsensitiveLookup(t *testing.T) {
	gate := claims.NewGate(nil)
	assert.Equal(t, gate.ResolveDefault("ROBO EN VIA PUBLICA"), gate.ResolveDefault("  robo en via publica "))
}

func TestGate_ResolveDefault_UnknownCauseFallsBack(t *testing.T) {
	// Unknown and empty causes get the generic default list.
	gate := claims.NewGate(nil)

	for _, cause := range []string{"GRANIZO", ""} {
		items := gate.ResolveDefault(cause)
		require.Len(t, items, len(claims.DefaultRequirements), "cause %q", cause)
		for i, item := range items {
			assert.Equal(t, claims.DefaultRequirements[i], item.Label)
		}
	}
}

func TestGate_CustomCatalog(t *testing.T) {
	// GIVEN: A deployment-specific catalog
	// WHEN: Resolving a cause it defines
	// THEN: The custom list wins over the built-in one

	gate := claims.NewGate(map[string][]string{
		"incendio": {"DNI", "INFORME DE BOMBEROS"},
	})
	items := gate.ResolveDefault("INCENDIO")

	require.Len(t, items, 2)
	assert.Equal(t, "INFORME DE BOMBEROS", items[1].Label)
}

// =============================================================================
// GATE COMPLETION TESTS
// =============================================================================

func TestIsComplete_AllSatisfied(t *testing.T) {
	items := []claims.RequirementItem{
		{Label: "DNI", Satisfied: true},
		{Label: "FOTOS", Satisfied: true},
	}
	assert.True(t, claims.IsComplete(items))
}

func TestIsComplete_OneMissing(t *testing.T) {
	items := []claims.RequirementItem{
		{Label: "DNI", Satisfied: true},
		{Label: "FOTOS", Satisfied: false},
	}
	assert.False(t, claims.IsComplete(items))
}

func TestIsComplete_EmptyChecklistIsNotComplete(t *testing.T) {
	// A never-initialized checklist must not pass the gate.
	assert.False(t, claims.IsComplete(nil))
	assert.False(t, claims.IsComplete([]claims.RequirementItem{}))
}

func TestMissing_PreservesChecklistOrder(t *testing.T) {
	items := []claims.RequirementItem{
		{Label: "DNI", Satisfied: false},
		{Label: "FACTURA", Satisfied: true},
		{Label: "FOTOS", Satisfied: false},
	}
	assert.Equal(t, []string{"DNI", "FOTOS"}, claims.Missing(items))
}
