/*
checklist.go - Required-document gate

PURPOSE:
  Decides when a case has collected all required documentation and may
  advance. Default requirement sets are selected by claim cause from an
  injected catalog; unknown causes fall back to a generic list.

CATALOG:
  The cause-to-requirements mapping is configuration supplied at
  construction, not a package-level table. DefaultCatalog() provides the
  built-in mapping for deployments without a catalog file.

GATE POLICY:
  IsComplete reports true only when every item is satisfied. An empty
  checklist does NOT satisfy the gate: a case whose checklist was never
  initialized must not silently skip document collection.

SEE ALSO:
  - lifecycle.go: AdvanceAfterChecklist consults the gate
*/
package claims

import "strings"

// DefaultRequirements is the generic fallback list used when the claim
// cause is unknown or absent.
var DefaultRequirements = []string{
	"DNI",
	"DOCUMENTACIÓN RESPALDATORIA",
	"FOTOS / PRUEBAS",
	"OBSERVACIONES",
}

// DefaultCatalog returns the built-in cause-to-requirements mapping.
func DefaultCatalog() map[string][]string {
	return map[string][]string{
		"ROBO EN VIA PUBLICA":      {"DNI", "DENUNCIA POLICIAL", "BAJA DE IMEI", "ULTIMA ACTIVIDAD"},
		"DAÑO ELECTRODOMESTICOS":   {"DNI", "FACTURA DE COMPRA", "INFORME TÉCNICO", "FOTOS DEL DAÑO"},
		"VARIACION DE TENSION":     {"DNI", "FACTURA DE COMPRA", "INFORME TÉCNICO", "COMPROBANTE DE ESTABILIZADOR"},
	}
}

// Gate resolves default checklists by claim cause and evaluates
// completion. It is a pure lookup component; checklist mutations are the
// caller's responsibility, applied through the repository.
type Gate struct {
	catalog map[string][]string
}

// NewGate builds a gate over the given catalog. Keys are normalized
// (trimmed, uppercased) so lookups are case-insensitive. A nil catalog
// uses DefaultCatalog().
func NewGate(catalog map[string][]string) *Gate {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	normalized := make(map[string][]string, len(catalog))
	for cause, labels := range catalog {
		normalized[normalizeCause(cause)] = append([]string(nil), labels...)
	}
	return &Gate{catalog: normalized}
}

func normalizeCause(cause string) string {
	return strings.ToUpper(strings.TrimSpace(cause))
}

// ResolveDefault returns the ordered requirement items for a claim
// cause, all starting unsatisfied. Unknown or empty causes get the
// generic default list.
func (g *Gate) ResolveDefault(cause string) []RequirementItem {
	labels, ok := g.catalog[normalizeCause(cause)]
	if !ok {
		labels = DefaultRequirements
	}
	items := make([]RequirementItem, len(labels))
	for i, label := range labels {
		items[i] = RequirementItem{Label: label, Satisfied: false}
	}
	return items
}

// IsComplete reports whether every item on the checklist is satisfied.
// An empty checklist is not complete.
func IsComplete(items []RequirementItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.Satisfied {
			return false
		}
	}
	return true
}

// Missing returns the labels of unsatisfied items in checklist order.
// The list feeds the missing-documentation letter body.
func Missing(items []RequirementItem) []string {
	var labels []string
	for _, item := range items {
		if !item.Satisfied {
			labels = append(labels, item.Label)
		}
	}
	return labels
}
