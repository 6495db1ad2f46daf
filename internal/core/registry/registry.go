package registry

import (
	"fmt"

	"github.com/dtrann/healthseal/internal/core/domain"
)

// Registry is the static table of supported health metrics.
// It is built once at startup and never mutated.
type Registry struct {
	byID  map[domain.MetricID]domain.MetricDefinition
	order []domain.MetricID
}

// Default returns the registry with the five demo metrics, codes 0-4.
// Ranges mirror the bounds baked into the deployed contract.
func Default() *Registry {
	return New([]domain.MetricDefinition{
		{
			ID:          0,
			Name:        "Heart Rate",
			Description: "Resting heart rate",
			Unit:        "bpm",
			Min:         30,
			Max:         220,
			Placeholder: 72,
		},
		{
			ID:          1,
			Name:        "Systolic Blood Pressure",
			Description: "Systolic arterial pressure",
			Unit:        "mmHg",
			Min:         70,
			Max:         250,
			Placeholder: 118,
		},
		{
			ID:          2,
			Name:        "Diastolic Blood Pressure",
			Description: "Diastolic arterial pressure",
			Unit:        "mmHg",
			Min:         40,
			Max:         150,
			Placeholder: 76,
		},
		{
			ID:          3,
			Name:        "Blood Glucose",
			Description: "Fasting blood glucose",
			Unit:        "mg/dL",
			Min:         40,
			Max:         500,
			Placeholder: 92,
		},
		{
			ID:          4,
			Name:        "Blood Oxygen",
			Description: "Peripheral oxygen saturation",
			Unit:        "%",
			Min:         50,
			Max:         100,
			Placeholder: 98,
		},
	})
}

// New builds a registry from definitions, preserving their order.
func New(defs []domain.MetricDefinition) *Registry {
	r := &Registry{byID: make(map[domain.MetricID]domain.MetricDefinition, len(defs))}
	for _, d := range defs {
		if _, dup := r.byID[d.ID]; dup {
			continue
		}
		r.byID[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r
}

// Get looks up a metric definition by code.
func (r *Registry) Get(id domain.MetricID) (domain.MetricDefinition, error) {
	d, ok := r.byID[id]
	if !ok {
		return domain.MetricDefinition{}, fmt.Errorf("unknown metric code %d", id)
	}
	return d, nil
}

// Has reports whether the code is a known metric.
func (r *Registry) Has(id domain.MetricID) bool {
	_, ok := r.byID[id]
	return ok
}

// List returns all definitions in registration order.
func (r *Registry) List() []domain.MetricDefinition {
	out := make([]domain.MetricDefinition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of registered metrics.
func (r *Registry) Len() int {
	return len(r.order)
}
