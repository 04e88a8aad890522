package metrics

import (
	"github.com/Aleph-Alpha/admcodec/v1/observability"
)

const (
	operationAncestorFallback      = "ancestor_fallback"
	operationDiscriminatorFallback = "discriminator_fallback"
)

// ObserveOperation records ctx. Ancestor fallbacks are counted per ancestor
// and Go type, unknown discriminators per base and tag; every other operation
// is counted by status, timed and its Size added to the processed total.
func (m *Metrics) ObserveOperation(ctx observability.OperationContext) {
	switch ctx.Operation {
	case operationAncestorFallback:
		m.fallbacksTotal.WithLabelValues(ctx.Resource, ctx.SubResource).Inc()
		return
	case operationDiscriminatorFallback:
		m.unknownSubtypes.WithLabelValues(ctx.Resource, ctx.SubResource).Inc()
		return
	}

	status := "success"
	if ctx.Error != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(ctx.Component, ctx.Operation, status).Inc()
	m.operationDuration.WithLabelValues(ctx.Component, ctx.Operation).Observe(ctx.Duration.Seconds())
	if ctx.Size > 0 {
		m.processedTotal.WithLabelValues(ctx.Component, ctx.Operation).Add(float64(ctx.Size))
	}
}

var _ observability.Observer = (*Metrics)(nil)
