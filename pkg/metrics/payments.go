package metrics

import "github.com/prometheus/client_golang/prometheus"

// PaymentMetrics records webhook and reconciliation outcomes.
type PaymentMetrics struct {
	webhookDeliveries *prometheus.CounterVec
	ordersCreated     prometheus.Counter
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_deliveries_total",
		Help: "Webhook deliveries by outcome.",
	}, []string{"outcome"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_orders_materialized_total",
		Help: "Orders created from captured payments.",
	})
	reg.MustRegister(deliveries, orders)
	return &PaymentMetrics{
		webhookDeliveries: deliveries,
		ordersCreated:     orders,
	}
}

// ObserveWebhook increments the delivery counter for the given outcome
// (paid, duplicate, unmatched, ignored, rejected).
func (p *PaymentMetrics) ObserveWebhook(outcome string) {
	if p == nil || p.webhookDeliveries == nil {
		return
	}
	p.webhookDeliveries.WithLabelValues(outcome).Inc()
}

// IncOrderMaterialized counts one order created by reconciliation.
func (p *PaymentMetrics) IncOrderMaterialized() {
	if p == nil || p.ordersCreated == nil {
		return
	}
	p.ordersCreated.Inc()
}
