package metrics

import "github.com/prometheus/client_golang/prometheus"

// FlowMetrics exposes counters for the appointment booking flow.
type FlowMetrics struct {
	startedTotal     prometheus.Counter
	transitionsTotal *prometheus.CounterVec
	confirmedTotal   prometheus.Counter
}

func NewFlowMetrics(reg prometheus.Registerer) *FlowMetrics {
	m := &FlowMetrics{
		startedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atendeai",
			Subsystem: "flow",
			Name:      "sessions_started_total",
			Help:      "Total booking flow sessions started",
		}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atendeai",
			Subsystem: "flow",
			Name:      "transitions_total",
			Help:      "Total booking flow state transitions",
		}, []string{"from_state", "to_state"}),
		confirmedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atendeai",
			Subsystem: "flow",
			Name:      "appointments_confirmed_total",
			Help:      "Total appointments confirmed through the flow",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.startedTotal, m.transitionsTotal, m.confirmedTotal)
	return m
}

func (m *FlowMetrics) ObserveFlowStarted() {
	if m == nil {
		return
	}
	m.startedTotal.Inc()
}

func (m *FlowMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *FlowMetrics) ObserveConfirmed() {
	if m == nil {
		return
	}
	m.confirmedTotal.Inc()
}

// MessagingMetrics exposes counters/gauges for the outbound WhatsApp path.
type MessagingMetrics struct {
	outboundTotal *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
	inboundTotal  *prometheus.CounterVec
}

func NewMessagingMetrics(reg prometheus.Registerer) *MessagingMetrics {
	m := &MessagingMetrics{
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atendeai",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Total outbound WhatsApp sends",
		}, []string{"status"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "atendeai",
			Subsystem: "messaging",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per dependency (0=closed, 1=half-open, 2=open)",
		}, []string{"dependency"}),
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atendeai",
			Subsystem: "messaging",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound WhatsApp webhooks",
		}, []string{"event_type", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.outboundTotal, m.breakerState, m.inboundTotal)
	return m
}

func (m *MessagingMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

func (m *MessagingMetrics) ObserveBreakerState(dependency string, state float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(dependency).Set(state)
}

func (m *MessagingMetrics) ObserveInbound(eventType, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(eventType, status).Inc()
}
