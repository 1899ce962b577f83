package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// KickstarterMetrics holds the service collectors. A nil receiver records nothing.
type KickstarterMetrics struct {
	// Inbound transfers
	DepositsTotal        *prometheus.CounterVec
	RewardFundingsTotal  *prometheus.CounterVec
	InboundRejectedTotal *prometheus.CounterVec

	// Evaluator
	EvaluationsTotal *prometheus.CounterVec
	UnfreezesTotal   prometheus.Counter
	OracleDuration   *prometheus.HistogramVec

	// Settlements
	SettlementsStartedTotal  *prometheus.CounterVec
	SettlementsResolvedTotal *prometheus.CounterVec
	SettlementDuration       *prometheus.HistogramVec
	StuckSettlements         prometheus.Gauge

	ErrorsTotal *prometheus.CounterVec
}

// NewKickstarterMetrics registers every collector with reg.
func NewKickstarterMetrics(reg prometheus.Registerer) *KickstarterMetrics {
	f := promauto.With(reg)
	return &KickstarterMetrics{
		DepositsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickstarter_deposits_total",
				Help: "Deposits recorded into campaigns",
			},
			[]string{"campaign_id"},
		),
		RewardFundingsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickstarter_reward_fundings_total",
				Help: "Reward token transfers credited to campaigns",
			},
			[]string{"campaign_id"},
		),
		InboundRejectedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickstarter_inbound_rejected_total",
				Help: "Inbound transfers returned unused",
			},
			[]string{"reason"},
		),

		EvaluationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickstarter_evaluations_total",
				Help: "Campaign evaluations by outcome",
			},
			[]string{"outcome"},
		),
		UnfreezesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "kickstarter_unfreezes_total",
				Help: "Unfreeze prices captured",
			},
		),
		OracleDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kickstarter_oracle_request_duration_seconds",
				Help:    "Latency of price oracle requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),

		SettlementsStartedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickstarter_settlements_started_total",
				Help: "Outbound transfers requested",
			},
			[]string{"kind"},
		),
		SettlementsResolvedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickstarter_settlements_resolved_total",
				Help: "Settlements resolved by outcome",
			},
			[]string{"kind", "status"},
		),
		SettlementDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kickstarter_settlement_duration_seconds",
				Help:    "Time between transfer request and its resolution",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			},
			[]string{"kind"},
		),
		StuckSettlements: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "kickstarter_stuck_settlements",
				Help: "Pending settlements older than the configured threshold",
			},
		),

		ErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kickstarter_errors_total",
				Help: "Failed operations by operation and error type",
			},
			[]string{"operation", "error_type"},
		),
	}
}

func (m *KickstarterMetrics) RecordDeposit(campaignID string) {
	if m == nil {
		return
	}
	m.DepositsTotal.WithLabelValues(campaignID).Inc()
}

func (m *KickstarterMetrics) RecordRewardFunding(campaignID string) {
	if m == nil {
		return
	}
	m.RewardFundingsTotal.WithLabelValues(campaignID).Inc()
}

func (m *KickstarterMetrics) RecordInboundRejected(reason string) {
	if m == nil {
		return
	}
	m.InboundRejectedTotal.WithLabelValues(reason).Inc()
}

func (m *KickstarterMetrics) RecordEvaluation(outcome string) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(outcome).Inc()
}

func (m *KickstarterMetrics) RecordUnfreeze() {
	if m == nil {
		return
	}
	m.UnfreezesTotal.Inc()
}

func (m *KickstarterMetrics) RecordOracleRequest(ok bool, seconds float64) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.OracleDuration.WithLabelValues(result).Observe(seconds)
}

func (m *KickstarterMetrics) RecordSettlementStarted(kind string) {
	if m == nil {
		return
	}
	m.SettlementsStartedTotal.WithLabelValues(kind).Inc()
}

func (m *KickstarterMetrics) RecordSettlementResolved(kind, status string, seconds float64) {
	if m == nil {
		return
	}
	m.SettlementsResolvedTotal.WithLabelValues(kind, status).Inc()
	m.SettlementDuration.WithLabelValues(kind).Observe(seconds)
}

func (m *KickstarterMetrics) SetStuckSettlements(n int) {
	if m == nil {
		return
	}
	m.StuckSettlements.Set(float64(n))
}

func (m *KickstarterMetrics) RecordError(operation, errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}
