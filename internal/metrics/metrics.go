package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CouponsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perkgate_coupons_issued_total",
		Help: "Total coupon codes minted, by tenant slug",
	}, []string{"tenant"})

	IssuanceRaceLost = promauto.NewCounter(prometheus.CounterOpts{
		Name: "perkgate_issuance_race_lost_total",
		Help: "Issuance inserts that lost the idempotency race and returned the winner's code",
	})

	IssuanceCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "perkgate_issuance_code_collisions_total",
		Help: "Generated coupon codes that collided and were regenerated",
	})

	SurveySubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perkgate_survey_submissions_total",
		Help: "Survey submissions by outcome (stored or rejected)",
	}, []string{"outcome"})

	RateLimitDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perkgate_rate_limit_denials_total",
		Help: "Requests denied by the rate limiter, by endpoint class",
	}, []string{"class"})

	OptInsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "perkgate_opt_ins_recorded_total",
		Help: "Email opt-ins recorded (first-time rows only are not distinguishable; duplicates count too)",
	})

	QualificationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perkgate_qualification_decisions_total",
		Help: "Orchestrator decisions by resulting state",
	}, []string{"state"})
)

func ObserveCouponIssued(tenantSlug string) {
	label := strings.TrimSpace(tenantSlug)
	if label == "" {
		label = "unknown"
	}
	CouponsIssued.WithLabelValues(label).Inc()
}

func ObserveSurveySubmission(stored bool) {
	outcome := "stored"
	if !stored {
		outcome = "rejected"
	}
	SurveySubmissions.WithLabelValues(outcome).Inc()
}

func ObserveRateLimitDenial(class string) {
	label := strings.TrimSpace(class)
	if label == "" {
		label = "unknown"
	}
	RateLimitDenials.WithLabelValues(label).Inc()
}

func ObserveQualificationDecision(state string) {
	label := strings.TrimSpace(state)
	if label == "" {
		label = "unknown"
	}
	QualificationDecisions.WithLabelValues(label).Inc()
}
