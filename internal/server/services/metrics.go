package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authorization_token_pairs_issued_total",
		Help: "Total number of token pairs issued.",
	}, []string{"family"})

	refreshRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authorization_refresh_rejected_total",
		Help: "Total number of refused refresh attempts.",
	}, []string{"family", "reason"})
)
