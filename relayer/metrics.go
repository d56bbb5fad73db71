// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package relayer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks delivery outcomes per source chain.
type Metrics struct {
	approvedMessageCount     *prometheus.CounterVec
	failedDeliveryCount      *prometheus.CounterVec
	submittedSignatureCount  prometheus.Counter
	sessionQuorumLatencySigs prometheus.Gauge
	rotationCount            prometheus.Counter
}

// NewMetrics registers the relayer metrics with registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		approvedMessageCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "approved_message_count",
				Help: "Number of messages approved on the gateway",
			},
			[]string{"source_chain"},
		),
		failedDeliveryCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "failed_delivery_count",
				Help: "Number of messages that failed to deliver",
			},
			[]string{"source_chain", "failure_reason"},
		),
		submittedSignatureCount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "submitted_signature_count",
				Help: "Number of verifier signatures submitted to sessions",
			},
		),
		sessionQuorumLatencySigs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "session_quorum_signature_count",
				Help: "Signatures needed to reach quorum on the last session",
			},
		),
		rotationCount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "verifier_set_rotation_count",
				Help: "Number of verifier set rotations driven",
			},
		),
	}

	registerer.MustRegister(m.approvedMessageCount)
	registerer.MustRegister(m.failedDeliveryCount)
	registerer.MustRegister(m.submittedSignatureCount)
	registerer.MustRegister(m.sessionQuorumLatencySigs)
	registerer.MustRegister(m.rotationCount)
	return m
}
