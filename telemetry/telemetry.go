// Copyright (c) 2025-2026, The LBSIM Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package telemetry exposes run progress as Prometheus metrics for long
// interactive sessions, served on an optional /metrics listener.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lorabandit/lbsim/agent"
	"github.com/lorabandit/lbsim/logger"
	"github.com/lorabandit/lbsim/progctx"
	. "github.com/lorabandit/lbsim/types"
)

// Collector implements simulation.AttemptObserver over a Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	attempts *prometheus.CounterVec
	toa      prometheus.Histogram
	snr      prometheus.Histogram
	devices  prometheus.Gauge
	simTime  prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lbsim",
			Name:      "tx_attempts_total",
			Help:      "Transmission attempts by policy and outcome.",
		}, []string{"policy", "outcome"}),
		toa: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lbsim",
			Name:      "tx_airtime_seconds",
			Help:      "Per-transmission time on air.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		snr: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lbsim",
			Name:      "tx_snr_db",
			Help:      "Per-transmission SNR at the gateway.",
			Buckets:   prometheus.LinearBuckets(-25, 5, 14),
		}),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lbsim",
			Name:      "devices",
			Help:      "Devices currently in the simulation.",
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lbsim",
			Name:      "simulated_seconds",
			Help:      "Simulated time of the run.",
		}),
	}
	reg.MustRegister(c.attempts, c.toa, c.snr, c.devices, c.simTime)
	return c
}

// ObserveAttempt records one dispatched transmission attempt.
func (c *Collector) ObserveAttempt(policyName string, att agent.Attempt) {
	outcome := "lost"
	if att.Sample.Delivered {
		outcome = "delivered"
	}
	c.attempts.WithLabelValues(policyName, outcome).Inc()
	c.toa.Observe(att.Sample.ToaSec)
	c.snr.Observe(att.Sample.SnrDb)
}

// ObserveClock tracks the simulated clock and population size.
func (c *Collector) ObserveClock(timestamp Timestamp, devices int) {
	c.simTime.Set(float64(timestamp) / 1e6)
	c.devices.Set(float64(devices))
}

// Handler returns the /metrics HTTP handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve runs the metrics listener until the program context ends.
func (c *Collector) Serve(ctx *progctx.ProgCtx, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	ctx.WaitAdd("telemetry", 1)
	go func() {
		defer ctx.WaitDone("telemetry")
		logger.Infof("serving metrics on http://%s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("metrics listener failed: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
