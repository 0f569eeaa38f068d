package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	zynapse "github.com/zynapse-ai/zynapse-go"
	"github.com/zynapse-ai/zynapse-go/logger"
	"github.com/zynapse-ai/zynapse-go/metrics"
)

// Gateway guards HTTP handlers behind proof of an on-chain payment.
//
// Each gateway owns exactly one requirement set, fixed at construction:
// routes receive their requirements explicitly instead of consulting a
// shared registry. The gateway keeps no record of consumed transaction
// references, so a valid proof verifies again on every resubmission;
// callers who need replay protection must layer it on top.
type Gateway struct {
	set      zynapse.PaymentRequirementSet
	verifier *zynapse.Verifier
	log      logger.Logger
	metrics  metrics.Recorder
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithLogger sets the gateway's logger.
func WithLogger(log logger.Logger) GatewayOption {
	return func(g *Gateway) { g.log = log }
}

// WithMetrics sets the gateway's metrics recorder.
func WithMetrics(rec metrics.Recorder) GatewayOption {
	return func(g *Gateway) { g.metrics = rec }
}

// NewGateway builds a gateway for one requirement set backed by the given
// ledger.
func NewGateway(set zynapse.PaymentRequirementSet, ledger zynapse.Ledger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		set:      set,
		verifier: zynapse.NewVerifier(ledger),
		log:      logger.Nop(),
		metrics:  metrics.NewNoopRecorder(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Requirements returns the set this gateway enforces.
func (g *Gateway) Requirements() zynapse.PaymentRequirementSet { return g.set }

// Verify runs proof verification for a single request and records the
// outcome. It does not write a response; Protect and the framework
// adapters do that.
func (g *Gateway) Verify(r *http.Request) zynapse.Verification {
	start := time.Now()
	v := g.verifier.Verify(r.Context(), r.Header.Values(zynapse.HeaderPayment), g.set)

	labels := map[string]string{"network": g.set.Network()}
	g.metrics.ObserveLatency("verify", time.Since(start), labels)
	g.metrics.IncCounter(string(v.Code), labels)

	if !v.Passed() {
		fields := map[string]any{
			"request_id": uuid.NewString(),
			"outcome":    string(v.Code),
			"path":       r.URL.Path,
		}
		if v.Recipient != "" {
			fields["recipient"] = v.Recipient
		}
		if v.Err != nil {
			fields["error"] = v.Err.Error()
		}
		if v.Code == zynapse.OutcomeInfrastructureError {
			g.log.Error("payment verification errored", fields)
		} else {
			g.log.Warn("payment verification failed", fields)
		}
	}
	return v
}

// Challenge builds the response body for a failed verification.
func (g *Gateway) Challenge(v zynapse.Verification) zynapse.Challenge {
	return zynapse.ChallengeForOutcome(v, g.set)
}

// Protect wraps next so it only runs once the request carries a valid
// proof. The happy path is a full pass-through: the gateway adds nothing
// to the request or the handler's response.
func (g *Gateway) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := g.Verify(r)
		if v.Passed() {
			next.ServeHTTP(w, r)
			return
		}
		writeJSON(w, v.HTTPStatus(), g.Challenge(v))
	})
}
