package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gagliardetto/solana-go"

	zynapse "github.com/zynapse-ai/zynapse-go"
	"github.com/zynapse-ai/zynapse-go/logger"
	"github.com/zynapse-ai/zynapse-go/wallet"
)

// TransferLedger is the write side of the chain used by the payer: submit
// one transfer and wait for confirmation.
type TransferLedger interface {
	Transfer(ctx context.Context, key solana.PrivateKey, to string, lamports uint64) (string, error)
}

// Payer issues HTTP requests and satisfies payment challenges
// autonomously. Per call it makes at most one transfer and at most one
// retry: it is not a polling loop, and a transfer once submitted is never
// rolled back even if the retried request fails.
type Payer struct {
	http   *http.Client
	ledger TransferLedger
	wallet *wallet.Keypair
	log    logger.Logger
}

// PayerOption configures a Payer.
type PayerOption func(*Payer)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) PayerOption {
	return func(p *Payer) { p.http = client }
}

// WithPayerLogger sets the payer's logger.
func WithPayerLogger(log logger.Logger) PayerOption {
	return func(p *Payer) { p.log = log }
}

// NewPayer builds a payer that signs transfers with key and submits them
// through ledger.
func NewPayer(ledger TransferLedger, key *wallet.Keypair, opts ...PayerOption) *Payer {
	p := &Payer{
		http:   http.DefaultClient,
		ledger: ledger,
		wallet: key,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Do issues req. If the server answers with a payment challenge the payer
// recognizes, it transfers the requested amount, attaches the proof
// header, and retries the identical request once. The second response is
// returned as the final result whether it succeeds or fails. Any other
// response, and any challenge the payer does not recognize, is returned
// unchanged with no payment attempted.
func (p *Payer) Do(req *http.Request) (*http.Response, error) {
	return p.payAndRetry(req, p.http.Do)
}

// Get performs a GET with automatic payment handling.
func (p *Payer) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return p.Do(req)
}

// Post performs a POST with automatic payment handling.
func (p *Payer) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(headerContentType, contentType)
	return p.Do(req)
}

func (p *Payer) payAndRetry(req *http.Request, do func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	// Buffer the body up front so the retry can replay it byte for byte.
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	first, err := do(req)
	if err != nil {
		return nil, err
	}
	if first.StatusCode != http.StatusPaymentRequired {
		return first, nil
	}

	respBody, err := io.ReadAll(first.Body)
	first.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read challenge body: %w", err)
	}
	first.Body = io.NopCloser(bytes.NewReader(respBody))

	challenge, ok := ParseChallenge(respBody)
	if !ok || len(challenge.HowToPay.Payouts) != 1 {
		// Not a challenge this payer understands (split challenges
		// included); hand the 402 back untouched.
		return first, nil
	}

	payout := challenge.HowToPay.Payouts[0]
	ctx := req.Context()
	p.log.Info("paying challenge", map[string]any{
		"to":       payout.To,
		"lamports": payout.MinAmount,
		"network":  challenge.HowToPay.Network,
	})

	ref, err := p.ledger.Transfer(ctx, p.wallet.PrivateKey(), payout.To, payout.MinAmount)
	if err != nil {
		return nil, fmt.Errorf("payment submission failed: %w", err)
	}

	proof := zynapse.PaymentProof{
		TransactionRef: ref,
		ClaimedAmount:  payout.MinAmount,
	}

	retry := req.Clone(ctx)
	if body != nil {
		retry.Body = io.NopCloser(bytes.NewReader(body))
	}
	retry.Header.Set(zynapse.HeaderPayment, proof.EncodeHeader())

	return do(retry)
}

// paymentRoundTripper settles challenges at the transport level.
type paymentRoundTripper struct {
	transport http.RoundTripper
	payer     *Payer
}

func (t *paymentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.payer.payAndRetry(req, t.transport.RoundTrip)
}

// WrapClient returns a copy of client whose transport settles payment
// challenges through payer, so every request made with it is transparently
// paid for.
func WrapClient(client *http.Client, payer *Payer) *http.Client {
	if client == nil {
		client = http.DefaultClient
	}
	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	wrapped := *client
	wrapped.Transport = &paymentRoundTripper{
		transport: transport,
		payer:     payer,
	}
	return &wrapped
}
