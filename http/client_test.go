package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zynapse "github.com/zynapse-ai/zynapse-go"
	"github.com/zynapse-ai/zynapse-go/wallet"
)

type fakeTransferLedger struct {
	calls    int32
	lastTo   string
	lastAmt  uint64
	ref      string
	transfer error
}

func (f *fakeTransferLedger) Transfer(_ context.Context, _ solana.PrivateKey, to string, lamports uint64) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	f.lastTo = to
	f.lastAmt = lamports
	if f.transfer != nil {
		return "", f.transfer
	}
	return f.ref, nil
}

func testKeypair(t *testing.T) *wallet.Keypair {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	kp, err := wallet.FromBytes(key)
	require.NoError(t, err)
	return kp
}

// paywalledServer answers 402 with a challenge until a proof header for
// wantRef arrives, then serves the resource.
func paywalledServer(t *testing.T, payee, wantRef string, amount uint64) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	set := zynapse.SingleRequirement("solana-devnet", payee, amount)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		header := r.Header.Get(zynapse.HeaderPayment)
		if header != "" {
			proof, err := zynapse.DecodeProofHeader(header, false)
			if err == nil && proof.TransactionRef == wantRef {
				body, _ := io.ReadAll(r.Body)
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(append([]byte("paid:"), body...))
				return
			}
		}
		writeJSON(w, http.StatusPaymentRequired, zynapse.NewChallenge(set))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestPayerPaysAndRetriesOnce(t *testing.T) {
	ledger := &fakeTransferLedger{ref: "sig123"}
	srv, hits := paywalledServer(t, testAddress, "sig123", 5000)

	payer := NewPayer(ledger, testKeypair(t))
	resp, err := payer.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ledger.calls), "exactly one transfer")
	assert.Equal(t, int32(2), atomic.LoadInt32(hits), "exactly one retry")
	assert.Equal(t, testAddress, ledger.lastTo)
	assert.Equal(t, uint64(5000), ledger.lastAmt)
}

func TestPayerReplaysRequestBody(t *testing.T) {
	ledger := &fakeTransferLedger{ref: "sig123"}
	srv, _ := paywalledServer(t, testAddress, "sig123", 5000)

	payer := NewPayer(ledger, testKeypair(t))
	resp, err := payer.Post(context.Background(), srv.URL, mimeApplicationJSON, strings.NewReader(`{"q":"report"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `paid:{"q":"report"}`, string(body))
}

func TestPayerSkipsPaymentOnSuccess(t *testing.T) {
	ledger := &fakeTransferLedger{ref: "sig123"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("free"))
	}))
	t.Cleanup(srv.Close)

	payer := NewPayer(ledger, testKeypair(t))
	resp, err := payer.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ledger.calls), "no transfer without a challenge")
}

func TestPayerPassesThroughUnrecognizedChallenge(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "foreign vocabulary", body: `{"message":"Payment Required"}`},
		{name: "not json", body: `pay me`},
		{
			name: "wrong network",
			body: `{"error":"payment_required","how_to_pay":{"network":"base-sepolia","payouts":[{"to":"` + testAddress + `","minAmount":1000}]}}`,
		},
		{
			name: "split challenge",
			body: `{"error":"payment_required","how_to_pay":{"network":"solana-devnet","payouts":[{"to":"` + testAddress + `","minAmount":700},{"to":"` + testAddress + `","minAmount":300}]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &fakeTransferLedger{ref: "sig123"}
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.Header().Set(headerContentType, mimeApplicationJSON)
				w.WriteHeader(http.StatusPaymentRequired)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			payer := NewPayer(ledger, testKeypair(t))
			resp, err := payer.Get(context.Background(), srv.URL)
			require.NoError(t, err)
			defer resp.Body.Close()

			// The 402 comes back untouched with its body still readable.
			assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(body))
			assert.Equal(t, int32(0), atomic.LoadInt32(&ledger.calls))
			assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
		})
	}
}

func TestPayerSurfacesTransferFailure(t *testing.T) {
	ledger := &fakeTransferLedger{transfer: assert.AnError}
	srv, hits := paywalledServer(t, testAddress, "sig123", 5000)

	payer := NewPayer(ledger, testKeypair(t))
	resp, err := payer.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "payment submission failed")
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "no retry after a failed transfer")
}

func TestPayerReturnsSecondResponseVerbatim(t *testing.T) {
	// The server keeps rejecting the proof; the payer must not loop.
	ledger := &fakeTransferLedger{ref: "wrong-sig"}
	srv, hits := paywalledServer(t, testAddress, "expected-sig", 5000)

	payer := NewPayer(ledger, testKeypair(t))
	resp, err := payer.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ledger.calls), "one transfer, never more")
	assert.Equal(t, int32(2), atomic.LoadInt32(hits), "one retry, never more")
}

func TestWrapClient(t *testing.T) {
	ledger := &fakeTransferLedger{ref: "sig123"}
	srv, hits := paywalledServer(t, testAddress, "sig123", 5000)

	payer := NewPayer(ledger, testKeypair(t))
	client := WrapClient(nil, payer)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ledger.calls))
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}
