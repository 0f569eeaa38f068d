// Package ledger talks to a Solana RPC node. It is the module's only
// chain-facing component: the gateway uses it to fetch confirmed
// transactions for proof verification, and the autonomous payer uses it to
// submit and confirm lamport transfers.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	zynapse "github.com/zynapse-ai/zynapse-go"
)

const (
	// DevnetRPC is the default endpoint for NetworkDevnet.
	DevnetRPC = rpc.DevNet_RPC
	// NetworkDevnet names the chain in requirements and challenges.
	NetworkDevnet = "solana-devnet"

	defaultConfirmTimeout = 60 * time.Second
	defaultPollInterval   = 2 * time.Second
)

// RPCClient is the subset of the Solana RPC surface the ledger needs.
// Narrow on purpose so tests can inject a fake node.
type RPCClient interface {
	GetTransaction(ctx context.Context, sig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// Option configures a Client.
type Option func(*Client)

// WithCommitment sets the commitment level used for fetches and blockhash
// queries.
func WithCommitment(commitment rpc.CommitmentType) Option {
	return func(c *Client) { c.commitment = commitment }
}

// WithConfirmTimeout bounds how long Transfer waits for confirmation.
func WithConfirmTimeout(d time.Duration) Option {
	return func(c *Client) { c.confirmTimeout = d }
}

// WithPollInterval sets the confirmation polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// Client implements transaction fetching and transfer submission against a
// Solana node. It is safe for concurrent use.
type Client struct {
	rpc            RPCClient
	commitment     rpc.CommitmentType
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

// New creates a client for the node at rpcURL.
func New(rpcURL string, opts ...Option) *Client {
	return NewWithRPC(rpc.New(rpcURL), opts...)
}

// NewWithRPC creates a client over an existing RPC connection.
func NewWithRPC(client RPCClient, opts ...Option) *Client {
	c := &Client{
		rpc:            client,
		commitment:     rpc.CommitmentConfirmed,
		confirmTimeout: defaultConfirmTimeout,
		pollInterval:   defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transaction fetches a confirmed transaction by signature and normalizes
// its participant list. A reference that is not a well-formed signature can
// never exist on chain and is reported as not found.
func (c *Client) Transaction(ctx context.Context, ref string) (*zynapse.TransactionRecord, error) {
	sig, err := solana.SignatureFromBase58(ref)
	if err != nil {
		return nil, zynapse.ErrTransactionNotFound
	}

	maxVersion := uint64(0)
	out, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     c.commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, zynapse.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("fetch transaction %s: %w", ref, err)
	}
	if out == nil || out.Meta == nil || out.Transaction == nil {
		return nil, zynapse.ErrTransactionNotFound
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(out.Transaction.GetBinary()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", zynapse.ErrUnreadableAccounts, err)
	}

	return NormalizeRecord(&tx.Message, out.Meta)
}

// NormalizeRecord flattens the two transaction-message encodings into one
// TransactionRecord. Legacy messages carry every participant in the static
// account list; v0 messages append the addresses resolved from lookup
// tables (writable first, then readonly), which is the order the node uses
// for the balance arrays. Everything downstream of this function is
// encoding-agnostic.
func NormalizeRecord(msg *solana.Message, meta *rpc.TransactionMeta) (*zynapse.TransactionRecord, error) {
	var keys solana.PublicKeySlice
	switch msg.GetVersion() {
	case solana.MessageVersionLegacy:
		keys = append(keys, msg.AccountKeys...)
	case solana.MessageVersionV0:
		keys = append(keys, msg.AccountKeys...)
		keys = append(keys, meta.LoadedAddresses.Writable...)
		keys = append(keys, meta.LoadedAddresses.ReadOnly...)
	default:
		return nil, zynapse.ErrUnreadableAccounts
	}

	participants := make([]string, len(keys))
	for i, key := range keys {
		participants[i] = key.String()
	}
	return &zynapse.TransactionRecord{
		Participants: participants,
		PreBalances:  meta.PreBalances,
		PostBalances: meta.PostBalances,
	}, nil
}

// Transfer moves lamports to a single recipient and waits for the network
// to confirm the transaction. The returned signature is the proof
// reference a gateway will verify. Once submitted the transfer is
// irreversible regardless of what the caller does with the reference.
func (c *Client) Transfer(ctx context.Context, key solana.PrivateKey, to string, lamports uint64) (string, error) {
	payee, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return "", fmt.Errorf("invalid recipient address: %w", err)
	}

	recent, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return "", fmt.Errorf("failed to get blockhash: %w", err)
	}

	from := key.PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(lamports, from, payee).Build(),
		},
		recent.Value.Blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return "", fmt.Errorf("failed to build transaction: %w", err)
	}

	if _, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(from) {
			return &key
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := c.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("broadcast failed: %w", err)
	}

	if err := c.waitForConfirmation(ctx, sig); err != nil {
		return "", err
	}
	return sig.String(), nil
}

func (c *Client) waitForConfirmation(ctx context.Context, sig solana.Signature) error {
	deadline := time.NewTimer(c.confirmTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("transaction %s not confirmed after %s", sig, c.confirmTimeout)
		case <-ticker.C:
			out, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
			if err != nil || out == nil || len(out.Value) == 0 || out.Value[0] == nil {
				continue
			}
			switch out.Value[0].ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}
	}
}
