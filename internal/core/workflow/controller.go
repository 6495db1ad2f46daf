// Package workflow drives the check-and-reveal lifecycle of a health
// metric: validate input, encrypt, submit on-chain, await confirmation,
// fetch the encrypted result, decrypt, classify.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dtrann/healthseal/internal/core/domain"
	"github.com/dtrann/healthseal/internal/core/registry"
	"github.com/dtrann/healthseal/internal/core/status"
	"github.com/dtrann/healthseal/internal/infra/sigcache"
	"github.com/dtrann/healthseal/internal/infra/storage"
	"github.com/dtrann/healthseal/internal/metrics"
)

// Encryptor is the FHE platform boundary used by the controller.
type Encryptor interface {
	Encrypt(ctx context.Context, contract, user string, value uint64) (domain.EncryptedInput, error)
	IssueSignature(ctx context.Context, user, contract string) (*domain.DecryptionSignature, error)
	UserDecrypt(ctx context.Context, sig *domain.DecryptionSignature, handles []domain.Handle) ([]uint64, error)
}

// ContractClient is the on-chain contract boundary used by the controller.
type ContractClient interface {
	Address() string
	SubmitCheck(ctx context.Context, id domain.MetricID, input domain.EncryptedInput) (string, error)
	WaitMined(ctx context.Context, txHash string) error
	ResultHandle(ctx context.Context, id domain.MetricID) (domain.Handle, error)
}

// Precondition errors surfaced as diagnostics, not fatal.
var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrNotChecked    = errors.New("metric has not been checked in this session")
	ErrNoContract    = errors.New("no deployed contract reference")
	ErrNoEncryptor   = errors.New("no FHE client session")
	ErrNoResult      = errors.New("contract holds no result for this metric")
)

// Config holds controller settings.
type Config struct {
	// User is the account address checks are performed for.
	User string
	// SignatureMargin is how close to expiry a cached decryption
	// signature may be before it is re-issued.
	SignatureMargin time.Duration
}

// Controller owns the per-metric state machine. Safe for concurrent
// use; each metric's slot is written independently.
type Controller struct {
	registry *registry.Registry
	store    *status.Store
	enc      Encryptor
	contract ContractClient
	sigs     sigcache.Store
	history  storage.CheckRepository
	user     string
	margin   time.Duration
	log      *slog.Logger

	mu          sync.Mutex
	lastRecords map[domain.MetricID]string
}

// New creates a workflow controller.
func New(
	cfg Config,
	reg *registry.Registry,
	store *status.Store,
	enc Encryptor,
	contract ContractClient,
	sigs sigcache.Store,
	history storage.CheckRepository,
) *Controller {
	margin := cfg.SignatureMargin
	if margin == 0 {
		margin = time.Hour
	}
	return &Controller{
		registry:    reg,
		store:       store,
		enc:         enc,
		contract:    contract,
		sigs:        sigs,
		history:     history,
		user:        cfg.User,
		margin:      margin,
		log:         slog.Default(),
		lastRecords: make(map[domain.MetricID]string),
	}
}

// Slot returns the current workflow state of a metric.
func (c *Controller) Slot(id domain.MetricID) domain.MetricSlot {
	return c.store.Get(id)
}

// SubmitCheck validates, encrypts, and submits one metric value, then
// blocks until the transaction confirms. A non-positive or non-numeric
// value is a no-op that resets the slot to unknown; no encryption or
// submission call is made. Failures leave prior state unchanged.
func (c *Controller) SubmitCheck(ctx context.Context, id domain.MetricID, rawValue string) (domain.MetricSlot, error) {
	if !c.registry.Has(id) {
		return c.store.Get(id), fmt.Errorf("%w: code %d", ErrUnknownMetric, id)
	}

	value, err := strconv.ParseUint(rawValue, 10, 64)
	if err != nil || value == 0 {
		c.log.Debug("invalid check value, resetting", "metric", id, "value", rawValue)
		c.store.Reset(id)
		return c.store.Get(id), nil
	}

	if c.enc == nil {
		return c.store.Get(id), ErrNoEncryptor
	}
	if c.contract == nil || c.contract.Address() == "" {
		return c.store.Get(id), ErrNoContract
	}

	input, err := c.enc.Encrypt(ctx, c.contract.Address(), c.user, value)
	if err != nil {
		return c.store.Get(id), fmt.Errorf("encrypt metric %d: %w", id, err)
	}

	txHash, err := c.contract.SubmitCheck(ctx, id, input)
	if err != nil {
		return c.store.Get(id), fmt.Errorf("submit check for metric %d: %w", id, err)
	}
	metrics.ChecksSubmitted.WithLabelValues(strconv.Itoa(int(id))).Inc()

	if err := c.contract.WaitMined(ctx, txHash); err != nil {
		return c.store.Get(id), fmt.Errorf("confirm check for metric %d: %w", id, err)
	}
	metrics.ChecksConfirmed.WithLabelValues(strconv.Itoa(int(id))).Inc()

	c.store.MarkChecked(id, txHash)
	c.log.Info("check confirmed", "metric", id, "tx", txHash)
	c.recordCheck(ctx, id, txHash)

	return c.store.Get(id), nil
}

// RevealStatus fetches, decrypts, and classifies the stored result of a
// checked metric. Precondition violations and external failures abort
// without altering the stored status.
func (c *Controller) RevealStatus(ctx context.Context, id domain.MetricID) (domain.HealthStatus, error) {
	if !c.registry.Has(id) {
		return domain.StatusUnknown, fmt.Errorf("%w: code %d", ErrUnknownMetric, id)
	}
	// Precondition checks short-circuit before any contract query.
	if !c.store.Get(id).Checked {
		return domain.StatusUnknown, ErrNotChecked
	}
	if c.contract == nil || c.contract.Address() == "" {
		return domain.StatusUnknown, ErrNoContract
	}
	if c.enc == nil {
		return domain.StatusUnknown, ErrNoEncryptor
	}

	handle, err := c.contract.ResultHandle(ctx, id)
	if err != nil {
		return domain.StatusUnknown, fmt.Errorf("fetch result for metric %d: %w", id, err)
	}
	if handle.IsZero() {
		return domain.StatusUnknown, fmt.Errorf("%w: metric %d", ErrNoResult, id)
	}

	sig, err := c.decryptionSignature(ctx)
	if err != nil {
		return domain.StatusUnknown, fmt.Errorf("decryption signature: %w", err)
	}

	values, err := c.enc.UserDecrypt(ctx, sig, []domain.Handle{handle})
	if err != nil {
		return domain.StatusUnknown, fmt.Errorf("decrypt result for metric %d: %w", id, err)
	}

	code := values[0]
	st := domain.ClassifyCode(code)
	if code > 2 {
		// Codes above 2 classify as high but are outside the
		// contract's documented result set.
		c.log.Warn("unexpected result code", "metric", id, "code", code)
	}

	c.store.SetStatus(id, st)
	metrics.RevealsTotal.WithLabelValues(strconv.Itoa(int(id)), string(st)).Inc()
	c.log.Info("status revealed", "metric", id, "status", st)
	c.updateRecord(ctx, id, st)

	return st, nil
}

// RevealAll reveals every checked metric concurrently. Per-metric
// failures are logged and skipped; the returned map holds successes.
func (c *Controller) RevealAll(ctx context.Context) map[domain.MetricID]domain.HealthStatus {
	var mu sync.Mutex
	out := make(map[domain.MetricID]domain.HealthStatus)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(3)

	for _, def := range c.registry.List() {
		id := def.ID
		if !c.store.Get(id).Checked {
			continue
		}
		g.Go(func() error {
			st, err := c.RevealStatus(ctx, id)
			if err != nil {
				c.log.Warn("reveal failed", "metric", id, "error", err)
				return nil
			}
			mu.Lock()
			out[id] = st
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// decryptionSignature returns a valid signature for (user, contract),
// reusing the cached one when it still covers the validity margin.
func (c *Controller) decryptionSignature(ctx context.Context) (*domain.DecryptionSignature, error) {
	contract := c.contract.Address()

	if c.sigs != nil {
		cached, err := c.sigs.Get(ctx, c.user, contract)
		if err != nil {
			c.log.Warn("signature cache read failed", "error", err)
		} else if cached.ValidAt(time.Now(), c.margin) {
			metrics.SignatureCacheHits.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.SignatureCacheHits.WithLabelValues("miss").Inc()
	}

	sig, err := c.enc.IssueSignature(ctx, c.user, contract)
	if err != nil {
		return nil, err
	}

	if c.sigs != nil {
		if err := c.sigs.Put(ctx, sig); err != nil {
			c.log.Warn("signature cache write failed", "error", err)
		}
	}
	return sig, nil
}

func (c *Controller) recordCheck(ctx context.Context, id domain.MetricID, txHash string) {
	if c.history == nil {
		return
	}
	rec := &domain.CheckRecord{
		ID:        uuid.NewString(),
		User:      c.user,
		MetricID:  id,
		TxHash:    txHash,
		Status:    domain.StatusUnknown,
		CreatedAt: time.Now(),
	}
	if err := c.history.Save(ctx, rec); err != nil {
		c.log.Warn("failed to record check", "metric", id, "error", err)
		return
	}
	c.mu.Lock()
	c.lastRecords[id] = rec.ID
	c.mu.Unlock()
}

func (c *Controller) updateRecord(ctx context.Context, id domain.MetricID, st domain.HealthStatus) {
	if c.history == nil {
		return
	}
	c.mu.Lock()
	recID := c.lastRecords[id]
	c.mu.Unlock()
	if recID == "" {
		return
	}
	if err := c.history.UpdateStatus(ctx, recID, st); err != nil {
		c.log.Warn("failed to update check record", "metric", id, "error", err)
	}
}
