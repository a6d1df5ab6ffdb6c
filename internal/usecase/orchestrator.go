package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shoesync/backend/internal/domain"
)

// Step identifies one synchronization step.
type Step string

const (
	StepProducts Step = "products"
	StepPrices   Step = "prices"
	StepInstock  Step = "instock"
)

// AllSteps is the canonical execution order: prices and instock depend on
// the product set confirmed by the products step.
var AllSteps = []Step{StepProducts, StepPrices, StepInstock}

// StepReport records the outcome of one step within a cycle.
type StepReport struct {
	Step    Step   `json:"step"`
	Applied bool   `json:"applied"`
	Skipped string `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Report summarizes one full synchronization cycle.
type Report struct {
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Attempts   int          `json:"attempts"`
	Steps      []StepReport `json:"steps"`
}

// OrchestratorConfig bounds the retry behavior on transient connectivity
// failures.
type OrchestratorConfig struct {
	RetryAttempts int
	RetryDelay    time.Duration
}

// Orchestrator runs the requested synchronizers in sequence. A step that
// fails with a connectivity error is retried from scratch after a fixed
// delay, up to the attempt budget; steps that already committed are not
// re-run. No state is carried between attempts beyond the listing cache
// the products synchronizer owns.
type Orchestrator struct {
	products *ProductsSynchronizer
	prices   *PricesSynchronizer
	instock  *InstockSynchronizer
	cfg      OrchestratorConfig

	sleep func(ctx context.Context, d time.Duration) error

	mu         sync.RWMutex
	lastReport *Report
}

// NewOrchestrator creates an orchestrator over the three synchronizers.
func NewOrchestrator(
	products *ProductsSynchronizer,
	prices *PricesSynchronizer,
	instock *InstockSynchronizer,
	cfg OrchestratorConfig,
) *Orchestrator {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 20 * time.Second
	}
	return &Orchestrator{
		products: products,
		prices:   prices,
		instock:  instock,
		cfg:      cfg,
		sleep:    sleepCtx,
	}
}

// RunCycle executes the requested steps (AllSteps when empty) in canonical
// order and returns the cycle report. Only connectivity failures consume
// retry attempts; any other error aborts the cycle immediately.
func (o *Orchestrator) RunCycle(ctx context.Context, steps []Step) (*Report, error) {
	if len(steps) == 0 {
		steps = AllSteps
	}
	report := &Report{StartedAt: time.Now()}
	defer func() {
		report.FinishedAt = time.Now()
		o.mu.Lock()
		o.lastReport = report
		o.mu.Unlock()
	}()

	pending := orderSteps(steps)
	var runErr error

	for attempt := 1; attempt <= o.cfg.RetryAttempts && len(pending) > 0; attempt++ {
		report.Attempts = attempt
		pending, runErr = o.runPending(ctx, report, pending)
		if runErr == nil || !errors.Is(runErr, domain.ErrConnectivity) {
			break
		}
		if attempt == o.cfg.RetryAttempts {
			break
		}
		log.Printf("[sync] connectivity failure, retrying in %s: %v", o.cfg.RetryDelay, runErr)
		if err := o.sleep(ctx, o.cfg.RetryDelay); err != nil {
			return report, err
		}
	}

	if runErr != nil {
		return report, runErr
	}
	return report, nil
}

// runPending runs the given steps in order and returns the ones still
// pending after the first failure.
func (o *Orchestrator) runPending(ctx context.Context, report *Report, pending []Step) ([]Step, error) {
	for i, step := range pending {
		applied, err := o.runStep(ctx, step)
		if err != nil {
			report.Steps = append(report.Steps, StepReport{Step: step, Error: err.Error()})
			return pending[i:], fmt.Errorf("%s: %w", step, err)
		}

		sr := StepReport{Step: step, Applied: applied}
		if !applied {
			sr.Skipped = "products table empty; run the products step first"
		}
		report.Steps = append(report.Steps, sr)
	}
	return nil, nil
}

func (o *Orchestrator) runStep(ctx context.Context, step Step) (bool, error) {
	switch step {
	case StepProducts:
		return o.products.Run(ctx)
	case StepPrices:
		return o.prices.Run(ctx)
	case StepInstock:
		return o.instock.Run(ctx)
	default:
		return false, fmt.Errorf("%w: unknown step %q", domain.ErrInvalidArgument, step)
	}
}

// LastReport returns the report of the most recently finished cycle, or nil
// when no cycle has run yet.
func (o *Orchestrator) LastReport() *Report {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastReport
}

// orderSteps filters AllSteps down to the requested set, deduplicated and
// in canonical order.
func orderSteps(requested []Step) []Step {
	want := make(map[Step]struct{}, len(requested))
	for _, s := range requested {
		want[s] = struct{}{}
	}
	ordered := make([]Step, 0, len(want))
	for _, s := range AllSteps {
		if _, ok := want[s]; ok {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
