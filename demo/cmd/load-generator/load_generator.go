// Package main implements a load generator for the lending store with configurable
// request rates and realistic lend/return scenarios against a seeded catalog.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/features/command/createloan"
	"github.com/AntonStoeckl/library-lending-go/features/command/returnloan"
	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine"
)

// LoadGenerator drives lend and return commands against the store at a configured
// rate, using a seeded catalog of books and a roster of members.
type LoadGenerator struct {
	store  postgresengine.Store
	config Config

	createLoanHandler createloan.CommandHandler
	returnLoanHandler returnloan.CommandHandler

	memberIDs []uuid.UUID
	bookIDs   []uuid.UUID

	ticker   *time.Ticker
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu            sync.RWMutex
	activeLoanIDs []uuid.UUID
	requestCount  int64
	rejectedCount int64
	errorCount    int64
	startTime     time.Time
}

// NewLoadGenerator creates a LoadGenerator with command handlers wired to the store.
func NewLoadGenerator(store postgresengine.Store, config Config) *LoadGenerator {
	return &LoadGenerator{
		store:             store,
		config:            config,
		stopChan:          make(chan struct{}),
		createLoanHandler: createloan.NewCommandHandler(store),
		returnLoanHandler: returnloan.NewCommandHandler(store),
	}
}

// Seed populates the catalog and roster the scenarios draw from.
// One author is created per ten books.
func (lg *LoadGenerator) Seed(ctx context.Context) error {
	runID := uuid.New().String()[:8]

	authorCount := lg.config.InitialBooks/10 + 1
	authorIDs := make([]uuid.UUID, 0, authorCount)

	for i := 0; i < authorCount; i++ {
		author, err := lending.BuildAuthor(
			uuid.New(),
			fmt.Sprintf("Load Author %s-%d", runID, i),
			time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC),
		)
		if err != nil {
			return fmt.Errorf("building author: %w", err)
		}

		created, err := lg.store.CreateAuthor(ctx, author)
		if err != nil {
			return fmt.Errorf("creating author: %w", err)
		}

		authorIDs = append(authorIDs, created.ID)
	}

	for i := 0; i < lg.config.InitialBooks; i++ {
		book, err := lending.BuildBook(
			uuid.New(),
			fmt.Sprintf("Load Test Book %s-%d", runID, i),
			"Fiction",
			1999,
			authorIDs[i%len(authorIDs)],
		)
		if err != nil {
			return fmt.Errorf("building book: %w", err)
		}

		created, err := lg.store.CreateBook(ctx, book)
		if err != nil {
			return fmt.Errorf("creating book: %w", err)
		}

		lg.bookIDs = append(lg.bookIDs, created.ID)
	}

	for i := 0; i < lg.config.InitialMembers; i++ {
		member, err := lending.BuildMember(
			uuid.New(),
			fmt.Sprintf("loadgen_%s_%d", runID, i),
			fmt.Sprintf("loadgen_%s_%d@example.com", runID, i),
			"1 Load Test Street",
			"555-0100",
		)
		if err != nil {
			return fmt.Errorf("building member: %w", err)
		}

		created, err := lg.store.CreateMember(ctx, member)
		if err != nil {
			return fmt.Errorf("creating member: %w", err)
		}

		lg.memberIDs = append(lg.memberIDs, created.ID)
	}

	return nil
}

// Start begins load generation with the configured request rate.
// It runs until the context is cancelled or Stop is called.
func (lg *LoadGenerator) Start(ctx context.Context) error {
	lg.mu.Lock()
	lg.startTime = time.Now()
	lg.requestCount = 0
	lg.rejectedCount = 0
	lg.errorCount = 0
	lg.mu.Unlock()

	interval := time.Second / time.Duration(lg.config.Rate)
	lg.ticker = time.NewTicker(interval)
	defer lg.ticker.Stop()

	log.Printf("Load generator starting with %d requests/second (interval: %v)", lg.config.Rate, interval)

	lg.wg.Add(1)
	go lg.statsReporter(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Load generator stopping due to context cancellation")
			return ctx.Err()

		case <-lg.stopChan:
			log.Printf("Load generator stopping due to stop signal")
			return nil

		case <-lg.ticker.C:
			lg.wg.Add(1)
			go lg.executeScenario(ctx)
		}
	}
}

// Stop gracefully shuts down the load generator.
func (lg *LoadGenerator) Stop(ctx context.Context) error {
	close(lg.stopChan)

	done := make(chan struct{})
	go func() {
		lg.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		lg.logFinalStats()
		return nil
	case <-ctx.Done():
		lg.logFinalStats()
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

func (lg *LoadGenerator) executeScenario(ctx context.Context) {
	defer lg.wg.Done()

	var err error
	if lg.selectLendScenario() {
		err = lg.runLendScenario(ctx)
	} else {
		err = lg.runReturnScenario(ctx)
	}

	lg.mu.Lock()
	lg.requestCount++
	switch {
	case err == nil:
	case errors.Is(err, lending.ErrRuleViolation), errors.Is(err, lending.ErrNotFound):
		// Expected under load: a book already lent out, a loan returned twice,
		// or a member at the loan limit.
		lg.rejectedCount++
	default:
		lg.errorCount++
		log.Printf("Scenario error: %v", err)
	}
	lg.mu.Unlock()
}

// selectLendScenario chooses between lend and return based on configured weights.
func (lg *LoadGenerator) selectLendScenario() bool {
	r := rand.Intn(100) //nolint:gosec // Demo code - weak random is acceptable
	return r < lg.config.ScenarioWeights[0]
}

func (lg *LoadGenerator) runLendScenario(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	memberID := lg.memberIDs[rand.Intn(len(lg.memberIDs))] //nolint:gosec // Demo code - weak random is acceptable
	bookID := lg.bookIDs[rand.Intn(len(lg.bookIDs))]       //nolint:gosec // Demo code - weak random is acceptable

	command := createloan.BuildCommand(memberID, bookID, time.Now())

	loan, _, err := lg.createLoanHandler.Handle(opCtx, command)
	if err != nil {
		return err
	}

	lg.mu.Lock()
	lg.activeLoanIDs = append(lg.activeLoanIDs, loan.ID)
	lg.mu.Unlock()

	return nil
}

func (lg *LoadGenerator) runReturnScenario(ctx context.Context) error {
	loanID, ok := lg.takeRandomActiveLoan()
	if !ok {
		// Nothing lent out yet, lend instead to keep the ledger moving.
		return lg.runLendScenario(ctx)
	}

	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	command := returnloan.BuildCommand(loanID, time.Now())

	_, _, err := lg.returnLoanHandler.Handle(opCtx, command)

	return err
}

func (lg *LoadGenerator) takeRandomActiveLoan() (uuid.UUID, bool) {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	if len(lg.activeLoanIDs) == 0 {
		return uuid.Nil, false
	}

	idx := rand.Intn(len(lg.activeLoanIDs)) //nolint:gosec // Demo code - weak random is acceptable
	loanID := lg.activeLoanIDs[idx]
	lg.activeLoanIDs[idx] = lg.activeLoanIDs[len(lg.activeLoanIDs)-1]
	lg.activeLoanIDs = lg.activeLoanIDs[:len(lg.activeLoanIDs)-1]

	return loanID, true
}

func (lg *LoadGenerator) statsReporter(ctx context.Context) {
	defer lg.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-lg.stopChan:
			return
		case <-ticker.C:
			lg.logCurrentStats()
		}
	}
}

func (lg *LoadGenerator) logCurrentStats() {
	lg.mu.RLock()
	duration := time.Since(lg.startTime)
	requests := lg.requestCount
	rejected := lg.rejectedCount
	errs := lg.errorCount
	active := len(lg.activeLoanIDs)
	lg.mu.RUnlock()

	if duration > 0 && requests > 0 {
		rps := float64(requests) / duration.Seconds()
		log.Printf("Stats: %d requests in %v (%.1f req/s), %d rejected, %d errors, %d active loans, %d goroutines",
			requests, duration.Truncate(time.Second), rps, rejected, errs, active, runtime.NumGoroutine())
	}
}

func (lg *LoadGenerator) logFinalStats() {
	lg.mu.RLock()
	duration := time.Since(lg.startTime)
	requests := lg.requestCount
	rejected := lg.rejectedCount
	errs := lg.errorCount
	active := len(lg.activeLoanIDs)
	lg.mu.RUnlock()

	if duration > 0 && requests > 0 {
		rps := float64(requests) / duration.Seconds()
		log.Printf("Final stats: %d requests in %v (%.1f req/s), %d rejected, %d errors, %d active loans",
			requests, duration.Truncate(time.Second), rps, rejected, errs, active)
	}
}
