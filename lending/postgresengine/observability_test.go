package postgresengine_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine"
	"github.com/AntonStoeckl/library-lending-go/testutil/postgresengine/helper"
	"github.com/AntonStoeckl/library-lending-go/testutil/postgresengine/helper/postgreswrapper"
)

func Test_CreateLoan_RecordsDurationMetric_AndSpan(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metricsSpy := helper.NewMetricsCollectorSpy()
	tracingSpy := helper.NewTracingCollectorSpy()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t,
		postgresengine.WithMetrics(metricsSpy),
		postgresengine.WithTracing(tracingSpy),
	)
	defer wrapper.Close()
	store := wrapper.GetStore()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	author := helper.GivenAuthor(t, store)
	book := helper.GivenBook(t, store, author.ID)
	member := helper.GivenMember(t, store)

	// act
	_, err := createLoanWithRules(ctxWithTimeout, store, member.ID, book.ID)

	// assert
	require.NoError(t, err)
	assert.True(t, metricsSpy.HasDurationRecordWithLabel(
		"lendingstore_operation_duration_seconds", "operation", "create_loan"))
	assert.True(t, metricsSpy.HasDurationRecordWithLabel(
		"lendingstore_operation_duration_seconds", "status", "success"))
	assert.True(t, tracingSpy.HasFinishedSpan("lendingstore.create_loan", "success"))
}

func Test_CreateLoan_RecordsRejectedStatus_WhenRuleViolated(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metricsSpy := helper.NewMetricsCollectorSpy()
	tracingSpy := helper.NewTracingCollectorSpy()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t,
		postgresengine.WithMetrics(metricsSpy),
		postgresengine.WithTracing(tracingSpy),
	)
	defer wrapper.Close()
	store := wrapper.GetStore()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	author := helper.GivenAuthor(t, store)
	book := helper.GivenBook(t, store, author.ID)
	memberOne := helper.GivenMember(t, store)
	memberTwo := helper.GivenMember(t, store)

	_, err := createLoanWithRules(ctxWithTimeout, store, memberOne.ID, book.ID)
	require.NoError(t, err)
	metricsSpy.Reset()

	// act
	_, err = createLoanWithRules(ctxWithTimeout, store, memberTwo.ID, book.ID)

	// assert
	require.ErrorIs(t, err, lending.ErrRuleViolation)
	assert.True(t, metricsSpy.HasDurationRecordWithLabel(
		"lendingstore_operation_duration_seconds", "status", "rejected"))
	assert.True(t, tracingSpy.HasFinishedSpan("lendingstore.create_loan", "rejected"))
}

func Test_Store_LogsExecutedQueries_AtDebugLevel(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logSpy := helper.NewLogHandlerSpy(false)
	logger := slog.New(logSpy)

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t,
		postgresengine.WithLogger(logger),
	)
	defer wrapper.Close()
	store := wrapper.GetStore()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)

	// act
	_, err := store.ListAuthors(ctxWithTimeout)

	// assert
	require.NoError(t, err)
	assert.True(t, logSpy.HasDebugLog("executed sql for: list authors"))
	assert.True(t, logSpy.HasLogWithAttr("executed sql for: list authors", "duration_ms"))
}

func Test_ReturnLoan_LogsOperation(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logSpy := helper.NewLogHandlerSpy(false)
	logger := slog.New(logSpy)

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t,
		postgresengine.WithLogger(logger),
	)
	defer wrapper.Close()
	store := wrapper.GetStore()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	author := helper.GivenAuthor(t, store)
	book := helper.GivenBook(t, store, author.ID)
	member := helper.GivenMember(t, store)
	loan, err := createLoanWithRules(ctxWithTimeout, store, member.ID, book.ID)
	require.NoError(t, err)

	// act
	_, err = returnLoanWithRules(ctxWithTimeout, store, loan.ID)

	// assert
	require.NoError(t, err)
	assert.True(t, logSpy.HasInfoLog("lending store operation: loan returned"))
}
