package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/types"
)

func testOpportunity() *types.Opportunity {
	return &types.Opportunity{
		ID:              "f2b7a9c0-1111-2222-3333-444455556666",
		Signature:       "5VERYverYLongBase58SignatureUsedForTests111111111111111111111111",
		Venue:           types.VenueRaydium,
		PoolID:          "pool-abc",
		MCapDeltaPct:    1.0,
		Confidence:      types.ConfidenceHigh,
		EstimatedProfit: 6_700_000,
		EstimatedCost:   17_750_000,
		SafetyMargin:    3_350_000,
		Decision:        types.DecisionReject,
		Reason:          types.ReasonLowMargin,
		DetectedAt:      time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestConsoleStorage_New(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	storage := NewConsoleStorage(logger)

	if storage == nil {
		t.Fatal("expected non-nil storage")
	}

	if storage.logger == nil {
		t.Error("expected non-nil logger")
	}
}

func TestConsoleStorage_StoreOpportunity(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	opp := testOpportunity()
	ctx := context.Background()

	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := storage.StoreOpportunity(ctx, opp)

	// Restore stdout
	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	output := buf.String()

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if !bytes.Contains([]byte(output), []byte("SANDWICH CANDIDATE REJECTED")) {
		t.Error("expected output to contain 'SANDWICH CANDIDATE REJECTED'")
	}

	if !bytes.Contains([]byte(output), []byte(opp.Signature)) {
		t.Errorf("expected output to contain signature %s", opp.Signature)
	}

	if !bytes.Contains([]byte(output), []byte(opp.PoolID)) {
		t.Errorf("expected output to contain pool %s", opp.PoolID)
	}
}

func TestConsoleStorage_StoreOpportunity_Accepted(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	opp := testOpportunity()
	opp.Decision = types.DecisionAccept
	opp.Reason = ""

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := storage.StoreOpportunity(context.Background(), opp)

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte("SANDWICH CANDIDATE ACCEPTED")) {
		t.Error("expected output to contain 'SANDWICH CANDIDATE ACCEPTED'")
	}
}

func TestConsoleStorage_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	err := storage.Close()
	if err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}
}

func TestPostgresStorage_StoreOpportunity(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	storage := &PostgresStorage{
		db:     db,
		logger: logger,
	}

	opp := testOpportunity()
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO opportunities").
		WithArgs(
			opp.ID,
			opp.Signature,
			string(opp.Venue),
			opp.PoolID,
			opp.MCapDeltaPct,
			string(opp.Confidence),
			opp.EstimatedProfit,
			opp.EstimatedCost,
			opp.SafetyMargin,
			string(opp.Decision),
			opp.Reason,
			sqlmock.AnyArg(), // DetectedAt
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = storage.StoreOpportunity(ctx, opp)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_StoreOpportunity_Error(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	storage := &PostgresStorage{
		db:     db,
		logger: logger,
	}

	opp := testOpportunity()

	mock.ExpectExec("INSERT INTO opportunities").
		WillReturnError(sqlmock.ErrCancelled)

	err = storage.StoreOpportunity(context.Background(), opp)
	if err == nil {
		t.Error("expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	storage := &PostgresStorage{
		db:     db,
		logger: logger,
	}

	mock.ExpectClose()

	err = storage.Close()
	if err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStorage_Interface(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	var _ Storage = NewConsoleStorage(logger)

	db, _, _ := sqlmock.New()
	defer db.Close()

	var _ Storage = &PostgresStorage{db: db, logger: logger}
}
