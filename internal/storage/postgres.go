package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/types"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Test connection
	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// StoreOpportunity stores an evaluated opportunity in PostgreSQL.
func (p *PostgresStorage) StoreOpportunity(ctx context.Context, opp *types.Opportunity) error {
	query := `
		INSERT INTO opportunities (
			id, signature, venue, pool_id, mcap_delta_pct, confidence,
			estimated_profit, estimated_cost, safety_margin,
			decision, reason, detected_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := p.db.ExecContext(ctx, query,
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
		opp.DetectedAt,
	)

	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}

	p.logger.Debug("opportunity-stored",
		zap.String("opportunity-id", opp.ID),
		zap.String("signature", opp.Signature),
		zap.String("decision", string(opp.Decision)))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
