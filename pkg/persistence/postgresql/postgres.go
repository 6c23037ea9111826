// Package postgresql provides PostgreSQL persistence for orders, workflows
// and executions.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// PostgreSQL driver registration.
	_ "github.com/lib/pq"
	"github.com/loomline/loomline/pkg/persistence"
	"github.com/loomline/loomline/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	orders      *OrderRepository
	workflows   *WorkflowRepository
	executions  *ExecutionRepository
	inspections *InspectionRepository
	shipments   *ShipmentRepository
	audits      *AuditRepository
}

// NewPersistence opens the database, runs pending migrations and returns
// the repository bundle.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	if err := migrationManager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:          database,
		logger:      logger,
		orders:      &OrderRepository{db: database},
		workflows:   &WorkflowRepository{db: database},
		executions:  &ExecutionRepository{db: database},
		inspections: &InspectionRepository{db: database},
		shipments:   &ShipmentRepository{db: database},
		audits:      &AuditRepository{db: database},
	}, nil
}

func (p *Persistence) OrderRepository() persistence.OrderRepository { return p.orders }

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository { return p.workflows }

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository { return p.executions }

func (p *Persistence) InspectionRepository() persistence.InspectionRepository {
	return p.inspections
}

func (p *Persistence) ShipmentRepository() persistence.ShipmentRepository { return p.shipments }

func (p *Persistence) AuditRepository() persistence.AuditRepository { return p.audits }

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
