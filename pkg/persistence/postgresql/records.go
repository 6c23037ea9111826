package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
)

// InspectionRepository stores quality inspection outcomes.
type InspectionRepository struct {
	db *sql.DB
}

func (r *InspectionRepository) Save(ctx context.Context, inspection *models.QualityInspection) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inspections (id, order_id, score, approved, notes, inspected_by, inspected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inspection.ID, inspection.OrderID, inspection.Score, inspection.Approved,
		nullable(inspection.Notes), nullable(inspection.InspectedBy), inspection.InspectedAt,
	)
	if err != nil {
		return persistence.NewStorageError("SaveInspection", inspection.ID, err)
	}

	return nil
}

func (r *InspectionRepository) LatestByOrder(ctx context.Context, orderID string) (*models.QualityInspection, error) {
	var (
		inspection  models.QualityInspection
		notes       sql.NullString
		inspectedBy sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, score, approved, notes, inspected_by, inspected_at
		FROM inspections WHERE order_id = $1
		ORDER BY inspected_at DESC LIMIT 1`, orderID,
	).Scan(
		&inspection.ID, &inspection.OrderID, &inspection.Score, &inspection.Approved,
		&notes, &inspectedBy, &inspection.InspectedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrInspectionNotFound
	}

	if err != nil {
		return nil, persistence.NewStorageError("LatestInspection", orderID, err)
	}

	inspection.Notes = notes.String
	inspection.InspectedBy = inspectedBy.String

	return &inspection, nil
}

// ShipmentRepository stores shipment records, one per order.
type ShipmentRepository struct {
	db *sql.DB
}

func (r *ShipmentRepository) Save(ctx context.Context, shipment *models.Shipment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shipments (id, order_id, carrier, tracking_number, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO UPDATE SET
			carrier = EXCLUDED.carrier,
			tracking_number = EXCLUDED.tracking_number`,
		shipment.ID, shipment.OrderID, nullable(shipment.Carrier),
		nullable(shipment.TrackingNumber), shipment.CreatedAt,
	)
	if err != nil {
		return persistence.NewStorageError("SaveShipment", shipment.ID, err)
	}

	return nil
}

func (r *ShipmentRepository) GetByOrder(ctx context.Context, orderID string) (*models.Shipment, error) {
	var (
		shipment models.Shipment
		carrier  sql.NullString
		tracking sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, carrier, tracking_number, created_at
		FROM shipments WHERE order_id = $1`, orderID,
	).Scan(&shipment.ID, &shipment.OrderID, &carrier, &tracking, &shipment.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrShipmentNotFound
	}

	if err != nil {
		return nil, persistence.NewStorageError("GetShipment", orderID, err)
	}

	shipment.Carrier = carrier.String
	shipment.TrackingNumber = tracking.String

	return &shipment, nil
}

// AuditRepository reads the append-only transition audit trail. Writes go
// through OrderRepository.CommitTransition or Append.
type AuditRepository struct {
	db *sql.DB
}

func (r *AuditRepository) Append(ctx context.Context, entry *models.TransitionAudit) error {
	checksJSON, err := json.Marshal(entry.Checks)
	if err != nil {
		return persistence.NewStorageError("AppendAudit", entry.ID, err)
	}

	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return persistence.NewStorageError("AppendAudit", entry.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO order_audits (id, order_id, from_status, to_status, actor, role, reason, forced, checks, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID, entry.OrderID, entry.FromStatus, entry.ToStatus, entry.Actor,
		entry.Role, entry.Reason, entry.Forced, checksJSON, metadataJSON, entry.CreatedAt,
	)
	if err != nil {
		return persistence.NewStorageError("AppendAudit", entry.ID, err)
	}

	return nil
}

func (r *AuditRepository) ListByOrder(ctx context.Context, orderID string) ([]*models.TransitionAudit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, from_status, to_status, actor, role, reason, forced, checks, metadata, created_at
		FROM order_audits WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, persistence.NewStorageError("ListAudits", orderID, err)
	}
	defer rows.Close()

	var entries []*models.TransitionAudit

	for rows.Next() {
		var (
			entry        models.TransitionAudit
			reason       sql.NullString
			checksJSON   []byte
			metadataJSON []byte
		)

		err := rows.Scan(
			&entry.ID, &entry.OrderID, &entry.FromStatus, &entry.ToStatus, &entry.Actor,
			&entry.Role, &reason, &entry.Forced, &checksJSON, &metadataJSON, &entry.CreatedAt,
		)
		if err != nil {
			return nil, persistence.NewStorageError("ListAudits", orderID, err)
		}

		entry.Reason = reason.String

		if len(checksJSON) > 0 {
			if err := json.Unmarshal(checksJSON, &entry.Checks); err != nil {
				return nil, persistence.NewStorageError("ListAudits", orderID, err)
			}
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, persistence.NewStorageError("ListAudits", orderID, err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStorageError("ListAudits", orderID, err)
	}

	return entries, nil
}
