package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/persistence"
)

const (
	inspectionsCollection = "inspections"
	shipmentsCollection   = "shipments"
	auditsDir             = "audits"
)

// InspectionRepository stores quality inspections, one document per
// inspection, keyed by inspection ID.
type InspectionRepository struct {
	store *Persistence
}

func (r *InspectionRepository) Save(_ context.Context, inspection *models.QualityInspection) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.writeJSON(inspectionsCollection, inspection.ID, inspection); err != nil {
		return persistence.NewStorageError("SaveInspection", inspection.ID, err)
	}

	return nil
}

// LatestByOrder scans the collection for the most recent inspection of the
// order. Fine for file persistence volumes.
func (r *InspectionRepository) LatestByOrder(_ context.Context, orderID string) (*models.QualityInspection, error) {
	ids, err := r.store.listIDs(inspectionsCollection)
	if err != nil {
		return nil, persistence.NewStorageError("LatestInspection", orderID, err)
	}

	var inspections []*models.QualityInspection

	for _, id := range ids {
		var inspection models.QualityInspection
		if err := r.store.readJSON(inspectionsCollection, id, &inspection); err != nil {
			return nil, persistence.NewStorageError("LatestInspection", orderID, err)
		}

		if inspection.OrderID == orderID {
			inspections = append(inspections, &inspection)
		}
	}

	if len(inspections) == 0 {
		return nil, persistence.ErrInspectionNotFound
	}

	sort.Slice(inspections, func(i, j int) bool {
		return inspections[i].InspectedAt.After(inspections[j].InspectedAt)
	})

	return inspections[0], nil
}

// ShipmentRepository stores shipments keyed by order ID; an order has at
// most one shipment record.
type ShipmentRepository struct {
	store *Persistence
}

func (r *ShipmentRepository) Save(_ context.Context, shipment *models.Shipment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.writeJSON(shipmentsCollection, shipment.OrderID, shipment); err != nil {
		return persistence.NewStorageError("SaveShipment", shipment.ID, err)
	}

	return nil
}

func (r *ShipmentRepository) GetByOrder(_ context.Context, orderID string) (*models.Shipment, error) {
	var shipment models.Shipment

	err := r.store.readJSON(shipmentsCollection, orderID, &shipment)
	if os.IsNotExist(err) {
		return nil, persistence.ErrShipmentNotFound
	}

	if err != nil {
		return nil, persistence.NewStorageError("GetShipment", orderID, err)
	}

	return &shipment, nil
}

// AuditRepository appends transition audit entries to a JSON-lines file
// per order. Entries are never rewritten.
type AuditRepository struct {
	store *Persistence
}

func (r *AuditRepository) Append(_ context.Context, entry *models.TransitionAudit) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.append(entry)
}

// append is the lock-free variant used by CommitTransition, which already
// holds the store mutex.
func (r *AuditRepository) append(entry *models.TransitionAudit) error {
	dir := filepath.Join(r.store.root, auditsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, entry.OrderID+".jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	_, err = f.Write(append(data, '\n'))

	return err
}

func (r *AuditRepository) ListByOrder(_ context.Context, orderID string) ([]*models.TransitionAudit, error) {
	data, err := os.ReadFile(filepath.Join(r.store.root, auditsDir, orderID+".jsonl"))
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, persistence.NewStorageError("ListAudits", orderID, err)
	}

	var entries []*models.TransitionAudit

	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}

		var entry models.TransitionAudit
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, persistence.NewStorageError("ListAudits", orderID, err)
		}

		entries = append(entries, &entry)
	}

	return entries, nil
}
