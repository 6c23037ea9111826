// Package file provides file-based persistence for orders, workflows and
// executions. Entities are stored as one JSON document per ID under the
// root directory; the audit trail is an append-only JSON-lines file per
// order. Intended for development and tests.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/loomline/loomline/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root string
	mu   sync.Mutex

	orders      *OrderRepository
	workflows   *WorkflowRepository
	executions  *ExecutionRepository
	inspections *InspectionRepository
	shipments   *ShipmentRepository
	audits      *AuditRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// Accepts plain paths or file:// URLs.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.orders = &OrderRepository{store: p}
	p.workflows = &WorkflowRepository{store: p}
	p.executions = &ExecutionRepository{store: p}
	p.inspections = &InspectionRepository{store: p}
	p.shipments = &ShipmentRepository{store: p}
	p.audits = &AuditRepository{store: p}

	return p
}

func (p *Persistence) OrderRepository() persistence.OrderRepository { return p.orders }

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository { return p.workflows }

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository { return p.executions }

func (p *Persistence) InspectionRepository() persistence.InspectionRepository {
	return p.inspections
}

func (p *Persistence) ShipmentRepository() persistence.ShipmentRepository { return p.shipments }

func (p *Persistence) AuditRepository() persistence.AuditRepository { return p.audits }

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close is a no-op for file persistence.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// readJSON loads the document for id from the collection directory into v.
// Returns os.ErrNotExist when the document is absent.
func (p *Persistence) readJSON(collection, id string, v any) error {
	data, err := os.ReadFile(filepath.Join(p.root, collection, id+".json"))
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

// writeJSON persists v as the document for id, creating the collection
// directory on first use. The write goes through a temp file and rename so
// readers never observe a partial document.
func (p *Persistence) writeJSON(collection, id string, v any) error {
	dir := filepath.Join(p.root, collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", collection, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", collection, id, err)
	}

	tmp := filepath.Join(dir, id+".json.tmp")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collection, id, err)
	}

	return os.Rename(tmp, filepath.Join(dir, id+".json"))
}

// listIDs returns the document IDs present in a collection directory.
func (p *Persistence) listIDs(collection string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(p.root, collection))
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	return ids, nil
}
