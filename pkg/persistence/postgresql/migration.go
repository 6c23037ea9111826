package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE orders (
				id UUID PRIMARY KEY,
				workspace_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				priority VARCHAR(50),
				production_method VARCHAR(100),
				assigned_to VARCHAR(255),
				target_delivery_date TIMESTAMP WITH TIME ZONE,
				routing_steps JSONB NOT NULL DEFAULT '[]',
				metadata JSONB,
				version BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_orders_workspace ON orders(workspace_id);
			CREATE INDEX idx_orders_status ON orders(status);

			CREATE TABLE order_audits (
				id UUID PRIMARY KEY,
				order_id UUID NOT NULL,
				from_status VARCHAR(50) NOT NULL,
				to_status VARCHAR(50) NOT NULL,
				actor VARCHAR(255) NOT NULL,
				role VARCHAR(50),
				reason TEXT,
				forced BOOLEAN NOT NULL DEFAULT FALSE,
				checks JSONB,
				metadata JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_order_audits_order ON order_audits(order_id, created_at);
		`,
		2: `
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				workspace_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT,
				trigger JSONB NOT NULL,
				conditions JSONB NOT NULL DEFAULT '[]',
				actions JSONB NOT NULL DEFAULT '[]',
				priority VARCHAR(50) NOT NULL DEFAULT 'MEDIUM',
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				status VARCHAR(50) NOT NULL DEFAULT 'ACTIVE',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_workspace ON workflows(workspace_id);
			CREATE INDEX idx_workflows_status ON workflows(status);

			CREATE TABLE workflow_executions (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id),
				workspace_id VARCHAR(255),
				status VARCHAR(50) NOT NULL,
				trigger_data JSONB,
				action_results JSONB,
				skip_reason TEXT,
				error TEXT,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				elapsed_ms BIGINT NOT NULL DEFAULT 0
			);

			CREATE INDEX idx_workflow_executions_workflow ON workflow_executions(workflow_id, started_at);
		`,
		3: `
			CREATE TABLE inspections (
				id UUID PRIMARY KEY,
				order_id UUID NOT NULL,
				score DOUBLE PRECISION NOT NULL,
				approved BOOLEAN NOT NULL,
				notes TEXT,
				inspected_by VARCHAR(255),
				inspected_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_inspections_order ON inspections(order_id, inspected_at);

			CREATE TABLE shipments (
				id UUID PRIMARY KEY,
				order_id UUID NOT NULL UNIQUE,
				carrier VARCHAR(255),
				tracking_number VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);
		`,
	}
}
