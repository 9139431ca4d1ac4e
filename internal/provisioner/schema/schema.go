// Package schema declares the tenant database schema as ordered statement
// lists: tables in dependency order, then indexes, then foreign keys added
// as a final pass so constraint creation never blocks on a missing target.
package schema

// Statement is one named DDL step.
type Statement struct {
	Name string
	SQL  string
}

// Tables creates every tenant table. Lookup and role tables come first,
// entity tables follow, dependent tables last.
var Tables = []Statement{
	{"create_roles", `
CREATE TABLE roles (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	permissions JSONB NOT NULL DEFAULT '[]',
	is_system BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"create_locations", `
CREATE TABLE locations (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	is_default BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"create_departments", `
CREATE TABLE departments (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	location_id BIGINT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"create_system_config", `
CREATE TABLE system_config (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"create_users", `
CREATE TABLE users (
	id BIGINT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	role_id BIGINT,
	department_id BIGINT,
	location_id BIGINT,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"create_customers", `
CREATE TABLE customers (
	id BIGINT PRIMARY KEY,
	full_name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"create_vehicles", `
CREATE TABLE vehicles (
	id BIGINT PRIMARY KEY,
	customer_id BIGINT NOT NULL,
	registration_no TEXT NOT NULL UNIQUE,
	make TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	year INTEGER,
	vin TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"create_accessories", `
CREATE TABLE accessories (
	id BIGINT PRIMARY KEY,
	sku TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	unit_price NUMERIC(12,2) NOT NULL DEFAULT 0,
	stock_quantity INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"create_workflow_templates", `
CREATE TABLE workflow_templates (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	stages JSONB NOT NULL DEFAULT '[]',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"create_workflow_instances", `
CREATE TABLE workflow_instances (
	id BIGINT PRIMARY KEY,
	template_id BIGINT NOT NULL,
	vehicle_id BIGINT,
	current_stage TEXT NOT NULL DEFAULT '',
	stage_history JSONB NOT NULL DEFAULT '[]',
	status TEXT NOT NULL DEFAULT 'open',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"create_installations", `
CREATE TABLE installations (
	id BIGINT PRIMARY KEY,
	vehicle_id BIGINT NOT NULL,
	accessory_id BIGINT NOT NULL,
	workflow_instance_id BIGINT,
	technician_id BIGINT,
	location_id BIGINT,
	scheduled_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ,
	status TEXT NOT NULL DEFAULT 'scheduled',
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"create_payments", `
CREATE TABLE payments (
	id BIGINT PRIMARY KEY,
	customer_id BIGINT NOT NULL,
	installation_id BIGINT,
	workflow_instance_id BIGINT,
	amount NUMERIC(12,2) NOT NULL,
	currency TEXT NOT NULL DEFAULT 'INR',
	method TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	paid_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"create_media_files", `
CREATE TABLE media_files (
	id BIGINT PRIMARY KEY,
	installation_id BIGINT,
	vehicle_id BIGINT,
	uploaded_by BIGINT,
	file_name TEXT NOT NULL,
	content_type TEXT NOT NULL DEFAULT '',
	storage_key TEXT NOT NULL,
	size_bytes BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"create_notifications", `
CREATE TABLE notifications (
	id BIGINT PRIMARY KEY,
	user_id BIGINT,
	channel TEXT NOT NULL DEFAULT 'in_app',
	subject TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL DEFAULT '',
	read_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"create_audit_logs", `
CREATE TABLE audit_logs (
	id BIGINT PRIMARY KEY,
	actor_id BIGINT,
	action TEXT NOT NULL,
	entity_type TEXT NOT NULL DEFAULT '',
	entity_id BIGINT,
	detail JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
}

// Indexes covers the common lookup paths.
var Indexes = []Statement{
	{"idx_users_role", `CREATE INDEX idx_users_role_id ON users (role_id)`},
	{"idx_users_location", `CREATE INDEX idx_users_location_id ON users (location_id)`},
	{"idx_vehicles_customer", `CREATE INDEX idx_vehicles_customer_id ON vehicles (customer_id)`},
	{"idx_workflow_instances_template", `CREATE INDEX idx_workflow_instances_template_id ON workflow_instances (template_id)`},
	{"idx_workflow_instances_status", `CREATE INDEX idx_workflow_instances_status ON workflow_instances (status)`},
	{"idx_installations_vehicle", `CREATE INDEX idx_installations_vehicle_id ON installations (vehicle_id)`},
	{"idx_installations_status", `CREATE INDEX idx_installations_status ON installations (status)`},
	{"idx_payments_customer", `CREATE INDEX idx_payments_customer_id ON payments (customer_id)`},
	{"idx_payments_status", `CREATE INDEX idx_payments_status ON payments (status)`},
	{"idx_media_files_installation", `CREATE INDEX idx_media_files_installation_id ON media_files (installation_id)`},
	{"idx_notifications_user", `CREATE INDEX idx_notifications_user_id ON notifications (user_id)`},
	{"idx_audit_logs_actor", `CREATE INDEX idx_audit_logs_actor_id ON audit_logs (actor_id)`},
}

// ForeignKeys are added after every table and index exists.
var ForeignKeys = []Statement{
	{"fk_departments_location", `ALTER TABLE departments ADD CONSTRAINT fk_departments_location FOREIGN KEY (location_id) REFERENCES locations (id)`},
	{"fk_users_role", `ALTER TABLE users ADD CONSTRAINT fk_users_role FOREIGN KEY (role_id) REFERENCES roles (id)`},
	{"fk_users_department", `ALTER TABLE users ADD CONSTRAINT fk_users_department FOREIGN KEY (department_id) REFERENCES departments (id)`},
	{"fk_users_location", `ALTER TABLE users ADD CONSTRAINT fk_users_location FOREIGN KEY (location_id) REFERENCES locations (id)`},
	{"fk_vehicles_customer", `ALTER TABLE vehicles ADD CONSTRAINT fk_vehicles_customer FOREIGN KEY (customer_id) REFERENCES customers (id)`},
	{"fk_workflow_instances_template", `ALTER TABLE workflow_instances ADD CONSTRAINT fk_workflow_instances_template FOREIGN KEY (template_id) REFERENCES workflow_templates (id)`},
	{"fk_workflow_instances_vehicle", `ALTER TABLE workflow_instances ADD CONSTRAINT fk_workflow_instances_vehicle FOREIGN KEY (vehicle_id) REFERENCES vehicles (id)`},
	{"fk_installations_vehicle", `ALTER TABLE installations ADD CONSTRAINT fk_installations_vehicle FOREIGN KEY (vehicle_id) REFERENCES vehicles (id)`},
	{"fk_installations_accessory", `ALTER TABLE installations ADD CONSTRAINT fk_installations_accessory FOREIGN KEY (accessory_id) REFERENCES accessories (id)`},
	{"fk_installations_workflow", `ALTER TABLE installations ADD CONSTRAINT fk_installations_workflow FOREIGN KEY (workflow_instance_id) REFERENCES workflow_instances (id)`},
	{"fk_installations_technician", `ALTER TABLE installations ADD CONSTRAINT fk_installations_technician FOREIGN KEY (technician_id) REFERENCES users (id)`},
	{"fk_installations_location", `ALTER TABLE installations ADD CONSTRAINT fk_installations_location FOREIGN KEY (location_id) REFERENCES locations (id)`},
	{"fk_payments_customer", `ALTER TABLE payments ADD CONSTRAINT fk_payments_customer FOREIGN KEY (customer_id) REFERENCES customers (id)`},
	{"fk_payments_installation", `ALTER TABLE payments ADD CONSTRAINT fk_payments_installation FOREIGN KEY (installation_id) REFERENCES installations (id)`},
	{"fk_media_files_installation", `ALTER TABLE media_files ADD CONSTRAINT fk_media_files_installation FOREIGN KEY (installation_id) REFERENCES installations (id)`},
	{"fk_media_files_vehicle", `ALTER TABLE media_files ADD CONSTRAINT fk_media_files_vehicle FOREIGN KEY (vehicle_id) REFERENCES vehicles (id)`},
	{"fk_media_files_uploader", `ALTER TABLE media_files ADD CONSTRAINT fk_media_files_uploader FOREIGN KEY (uploaded_by) REFERENCES users (id)`},
	{"fk_notifications_user", `ALTER TABLE notifications ADD CONSTRAINT fk_notifications_user FOREIGN KEY (user_id) REFERENCES users (id)`},
	{"fk_audit_logs_actor", `ALTER TABLE audit_logs ADD CONSTRAINT fk_audit_logs_actor FOREIGN KEY (actor_id) REFERENCES users (id)`},
}

// Statements returns the full DDL script in application order.
func Statements() []Statement {
	out := make([]Statement, 0, len(Tables)+len(Indexes)+len(ForeignKeys))
	out = append(out, Tables...)
	out = append(out, Indexes...)
	out = append(out, ForeignKeys...)
	return out
}
