package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUnitsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_units.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS units",
		"FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_units_property_number ON units(property_id, unit_number)",
		"DROP TABLE IF EXISTS units",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestLeasesMigrationEnforcesSingleActiveLease(t *testing.T) {
	content := readMigration(t, "*_create_tenants_and_leases.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS tenant_leases",
		"ux_tenant_leases_unit_active ON tenant_leases(unit_id) WHERE status = 'active'",
		"user_id UUID NOT NULL UNIQUE",
		"DROP TABLE IF EXISTS tenant_leases",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxMigrationContainsDedupeIndex(t *testing.T) {
	content := readMigration(t, "*_create_outbox.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"ux_outbox_events_event_aggregate",
		"WHERE published_at IS NULL",
		"DROP TABLE IF EXISTS outbox_dlq",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
