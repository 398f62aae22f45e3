package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pharmhq/pharmacy-backend/pkg/migrate"
)

func TestMembershipMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_membership_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no membership migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS memberships",
		"CREATE TABLE IF NOT EXISTS org_users",
		"CREATE TABLE IF NOT EXISTS invites",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_memberships_user_org",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_org_users_org_user",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_invites_token",
		"CREATE INDEX IF NOT EXISTS idx_invites_status_expires",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migration dir failed validation: %v", err)
	}
}
