// Package database provides connection setup for MariaDB and Redis.
// This file validates migration SQL files to catch schema mismatches early.
package database

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/jambushrusti/platform/internal/plugins/auth"
	"github.com/jambushrusti/platform/internal/plugins/scholars"
	"github.com/jambushrusti/platform/internal/plugins/tickets"
)

// migrationsDir returns the absolute path to db/migrations/ from the project root.
func migrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	// thisFile is internal/database/migrate_test.go, project root is two dirs up.
	projectRoot := filepath.Join(filepath.Dir(thisFile), "..", "..")
	dir := filepath.Join(projectRoot, "db", "migrations")
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("migrations directory not found at %s: %v", dir, err)
	}
	return dir
}

// TestMigrations_UpDownPairs ensures every .up.sql has a matching .down.sql
// and vice versa. golang-migrate refuses a directory with unpaired files.
func TestMigrations_UpDownPairs(t *testing.T) {
	dir := migrationsDir(t)
	upFiles, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing up files: %v", err)
	}
	if len(upFiles) == 0 {
		t.Fatal("no migration files found")
	}

	for _, up := range upFiles {
		down := strings.Replace(up, ".up.sql", ".down.sql", 1)
		if _, err := os.Stat(down); err != nil {
			t.Errorf("missing down migration for %s", filepath.Base(up))
		}
	}

	downFiles, err := filepath.Glob(filepath.Join(dir, "*.down.sql"))
	if err != nil {
		t.Fatalf("globbing down files: %v", err)
	}
	for _, down := range downFiles {
		up := strings.Replace(down, ".down.sql", ".up.sql", 1)
		if _, err := os.Stat(up); err != nil {
			t.Errorf("orphaned down migration %s", filepath.Base(down))
		}
	}
}

// TestMigrations_DownDropsCreatedTables checks that every table a migration
// creates is dropped by its paired down migration, so a rollback leaves no
// leftovers behind.
func TestMigrations_DownDropsCreatedTables(t *testing.T) {
	dir := migrationsDir(t)
	upFiles, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing up files: %v", err)
	}

	createPattern := regexp.MustCompile(`(?i)CREATE TABLE\s+(\w+)`)
	dropPattern := regexp.MustCompile(`(?i)DROP TABLE(?:\s+IF EXISTS)?\s+(\w+)`)

	for _, up := range upFiles {
		upData, err := os.ReadFile(up)
		if err != nil {
			t.Fatalf("reading %s: %v", up, err)
		}
		downPath := strings.Replace(up, ".up.sql", ".down.sql", 1)
		downData, err := os.ReadFile(downPath)
		if err != nil {
			t.Fatalf("reading %s: %v", downPath, err)
		}

		dropped := map[string]bool{}
		for _, m := range dropPattern.FindAllStringSubmatch(string(downData), -1) {
			dropped[strings.ToLower(m[1])] = true
		}

		for _, m := range createPattern.FindAllStringSubmatch(string(upData), -1) {
			table := strings.ToLower(m[1])
			if !dropped[table] {
				t.Errorf("%s creates table %q but %s does not drop it",
					filepath.Base(up), table, filepath.Base(downPath))
			}
		}
	}
}

// TestMigrations_RoleColumnHoldsEveryRole checks that the role column on
// role_assignments is wide enough for every role constant the code can
// write. A too-narrow column truncates silently or errors depending on SQL
// mode; either way the resolver would read back a mangled role.
func TestMigrations_RoleColumnHoldsEveryRole(t *testing.T) {
	dir := migrationsDir(t)
	data, err := os.ReadFile(filepath.Join(dir, "000001_create_auth_tables.up.sql"))
	if err != nil {
		t.Fatalf("reading auth migration: %v", err)
	}

	rolePattern := regexp.MustCompile(`(?i)role\s+VARCHAR\((\d+)\)`)
	match := rolePattern.FindStringSubmatch(string(data))
	if match == nil {
		t.Fatal("role_assignments.role column definition not found")
	}
	width, err := strconv.Atoi(match[1])
	if err != nil {
		t.Fatalf("parsing role column width: %v", err)
	}

	roles := []auth.Role{
		auth.RoleSuperadmin, auth.RoleAdmin, auth.RoleLibrarian,
		auth.RoleScholar, auth.RoleUser,
	}
	for _, role := range roles {
		if len(role) > width {
			t.Errorf("role %q (%d chars) does not fit role VARCHAR(%d)", role, len(role), width)
		}
	}
}

// TestMigrations_StatusDefaultsMatchConstants checks that the DEFAULT values
// the schema writes on insert are the same strings the code's status and
// priority constants expect to read back.
func TestMigrations_StatusDefaultsMatchConstants(t *testing.T) {
	tests := []struct {
		file     string
		column   string
		expected string
	}{
		{"000004_create_articles_table.up.sql", "status", scholars.StatusDraft},
		{"000005_create_ticket_tables.up.sql", "status", tickets.StatusOpen},
		{"000005_create_ticket_tables.up.sql", "priority", tickets.PriorityNormal},
	}

	dir := migrationsDir(t)
	for _, tt := range tests {
		t.Run(tt.file+"/"+tt.column, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join(dir, tt.file))
			if err != nil {
				t.Fatalf("reading %s: %v", tt.file, err)
			}

			pattern := regexp.MustCompile(`(?i)` + tt.column + `\s+VARCHAR\(\d+\)\s+NOT NULL\s+DEFAULT\s+'([^']+)'`)
			match := pattern.FindStringSubmatch(string(data))
			if match == nil {
				t.Fatalf("%s: no DEFAULT found for column %s", tt.file, tt.column)
			}
			if match[1] != tt.expected {
				t.Errorf("%s: column %s defaults to %q, code expects %q",
					tt.file, tt.column, match[1], tt.expected)
			}
		})
	}
}
