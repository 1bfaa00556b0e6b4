package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks filenames and goose headers in every dialect directory
// under root, and that all dialects carry the same set of migrations.
func ValidateDir(root string) error {
	if root == "" {
		return fmt.Errorf("migrations root is required")
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", root, err)
	}

	var (
		reference     []string
		referenceName string
	)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		names, err := validateDialectDir(filepath.Join(root, e.Name()))
		if err != nil {
			return err
		}
		if reference == nil {
			reference, referenceName = names, e.Name()
			continue
		}
		if !slices.Equal(reference, names) {
			return fmt.Errorf("migrations in %q and %q differ", referenceName, e.Name())
		}
	}
	return nil
}

// validateDialectDir returns the sorted migration filenames of one dialect.
func validateDialectDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	versions := map[string]string{}
	names := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := migrationFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := versions[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		versions[m[1]] = name

		full := filepath.Join(dir, name)
		b, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", full, err)
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(b), marker) {
				return nil, fmt.Errorf("migration %q missing %q", name, marker)
			}
		}
		names = append(names, name)
	}

	slices.Sort(names)
	return names, nil
}
