package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var slugUnsafe = regexp.MustCompile(`[^a-z0-9_]+`)

// dialectDirs are the per-driver subdirectories every migration must exist in.
var dialectDirs = []string{"postgres", "sqlite"}

const migrationStub = `-- +goose Up
-- +goose StatementBegin
-- %[1]s (%[2]s)
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s (%[2]s)
-- +goose StatementEnd
`

// CreateSQLMigration writes one stub per dialect under root sharing a single
// version, so postgres and sqlite never drift apart:
//
//	<root>/{postgres,sqlite}/<YYYYMMDDHHMMSS>_<slug>.sql
func CreateSQLMigration(root, name string, now time.Time) ([]string, error) {
	if root == "" {
		return nil, errors.New("migrations root is required")
	}
	slug := migrationSlug(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}

	filename := fmt.Sprintf("%s_%s.sql", now.UTC().Format("20060102150405"), slug)

	paths := make([]string, 0, len(dialectDirs))
	for _, dialect := range dialectDirs {
		path := filepath.Join(root, dialect, filename)
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("migration already exists: %s", path)
		}
		paths = append(paths, path)
	}

	for i, dialect := range dialectDirs {
		if err := os.MkdirAll(filepath.Dir(paths[i]), 0o755); err != nil {
			return nil, fmt.Errorf("create %s migrations dir: %w", dialect, err)
		}
		body := fmt.Sprintf(migrationStub, slug, dialect)
		if err := os.WriteFile(paths[i], []byte(body), 0o644); err != nil {
			return nil, fmt.Errorf("write %s migration: %w", dialect, err)
		}
	}
	return paths, nil
}

func migrationSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = slugUnsafe.ReplaceAllString(slug, "_")
	return strings.Trim(slug, "_")
}
