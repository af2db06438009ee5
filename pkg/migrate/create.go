package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s (%[2]s)
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s (%[2]s)
-- +goose StatementEnd
`

// CreateSQLMigration writes <dir>/<YYYYMMDDHHMMSS>_<name>.sql.
func CreateSQLMigration(dir string, name string) (string, error) {
	paths, err := createMigrations([]string{dir}, name, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// CreateDialectPair writes one file per dialect under root with the same
// version, which is what ValidateTree expects.
func CreateDialectPair(root string, name string) ([]string, error) {
	if root == "" {
		return nil, fmt.Errorf("root is required")
	}
	return createMigrations([]string{
		filepath.Join(root, DialectSQLite),
		filepath.Join(root, DialectPostgres),
	}, name, time.Now().UTC())
}

func sanitizeName(name string) (string, error) {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = nameSanitizeRe.ReplaceAllString(strings.ReplaceAll(safe, " ", "_"), "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	return safe, nil
}

func createMigrations(dirs []string, name string, now time.Time) ([]string, error) {
	safe, err := sanitizeName(name)
	if err != nil {
		return nil, err
	}
	filename := fmt.Sprintf("%s_%s.sql", now.Format("20060102150405"), safe)

	paths := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if dir == "" {
			return nil, fmt.Errorf("dir is required")
		}
		full := filepath.Join(dir, filename)
		if _, err := os.Stat(full); err == nil {
			return nil, fmt.Errorf("migration already exists: %s", full)
		}
		paths = append(paths, full)
	}

	for _, full := range paths {
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %q: %w", filepath.Dir(full), err)
		}
		dialect := filepath.Base(filepath.Dir(full))
		if err := os.WriteFile(full, []byte(fmt.Sprintf(migrationTemplate, safe, dialect)), 0o644); err != nil {
			return nil, fmt.Errorf("write migration %q: %w", full, err)
		}
	}
	return paths, nil
}
