package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks one on-disk dialect directory.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	_, err := validateFS(os.DirFS(dir), ".")
	return err
}

// ValidateEmbedded checks both compiled-in dialect sets and requires them to
// carry the same versions, so sqlite and postgres schemas never diverge.
func ValidateEmbedded() error {
	return validatePair(embedded, EmbeddedDir(DialectSQLite), EmbeddedDir(DialectPostgres))
}

// ValidateTree checks <root>/sqlite3 and <root>/postgres on disk.
func ValidateTree(root string) error {
	if root == "" {
		return fmt.Errorf("root is required")
	}
	return validatePair(os.DirFS(root), DialectSQLite, DialectPostgres)
}

func validatePair(fsys fs.FS, sqliteDir, postgresDir string) error {
	lite, err := validateFS(fsys, sqliteDir)
	if err != nil {
		return fmt.Errorf("%s: %w", DialectSQLite, err)
	}
	pg, err := validateFS(fsys, postgresDir)
	if err != nil {
		return fmt.Errorf("%s: %w", DialectPostgres, err)
	}
	if missing := diffVersions(lite, pg); len(missing) > 0 {
		return fmt.Errorf("versions only in %s: %s", DialectSQLite, strings.Join(missing, ", "))
	}
	if missing := diffVersions(pg, lite); len(missing) > 0 {
		return fmt.Errorf("versions only in %s: %s", DialectPostgres, strings.Join(missing, ", "))
	}
	return nil
}

// validateFS checks filenames, duplicate versions and goose headers, and
// returns the versions it saw.
func validateFS(fsys fs.FS, dir string) (map[string]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", name, err)
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), marker) {
				return nil, fmt.Errorf("migration %q missing %q", name, marker)
			}
		}
	}
	return seen, nil
}

func diffVersions(a, b map[string]string) []string {
	var out []string
	for v := range a {
		if _, ok := b[v]; !ok {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
