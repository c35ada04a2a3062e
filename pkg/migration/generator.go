package migration

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/marshallshelly/superheroes/pkg/schema"
)

// Generator writes and reads migration files.
type Generator struct {
	migrationsDir string
	planner       *Planner
}

// NewGenerator creates a new migration file generator.
func NewGenerator(migrationsDir string) *Generator {
	return &Generator{
		migrationsDir: migrationsDir,
		planner:       NewPlanner(),
	}
}

// Generate writes an up/down pair that creates the given tables.
func (g *Generator) Generate(name string, tables []*schema.TableMetadata) (*MigrationFile, error) {
	upSQL, downSQL := g.planner.GenerateMigration(tables)
	return g.write(name, upSQL, downSQL)
}

// GenerateEmpty creates empty migration files for manual editing.
func (g *Generator) GenerateEmpty(name string) (*MigrationFile, error) {
	header := "-- Migration: " + name + "\n\n"
	return g.write(name, header+"-- Write your UP migration here\n", header+"-- Write your DOWN migration here\n")
}

func (g *Generator) write(name, upSQL, downSQL string) (*MigrationFile, error) {
	if name == "" {
		return nil, fmt.Errorf("migration name is required")
	}
	if err := os.MkdirAll(g.migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	version := GenerateVersion()
	file := &MigrationFile{
		Version:  version,
		Name:     name,
		UpPath:   filepath.Join(g.migrationsDir, GenerateFileName(version, name, "up")),
		DownPath: filepath.Join(g.migrationsDir, GenerateFileName(version, name, "down")),
	}

	if err := os.WriteFile(file.UpPath, []byte(upSQL), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write up migration: %w", err)
	}
	if err := os.WriteFile(file.DownPath, []byte(downSQL), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write down migration: %w", err)
	}
	return file, nil
}

// ListMigrations lists complete migration pairs sorted by version.
// A missing directory yields an empty list.
func (g *Generator) ListMigrations() ([]MigrationFile, error) {
	entries, err := os.ReadDir(g.migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []MigrationFile{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := make(map[string]*MigrationFile)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileName := entry.Name()
		version, rest, ok := strings.Cut(fileName, "_")
		if !ok {
			continue
		}

		var name string
		var up bool
		if before, ok := strings.CutSuffix(rest, ".up.sql"); ok {
			name, up = before, true
		} else if before, ok := strings.CutSuffix(rest, ".down.sql"); ok {
			name = before
		} else {
			continue
		}

		mf, exists := byVersion[version]
		if !exists {
			mf = &MigrationFile{Version: version, Name: name}
			byVersion[version] = mf
		}
		if up {
			mf.UpPath = filepath.Join(g.migrationsDir, fileName)
		} else {
			mf.DownPath = filepath.Join(g.migrationsDir, fileName)
		}
	}

	migrations := make([]MigrationFile, 0, len(byVersion))
	for _, mf := range byVersion {
		if mf.UpPath != "" && mf.DownPath != "" {
			migrations = append(migrations, *mf)
		}
	}
	slices.SortFunc(migrations, func(a, b MigrationFile) int {
		return cmp.Compare(a.Version, b.Version)
	})
	return migrations, nil
}

// ReadMigration reads the SQL content of a migration pair.
func (g *Generator) ReadMigration(file MigrationFile) (*Migration, error) {
	upSQL, err := os.ReadFile(file.UpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read up migration: %w", err)
	}
	downSQL, err := os.ReadFile(file.DownPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read down migration: %w", err)
	}
	return &Migration{
		Version: file.Version,
		Name:    file.Name,
		UpSQL:   string(upSQL),
		DownSQL: string(downSQL),
	}, nil
}

// LoadAll reads every migration pair in version order.
func (g *Generator) LoadAll() ([]Migration, error) {
	files, err := g.ListMigrations()
	if err != nil {
		return nil, err
	}
	migrations := make([]Migration, 0, len(files))
	for _, f := range files {
		m, err := g.ReadMigration(f)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, *m)
	}
	return migrations, nil
}
