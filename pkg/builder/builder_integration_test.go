//go:build integration

package builder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/marshallshelly/superheroes/pkg/migration"
	"github.com/marshallshelly/superheroes/pkg/registry"
	"github.com/marshallshelly/superheroes/pkg/runtime"
	"github.com/marshallshelly/superheroes/pkg/schema"
)

// setupTestDB starts a PostgreSQL container and creates the test tables.
func setupTestDB(t *testing.T) *runtime.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}
	db, err := runtime.ConnectWithURL(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(db.Close)

	var tables []*schema.TableMetadata
	for _, m := range []any{testHero{}, testHeroPower{}} {
		table, err := registry.GetOrRegister(m)
		if err != nil {
			t.Fatalf("Failed to register %T: %v", m, err)
		}
		tables = append(tables, table)
	}
	ddl := migration.NewPlanner().CreateSQL(tables)
	if _, err := db.Pool().Exec(ctx, ddl); err != nil {
		t.Fatalf("Failed to create schema: %v\n%s", err, ddl)
	}
	return db
}

func TestIntegration_CRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	qb := New(db.Pool())

	inserted, err := Insert[testHero](qb).
		Values(testHero{Name: "Kamala Khan"}, testHero{Name: "Doreen Green"}).
		ExecReturning(ctx)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if len(inserted) != 2 || inserted[0].ID == 0 {
		t.Fatalf("Insert returned %+v", inserted)
	}
	if inserted[0].CreatedBy != "system" {
		t.Errorf("CreatedBy = %q, want column default", inserted[0].CreatedBy)
	}

	t.Run("select", func(t *testing.T) {
		all, err := Select[testHero](qb).OrderByDesc("id").All(ctx)
		if err != nil {
			t.Fatalf("Select failed: %v", err)
		}
		if len(all) != 2 || all[0].Name != "Doreen Green" {
			t.Errorf("Select returned %+v", all)
		}

		n, err := Select[testHero](qb).Where(Any("id", []int64{inserted[0].ID, 999})).Count(ctx)
		if err != nil || n != 1 {
			t.Errorf("Count = %d, %v; want 1", n, err)
		}

		_, err = Select[testHero](qb).Where(Eq("id", 999)).First(ctx)
		if !errors.Is(err, runtime.ErrNotFound) {
			t.Errorf("First on missing row: got %v, want ErrNotFound", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		secret := "Ms. Marvel"
		n, err := Update[testHero](qb).Set("secret_id", &secret).Where(Eq("id", inserted[0].ID)).Exec(ctx)
		if err != nil || n != 1 {
			t.Fatalf("Update = %d, %v", n, err)
		}
		got, err := Select[testHero](qb).Where(Eq("id", inserted[0].ID)).First(ctx)
		if err != nil {
			t.Fatalf("First failed: %v", err)
		}
		if got.SecretID == nil || *got.SecretID != secret {
			t.Errorf("SecretID = %v, want %q", got.SecretID, secret)
		}
	})

	t.Run("foreign key violation", func(t *testing.T) {
		_, err := Insert[testHeroPower](qb).Values(testHeroPower{Strength: "Strong", HeroID: 999}).Exec(ctx)
		if !errors.Is(err, runtime.ErrForeignKeyViolation) {
			t.Fatalf("got %v, want ErrForeignKeyViolation", err)
		}
		var ce *runtime.ConstraintError
		if !errors.As(err, &ce) || ce.Constraint != "fk_test_hero_powers_hero_id_test_heroes" {
			t.Errorf("constraint = %+v", ce)
		}
	})

	t.Run("delete cascades in storage", func(t *testing.T) {
		if _, err := Insert[testHeroPower](qb).Values(testHeroPower{Strength: "Weak", HeroID: inserted[1].ID}).Exec(ctx); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		deleted, err := Delete[testHero](qb).Where(Eq("id", inserted[1].ID)).ExecReturning(ctx)
		if err != nil || len(deleted) != 1 {
			t.Fatalf("Delete = %+v, %v", deleted, err)
		}
		n, err := Select[testHeroPower](qb).Where(Eq("hero_id", inserted[1].ID)).Count(ctx)
		if err != nil || n != 0 {
			t.Errorf("dependent rows = %d, %v; want 0", n, err)
		}
	})
}

func TestIntegration_Transactions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		err := db.WithTx(ctx, func(q runtime.Querier) error {
			_, err := Insert[testHero](New(q)).Values(testHero{Name: "Jane"}).Exec(ctx)
			return err
		})
		if err != nil {
			t.Fatalf("WithTx failed: %v", err)
		}
		n, _ := Select[testHero](New(db.Pool())).Where(Eq("name", "Jane")).Count(ctx)
		if n != 1 {
			t.Errorf("Expected 1 row after commit, got %d", n)
		}
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTx(ctx, func(q runtime.Querier) error {
			if _, err := Insert[testHero](New(q)).Values(testHero{Name: "Bob"}).Exec(ctx); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("WithTx returned %v, want boom", err)
		}
		n, _ := Select[testHero](New(db.Pool())).Where(Eq("name", "Bob")).Count(ctx)
		if n != 0 {
			t.Errorf("Expected 0 rows after rollback, got %d", n)
		}
	})
}
