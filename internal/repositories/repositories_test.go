package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/svbridge/internal/models"
	"github.com/desertthunder/svbridge/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestSetsRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Get Missing", func(t *testing.T) {
		repo := NewSetsRepository(setupTestDB(t))

		content, ok, err := repo.Get(ctx, "org-1", "nothing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok || content != "" {
			t.Errorf("expected no row, got %q (%v)", content, ok)
		}
	})

	t.Run("Save Creates Then Overwrites", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSetsRepository(db)

		if err := repo.Save(ctx, "org-1", "k", `{"a":1}`); err != nil {
			t.Fatalf("first save: %v", err)
		}
		if err := repo.Save(ctx, "org-1", "k", `{"a":2}`); err != nil {
			t.Fatalf("second save: %v", err)
		}

		content, ok, err := repo.Get(ctx, "org-1", "k")
		if err != nil || !ok {
			t.Fatalf("expected row, got %v (%v)", ok, err)
		}
		if content != `{"a":2}` {
			t.Errorf("expected overwritten content, got %s", content)
		}

		var rows int
		if err := db.QueryRow(`SELECT COUNT(*) FROM sets`).Scan(&rows); err != nil {
			t.Fatalf("count: %v", err)
		}
		if rows != 1 {
			t.Errorf("expected one row, got %d", rows)
		}
	})

	t.Run("Scoped By Organization", func(t *testing.T) {
		repo := NewSetsRepository(setupTestDB(t))
		if err := repo.Save(ctx, "org-1", "k", "one"); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := repo.Get(ctx, "org-2", "k"); ok {
			t.Error("expected other organization to see nothing")
		}
	})

	t.Run("Save Requires Keys", func(t *testing.T) {
		repo := NewSetsRepository(setupTestDB(t))
		if err := repo.Save(ctx, "", "k", "x"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSetsRepository(setupTestDB(t))
		_ = repo.Save(ctx, "org-1", "k", "x")
		if err := repo.Delete(ctx, "org-1", "k"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, ok, _ := repo.Get(ctx, "org-1", "k"); ok {
			t.Error("expected row to be gone")
		}
	})
}

func TestConfigStore(t *testing.T) {
	ctx := context.Background()

	t.Run("ConfigKey", func(t *testing.T) {
		if ConfigKey("") != LegacyConfigKey || ConfigKey("  ") != LegacyConfigKey {
			t.Error("expected legacy key for blank account")
		}
		if ConfigKey(" acc-1 ") != "short_video_config_acc-1" {
			t.Errorf("unexpected key %s", ConfigKey(" acc-1 "))
		}
	})

	t.Run("Round Trip", func(t *testing.T) {
		store := NewConfigStore(NewSetsRepository(setupTestDB(t)), nil)
		cfg := map[string]any{"tone": "calm", "image_count": 0.0}

		if err := store.Save(ctx, "org-1", "acc-1", cfg); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, err := store.Load(ctx, "org-1", "acc-1")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if got["tone"] != "calm" || got["image_count"] != 0.0 {
			t.Errorf("unexpected config: %v", got)
		}

		legacy, err := store.Load(ctx, "org-1", "")
		if err != nil || len(legacy) != 0 {
			t.Errorf("expected empty legacy config, got %v (%v)", legacy, err)
		}
	})

	t.Run("Malformed Content Is Empty", func(t *testing.T) {
		sets := NewSetsRepository(setupTestDB(t))
		store := NewConfigStore(sets, nil)

		for _, content := range []string{"{not json", "null", "[1,2]", ""} {
			if err := sets.Save(ctx, "org-1", LegacyConfigKey, content); err != nil {
				t.Fatal(err)
			}
			got, err := store.Load(ctx, "org-1", "")
			if err != nil {
				t.Fatalf("expected no error for %q, got %v", content, err)
			}
			if got == nil || len(got) != 0 {
				t.Errorf("expected empty map for %q, got %v", content, got)
			}
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store := NewConfigStore(NewSetsRepository(setupTestDB(t)), nil)
		_ = store.Save(ctx, "org-1", "", map[string]any{"tone": "dry"})
		_ = store.Save(ctx, "org-1", "acc-1", map[string]any{"tone": "calm"})

		if err := store.Delete(ctx, "org-1", "acc-1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if got, _ := store.Load(ctx, "org-1", "acc-1"); len(got) != 0 {
			t.Errorf("expected account config gone, got %v", got)
		}
		if got, _ := store.Load(ctx, "org-1", ""); got["tone"] != "dry" {
			t.Errorf("expected legacy config kept, got %v", got)
		}

		if err := store.Delete(ctx, "org-1", " "); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument for a blank account, got %v", err)
		}
	})
}

func TestIntegrationRepository(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, repo *IntegrationRepository, i models.Integration) models.Integration {
		t.Helper()
		if err := repo.Upsert(ctx, &i); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		return i
	}

	t.Run("Upsert And Get", func(t *testing.T) {
		repo := NewIntegrationRepository(setupTestDB(t))
		i := seed(t, repo, models.Integration{
			OrganizationID:     "org-1",
			Name:               "Main Channel",
			ProviderIdentifier: "youtube",
			InternalID:         "UC123",
		})
		if i.ID == "" {
			t.Fatal("expected generated id")
		}

		got, err := repo.Get(ctx, "org-1", i.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Name != "Main Channel" || got.InternalID != "UC123" || got.ProviderIdentifier != "youtube" {
			t.Errorf("unexpected integration: %+v", got)
		}

		i.Name = "Renamed"
		seed(t, repo, i)
		got, _ = repo.Get(ctx, "org-1", i.ID)
		if got.Name != "Renamed" {
			t.Errorf("expected update, got %s", got.Name)
		}
	})

	t.Run("Get Is Organization Scoped", func(t *testing.T) {
		repo := NewIntegrationRepository(setupTestDB(t))
		i := seed(t, repo, models.Integration{OrganizationID: "org-1", ProviderIdentifier: "tiktok"})

		if _, err := repo.Get(ctx, "org-2", i.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List Excludes Deleted", func(t *testing.T) {
		repo := NewIntegrationRepository(setupTestDB(t))
		a := seed(t, repo, models.Integration{ID: "a", OrganizationID: "org-1", ProviderIdentifier: "tiktok"})
		seed(t, repo, models.Integration{ID: "b", OrganizationID: "org-1", ProviderIdentifier: "youtube"})
		seed(t, repo, models.Integration{ID: "c", OrganizationID: "org-2", ProviderIdentifier: "youtube"})

		if err := repo.Delete(ctx, "org-1", a.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := repo.Delete(ctx, "org-1", a.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected second delete to report not found, got %v", err)
		}

		list, err := repo.ListByOrganization(ctx, "org-1")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 || list[0].ID != "b" {
			t.Errorf("expected only b, got %+v", list)
		}
	})

	t.Run("Upsert Requires Provider", func(t *testing.T) {
		repo := NewIntegrationRepository(setupTestDB(t))
		err := repo.Upsert(ctx, &models.Integration{OrganizationID: "org-1"})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}
