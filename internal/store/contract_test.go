package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"matchamap/internal/models"

	"gorm.io/datatypes"
)

func floatPtr(v float64) *float64 { return &v }

func placeUpdate(id, name, photo string, columns ...string) models.PlaceUpdate {
	raw, _ := json.Marshal(models.PlacePayload{PlaceID: id, Name: name})
	return models.PlaceUpdate{
		Record: models.PlaceCache{
			PlaceID:  id,
			Name:     name,
			Address:  "1 Tea St",
			Lat:      floatPtr(40.71),
			Lng:      floatPtr(-74.0),
			Types:    models.StringList{"cafe"},
			PhotoRef: photo,
			RawJSON:  datatypes.JSON(raw),
		},
		Columns: columns,
	}
}

func testPlaceStoreContract(t *testing.T, s PlaceStore) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		got, err := s.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != nil {
			t.Errorf("Get(missing) = %+v, want nil", got)
		}
	})

	t.Run("upsert creates", func(t *testing.T) {
		stored, err := s.Upsert(ctx, placeUpdate("p-create", "Matcha One", "photo-1", models.ColName))
		if err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		if stored.Name != "Matcha One" || stored.PhotoRef != "photo-1" {
			t.Errorf("stored = %+v", stored)
		}
		if !stored.HasCoordinates() {
			t.Error("coordinates not stored")
		}
		if stored.CreatedAt.IsZero() {
			t.Error("CreatedAt not set")
		}
	})

	t.Run("upsert only overwrites listed columns", func(t *testing.T) {
		if _, err := s.Upsert(ctx, placeUpdate("p-merge", "Before", "keep-me", models.ColName)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		stored, err := s.Upsert(ctx, placeUpdate("p-merge", "After", "", models.ColName))
		if err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		if stored.Name != "After" {
			t.Errorf("Name = %q, want After", stored.Name)
		}
		if stored.PhotoRef != "keep-me" {
			t.Errorf("PhotoRef = %q, column not listed must be kept", stored.PhotoRef)
		}

		again, err := s.Get(ctx, "p-merge")
		if err != nil || again == nil {
			t.Fatalf("Get: %v %v", again, err)
		}
		if again.Name != "After" || again.PhotoRef != "keep-me" {
			t.Errorf("reloaded = %+v", again)
		}
	})

	t.Run("get many skips unknown ids", func(t *testing.T) {
		if _, err := s.Upsert(ctx, placeUpdate("p-many-1", "A", "", models.ColName)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		if _, err := s.Upsert(ctx, placeUpdate("p-many-2", "B", "", models.ColName)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		got, err := s.GetMany(ctx, []string{"p-many-1", "nope", "p-many-2"})
		if err != nil {
			t.Fatalf("GetMany: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("GetMany returned %d places, want 2", len(got))
		}

		empty, err := s.GetMany(ctx, nil)
		if err != nil {
			t.Fatalf("GetMany(nil): %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("GetMany(nil) returned %d places", len(empty))
		}
	})
}

func testSearchCacheContract(t *testing.T, c SearchCacheStore) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		got, err := c.Get(ctx, "missing-key")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != nil {
			t.Errorf("Get = %+v, want nil", got)
		}
	})

	t.Run("put then get keeps order", func(t *testing.T) {
		entry := &models.PlaceSearchCache{
			QueryKey:     "40713:-74006:3000:matcha",
			CenterLat:    40.7128,
			CenterLng:    -74.006,
			RadiusMeters: 3000,
			Keyword:      "matcha",
			PlaceIDs:     models.StringList{"c", "a", "b"},
			CreatedAt:    time.Now().Truncate(time.Millisecond),
		}
		if err := c.Put(ctx, entry); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := c.Get(ctx, entry.QueryKey)
		if err != nil || got == nil {
			t.Fatalf("Get: %v %v", got, err)
		}
		if len(got.PlaceIDs) != 3 || got.PlaceIDs[0] != "c" || got.PlaceIDs[2] != "b" {
			t.Errorf("PlaceIDs = %v, want [c a b]", got.PlaceIDs)
		}
		if got.RadiusMeters != 3000 || got.Keyword != "matcha" {
			t.Errorf("entry = %+v", got)
		}
	})

	t.Run("put replaces same key", func(t *testing.T) {
		key := "replace-key"
		old := time.Now().Add(-2 * time.Hour)
		if err := c.Put(ctx, &models.PlaceSearchCache{QueryKey: key, Keyword: "matcha", PlaceIDs: models.StringList{"old"}, CreatedAt: old}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		fresh := time.Now()
		if err := c.Put(ctx, &models.PlaceSearchCache{QueryKey: key, Keyword: "matcha", PlaceIDs: models.StringList{"new"}, CreatedAt: fresh}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := c.Get(ctx, key)
		if err != nil || got == nil {
			t.Fatalf("Get: %v %v", got, err)
		}
		if len(got.PlaceIDs) != 1 || got.PlaceIDs[0] != "new" {
			t.Errorf("PlaceIDs = %v, want [new]", got.PlaceIDs)
		}
		if !got.CreatedAt.After(old) {
			t.Errorf("CreatedAt = %v, want newer than %v", got.CreatedAt, old)
		}
	})

	t.Run("delete", func(t *testing.T) {
		key := "delete-key"
		if err := c.Put(ctx, &models.PlaceSearchCache{QueryKey: key, Keyword: "matcha"}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := c.Delete(ctx, key); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if got, _ := c.Get(ctx, key); got != nil {
			t.Errorf("entry still present after delete: %+v", got)
		}
		if err := c.Delete(ctx, key); err != nil {
			t.Errorf("Delete of missing key: %v", err)
		}
	})

	t.Run("purge older than", func(t *testing.T) {
		now := time.Now()
		if err := c.Put(ctx, &models.PlaceSearchCache{QueryKey: "purge-stale", Keyword: "matcha", CreatedAt: now.Add(-3 * time.Hour)}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := c.Put(ctx, &models.PlaceSearchCache{QueryKey: "purge-fresh", Keyword: "matcha", CreatedAt: now}); err != nil {
			t.Fatalf("Put: %v", err)
		}

		purged, err := c.PurgeOlderThan(ctx, now.Add(-time.Hour))
		if err != nil {
			t.Fatalf("PurgeOlderThan: %v", err)
		}
		if purged < 1 {
			t.Errorf("purged = %d, want at least 1", purged)
		}
		if got, _ := c.Get(ctx, "purge-stale"); got != nil {
			t.Error("stale entry survived purge")
		}
		if got, _ := c.Get(ctx, "purge-fresh"); got == nil {
			t.Error("fresh entry purged")
		}
	})
}
