package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("sqlite", filepath.Join(t.TempDir(), "test.db"), false)
	if err != nil {
		t.Fatalf("New() err = %v; want nil", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() err = %v; want nil", err)
	}
	return s
}

func testStore(t *testing.T) *Store {
	t.Helper()
	s := openStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() err = %v; want nil", err)
	}
	return s
}

func TestSetAlbumSongs(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	album := &Album{ID: "alb1", UserID: "u1", Title: "Glass Hours", NumSongs: 2}
	songs := []*Song{
		{ID: "s2", UserID: "u1", AlbumID: "alb1", TrackNumber: 2, Title: "Afterglow"},
		{ID: "s1", UserID: "u1", AlbumID: "alb1", TrackNumber: 1, Title: "First Light"},
	}
	if err := s.SetAlbumSongs(ctx, album, songs); err != nil {
		t.Fatalf("SetAlbumSongs() err = %v; want nil", err)
	}

	got, err := s.GetAlbum(ctx, "alb1")
	if err != nil {
		t.Fatalf("GetAlbum() err = %v; want nil", err)
	}
	if len(got.Songs) != 2 {
		t.Fatalf("len(Songs) = %d; want 2", len(got.Songs))
	}
	if got.Songs[0].TrackNumber != 1 || got.Songs[1].TrackNumber != 2 {
		t.Fatalf("track order = %d, %d; want 1, 2", got.Songs[0].TrackNumber, got.Songs[1].TrackNumber)
	}
}

func TestSetAlbumSongsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	// A missing songs table fails the song insert after the album insert.
	if err := s.db.Migrator().DropTable(&Song{}); err != nil {
		t.Fatalf("DropTable() err = %v; want nil", err)
	}

	album := &Album{ID: "alb1", UserID: "u1", Title: "Glass Hours", NumSongs: 1}
	songs := []*Song{{ID: "s1", UserID: "u1", AlbumID: "alb1", TrackNumber: 1}}
	if err := s.SetAlbumSongs(ctx, album, songs); err == nil {
		t.Fatal("SetAlbumSongs() err = nil; want error")
	}
	if _, err := s.GetAlbum(ctx, "alb1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetAlbum() err = %v; want %v", err, ErrNotFound)
	}
}

func TestMigratePreexistingSchema(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	// Tables created by an earlier release, before the migrations table
	// existed.
	if err := s.db.AutoMigrate(&Song{}, &Album{}, &Suggestion{}); err != nil {
		t.Fatalf("AutoMigrate() err = %v; want nil", err)
	}

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() err = %v; want nil", err)
	}
	var m Migration
	if err := s.db.First(&m).Error; err != nil {
		t.Fatalf("First(migration) err = %v; want nil", err)
	}
	if m.Version != 0 {
		t.Fatalf("migration version = %d; want 0", m.Version)
	}
}

// blockedDialector holds gorm.Open until the gate is closed.
type blockedDialector struct {
	gate chan struct{}
}

func (d blockedDialector) Name() string { return "blocked" }
func (d blockedDialector) Initialize(*gorm.DB) error {
	<-d.gate
	return errors.New("blocked: opened too late")
}
func (d blockedDialector) Migrator(*gorm.DB) gorm.Migrator                       { return nil }
func (d blockedDialector) DataTypeOf(*schema.Field) string                       { return "" }
func (d blockedDialector) DefaultValueOf(*schema.Field) clause.Expression        { return clause.Expr{} }
func (d blockedDialector) BindVarTo(clause.Writer, *gorm.Statement, interface{}) {}
func (d blockedDialector) QuoteTo(clause.Writer, string)                         {}
func (d blockedDialector) Explain(sql string, _ ...interface{}) string           { return sql }

func TestStartCancelledDuringOpen(t *testing.T) {
	gate := make(chan struct{})
	s := &Store{
		open:   blockedDialector{gate: gate},
		logger: logger.Default.LogMode(logger.Silent),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Start() err = %v; want %v", err, context.Canceled)
	}
	// Release the opener; its late error must be absorbed, not panic.
	close(gate)
	time.Sleep(20 * time.Millisecond)
}
