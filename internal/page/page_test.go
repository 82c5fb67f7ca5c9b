package page

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zulandar/studio/internal/document"
	"github.com/zulandar/studio/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.StudioPage{}, &models.StudioPageWatcher{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Home", "home"},
		{"My Page!", "my-page"},
		{"  Sales -- Report 2025 ", "sales-report-2025"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreate(t *testing.T) {
	db := testDB(t)

	p, err := Create(context.Background(), db, CreateOpts{Title: "Sales Dashboard"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Name == "" {
		t.Error("expected generated name")
	}
	if p.Route != "sales-dashboard" {
		t.Errorf("Route = %q, want sales-dashboard", p.Route)
	}
}

func TestCreate_RequiresTitle(t *testing.T) {
	_, err := Create(context.Background(), testDB(t), CreateOpts{})
	if err == nil || !strings.Contains(err.Error(), "title is required") {
		t.Fatalf("err = %v, want title is required", err)
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, err := Create(ctx, db, CreateOpts{Name: "home", Title: "Home"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := Create(ctx, db, CreateOpts{Name: "home", Title: "Home again"})
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("err = %v, want already exists", err)
	}
	if !errors.Is(err, document.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}

	p, err := Get(ctx, db, "home")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.PageTitle != "Home" {
		t.Errorf("PageTitle = %q, duplicate create must not overwrite", p.PageTitle)
	}
}

func TestCreate_BlankTitleInvalid(t *testing.T) {
	_, err := Create(context.Background(), testDB(t), CreateOpts{Title: "   "})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestGet_WithWatchers(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, err := Create(ctx, db, CreateOpts{Name: "home", Title: "Home"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i, src := range []string{"second", "first"} {
		w := &models.StudioPageWatcher{Idx: 2 - i, Source: src}
		w.SetLinkage(document.Link{Parent: "home", Parentfield: "watchers", Parenttype: models.StudioPageDocType})
		if err := document.Save(ctx, db, w); err != nil {
			t.Fatalf("save watcher: %v", err)
		}
	}

	p, err := Get(ctx, db, "home")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(p.Watchers) != 2 {
		t.Fatalf("len(Watchers) = %d, want 2", len(p.Watchers))
	}
	if p.Watchers[0].Source != "first" {
		t.Errorf("Watchers not ordered by idx: %+v", p.Watchers)
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := Get(context.Background(), testDB(t), "ghost")
	if !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B"} {
		if _, err := Create(ctx, db, CreateOpts{Title: title}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	pages, err := List(ctx, db)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pages) != 2 {
		t.Errorf("len(pages) = %d, want 2", len(pages))
	}
}

func addWatcher(t *testing.T, db *gorm.DB, page, source string, idx int) {
	t.Helper()
	w := &models.StudioPageWatcher{Idx: idx, Source: source}
	w.SetLinkage(document.Link{Parent: page, Parentfield: "watchers", Parenttype: models.StudioPageDocType})
	if err := document.Save(context.Background(), db, w); err != nil {
		t.Fatalf("save watcher: %v", err)
	}
}

func strptr(s string) *string { return &s }

func TestUpdate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if _, err := Create(ctx, db, CreateOpts{Name: "home", Title: "Home"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	p, err := Update(ctx, db, "home", UpdateOpts{Title: strptr("Landing Page")})
	if err != nil {
		t.Fatalf("Update title: %v", err)
	}
	if p.PageTitle != "Landing Page" || p.Route != "home" {
		t.Errorf("after title update: title=%q route=%q", p.PageTitle, p.Route)
	}

	p, err = Update(ctx, db, "home", UpdateOpts{Route: strptr("")})
	if err != nil {
		t.Fatalf("Update route: %v", err)
	}
	if p.Route != "landing-page" {
		t.Errorf("Route = %q, want re-derived landing-page", p.Route)
	}

	p, err = Update(ctx, db, "home", UpdateOpts{Route: strptr("welcome")})
	if err != nil {
		t.Fatalf("Update route: %v", err)
	}
	if p.Route != "welcome" {
		t.Errorf("Route = %q, want welcome", p.Route)
	}
}

func TestUpdate_Invalid(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if _, err := Create(ctx, db, CreateOpts{Name: "home", Title: "Home"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := Update(ctx, db, "home", UpdateOpts{Title: strptr("")}); !errors.Is(err, ErrInvalid) {
		t.Errorf("empty title: err = %v, want ErrInvalid", err)
	}
	if _, err := Update(ctx, db, "home", UpdateOpts{DraftBlocks: strptr("[{")}); !errors.Is(err, ErrInvalid) {
		t.Errorf("bad blocks: err = %v, want ErrInvalid", err)
	}
	if _, err := Update(ctx, db, "ghost", UpdateOpts{Title: strptr("X")}); !errors.Is(err, document.ErrNotFound) {
		t.Errorf("unknown page: err = %v, want ErrNotFound", err)
	}
}

func TestSaveDraftAndPublish(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if _, err := Create(ctx, db, CreateOpts{Name: "home", Title: "Home"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	draft := `[{"blockName":"root","children":[]}]`
	p, err := Update(ctx, db, "home", UpdateOpts{DraftBlocks: strptr(draft)})
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if p.DraftBlocks != draft || p.Blocks != "" || p.Published {
		t.Errorf("after draft save: %+v", p)
	}

	p, err = Publish(ctx, db, "home")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if p.Blocks != draft {
		t.Errorf("Blocks = %q, want the draft", p.Blocks)
	}
	if p.DraftBlocks != "" {
		t.Errorf("DraftBlocks = %q, want cleared", p.DraftBlocks)
	}
	if !p.Published {
		t.Error("Published = false after Publish")
	}

	// Publishing again without a draft keeps the live blocks.
	p, err = Publish(ctx, db, "home")
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if p.Blocks != draft {
		t.Errorf("Blocks = %q after republish, want unchanged", p.Blocks)
	}
}

func TestPublish_NotFound(t *testing.T) {
	if _, err := Publish(context.Background(), testDB(t), "ghost"); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete_RemovesWatchers(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	for _, name := range []string{"home", "about"} {
		if _, err := Create(ctx, db, CreateOpts{Name: name, Title: name}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}
	addWatcher(t, db, "home", "a", 1)
	addWatcher(t, db, "home", "b", 2)
	addWatcher(t, db, "about", "c", 1)

	if err := Delete(ctx, db, "home"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := Get(ctx, db, "home"); !errors.Is(err, document.ErrNotFound) {
		t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
	}
	var n int64
	if err := db.Model(&models.StudioPageWatcher{}).Where("parent = ?", "home").Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("%d watchers of home remain after delete", n)
	}

	other, err := Get(ctx, db, "about")
	if err != nil {
		t.Fatalf("Get about: %v", err)
	}
	if len(other.Watchers) != 1 {
		t.Errorf("other page lost watchers: %+v", other.Watchers)
	}
}

func TestDelete_NotFoundKeepsWatchers(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	addWatcher(t, db, "ghost", "orphan", 1)

	if err := Delete(ctx, db, "ghost"); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var n int64
	db.Model(&models.StudioPageWatcher{}).Where("parent = ?", "ghost").Count(&n)
	if n != 1 {
		t.Errorf("watcher count = %d, want 1 (failed delete rolls back)", n)
	}
}
