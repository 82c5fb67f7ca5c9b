package watcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/zulandar/studio/internal/document"
	"github.com/zulandar/studio/internal/models"
	"gorm.io/driver/mysql"
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

func seedPage(t *testing.T, db *gorm.DB, name string) {
	t.Helper()
	if err := db.Create(&models.StudioPage{Name: name, PageTitle: name, Route: name}).Error; err != nil {
		t.Fatalf("seed page %s: %v", name, err)
	}
}

func sources(rows []models.StudioPageWatcher) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Source
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	db := testDB(t)
	seedPage(t, db, "home")
	ctx := context.Background()

	w, err := Add(ctx, db, "home", Opts{Immediate: true, Script: "console.log(1)", Source: "onload"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := Get(ctx, db, w.Name)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Immediate {
		t.Error("Immediate = false, want true")
	}
	if got.Script != "console.log(1)" {
		t.Errorf("Script = %q", got.Script)
	}
	if got.Source != "onload" {
		t.Errorf("Source = %q", got.Source)
	}
	if got.Parent != "home" || got.Parentfield != "watchers" || got.Parenttype != "Studio Page" {
		t.Errorf("linkage = %+v", got.Linkage())
	}
}

func TestAdd_AssignsIdx(t *testing.T) {
	db := testDB(t)
	seedPage(t, db, "home")
	seedPage(t, db, "about")
	ctx := context.Background()

	for i, src := range []string{"a", "b", "c"} {
		w, err := Add(ctx, db, "home", Opts{Source: src})
		if err != nil {
			t.Fatalf("Add %s: %v", src, err)
		}
		if w.Idx != i+1 {
			t.Errorf("Add %s idx = %d, want %d", src, w.Idx, i+1)
		}
	}

	w, err := Add(ctx, db, "about", Opts{Source: "x"})
	if err != nil {
		t.Fatalf("Add to about: %v", err)
	}
	if w.Idx != 1 {
		t.Errorf("first watcher of another page idx = %d, want 1", w.Idx)
	}
}

func TestAdd_ConcurrentDistinctIdx(t *testing.T) {
	db := testDB(t)
	seedPage(t, db, "home")
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	idxs := make([]int, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := Add(ctx, db, "home", Opts{Source: fmt.Sprintf("s%d", i)})
			if err != nil {
				errs[i] = err
				return
			}
			idxs[i] = w.Idx
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}
	sort.Ints(idxs)
	for i, idx := range idxs {
		if idx != i+1 {
			t.Fatalf("idx values = %v, want 1..%d", idxs, n)
		}
	}
}

func TestPageLockQuery_MySQLForUpdate(t *testing.T) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "root@tcp(127.0.0.1:3306)/studio?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry-run mysql: %v", err)
	}

	var names []string
	stmt := pageLockQuery(db, "home").Pluck("name", &names).Statement
	if sql := stmt.SQL.String(); !strings.Contains(sql, "FOR UPDATE") {
		t.Errorf("lock query = %q, want FOR UPDATE", sql)
	}
}

func TestPageLockQuery_SQLiteOmitsLock(t *testing.T) {
	db := testDB(t)
	var names []string
	stmt := pageLockQuery(db.Session(&gorm.Session{DryRun: true}), "home").Pluck("name", &names).Statement
	if sql := stmt.SQL.String(); strings.Contains(sql, "FOR UPDATE") {
		t.Errorf("sqlite lock query = %q, should not lock rows", sql)
	}
}

func TestRemove_UnknownWatcher(t *testing.T) {
	db := testDB(t)
	seedPage(t, db, "home")
	if err := Remove(context.Background(), db, "nope"); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAdd_UnknownPage(t *testing.T) {
	db := testDB(t)

	_, err := Add(context.Background(), db, "ghost", Opts{Source: "x"})
	if !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	db := testDB(t)
	seedPage(t, db, "home")
	seedPage(t, db, "about")
	ctx := context.Background()

	for _, src := range []string{"a", "b"} {
		if _, err := Add(ctx, db, "home", Opts{Source: src}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if _, err := Add(ctx, db, "about", Opts{Source: "other"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rows, err := List(ctx, db, "home")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := sources(rows); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("List(home) = %v, want [a b]", got)
	}

	if _, err := List(ctx, db, "ghost"); !errors.Is(err, document.ErrNotFound) {
		t.Errorf("List(ghost) err = %v, want ErrNotFound", err)
	}
}

func TestRemove_Renumbers(t *testing.T) {
	db := testDB(t)
	seedPage(t, db, "home")
	ctx := context.Background()

	var names []string
	for _, src := range []string{"a", "b", "c"} {
		w, err := Add(ctx, db, "home", Opts{Source: src})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		names = append(names, w.Name)
	}

	if err := Remove(ctx, db, names[0]); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	rows, err := List(ctx, db, "home")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	for i, r := range rows {
		if r.Idx != i+1 {
			t.Errorf("rows[%d].Idx = %d, want %d", i, r.Idx, i+1)
		}
	}
	if got := sources(rows); got[0] != "b" || got[1] != "c" {
		t.Errorf("sources = %v, want [b c]", got)
	}

	if err := Remove(ctx, db, names[0]); !errors.Is(err, document.ErrNotFound) {
		t.Errorf("second Remove err = %v, want ErrNotFound", err)
	}
}

func TestReplace(t *testing.T) {
	db := testDB(t)
	seedPage(t, db, "home")
	ctx := context.Background()

	if _, err := Add(ctx, db, "home", Opts{Source: "old"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rows, err := Replace(ctx, db, "home", []Opts{
		{Source: "x", Script: "a()"},
		{Source: "y", Script: "b()", Immediate: true},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if len(rows) != 2 || rows[0].Idx != 1 || rows[1].Idx != 2 {
		t.Fatalf("Replace rows = %+v", rows)
	}

	stored, err := List(ctx, db, "home")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := sources(stored); len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("stored = %v, want [x y]", got)
	}
	if !stored[1].Immediate {
		t.Error("second watcher should be immediate")
	}
}

func TestReplace_Empty(t *testing.T) {
	db := testDB(t)
	seedPage(t, db, "home")
	ctx := context.Background()

	if _, err := Add(ctx, db, "home", Opts{Source: "old"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	rows, err := Replace(ctx, db, "home", nil)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v, want none", rows)
	}
	stored, _ := List(ctx, db, "home")
	if len(stored) != 0 {
		t.Errorf("stored = %d rows, want 0", len(stored))
	}
}

func TestSave_RejectsOrphan(t *testing.T) {
	db := testDB(t)

	err := document.Save(context.Background(), db, &models.StudioPageWatcher{Source: "x"})
	if !errors.Is(err, document.ErrMissingLinkage) {
		t.Fatalf("err = %v, want ErrMissingLinkage", err)
	}
}
