// Package watcher manages the watchers table of Studio Pages. A watcher
// runs its script whenever the source expression it observes changes, and
// once on page load when Immediate is set.
package watcher

import (
	"context"
	"fmt"

	"github.com/zulandar/studio/internal/document"
	"github.com/zulandar/studio/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ParentField is the Studio Page table field that holds watchers.
const ParentField = "watchers"

// Opts holds the user-editable attributes of a watcher.
type Opts struct {
	Immediate bool   `json:"immediate"`
	Script    string `json:"script"`
	Source    string `json:"source"`
}

// PageLink returns the linkage of a watcher row belonging to page.
func PageLink(page string) document.Link {
	return document.Link{
		Parent:      page,
		Parentfield: ParentField,
		Parenttype:  models.StudioPageDocType,
	}
}

func scope(db *gorm.DB, page string) *gorm.DB {
	return db.Model(&models.StudioPageWatcher{}).
		Where("parent = ? AND parentfield = ? AND parenttype = ?", page, ParentField, models.StudioPageDocType)
}

func requirePage(ctx context.Context, db *gorm.DB, page string) error {
	ok, err := document.Exists(ctx, db, &models.StudioPage{}, page)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %s: %w", models.StudioPageDocType, page, document.ErrNotFound)
	}
	return nil
}

// pageLockQuery selects page's row FOR UPDATE. Drivers without row locks
// (SQLite) drop the locking clause.
func pageLockQuery(tx *gorm.DB, page string) *gorm.DB {
	return tx.Model(&models.StudioPage{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", page)
}

// lockPage locks page's row for the rest of tx, serialising writers to its
// watchers table. It fails with document.ErrNotFound if the page is missing.
func lockPage(ctx context.Context, tx *gorm.DB, page string) error {
	var names []string
	if err := pageLockQuery(tx.WithContext(ctx), page).Pluck("name", &names).Error; err != nil {
		return fmt.Errorf("lock %s %s: %w", models.StudioPageDocType, page, err)
	}
	if len(names) == 0 {
		return fmt.Errorf("%s %s: %w", models.StudioPageDocType, page, document.ErrNotFound)
	}
	return nil
}

func newRow(page string, idx int, opts Opts) *models.StudioPageWatcher {
	w := &models.StudioPageWatcher{
		Idx:       idx,
		Immediate: opts.Immediate,
		Script:    opts.Script,
		Source:    opts.Source,
	}
	w.SetLinkage(PageLink(page))
	return w
}

// Add appends a watcher to page's table.
func Add(ctx context.Context, db *gorm.DB, page string, opts Opts) (*models.StudioPageWatcher, error) {
	var w *models.StudioPageWatcher
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPage(ctx, tx, page); err != nil {
			return err
		}
		var maxIdx int
		if err := scope(tx, page).Select("COALESCE(MAX(idx), 0)").Scan(&maxIdx).Error; err != nil {
			return fmt.Errorf("next idx: %w", err)
		}
		w = newRow(page, maxIdx+1, opts)
		return document.Save(ctx, tx, w)
	})
	if err != nil {
		return nil, fmt.Errorf("watcher: add to %s: %w", page, err)
	}
	return w, nil
}

// List returns page's watchers ordered by idx.
func List(ctx context.Context, db *gorm.DB, page string) ([]models.StudioPageWatcher, error) {
	if err := requirePage(ctx, db, page); err != nil {
		return nil, fmt.Errorf("watcher: list: %w", err)
	}
	var rows []models.StudioPageWatcher
	if err := scope(db.WithContext(ctx), page).Order("idx ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("watcher: list %s: %w", page, err)
	}
	return rows, nil
}

// Get loads a single watcher by name.
func Get(ctx context.Context, db *gorm.DB, name string) (*models.StudioPageWatcher, error) {
	var w models.StudioPageWatcher
	if err := document.Load(ctx, db, &w, name); err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	return &w, nil
}

// Remove deletes a watcher and closes the gap it leaves in its page's idx
// sequence.
func Remove(ctx context.Context, db *gorm.DB, name string) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w models.StudioPageWatcher
		if err := document.Load(ctx, tx, &w, name); err != nil {
			return err
		}
		if err := lockPage(ctx, tx, w.Parent); err != nil {
			return err
		}
		if err := document.Delete(ctx, tx, &models.StudioPageWatcher{}, name); err != nil {
			return err
		}
		return renumber(tx, w.Parent)
	})
	if err != nil {
		return fmt.Errorf("watcher: remove: %w", err)
	}
	return nil
}

// renumber rewrites idx of page's watchers to 1..n, keeping their order.
func renumber(tx *gorm.DB, page string) error {
	var rows []models.StudioPageWatcher
	if err := scope(tx, page).Order("idx ASC").Find(&rows).Error; err != nil {
		return fmt.Errorf("renumber %s: %w", page, err)
	}
	for i, row := range rows {
		if row.Idx == i+1 {
			continue
		}
		if err := tx.Model(&models.StudioPageWatcher{}).Where("name = ?", row.Name).Update("idx", i+1).Error; err != nil {
			return fmt.Errorf("renumber %s: %w", row.Name, err)
		}
	}
	return nil
}

// Replace swaps page's whole watchers table for items, in order.
func Replace(ctx context.Context, db *gorm.DB, page string, items []Opts) ([]models.StudioPageWatcher, error) {
	rows := make([]models.StudioPageWatcher, 0, len(items))
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPage(ctx, tx, page); err != nil {
			return err
		}
		if err := scope(tx, page).Delete(&models.StudioPageWatcher{}).Error; err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		for i, opts := range items {
			w := newRow(page, i+1, opts)
			if err := document.Save(ctx, tx, w); err != nil {
				return err
			}
			rows = append(rows, *w)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("watcher: replace on %s: %w", page, err)
	}
	return rows, nil
}
