package meta

import (
	"context"
	"fmt"
	"sync"

	"github.com/zulandar/studio/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SyncResult summarises one Sync call.
type SyncResult struct {
	Created []string
	Updated []string
	Fields  int
}

// syncMu serialises Sync calls so a scheduled resync never interleaves with
// one started from the CLI or another tick.
var syncMu sync.Mutex

// Sync writes defs into the database. Each DocType row is upserted and its
// fields replaced wholesale, all in one transaction. Cached metadata for the
// synced DocTypes is dropped afterwards. DocTypes absent from defs are left
// untouched.
func (r *Registry) Sync(ctx context.Context, defs []Definition) (*SyncResult, error) {
	syncMu.Lock()
	defer syncMu.Unlock()

	res := &SyncResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range defs {
			if err := defs[i].Validate(); err != nil {
				return err
			}
			dt := defs[i].Model()

			var existing int64
			if err := tx.Model(&models.DocType{}).Where("name = ?", dt.Name).Count(&existing).Error; err != nil {
				return fmt.Errorf("check doctype %s: %w", dt.Name, err)
			}

			fields := dt.Fields
			dt.Fields = nil
			result := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"module", "is_table", "updated_at"}),
			}).Create(&dt)
			if result.Error != nil {
				return fmt.Errorf("upsert doctype %s: %w", dt.Name, result.Error)
			}

			if err := tx.Where("parent = ?", dt.Name).Delete(&models.DocField{}).Error; err != nil {
				return fmt.Errorf("clear fields of %s: %w", dt.Name, err)
			}
			if len(fields) > 0 {
				if err := tx.Create(&fields).Error; err != nil {
					return fmt.Errorf("insert fields of %s: %w", dt.Name, err)
				}
			}

			if existing > 0 {
				res.Updated = append(res.Updated, dt.Name)
			} else {
				res.Created = append(res.Created, dt.Name)
			}
			res.Fields += len(fields)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("meta: sync: %w", err)
	}

	for i := range defs {
		r.ClearCache(defs[i].Name)
	}
	return res, nil
}

// SyncDir loads every definition under dir and syncs it.
func (r *Registry) SyncDir(ctx context.Context, dir string) (*SyncResult, error) {
	defs, err := LoadDefinitions(dir)
	if err != nil {
		return nil, err
	}
	return r.Sync(ctx, defs)
}
