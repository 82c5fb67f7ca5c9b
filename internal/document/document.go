// Package document provides the generic persistable-record layer: naming,
// child-table linkage checks, and save/load/delete over GORM.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when no record has the requested name.
	ErrNotFound = errors.New("record not found")
	// ErrMissingLinkage is returned when a child record is saved without
	// a complete parent linkage.
	ErrMissingLinkage = errors.New("child record requires parent, parentfield and parenttype")
	// ErrDuplicate is returned by Insert when the name is already taken.
	ErrDuplicate = errors.New("record already exists")
)

// Record is any document that can be persisted by name.
type Record interface {
	DocTypeName() string
	GetName() string
	SetName(name string)
}

// Link ties a child record to its owning parent record.
type Link struct {
	Parent      string
	Parentfield string
	Parenttype  string
}

// Complete reports whether all three linkage attributes are set.
func (l Link) Complete() bool {
	return l.Parent != "" && l.Parentfield != "" && l.Parenttype != ""
}

// ChildRecord is a Record that only exists as a row of a parent's table.
type ChildRecord interface {
	Record
	Linkage() Link
	SetLinkage(l Link)
}

// NewName returns a random 10-character hex name.
func NewName() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// prepare checks child linkage and names rec if it has no name.
func prepare(op string, rec Record) error {
	if child, ok := rec.(ChildRecord); ok && !child.Linkage().Complete() {
		return fmt.Errorf("document: %s %s: %w", op, rec.DocTypeName(), ErrMissingLinkage)
	}
	if rec.GetName() == "" {
		rec.SetName(NewName())
	}
	return nil
}

// Save inserts or updates rec, assigning a name first if it has none.
func Save(ctx context.Context, db *gorm.DB, rec Record) error {
	if err := prepare("save", rec); err != nil {
		return err
	}
	if err := db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("document: save %s %s: %w", rec.DocTypeName(), rec.GetName(), err)
	}
	return nil
}

// Insert stores rec as a new record. Unlike Save it never overwrites: a
// name that is already taken yields ErrDuplicate.
func Insert(ctx context.Context, db *gorm.DB, rec Record) error {
	if err := prepare("insert", rec); err != nil {
		return err
	}
	result := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if result.Error != nil {
		return fmt.Errorf("document: insert %s %s: %w", rec.DocTypeName(), rec.GetName(), result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("document: %s %s: %w", rec.DocTypeName(), rec.GetName(), ErrDuplicate)
	}
	return nil
}

// Load reads the record called name into rec.
func Load(ctx context.Context, db *gorm.DB, rec Record, name string) error {
	if err := db.WithContext(ctx).Where("name = ?", name).First(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("document: %s %s: %w", rec.DocTypeName(), name, ErrNotFound)
		}
		return fmt.Errorf("document: load %s %s: %w", rec.DocTypeName(), name, err)
	}
	return nil
}

// Exists reports whether a record of rec's type called name is stored.
func Exists(ctx context.Context, db *gorm.DB, rec Record, name string) (bool, error) {
	var n int64
	if err := db.WithContext(ctx).Model(rec).Where("name = ?", name).Count(&n).Error; err != nil {
		return false, fmt.Errorf("document: check %s %s: %w", rec.DocTypeName(), name, err)
	}
	return n > 0, nil
}

// Delete removes the record called name. rec only selects the table.
func Delete(ctx context.Context, db *gorm.DB, rec Record, name string) error {
	result := db.WithContext(ctx).Where("name = ?", name).Delete(rec)
	if result.Error != nil {
		return fmt.Errorf("document: delete %s %s: %w", rec.DocTypeName(), name, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("document: %s %s: %w", rec.DocTypeName(), name, ErrNotFound)
	}
	return nil
}
