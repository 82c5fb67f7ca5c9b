package models

import "time"

// DocType is a document type definition: a named schema owning an ordered
// list of fields.
type DocType struct {
	Name      string    `gorm:"primaryKey;size:140" json:"name"`
	Module    string    `gorm:"size:140;index" json:"module"`
	IsTable   bool      `gorm:"default:false" json:"istable"`
	CreatedAt time.Time `json:"creation"`
	UpdatedAt time.Time `json:"modified"`

	Fields []DocField `gorm:"foreignKey:Parent;references:Name;constraint:OnDelete:CASCADE" json:"fields"`
}

// DocField describes one field of a DocType. Its JSON form is the field
// descriptor returned to API callers.
type DocField struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	Parent       string `gorm:"size:140;not null;index:idx_docfield_parent_idx" json:"parent"`
	Idx          int    `gorm:"not null;index:idx_docfield_parent_idx" json:"idx"`
	Fieldname    string `gorm:"size:140" json:"fieldname"`
	Label        string `gorm:"size:255" json:"label"`
	Fieldtype    string `gorm:"size:64;not null" json:"fieldtype"`
	Options      string `gorm:"type:text" json:"options,omitempty"`
	Reqd         bool   `json:"reqd"`
	ReadOnly     bool   `json:"read_only"`
	Hidden       bool   `json:"hidden"`
	InListView   bool   `json:"in_list_view"`
	DefaultValue string `gorm:"type:text" json:"default,omitempty"`
	Description  string `gorm:"type:text" json:"description,omitempty"`
}
