package models

import (
	"time"

	"github.com/zulandar/studio/internal/document"
)

// DocType names of the Studio records.
const (
	StudioPageDocType        = "Studio Page"
	StudioPageWatcherDocType = "Studio Page Watcher"
)

// StudioPage is a page built in the Studio editor.
type StudioPage struct {
	Name      string `gorm:"primaryKey;size:140" json:"name"`
	PageTitle string `gorm:"size:255" json:"page_title"`
	Route     string `gorm:"size:255;index" json:"route"`
	Published bool   `json:"published"`

	// Blocks is the published block tree and DraftBlocks the unpublished
	// edit, both JSON text. Publish moves the draft into Blocks.
	Blocks      string `gorm:"type:text" json:"blocks"`
	DraftBlocks string `gorm:"type:text" json:"draft_blocks"`

	CreatedAt time.Time `json:"creation"`
	UpdatedAt time.Time `json:"modified"`

	// Watchers is loaded explicitly; child rows link by parenttype, not a
	// foreign key.
	Watchers []StudioPageWatcher `gorm:"-" json:"watchers"`
}

func (p *StudioPage) DocTypeName() string { return StudioPageDocType }
func (p *StudioPage) GetName() string     { return p.Name }
func (p *StudioPage) SetName(name string) { p.Name = name }

// StudioPageWatcher is a child row of a Studio Page: a script run when the
// watched source expression changes.
type StudioPageWatcher struct {
	Name        string    `gorm:"primaryKey;size:140" json:"name"`
	Idx         int       `json:"idx"`
	Parent      string    `gorm:"size:140;not null;index:idx_watcher_parent" json:"parent"`
	Parentfield string    `gorm:"size:140;not null;index:idx_watcher_parent" json:"parentfield"`
	Parenttype  string    `gorm:"size:140;not null;index:idx_watcher_parent" json:"parenttype"`
	Immediate   bool      `json:"immediate"`
	Script      string    `gorm:"type:text" json:"script"`
	Source      string    `gorm:"type:text" json:"source"`
	CreatedAt   time.Time `json:"creation"`
	UpdatedAt   time.Time `json:"modified"`
}

func (w *StudioPageWatcher) DocTypeName() string { return StudioPageWatcherDocType }
func (w *StudioPageWatcher) GetName() string     { return w.Name }
func (w *StudioPageWatcher) SetName(name string) { w.Name = name }

func (w *StudioPageWatcher) Linkage() document.Link {
	return document.Link{Parent: w.Parent, Parentfield: w.Parentfield, Parenttype: w.Parenttype}
}

func (w *StudioPageWatcher) SetLinkage(l document.Link) {
	w.Parent = l.Parent
	w.Parentfield = l.Parentfield
	w.Parenttype = l.Parenttype
}
