// Package page provides Studio Page operations.
package page

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/zulandar/studio/internal/document"
	"github.com/zulandar/studio/internal/models"
	"gorm.io/gorm"
)

// ErrInvalid is returned when page attributes fail validation.
var ErrInvalid = errors.New("invalid page")

// CreateOpts holds parameters for creating a new page.
type CreateOpts struct {
	Name  string // optional; generated when empty
	Title string
	Route string // optional; derived from Title when empty
}

// UpdateOpts holds the page attributes to change. Nil fields are left as
// they are.
type UpdateOpts struct {
	Title       *string `json:"page_title"`
	Route       *string `json:"route"` // empty re-derives from the title
	DraftBlocks *string `json:"draft_blocks"`
}

var nonRouteChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a page title into a route segment: "My Page!" becomes "my-page".
func Slugify(title string) string {
	return strings.Trim(nonRouteChars.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// watchers selects the watcher rows of page name.
func watchers(db *gorm.DB, name string) *gorm.DB {
	return db.Model(&models.StudioPageWatcher{}).
		Where("parent = ? AND parenttype = ?", name, models.StudioPageDocType)
}

func checkBlocks(blocks string) error {
	if blocks != "" && !json.Valid([]byte(blocks)) {
		return fmt.Errorf("page: draft_blocks is not valid JSON: %w", ErrInvalid)
	}
	return nil
}

// Create stores a new page. An explicit name that is already taken fails
// with document.ErrDuplicate.
func Create(ctx context.Context, db *gorm.DB, opts CreateOpts) (*models.StudioPage, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return nil, fmt.Errorf("page: title is required: %w", ErrInvalid)
	}
	if opts.Route == "" {
		opts.Route = Slugify(opts.Title)
	}

	p := &models.StudioPage{
		Name:      opts.Name,
		PageTitle: opts.Title,
		Route:     opts.Route,
	}
	if err := document.Insert(ctx, db, p); err != nil {
		if errors.Is(err, document.ErrDuplicate) {
			return nil, fmt.Errorf("page: %s already exists: %w", opts.Name, err)
		}
		return nil, fmt.Errorf("page: create: %w", err)
	}
	return p, nil
}

// Get loads a page together with its watchers, ordered by idx.
func Get(ctx context.Context, db *gorm.DB, name string) (*models.StudioPage, error) {
	var p models.StudioPage
	if err := document.Load(ctx, db, &p, name); err != nil {
		return nil, fmt.Errorf("page: %w", err)
	}
	if err := watchers(db.WithContext(ctx), name).Order("idx ASC").Find(&p.Watchers).Error; err != nil {
		return nil, fmt.Errorf("page: load watchers of %s: %w", name, err)
	}
	return &p, nil
}

// List returns all pages, most recently modified first.
func List(ctx context.Context, db *gorm.DB) ([]models.StudioPage, error) {
	var pages []models.StudioPage
	if err := db.WithContext(ctx).Order("updated_at DESC").Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("page: list: %w", err)
	}
	return pages, nil
}

// Update changes the attributes set in opts and returns the stored page.
func Update(ctx context.Context, db *gorm.DB, name string, opts UpdateOpts) (*models.StudioPage, error) {
	if opts.Title != nil && strings.TrimSpace(*opts.Title) == "" {
		return nil, fmt.Errorf("page: title is required: %w", ErrInvalid)
	}
	if opts.DraftBlocks != nil {
		if err := checkBlocks(*opts.DraftBlocks); err != nil {
			return nil, err
		}
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.StudioPage
		if err := document.Load(ctx, tx, &p, name); err != nil {
			return err
		}

		changes := map[string]interface{}{}
		title := p.PageTitle
		if opts.Title != nil {
			title = *opts.Title
			changes["page_title"] = title
		}
		if opts.Route != nil {
			route := *opts.Route
			if route == "" {
				route = Slugify(title)
			}
			changes["route"] = route
		}
		if opts.DraftBlocks != nil {
			changes["draft_blocks"] = *opts.DraftBlocks
		}
		if len(changes) == 0 {
			return nil
		}
		return tx.Model(&p).Updates(changes).Error
	})
	if err != nil {
		return nil, fmt.Errorf("page: update %s: %w", name, err)
	}
	return Get(ctx, db, name)
}

// Publish makes the draft the live version: draft_blocks moves into blocks
// and the page is marked published. Without a draft the current blocks are
// published as they are.
func Publish(ctx context.Context, db *gorm.DB, name string) (*models.StudioPage, error) {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.StudioPage
		if err := document.Load(ctx, tx, &p, name); err != nil {
			return err
		}
		changes := map[string]interface{}{"published": true}
		if p.DraftBlocks != "" {
			changes["blocks"] = p.DraftBlocks
			changes["draft_blocks"] = ""
		}
		return tx.Model(&p).Updates(changes).Error
	})
	if err != nil {
		return nil, fmt.Errorf("page: publish %s: %w", name, err)
	}
	return Get(ctx, db, name)
}

// Delete removes a page and its watcher rows in one transaction.
func Delete(ctx context.Context, db *gorm.DB, name string) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := watchers(tx, name).Delete(&models.StudioPageWatcher{}).Error; err != nil {
			return fmt.Errorf("delete watchers: %w", err)
		}
		return document.Delete(ctx, tx, &models.StudioPage{}, name)
	})
	if err != nil {
		return fmt.Errorf("page: delete %s: %w", name, err)
	}
	return nil
}
