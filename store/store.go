// Package store persists harvested page records keyed by (template_id, path).
package store

import (
	"context"

	"github.com/siteforge/harvest/models"
)

// Store is the persistence interface the crawler writes through. A page is
// either fully persisted or not at all; partial records are never written.
type Store interface {
	// SavePage upserts one record under (templateID, record.Path).
	SavePage(ctx context.Context, templateID string, record *models.PageRecord) error

	// Pages returns all records for a template ordered by discovery sequence.
	Pages(ctx context.Context, templateID string) ([]*models.PageRecord, error)

	Close() error
}
