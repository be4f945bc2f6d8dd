// Package store holds the live application aggregates. Each aggregate has a
// single logical owner (the applicant session), so the store is a plain
// keyed collection with no entity-level write coordination.
package store

import (
	"context"

	"intake/internal/intake/models"
	id "intake/pkg/domain"
)

// ApplicationStore persists application aggregates.
type ApplicationStore interface {
	// Get returns the aggregate. A missing aggregate is reported as
	// sentinel.ErrNotFound; the service layer translates it.
	Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error)

	// Put upserts the aggregate.
	Put(ctx context.Context, app *models.Application) error
}
