package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/seed"
)

// tables cleared by a seed reset, children first
var domainTables = []string{"finance_entries", "posts", "sermons", "events", "members"}

type seedRepository struct {
	baseRepository
}

var _ seed.Repository = (*seedRepository)(nil)

func NewSeedRepository(exec core.DBExecutor) *seedRepository {
	return &seedRepository{baseRepository{exec: exec}}
}

func (repo seedRepository) ClearDomainData(ctx context.Context, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	for _, table := range domainTables {
		if _, err := execute(ctx, exe, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "clearing %s", table)
		}
	}
	return nil
}
