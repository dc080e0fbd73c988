package repo

import (
	"context"

	"github.com/google/uuid"

	"artistry/internal/domain"
	"artistry/internal/infra"
	"artistry/internal/sqlinline"
)

// ResultRepositoryPG implements domain.ResultRepository.
type ResultRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewResultRepository(sql infra.SQLExecutor) *ResultRepositoryPG {
	return &ResultRepositoryPG{sql: sql}
}

func (r *ResultRepositoryPG) Save(ctx context.Context, result *domain.StoredResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertResult, result.ID, result.SessionID, result.Payload)
	return row.Scan(&result.CreatedAt)
}

func (r *ResultRepositoryPG) GetByID(ctx context.Context, resultID string) (*domain.StoredResult, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectResult, resultID)
	var res domain.StoredResult
	if err := row.Scan(&res.ID, &res.SessionID, &res.Payload, &res.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

var _ domain.ResultRepository = (*ResultRepositoryPG)(nil)
