package repo

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"artistry/internal/domain"
	"artistry/internal/infra"
	"artistry/internal/sqlinline"
)

// SessionRepositoryPG implements domain.SessionRepository.
type SessionRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewSessionRepository(sql infra.SQLExecutor) *SessionRepositoryPG {
	return &SessionRepositoryPG{sql: sql}
}

func (r *SessionRepositoryPG) Create(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	items, err := marshalItems(session.ItemReplacement)
	if err != nil {
		return err
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertSession, session.ID, string(session.BudgetRange), session.DesignTips, items)
	return row.Scan(&session.CreatedAt, &session.UpdatedAt)
}

func (r *SessionRepositoryPG) Update(ctx context.Context, session *domain.Session) error {
	items, err := marshalItems(session.ItemReplacement)
	if err != nil {
		return err
	}
	row := r.sql.QueryRow(ctx, sqlinline.QUpdateSession, session.ID, string(session.BudgetRange), session.DesignTips, items)
	if err := row.Scan(&session.CreatedAt, &session.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *SessionRepositoryPG) GetByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectSession, sessionID)
	var (
		session domain.Session
		budget  string
		items   []byte
	)
	if err := row.Scan(&session.ID, &budget, &session.DesignTips, &items, &session.CreatedAt, &session.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	session.BudgetRange = domain.BudgetTier(budget)
	if err := unmarshalItems(items, &session.ItemReplacement); err != nil {
		return nil, err
	}
	return &session, nil
}

func marshalItems(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

func unmarshalItems(raw []byte, dst *[]string) error {
	*dst = []string{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

var _ domain.SessionRepository = (*SessionRepositoryPG)(nil)
