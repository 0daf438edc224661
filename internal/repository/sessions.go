package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
)

func (r *Repository) CreateSession(session *domain.Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO sessions (name, description, availability_type, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	args := []any{session.Name, session.Description, session.AvailabilityType, session.OwnerID}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&session.ID, &session.CreatedAt, &session.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetSessionByID(id int64) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT name, description, availability_type, owner_id, created_at, version
		FROM sessions WHERE id = $1
	`

	session := &domain.Session{
		ID: id,
	}

	dst := []any{&session.Name, &session.Description, &session.AvailabilityType, &session.OwnerID, &session.CreatedAt, &session.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return session, nil
}

// GetSessionsByOwner 在 ownerID 为 0 时返回所有会话
func (r *Repository) GetSessionsByOwner(ownerID int64) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, name, description, availability_type, owner_id, created_at, version
		FROM sessions
		WHERE $1 = 0 OR owner_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*domain.Session, 0)
	for rows.Next() {
		session := &domain.Session{}
		dst := []any{&session.ID, &session.Name, &session.Description, &session.AvailabilityType, &session.OwnerID, &session.CreatedAt, &session.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *Repository) DeleteSession(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	// 参与者和空闲时间通过外键级联删除
	query := `DELETE FROM sessions WHERE id = $1`
	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
