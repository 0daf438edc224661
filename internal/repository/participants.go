package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
)

var ErrTooManyParticipants = errors.New("参与者数量已达上限")

// InsertParticipant 在事务中插入参与者及其空闲时间，并使会话版本号加一。
// limit 大于 0 时限制会话中的参与者数量。
func (r *Repository) InsertParticipant(p *domain.Participant, limit int) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 锁住会话，防止并发插入时 position 重复
	query := `SELECT availability_type FROM sessions WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, query, p.SessionID).Scan(&p.AvailabilityType); err != nil {
		return err
	}

	var count int
	query = `SELECT COUNT(*), COALESCE(MAX(position) + 1, 0) FROM participants WHERE session_id = $1`
	if err := tx.QueryRowContext(ctx, query, p.SessionID).Scan(&count, &p.Position); err != nil {
		return err
	}
	if limit > 0 && count >= limit {
		return ErrTooManyParticipants
	}

	if err := insertParticipant(ctx, tx, p); err != nil {
		return err
	}

	if err := bumpSessionVersion(ctx, tx, p.SessionID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetParticipantsBySessionID(sessionID int64) ([]*domain.Participant, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			p.id,
			p.name,
			p.role,
			p.email,
			p.home_timezone,
			s.availability_type,
			p.position,
			p.created_at,
			ph.slot_key,
			ph.hour
		FROM participants p
		JOIN sessions s ON s.id = p.session_id
		LEFT JOIN participant_hours ph ON ph.participant_id = p.id
		WHERE p.session_id = $1
		ORDER BY p.position, ph.slot_key, ph.hour
	`

	rows, err := r.dbpool.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*domain.Participant, 0)
	byID := make(map[uuid.UUID]*domain.Participant)

	for rows.Next() {
		var row struct {
			ID               uuid.UUID
			Name             string
			Role             string
			Email            string
			HomeTimezone     string
			AvailabilityType domain.AvailabilityType
			Position         int32
			CreatedAt        time.Time

			SlotKey sql.NullString
			Hour    sql.NullInt32
		}

		dst := []any{
			&row.ID,
			&row.Name,
			&row.Role,
			&row.Email,
			&row.HomeTimezone,
			&row.AvailabilityType,
			&row.Position,
			&row.CreatedAt,
			&row.SlotKey,
			&row.Hour,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		p, exists := byID[row.ID]
		if !exists {
			// 查询结果按 position 排序，第一次出现的顺序即规范顺序
			p = &domain.Participant{
				ID:               row.ID,
				SessionID:        sessionID,
				Name:             row.Name,
				Role:             row.Role,
				Email:            row.Email,
				HomeTimezone:     row.HomeTimezone,
				AvailabilityType: row.AvailabilityType,
				Availability:     make(map[string][]int),
				Position:         row.Position,
				CreatedAt:        row.CreatedAt,
			}
			byID[row.ID] = p
			participants = append(participants, p)
		}

		// 没有任何空闲时间的参与者只有一行 NULL
		if !row.SlotKey.Valid || !row.Hour.Valid {
			continue
		}

		p.Availability[row.SlotKey.String] = append(p.Availability[row.SlotKey.String], int(row.Hour.Int32))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return participants, nil
}

func (r *Repository) DeleteParticipant(sessionID int64, participantID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `DELETE FROM participants WHERE id = $1 AND session_id = $2`
	result, err := tx.ExecContext(ctx, query, participantID, sessionID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := bumpSessionVersion(ctx, tx, sessionID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// LoadParticipants 读取失败时记录日志并返回空列表
func (r *Repository) LoadParticipants(sessionID int64) []*domain.Participant {
	participants, err := r.GetParticipantsBySessionID(sessionID)
	if err != nil {
		slog.Error("读取参与者失败", "session", sessionID, "error", err)
		return []*domain.Participant{}
	}
	return participants
}

// SaveParticipants 用给定列表整体替换会话中的参与者，失败时只记录日志
func (r *Repository) SaveParticipants(sessionID int64, participants []*domain.Participant) {
	if err := r.ReplaceParticipants(sessionID, participants); err != nil {
		slog.Error("保存参与者失败", "session", sessionID, "error", err)
	}
}

// ReplaceParticipants 与 SaveParticipants 相同，但把错误返回给调用方
func (r *Repository) ReplaceParticipants(sessionID int64, participants []*domain.Participant) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var availabilityType domain.AvailabilityType
	query := `SELECT availability_type FROM sessions WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, query, sessionID).Scan(&availabilityType); err != nil {
		return err
	}

	query = `DELETE FROM participants WHERE session_id = $1`
	if _, err := tx.ExecContext(ctx, query, sessionID); err != nil {
		return err
	}

	for i, p := range participants {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.SessionID = sessionID
		p.AvailabilityType = availabilityType
		p.Position = int32(i)
		if err := insertParticipant(ctx, tx, p); err != nil {
			return err
		}
	}

	if err := bumpSessionVersion(ctx, tx, sessionID); err != nil {
		return err
	}

	return tx.Commit()
}

func insertParticipant(ctx context.Context, tx *sql.Tx, p *domain.Participant) error {
	query := `
		INSERT INTO participants (id, session_id, name, role, email, home_timezone, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	args := []any{p.ID, p.SessionID, p.Name, p.Role, p.Email, p.HomeTimezone, p.Position}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&p.CreatedAt); err != nil {
		return err
	}

	for key, hours := range p.Availability {
		for _, hour := range hours {
			query := `
				INSERT INTO participant_hours (participant_id, slot_key, hour)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING
			`
			if _, err := tx.ExecContext(ctx, query, p.ID, key, hour); err != nil {
				return err
			}
		}
	}

	return nil
}

func bumpSessionVersion(ctx context.Context, tx *sql.Tx, sessionID int64) error {
	query := `UPDATE sessions SET version = version + 1 WHERE id = $1`
	_, err := tx.ExecContext(ctx, query, sessionID)
	return err
}
