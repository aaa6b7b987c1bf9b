package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/rift-arena/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	// Результат уже зафиксирован: повторная верификация невозможна.
	ErrMatchAlreadyVerified  = errors.New("match already verified")
	ErrMatchReferenceInvalid = errors.New("match tournament or registration conflict or invalid")
	ErrMatchWinnerNotInMatch = errors.New("winner registration does not belong to the match")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	// GetByID подгружает обе заявки вместе с пользователями — ровно те join'ы,
	// которые нужны верификации результата.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Match, error)
	// SetResult записывает riot_match_id и победителя и поднимает verified,
	// только если матч ещё не был верифицирован.
	SetResult(ctx context.Context, exec SQLExecutor, id uuid.UUID, riotMatchID string, winnerRegistrationID uuid.UUID) error
	SetProofKey(ctx context.Context, id uuid.UUID, proofKey string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, round, player1_registration_id, player2_registration_id,
			 winner_registration_id, riot_match_id, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		match.TournamentID,
		match.Round,
		match.Player1RegistrationID,
		match.Player2RegistrationID,
		match.WinnerRegistrationID,
		match.RiotMatchID,
		match.Verified,
	).Scan(&match.ID, &match.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrMatchReferenceInvalid
		}
		return err
	}
	return nil
}

const matchSelect = `
	SELECT m.id, m.tournament_id, m.round,
	       m.player1_registration_id, m.player2_registration_id, m.winner_registration_id,
	       m.riot_match_id, m.proof_key, m.verified, m.created_at,
	       r1.id, r1.tournament_id, r1.user_id, r1.champion, r1.created_at,
	       u1.id, u1.email, u1.display_name, u1.sp_points, u1.role, u1.riot_summoner_name, u1.is_verified, u1.created_at,
	       r2.id, r2.tournament_id, r2.user_id, r2.champion, r2.created_at,
	       u2.id, u2.email, u2.display_name, u2.sp_points, u2.role, u2.riot_summoner_name, u2.is_verified, u2.created_at
	FROM matches m
	LEFT JOIN registrations r1 ON r1.id = m.player1_registration_id
	LEFT JOIN users u1 ON u1.id = r1.user_id
	LEFT JOIN registrations r2 ON r2.id = m.player2_registration_id
	LEFT JOIN users u2 ON u2.id = r2.user_id`

func (r *postgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	row := r.db.QueryRowContext(ctx, matchSelect+` WHERE m.id = $1`, id)
	match, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %s: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Match, error) {
	rows, err := r.db.QueryContext(ctx, matchSelect+` WHERE m.tournament_id = $1 ORDER BY m.round ASC, m.created_at ASC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, *match)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) SetResult(ctx context.Context, exec SQLExecutor, id uuid.UUID, riotMatchID string, winnerRegistrationID uuid.UUID) error {
	// Условие verified = FALSE делает фиксацию результата одноразовой даже при
	// конкурентных сабмитах: выигрывает ровно одна транзакция.
	query := `
		UPDATE matches
		SET riot_match_id = $1, winner_registration_id = $2, verified = TRUE
		WHERE id = $3
		  AND verified = FALSE
		  AND $2 IN (player1_registration_id, player2_registration_id)`

	result, err := exec.ExecContext(ctx, query, riotMatchID, winnerRegistrationID, id)
	if err != nil {
		return fmt.Errorf("failed to set result for match %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		var verified bool
		scanErr := exec.QueryRowContext(ctx, `SELECT verified FROM matches WHERE id = $1`, id).Scan(&verified)
		if errors.Is(scanErr, sql.ErrNoRows) {
			return ErrMatchNotFound
		}
		if scanErr != nil {
			return scanErr
		}
		if verified {
			return ErrMatchAlreadyVerified
		}
		return ErrMatchWinnerNotInMatch
	}
	return nil
}

func (r *postgresMatchRepository) SetProofKey(ctx context.Context, id uuid.UUID, proofKey string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET proof_key = $1 WHERE id = $2`, proofKey, id)
	if err != nil {
		return fmt.Errorf("failed to set proof key for match %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match

	var r1ID, r1TournamentID, r1UserID, u1ID uuid.NullUUID
	var r1Champion, u1Email, u1DisplayName sql.NullString
	var r1CreatedAt, u1CreatedAt sql.NullTime
	var u1SPPoints sql.NullInt64
	var u1Role, u1Summoner sql.NullString
	var u1Verified sql.NullBool

	var r2ID, r2TournamentID, r2UserID, u2ID uuid.NullUUID
	var r2Champion, u2Email, u2DisplayName sql.NullString
	var r2CreatedAt, u2CreatedAt sql.NullTime
	var u2SPPoints sql.NullInt64
	var u2Role, u2Summoner sql.NullString
	var u2Verified sql.NullBool

	err := row.Scan(
		&m.ID, &m.TournamentID, &m.Round,
		&m.Player1RegistrationID, &m.Player2RegistrationID, &m.WinnerRegistrationID,
		&m.RiotMatchID, &m.ProofKey, &m.Verified, &m.CreatedAt,
		&r1ID, &r1TournamentID, &r1UserID, &r1Champion, &r1CreatedAt,
		&u1ID, &u1Email, &u1DisplayName, &u1SPPoints, &u1Role, &u1Summoner, &u1Verified, &u1CreatedAt,
		&r2ID, &r2TournamentID, &r2UserID, &r2Champion, &r2CreatedAt,
		&u2ID, &u2Email, &u2DisplayName, &u2SPPoints, &u2Role, &u2Summoner, &u2Verified, &u2CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if r1ID.Valid {
		m.Player1 = assembleRegistration(r1ID, r1TournamentID, r1UserID, r1Champion, r1CreatedAt,
			u1ID, u1Email, u1DisplayName, u1SPPoints, u1Role, u1Summoner, u1Verified, u1CreatedAt)
	}
	if r2ID.Valid {
		m.Player2 = assembleRegistration(r2ID, r2TournamentID, r2UserID, r2Champion, r2CreatedAt,
			u2ID, u2Email, u2DisplayName, u2SPPoints, u2Role, u2Summoner, u2Verified, u2CreatedAt)
	}
	if m.WinnerRegistrationID != nil {
		if m.Player1 != nil && m.Player1.ID == *m.WinnerRegistrationID {
			m.Winner = m.Player1
		} else if m.Player2 != nil && m.Player2.ID == *m.WinnerRegistrationID {
			m.Winner = m.Player2
		}
	}
	return &m, nil
}

func assembleRegistration(
	id, tournamentID, userID uuid.NullUUID,
	champion sql.NullString, createdAt sql.NullTime,
	uID uuid.NullUUID, email, displayName sql.NullString, spPoints sql.NullInt64,
	role, summoner sql.NullString, verified sql.NullBool, userCreatedAt sql.NullTime,
) *models.Registration {
	reg := &models.Registration{
		ID:           id.UUID,
		TournamentID: tournamentID.UUID,
		UserID:       userID.UUID,
		Champion:     champion.String,
		CreatedAt:    createdAt.Time,
	}
	if uID.Valid {
		var summonerName *string
		if summoner.Valid {
			s := summoner.String
			summonerName = &s
		}
		reg.User = &models.User{
			ID:               uID.UUID,
			Email:            email.String,
			DisplayName:      displayName.String,
			SPPoints:         int(spPoints.Int64),
			Role:             models.UserRole(role.String),
			RiotSummonerName: summonerName,
			IsVerified:       verified.Bool,
			CreatedAt:        userCreatedAt.Time,
		}
	}
	return reg
}
