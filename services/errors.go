package services

import "errors"

// Общие ошибки бизнес-слоя, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурсы
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrGameNotFound       = errors.New("game not found")
	ErrItemNotFound       = errors.New("store item not found")
	ErrRedemptionNotFound = errors.New("redemption not found")

	// Леджер
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
	ErrInsufficientFunds = errors.New("insufficient sp points")

	// Авторизация
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")

	// Турниры и сетка
	ErrRegistrationClosed     = errors.New("tournament registration is closed")
	ErrRegistrationConflict   = errors.New("user is already registered for this tournament")
	ErrTournamentFull         = errors.New("tournament registration is full")
	ErrInsufficientPlayers    = errors.New("not enough players to generate bracket")
	ErrInvalidPairingResponse = errors.New("pairer returned a structurally invalid bracket")
	ErrInvalidLane            = errors.New("invalid tournament lane")

	// Матчи
	ErrMatchAlreadyVerified = errors.New("match already verified")
	// Оракул дал отрицательный вердикт — это бизнес-исход, а не сбой.
	ErrVerificationFailed = errors.New("match verification failed")

	// Кастомные игры
	ErrGameNotOpen          = errors.New("game is not open")
	ErrGameAlreadyCompleted = errors.New("game already completed")
	ErrAlreadyJoined        = errors.New("already joined this game")
	ErrTeamFull             = errors.New("team is full")
	ErrInvalidTeam          = errors.New("invalid team")
	ErrInvalidGameType      = errors.New("invalid game type")
	ErrNoWinners            = errors.New("winning team has no players")

	// Внешние сервисы (пейрер, оракул, хранилище) — единственный класс,
	// который вызывающему имеет смысл повторить.
	ErrExternalService = errors.New("external service failure")

	// Валидация
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidRole      = errors.New("invalid role")
)
