package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/Dosada05/rift-arena/models"
	"github.com/Dosada05/rift-arena/pairing"
	"github.com/Dosada05/rift-arena/repositories"
	"github.com/Dosada05/rift-arena/riot"
	"github.com/Dosada05/rift-arena/storage"
	"github.com/google/uuid"
)

// memStore — общее in-memory состояние фейковых репозиториев. Транзакционная
// семантика воспроизводится снапшотом: memTxManager копирует состояние перед
// fn и восстанавливает его при ошибке.
type memStore struct {
	mu sync.Mutex

	users         map[uuid.UUID]*models.User
	transactions  []models.Transaction
	tournaments   map[uuid.UUID]*models.Tournament
	registrations map[uuid.UUID]*models.Registration
	regOrder      []uuid.UUID
	matches       map[uuid.UUID]*models.Match
	matchOrder    []uuid.UUID
	games         map[uuid.UUID]*models.CustomGame
	players       map[uuid.UUID][]models.GamePlayer
	items         map[uuid.UUID]*models.StoreItem
	redemptions   map[uuid.UUID]*models.Redemption
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[uuid.UUID]*models.User),
		tournaments:   make(map[uuid.UUID]*models.Tournament),
		registrations: make(map[uuid.UUID]*models.Registration),
		matches:       make(map[uuid.UUID]*models.Match),
		games:         make(map[uuid.UUID]*models.CustomGame),
		players:       make(map[uuid.UUID][]models.GamePlayer),
		items:         make(map[uuid.UUID]*models.StoreItem),
		redemptions:   make(map[uuid.UUID]*models.Redemption),
	}
}

func (s *memStore) snapshot() *memStore {
	clone := newMemStore()
	for id, u := range s.users {
		cp := *u
		clone.users[id] = &cp
	}
	clone.transactions = append([]models.Transaction(nil), s.transactions...)
	for id, t := range s.tournaments {
		cp := *t
		clone.tournaments[id] = &cp
	}
	for id, r := range s.registrations {
		cp := *r
		clone.registrations[id] = &cp
	}
	clone.regOrder = append([]uuid.UUID(nil), s.regOrder...)
	for id, m := range s.matches {
		cp := *m
		clone.matches[id] = &cp
	}
	clone.matchOrder = append([]uuid.UUID(nil), s.matchOrder...)
	for id, g := range s.games {
		cp := *g
		clone.games[id] = &cp
	}
	for id, ps := range s.players {
		clone.players[id] = append([]models.GamePlayer(nil), ps...)
	}
	for id, it := range s.items {
		cp := *it
		clone.items[id] = &cp
	}
	for id, r := range s.redemptions {
		cp := *r
		clone.redemptions[id] = &cp
	}
	return clone
}

func (s *memStore) restore(from *memStore) {
	s.users = from.users
	s.transactions = from.transactions
	s.tournaments = from.tournaments
	s.registrations = from.registrations
	s.regOrder = from.regOrder
	s.matches = from.matches
	s.matchOrder = from.matchOrder
	s.games = from.games
	s.players = from.players
	s.items = from.items
	s.redemptions = from.redemptions
}

type memTxManager struct {
	store *memStore
}

func (m *memTxManager) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	snap := m.store.snapshot()
	if err := fn(nil); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// --- UserRepository ---

type memUserRepo struct {
	store *memStore
}

func (r *memUserRepo) Create(_ context.Context, _ repositories.SQLExecutor, user *models.User) error {
	for _, existing := range r.store.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = uuid.New()
	cp := *user
	r.store.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *memUserRepo) GetByIDForUpdate(ctx context.Context, _ repositories.SQLExecutor, id uuid.UUID) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.store.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *memUserRepo) List(_ context.Context) ([]models.User, error) {
	users := make([]models.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		users = append(users, *user)
	}
	return users, nil
}

func (r *memUserRepo) Count(_ context.Context) (int, error) {
	return len(r.store.users), nil
}

func (r *memUserRepo) TotalSPPoints(_ context.Context) (int, error) {
	total := 0
	for _, user := range r.store.users {
		total += user.SPPoints
	}
	return total, nil
}

func (r *memUserRepo) UpdateProfile(_ context.Context, user *models.User) error {
	existing, ok := r.store.users[user.ID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	existing.DisplayName = user.DisplayName
	existing.Role = user.Role
	existing.RiotSummonerName = user.RiotSummonerName
	existing.IsVerified = user.IsVerified
	return nil
}

func (r *memUserRepo) AdjustSPPoints(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID, delta int) error {
	user, ok := r.store.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	if user.SPPoints+delta < 0 {
		return repositories.ErrUserInsufficientFunds
	}
	user.SPPoints += delta
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.store.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.store.users, id)
	return nil
}

// --- TransactionRepository ---

type memTransactionRepo struct {
	store *memStore
}

func (r *memTransactionRepo) Create(_ context.Context, _ repositories.SQLExecutor, transaction *models.Transaction) error {
	transaction.ID = uuid.New()
	r.store.transactions = append(r.store.transactions, *transaction)
	return nil
}

func (r *memTransactionRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	out := make([]models.Transaction, 0)
	for _, t := range r.store.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memTransactionRepo) SumByUser(_ context.Context, userID uuid.UUID) (int, error) {
	sum := 0
	for _, t := range r.store.transactions {
		if t.UserID == userID {
			sum += t.Amount
		}
	}
	return sum, nil
}

// --- TournamentRepository ---

type memTournamentRepo struct {
	store *memStore
}

func (r *memTournamentRepo) Create(_ context.Context, tournament *models.Tournament) error {
	tournament.ID = uuid.New()
	cp := *tournament
	r.store.tournaments[tournament.ID] = &cp
	return nil
}

func (r *memTournamentRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Tournament, error) {
	t, ok := r.store.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTournamentRepo) GetByIDForUpdate(ctx context.Context, _ repositories.SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r *memTournamentRepo) List(_ context.Context) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0, len(r.store.tournaments))
	for _, t := range r.store.tournaments {
		out = append(out, *t)
	}
	return out, nil
}

func (r *memTournamentRepo) CloseRegistration(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID) error {
	t, ok := r.store.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if !t.RegistrationOpen {
		return repositories.ErrTournamentRegistrationClosed
	}
	t.RegistrationOpen = false
	return nil
}

// --- RegistrationRepository ---

type memRegistrationRepo struct {
	store *memStore
}

func (r *memRegistrationRepo) Create(_ context.Context, _ repositories.SQLExecutor, registration *models.Registration) error {
	for _, existing := range r.store.registrations {
		if existing.TournamentID == registration.TournamentID && existing.UserID == registration.UserID {
			return repositories.ErrRegistrationConflict
		}
	}
	registration.ID = uuid.New()
	cp := *registration
	r.store.registrations[registration.ID] = &cp
	r.store.regOrder = append(r.store.regOrder, registration.ID)
	return nil
}

func (r *memRegistrationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	reg, ok := r.store.registrations[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	return r.withUser(reg), nil
}

func (r *memRegistrationRepo) ListByTournament(_ context.Context, tournamentID uuid.UUID) ([]models.Registration, error) {
	out := make([]models.Registration, 0)
	for _, id := range r.store.regOrder {
		reg := r.store.registrations[id]
		if reg != nil && reg.TournamentID == tournamentID {
			out = append(out, *r.withUser(reg))
		}
	}
	return out, nil
}

func (r *memRegistrationRepo) CountByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID uuid.UUID) (int, error) {
	count := 0
	for _, reg := range r.store.registrations {
		if reg.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

func (r *memRegistrationRepo) withUser(reg *models.Registration) *models.Registration {
	cp := *reg
	if user, ok := r.store.users[reg.UserID]; ok {
		u := *user
		cp.User = &u
	}
	return &cp
}

// --- MatchRepository ---

type memMatchRepo struct {
	store *memStore
}

func (r *memMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	match.ID = uuid.New()
	cp := *match
	r.store.matches[match.ID] = &cp
	r.store.matchOrder = append(r.store.matchOrder, match.ID)
	return nil
}

func (r *memMatchRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Match, error) {
	match, ok := r.store.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return r.assemble(match), nil
}

func (r *memMatchRepo) ListByTournament(_ context.Context, tournamentID uuid.UUID) ([]models.Match, error) {
	out := make([]models.Match, 0)
	for _, id := range r.store.matchOrder {
		match := r.store.matches[id]
		if match != nil && match.TournamentID == tournamentID {
			out = append(out, *r.assemble(match))
		}
	}
	return out, nil
}

func (r *memMatchRepo) SetResult(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID, riotMatchID string, winnerRegistrationID uuid.UUID) error {
	match, ok := r.store.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if match.Verified {
		return repositories.ErrMatchAlreadyVerified
	}
	inMatch := (match.Player1RegistrationID != nil && *match.Player1RegistrationID == winnerRegistrationID) ||
		(match.Player2RegistrationID != nil && *match.Player2RegistrationID == winnerRegistrationID)
	if !inMatch {
		return repositories.ErrMatchWinnerNotInMatch
	}
	match.RiotMatchID = &riotMatchID
	match.WinnerRegistrationID = &winnerRegistrationID
	match.Verified = true
	return nil
}

func (r *memMatchRepo) SetProofKey(_ context.Context, id uuid.UUID, proofKey string) error {
	match, ok := r.store.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.ProofKey = &proofKey
	return nil
}

func (r *memMatchRepo) assemble(match *models.Match) *models.Match {
	cp := *match
	regRepo := &memRegistrationRepo{store: r.store}
	if cp.Player1RegistrationID != nil {
		if reg, ok := r.store.registrations[*cp.Player1RegistrationID]; ok {
			cp.Player1 = regRepo.withUser(reg)
		}
	}
	if cp.Player2RegistrationID != nil {
		if reg, ok := r.store.registrations[*cp.Player2RegistrationID]; ok {
			cp.Player2 = regRepo.withUser(reg)
		}
	}
	if cp.WinnerRegistrationID != nil {
		if cp.Player1 != nil && cp.Player1.ID == *cp.WinnerRegistrationID {
			cp.Winner = cp.Player1
		} else if cp.Player2 != nil && cp.Player2.ID == *cp.WinnerRegistrationID {
			cp.Winner = cp.Player2
		}
	}
	return &cp
}

// --- GameRepository ---

type memGameRepo struct {
	store *memStore
}

func (r *memGameRepo) Create(_ context.Context, game *models.CustomGame) error {
	game.ID = uuid.New()
	cp := *game
	r.store.games[game.ID] = &cp
	return nil
}

func (r *memGameRepo) GetByID(_ context.Context, id uuid.UUID) (*models.CustomGame, error) {
	game, ok := r.store.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	cp := *game
	return &cp, nil
}

func (r *memGameRepo) GetByIDForUpdate(ctx context.Context, _ repositories.SQLExecutor, id uuid.UUID) (*models.CustomGame, error) {
	return r.GetByID(ctx, id)
}

func (r *memGameRepo) List(_ context.Context, status *models.GameStatus) ([]models.CustomGame, error) {
	out := make([]models.CustomGame, 0)
	for _, game := range r.store.games {
		if status == nil || game.Status == *status {
			out = append(out, *game)
		}
	}
	return out, nil
}

func (r *memGameRepo) Count(_ context.Context) (int, error) {
	return len(r.store.games), nil
}

func (r *memGameRepo) AddPlayer(_ context.Context, _ repositories.SQLExecutor, player *models.GamePlayer) error {
	for _, p := range r.store.players[player.GameID] {
		if p.UserID == player.UserID {
			return repositories.ErrGamePlayerConflict
		}
	}
	player.ID = uuid.New()
	r.store.players[player.GameID] = append(r.store.players[player.GameID], *player)
	return nil
}

func (r *memGameRepo) ListPlayers(_ context.Context, _ repositories.SQLExecutor, gameID uuid.UUID) ([]models.GamePlayer, error) {
	return append([]models.GamePlayer(nil), r.store.players[gameID]...), nil
}

func (r *memGameRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID, status models.GameStatus) error {
	game, ok := r.store.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	game.Status = status
	return nil
}

func (r *memGameRepo) Complete(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID, winnerTeam int) error {
	game, ok := r.store.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	if game.Status == models.GameStatusCompleted {
		return repositories.ErrGameAlreadyCompleted
	}
	game.Status = models.GameStatusCompleted
	game.WinnerTeam = &winnerTeam
	return nil
}

func (r *memGameRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID) error {
	if _, ok := r.store.games[id]; !ok {
		return repositories.ErrGameNotFound
	}
	delete(r.store.games, id)
	return nil
}

func (r *memGameRepo) DeletePlayersByGame(_ context.Context, _ repositories.SQLExecutor, gameID uuid.UUID) error {
	delete(r.store.players, gameID)
	return nil
}

// --- StoreRepository ---

type memStoreRepo struct {
	store *memStore
}

func (r *memStoreRepo) CreateItem(_ context.Context, item *models.StoreItem) error {
	item.ID = uuid.New()
	cp := *item
	r.store.items[item.ID] = &cp
	return nil
}

func (r *memStoreRepo) GetItemByID(_ context.Context, id uuid.UUID) (*models.StoreItem, error) {
	item, ok := r.store.items[id]
	if !ok {
		return nil, repositories.ErrStoreItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *memStoreRepo) ListItems(_ context.Context) ([]models.StoreItem, error) {
	out := make([]models.StoreItem, 0, len(r.store.items))
	for _, item := range r.store.items {
		out = append(out, *item)
	}
	return out, nil
}

func (r *memStoreRepo) CountItems(_ context.Context) (int, error) {
	return len(r.store.items), nil
}

func (r *memStoreRepo) CreateRedemption(_ context.Context, _ repositories.SQLExecutor, redemption *models.Redemption) error {
	redemption.ID = uuid.New()
	cp := *redemption
	r.store.redemptions[redemption.ID] = &cp
	return nil
}

func (r *memStoreRepo) ListRedemptions(_ context.Context, pendingOnly bool) ([]models.Redemption, error) {
	out := make([]models.Redemption, 0)
	for _, red := range r.store.redemptions {
		if pendingOnly && red.Fulfilled {
			continue
		}
		out = append(out, *red)
	}
	return out, nil
}

func (r *memStoreRepo) CountPendingRedemptions(_ context.Context) (int, error) {
	count := 0
	for _, red := range r.store.redemptions {
		if !red.Fulfilled {
			count++
		}
	}
	return count, nil
}

func (r *memStoreRepo) MarkEmailSent(_ context.Context, id uuid.UUID) error {
	red, ok := r.store.redemptions[id]
	if !ok {
		return repositories.ErrRedemptionNotFound
	}
	red.EmailSent = true
	return nil
}

func (r *memStoreRepo) MarkFulfilled(_ context.Context, id uuid.UUID) error {
	red, ok := r.store.redemptions[id]
	if !ok {
		return repositories.ErrRedemptionNotFound
	}
	red.Fulfilled = true
	return nil
}

// --- Коллабораторы ---

// stubPairer возвращает заранее заданный результат или ошибку.
type stubPairer struct {
	result *pairing.Result
	err    error
}

func (p *stubPairer) Pair(context.Context, []pairing.Player) (*pairing.Result, error) {
	return p.result, p.err
}

func (p *stubPairer) GetName() string { return "stub" }

// stubOracle управляет исходом верификации из теста.
type stubOracle struct {
	verified  bool
	winner    riot.Winner
	verifyErr error
	decideErr error
}

func (o *stubOracle) Verify(context.Context, string, string) (bool, error) {
	return o.verified, o.verifyErr
}

func (o *stubOracle) DecideWinner(context.Context, string, string, string) (riot.Winner, error) {
	return o.winner, o.decideErr
}

type recordingNotifier struct {
	sent []string
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, to, _, _ string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, to)
	return nil
}

type recordingBroadcaster struct {
	events []string
}

func (b *recordingBroadcaster) BroadcastToRoom(_ string, eventType string, _ interface{}) {
	b.events = append(b.events, eventType)
}

type stubUploader struct {
	uploaded []string
	err      error
}

func (u *stubUploader) Upload(_ context.Context, key string, _ string, _ io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.uploaded = append(u.uploaded, key)
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *stubUploader) Delete(context.Context, string) error { return nil }

func (u *stubUploader) GetPublicURL(key string) string { return "https://cdn.test/" + key }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// env собирает полный набор фейков для сервисных тестов.
type env struct {
	store            *memStore
	txManager        *memTxManager
	userRepo         *memUserRepo
	transactionRepo  *memTransactionRepo
	tournamentRepo   *memTournamentRepo
	registrationRepo *memRegistrationRepo
	matchRepo        *memMatchRepo
	gameRepo         *memGameRepo
	storeRepo        *memStoreRepo
	ledger           Ledger
	broadcaster      *recordingBroadcaster
	notifier         *recordingNotifier
}

func newEnv() *env {
	store := newMemStore()
	userRepo := &memUserRepo{store: store}
	transactionRepo := &memTransactionRepo{store: store}
	return &env{
		store:            store,
		txManager:        &memTxManager{store: store},
		userRepo:         userRepo,
		transactionRepo:  transactionRepo,
		tournamentRepo:   &memTournamentRepo{store: store},
		registrationRepo: &memRegistrationRepo{store: store},
		matchRepo:        &memMatchRepo{store: store},
		gameRepo:         &memGameRepo{store: store},
		storeRepo:        &memStoreRepo{store: store},
		ledger:           NewLedgerService(userRepo, transactionRepo),
		broadcaster:      &recordingBroadcaster{},
		notifier:         &recordingNotifier{},
	}
}

func (e *env) addUser(balance int, role models.UserRole) *models.User {
	user := &models.User{
		ID:          uuid.New(),
		Email:       uuid.NewString() + "@example.com",
		DisplayName: "player-" + uuid.NewString()[:8],
		SPPoints:    balance,
		Role:        role,
	}
	e.store.users[user.ID] = user
	// Стартовый баланс отражается в журнале, чтобы инвариант сходился.
	if balance != 0 {
		e.store.transactions = append(e.store.transactions, models.Transaction{
			ID:     uuid.New(),
			UserID: user.ID,
			Amount: balance,
			Type:   models.TransactionDeposit,
		})
	}
	return user
}

// ledgerBalanced проверяет инвариант: сумма журнала == балансу пользователя.
func (e *env) ledgerBalanced(userID uuid.UUID) bool {
	sum := 0
	for _, t := range e.store.transactions {
		if t.UserID == userID {
			sum += t.Amount
		}
	}
	user, ok := e.store.users[userID]
	if !ok {
		return false
	}
	return sum == user.SPPoints
}
