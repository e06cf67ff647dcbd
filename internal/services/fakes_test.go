package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"leave-system/internal/entities"
	"leave-system/internal/repositories"
	"leave-system/pkg/constants"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/types"
)

// passThroughTx выполняет функцию без реальной транзакции.
type passThroughTx struct{}

func (passThroughTx) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// mockNotifier фиксирует адресатов и темы уведомлений.
type mockNotifier struct {
	mock.Mock
}

func newMockNotifier() *mockNotifier {
	n := &mockNotifier{}
	n.On("Notify", mock.Anything, mock.Anything).Return()
	return n
}

func (n *mockNotifier) Notify(ctx context.Context, to, subject, body, link string) {
	n.Called(to, subject)
}

func (n *mockNotifier) recipients() []string {
	result := make([]string, 0, len(n.Calls))
	for _, call := range n.Calls {
		result = append(result, call.Arguments.String(0))
	}
	return result
}

// ---------- users ----------

type fakeUserRepo struct {
	repositories.UserRepositoryInterface
	mu     sync.Mutex
	users  map[uint64]*entities.User
	nextID uint64
}

func newFakeUserRepo(users ...*entities.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint64]*entities.User)}
	for _, u := range users {
		r.users[u.ID] = u
		if u.ID > r.nextID {
			r.nextID = u.ID
		}
	}
	return r
}

func (r *fakeUserRepo) get(id uint64) *entities.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := *r.users[id]
	return &u
}

func (r *fakeUserRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, tx pgx.Tx, email string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) FindByTeamID(ctx context.Context, tx pgx.Tx, teamID uint64) ([]entities.User, error) {
	return r.filter(func(u *entities.User) bool { return u.TeamID != nil && *u.TeamID == teamID }), nil
}

func (r *fakeUserRepo) FindByUnitID(ctx context.Context, tx pgx.Tx, unitID uint64) ([]entities.User, error) {
	return r.filter(func(u *entities.User) bool {
		return u.OrganizationalUnitID != nil && *u.OrganizationalUnitID == unitID
	}), nil
}

func (r *fakeUserRepo) FindReturnDue(ctx context.Context, tx pgx.Tx, now time.Time) ([]entities.User, error) {
	return r.filter(func(u *entities.User) bool { return u.ReturnDate != nil && !u.ReturnDate.After(now) }), nil
}

func (r *fakeUserRepo) Create(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	copied := *user
	copied.ID = r.nextID
	r.users[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, tx pgx.Tx, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return apperrors.ErrNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, tx pgx.Tx, userID uint64, passwordHash string) error {
	return r.mutate(userID, func(u *entities.User) { u.Password = passwordHash })
}

func (r *fakeUserRepo) UpdateLeaveState(ctx context.Context, tx pgx.Tx, userID uint64, onLeave bool, returnDate *time.Time) error {
	return r.mutate(userID, func(u *entities.User) {
		u.OnLeave = onLeave
		u.ReturnDate = returnDate
	})
}

func (r *fakeUserRepo) SetTeam(ctx context.Context, tx pgx.Tx, userID uint64, teamID *uint64) error {
	return r.mutate(userID, func(u *entities.User) { u.TeamID = teamID })
}

func (r *fakeUserRepo) SetUnit(ctx context.Context, tx pgx.Tx, userID uint64, unitID *uint64) error {
	return r.mutate(userID, func(u *entities.User) { u.OrganizationalUnitID = unitID })
}

func (r *fakeUserRepo) MoveTeamMembersToUnit(ctx context.Context, tx pgx.Tx, teamID uint64, unitID uint64) ([]entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	moved := make([]entities.User, 0)
	for _, u := range r.users {
		if u.TeamID != nil && *u.TeamID == teamID {
			id := unitID
			u.OrganizationalUnitID = &id
			moved = append(moved, *u)
		}
	}
	return moved, nil
}

func (r *fakeUserRepo) ResetLeaveDays(ctx context.Context, tx pgx.Tx, days float64) ([]entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		u.LeaveDays = days
	}
	return r.snapshot(), nil
}

func (r *fakeUserRepo) ResetExternalActivities(ctx context.Context, tx pgx.Tx, limit int) ([]entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		u.ExternalActivitiesLimit = limit
	}
	return r.snapshot(), nil
}

func (r *fakeUserRepo) SetTelegramChatID(ctx context.Context, tx pgx.Tx, userID uint64, chatID *int64) error {
	return r.mutate(userID, func(u *entities.User) {
		u.TelegramChatID = sql.NullInt64{}
		if chatID != nil {
			u.TelegramChatID = sql.NullInt64{Int64: *chatID, Valid: true}
		}
	})
}

func (r *fakeUserRepo) FindByTelegramChatID(ctx context.Context, tx pgx.Tx, chatID int64) (*entities.User, error) {
	found := r.filter(func(u *entities.User) bool { return u.TelegramChatID.Valid && u.TelegramChatID.Int64 == chatID })
	if len(found) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &found[0], nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) mutate(id uint64, fn func(u *entities.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	fn(u)
	return nil
}

func (r *fakeUserRepo) filter(keep func(u *entities.User) bool) []entities.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]entities.User, 0)
	for _, u := range r.users {
		if keep(u) {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// snapshot вызывается под r.mu.
func (r *fakeUserRepo) snapshot() []entities.User {
	result := make([]entities.User, 0, len(r.users))
	for _, u := range r.users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// ---------- teams & units ----------

type fakeTeamRepo struct {
	repositories.TeamRepositoryInterface
	teams  map[uint64]*entities.Team
	nextID uint64
}

func newFakeTeamRepo(teams ...*entities.Team) *fakeTeamRepo {
	r := &fakeTeamRepo{teams: make(map[uint64]*entities.Team)}
	for _, t := range teams {
		r.teams[t.ID] = t
		if t.ID > r.nextID {
			r.nextID = t.ID
		}
	}
	return r
}

func (r *fakeTeamRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Team, error) {
	t, ok := r.teams[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTeamRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Team, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *fakeTeamRepo) FindByName(ctx context.Context, tx pgx.Tx, name string) (*entities.Team, error) {
	for _, t := range r.teams {
		if t.Name == name {
			copied := *t
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeTeamRepo) FindByManagerID(ctx context.Context, tx pgx.Tx, managerID uint64) ([]entities.Team, error) {
	result := make([]entities.Team, 0)
	for _, t := range r.teams {
		if t.IsManagedBy(managerID) {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (r *fakeTeamRepo) FindByUnitID(ctx context.Context, tx pgx.Tx, unitID uint64) ([]entities.Team, error) {
	result := make([]entities.Team, 0)
	for _, t := range r.teams {
		if t.OrganizationalUnitID != nil && *t.OrganizationalUnitID == unitID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (r *fakeTeamRepo) Create(ctx context.Context, tx pgx.Tx, team *entities.Team) (uint64, error) {
	r.nextID++
	copied := *team
	copied.ID = r.nextID
	r.teams[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeTeamRepo) SetUnit(ctx context.Context, tx pgx.Tx, teamID uint64, unitID *uint64) error {
	t, ok := r.teams[teamID]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.OrganizationalUnitID = unitID
	return nil
}

func (r *fakeTeamRepo) ClearManager(ctx context.Context, tx pgx.Tx, managerID uint64) error {
	for _, t := range r.teams {
		if t.IsManagedBy(managerID) {
			t.ManagerID = nil
		}
	}
	return nil
}

type fakeUnitRepo struct {
	repositories.OrganizationalUnitRepositoryInterface
	units map[uint64]*entities.OrganizationalUnit
}

func newFakeUnitRepo(units ...*entities.OrganizationalUnit) *fakeUnitRepo {
	r := &fakeUnitRepo{units: make(map[uint64]*entities.OrganizationalUnit)}
	for _, u := range units {
		r.units[u.ID] = u
	}
	return r
}

func (r *fakeUnitRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.OrganizationalUnit, error) {
	u, ok := r.units[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUnitRepo) FindByName(ctx context.Context, tx pgx.Tx, name string) (*entities.OrganizationalUnit, error) {
	for _, u := range r.units {
		if u.Name == name {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUnitRepo) ClearManager(ctx context.Context, tx pgx.Tx, managerID uint64) error {
	for _, u := range r.units {
		if u.ManagerID != nil && *u.ManagerID == managerID {
			u.ManagerID = nil
		}
	}
	return nil
}

// ---------- employee leaves ----------

type fakeLeaveRepo struct {
	repositories.EmployeeLeaveRepositoryInterface
	leaves map[uint64]*entities.EmployeeLeave
	nextID uint64
	// users нужен для выборки по команде владельца.
	users *fakeUserRepo
}

func newFakeLeaveRepo(leaves ...*entities.EmployeeLeave) *fakeLeaveRepo {
	r := &fakeLeaveRepo{leaves: make(map[uint64]*entities.EmployeeLeave)}
	for _, l := range leaves {
		r.leaves[l.ID] = l
		if l.ID > r.nextID {
			r.nextID = l.ID
		}
	}
	return r
}

func (r *fakeLeaveRepo) GetAll(ctx context.Context, filter types.Filter) ([]entities.EmployeeLeave, uint64, error) {
	result := r.list(func(*entities.EmployeeLeave) bool { return true })
	return result, uint64(len(result)), nil
}

func (r *fakeLeaveRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.EmployeeLeave, error) {
	l, ok := r.leaves[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (r *fakeLeaveRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.EmployeeLeave, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *fakeLeaveRepo) ListByUserID(ctx context.Context, userID uint64) ([]entities.EmployeeLeave, error) {
	return r.list(func(l *entities.EmployeeLeave) bool { return l.UserID == userID }), nil
}

func (r *fakeLeaveRepo) ListByTeamID(ctx context.Context, teamID uint64) ([]entities.EmployeeLeave, error) {
	return r.list(func(l *entities.EmployeeLeave) bool {
		owner, ok := r.users.users[l.UserID]
		return ok && owner.TeamID != nil && *owner.TeamID == teamID
	}), nil
}

func (r *fakeLeaveRepo) ListAccepted(ctx context.Context, tx pgx.Tx) ([]entities.EmployeeLeave, error) {
	return r.list(func(l *entities.EmployeeLeave) bool { return l.Status == constants.StatusAccepted }), nil
}

func (r *fakeLeaveRepo) Create(ctx context.Context, tx pgx.Tx, leave *entities.EmployeeLeave) (uint64, error) {
	r.nextID++
	copied := *leave
	copied.ID = r.nextID
	r.leaves[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeLeaveRepo) Update(ctx context.Context, tx pgx.Tx, leave *entities.EmployeeLeave) error {
	if _, ok := r.leaves[leave.ID]; !ok {
		return apperrors.ErrNotFound
	}
	copied := *leave
	r.leaves[leave.ID] = &copied
	return nil
}

func (r *fakeLeaveRepo) SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status constants.Status) error {
	l, ok := r.leaves[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	l.Status = status
	return nil
}

func (r *fakeLeaveRepo) DeleteOtherPending(ctx context.Context, tx pgx.Tx, userID, exceptID uint64) (int64, error) {
	var removed int64
	for id, l := range r.leaves {
		if l.UserID == userID && id != exceptID && l.Status == constants.StatusPending {
			delete(r.leaves, id)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeLeaveRepo) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	if _, ok := r.leaves[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.leaves, id)
	return nil
}

func (r *fakeLeaveRepo) list(keep func(l *entities.EmployeeLeave) bool) []entities.EmployeeLeave {
	result := make([]entities.EmployeeLeave, 0)
	for _, l := range r.leaves {
		if keep(l) {
			result = append(result, *l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// ---------- external authorizations ----------

type fakeExternalAuthRepo struct {
	repositories.ExternalAuthorizationRepositoryInterface
	auths  map[uint64]*entities.ExternalAuthorization
	nextID uint64
}

func newFakeExternalAuthRepo(auths ...*entities.ExternalAuthorization) *fakeExternalAuthRepo {
	r := &fakeExternalAuthRepo{auths: make(map[uint64]*entities.ExternalAuthorization)}
	for _, a := range auths {
		r.auths[a.ID] = a
		if a.ID > r.nextID {
			r.nextID = a.ID
		}
	}
	return r
}

func (r *fakeExternalAuthRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ExternalAuthorization, error) {
	a, ok := r.auths[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeExternalAuthRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ExternalAuthorization, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *fakeExternalAuthRepo) Create(ctx context.Context, tx pgx.Tx, auth *entities.ExternalAuthorization) (uint64, error) {
	r.nextID++
	copied := *auth
	copied.ID = r.nextID
	r.auths[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeExternalAuthRepo) SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status constants.Status) error {
	a, ok := r.auths[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.Status = status
	return nil
}

func (r *fakeExternalAuthRepo) DeleteOtherPending(ctx context.Context, tx pgx.Tx, userID, exceptID uint64) (int64, error) {
	var removed int64
	for id, a := range r.auths {
		if a.UserID == userID && id != exceptID && a.Status == constants.StatusPending {
			delete(r.auths, id)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeExternalAuthRepo) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	if _, ok := r.auths[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.auths, id)
	return nil
}

// ---------- cache ----------

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
	counts map[string]int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string), counts: make(map[string]int64)}
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = fmt.Sprint(value)
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
		delete(c.counts, k)
	}
	return nil
}

func (c *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key], nil
}

func (c *fakeCache) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	return true, nil
}

func (c *fakeCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = fmt.Sprint(value)
	return true, nil
}

func (c *fakeCache) DelIfValue(ctx context.Context, key string, value string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values[key] != value {
		return false, nil
	}
	delete(c.values, key)
	return true, nil
}
