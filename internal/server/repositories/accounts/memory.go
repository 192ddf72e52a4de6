package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/kontur-authorization/internal/common"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/models"
)

// MemoryRepository keeps accounts in process memory. It is safe for
// concurrent use and loses everything on restart.
type MemoryRepository struct {
	mu        sync.RWMutex
	accounts  map[int64]models.Account
	byRefresh map[string]int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts:  make(map[int64]models.Account),
		byRefresh: make(map[string]int64),
	}
}

func (r *MemoryRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &account, nil
}

func (r *MemoryRepository) Create(ctx context.Context, id int64) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[id]; ok {
		return nil, common.ErrAlreadyExists
	}
	now := time.Now()
	account := models.Account{ID: id, CreatedAt: now, UpdatedAt: now}
	r.accounts[id] = account
	return &account, nil
}

func (r *MemoryRepository) FindByRefreshToken(ctx context.Context, token string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byRefresh[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	account := r.accounts[id]
	return &account, nil
}

func (r *MemoryRepository) SetRefreshToken(ctx context.Context, id int64, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	if account.RefreshToken != "" {
		delete(r.byRefresh, account.RefreshToken)
	}
	account.RefreshToken = token
	account.UpdatedAt = time.Now()
	r.accounts[id] = account
	r.byRefresh[token] = id
	return nil
}
