package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
)

// AccountPool describes which accounts may serve a publish and how to rotate among them.
type AccountPool struct {
	UserID     int64
	AccountIDs []int64
	Rotation   model.AccountRotation
}

func PoolForSchedule(s *model.Schedule) AccountPool {
	return AccountPool{UserID: s.UserID, AccountIDs: s.AccountIDs, Rotation: s.Rotation()}
}

// Reservations holds the accounts the selector must skip.
type Reservations map[int64]struct{}

func (r Reservations) Reserve(id int64) { r[id] = struct{}{} }

func (r Reservations) Has(id int64) bool {
	_, ok := r[id]
	return ok
}

// fallbackOwner claims accounts for the fallback pass; schedule ids are positive.
const fallbackOwner int64 = 0

// tickClaims maps each account dispatched this tick to the pass that dispatched it. A pass may
// reuse its own accounts; other passes must not.
type tickClaims map[int64]int64

func (c tickClaims) claim(accountID, owner int64) { c[accountID] = owner }

func (c tickClaims) heldByOthers(owner int64) Reservations {
	r := Reservations{}
	for id, o := range c {
		if o != owner {
			r.Reserve(id)
		}
	}
	return r
}

type IAccountSelector interface {
	// SelectAccount returns nil when no account in the pool can publish right now.
	SelectAccount(ctx context.Context, pool AccountPool, reserved Reservations) (*model.Account, error)
}

type accountSelector struct {
	accounts   repository.IAccount
	publishers Publishers

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAccountSelector(accounts repository.IAccount, publishers Publishers, rnd *rand.Rand) IAccountSelector {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &accountSelector{accounts: accounts, publishers: publishers, rnd: rnd}
}

func (s *accountSelector) SelectAccount(ctx context.Context, pool AccountPool, reserved Reservations) (*model.Account, error) {
	accounts, err := s.accounts.FindActiveAccounts(ctx, pool.UserID, pool.AccountIDs)
	if err != nil {
		return nil, fmt.Errorf("find active accounts: %w", err)
	}

	eligible := make([]model.Account, 0, len(accounts))
	for _, a := range accounts {
		if !a.IsActive || a.UserID != pool.UserID || reserved.Has(a.ID) {
			continue
		}
		if _, ok := s.publishers.For(a.PlatformOrDefault()); !ok {
			continue
		}
		eligible = append(eligible, a)
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	switch pool.Rotation {
	case model.RotationRandom:
		s.mu.Lock()
		i := s.rnd.Intn(len(eligible))
		s.mu.Unlock()
		return &eligible[i], nil
	case model.RotationPriority:
		if a := firstByPreference(eligible, pool.AccountIDs); a != nil {
			return a, nil
		}
	}
	return leastRecentlyUsed(eligible), nil
}

// firstByPreference returns the eligible account listed earliest in ids.
func firstByPreference(eligible []model.Account, ids []int64) *model.Account {
	for _, id := range ids {
		for i := range eligible {
			if eligible[i].ID == id {
				return &eligible[i]
			}
		}
	}
	return nil
}

// leastRecentlyUsed orders never-used accounts first, then by lastPublishAt, then by id.
func leastRecentlyUsed(eligible []model.Account) *model.Account {
	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i].LastPublishAt, eligible[j].LastPublishAt
		switch {
		case a == nil && b == nil:
			return eligible[i].ID < eligible[j].ID
		case a == nil:
			return true
		case b == nil:
			return false
		case !a.Equal(*b):
			return a.Before(*b)
		default:
			return eligible[i].ID < eligible[j].ID
		}
	})
	return &eligible[0]
}
