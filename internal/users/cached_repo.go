package users

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	cacheSize   = 4 * 1024 * 1024
	cacheExpire = 60 * 60 // seconds
)

type userByIDGetter interface {
	GetByID(ctx context.Context, id int) (*User, error)
}

// CachedRepo serves user lookups by id from an in-process cache.
// Users never change after registration, so entries are only ever added.
type CachedRepo struct {
	repo  userByIDGetter
	cache *freecache.Cache
}

func NewCachedRepo(repo userByIDGetter) *CachedRepo {
	return &CachedRepo{
		repo:  repo,
		cache: freecache.NewCache(cacheSize),
	}
}

func (cr *CachedRepo) GetByID(ctx context.Context, id int) (*User, error) {
	key := []byte(strconv.Itoa(id))
	if userBytes, err := cr.cache.Get(key); err == nil {
		var user User
		unmarshalErr := json.Unmarshal(userBytes, &user)
		if unmarshalErr == nil {
			return &user, nil
		}
		log.Errorf("users cache: unmarshal user %d: %s", id, unmarshalErr)
	}

	user, err := cr.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	userBytes, err := json.Marshal(user)
	if err != nil {
		log.Errorf("users cache: marshal user %d: %s", id, err)
		return user, nil
	}
	if err := cr.cache.Set(key, userBytes, cacheExpire); err != nil {
		log.Errorf("users cache: set user %d: %s", id, err)
	}

	return user, nil
}
