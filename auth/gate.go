package auth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/qa-labs/ecom-e2e/accounts"
	"github.com/qa-labs/ecom-e2e/api"
	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/env"
	"github.com/qa-labs/ecom-e2e/storage"
)

// Gate hands each worker lane the path of its session cache entry, creating
// the entry on first use. An existing entry is reused as is, without any
// network access. Lanes use distinct entries, so Acquire needs no locking as
// long as a lane does not call it concurrently with itself.
type Gate struct {
	baseURL  string
	store    *storage.SessionStore
	resolver accounts.Resolver
	login    LoginClient
	mat      *Materializer
	logger   *common.Logger
}

// NewGate wires the cache gate for environment e.
func NewGate(e *env.Environment, store *storage.SessionStore, resolver accounts.Resolver, login LoginClient, logger *common.Logger) *Gate {
	return &Gate{
		baseURL:  e.BaseURL,
		store:    store,
		resolver: resolver,
		login:    login,
		mat:      NewMaterializer(e, logger),
		logger:   logger,
	}
}

// Acquire returns the cache entry path for workerID. On a miss it resolves
// the lane's account, logs in, materializes the session in b and writes the
// entry. Any failure is returned; there is no unauthenticated fallback.
func (g *Gate) Acquire(ctx context.Context, b api.Browser, workerID int) (string, error) {
	if workerID < 0 {
		return "", &common.InvalidWorkerError{WorkerID: workerID}
	}
	log := g.logger.With(common.WithWorkerID(ctx, workerID))

	path := g.store.EntryPath(workerID)
	ok, err := g.store.Exists(workerID)
	if err != nil {
		return "", err
	}
	if ok {
		log.Debugf("Gate:Acquire", "reusing %q", path)
		return path, nil
	}

	account := g.resolver.Resolve(workerID)
	log.Infof("Gate:Acquire", "cache miss, logging in as %s", account)

	creds, err := g.login.Login(ctx, g.baseURL, account)
	if err != nil {
		return "", errors.Wrapf(err, "logging in worker %d", workerID)
	}
	state, err := g.mat.Materialize(ctx, b, creds)
	if err != nil {
		return "", errors.Wrapf(err, "materializing session for worker %d", workerID)
	}
	if path, err = g.store.Save(ctx, workerID, state); err != nil {
		return "", err
	}
	log.Infof("Gate:Acquire", "cached session in %q", path)

	return path, nil
}
