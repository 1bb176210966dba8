package cli

import (
	"bufio"
	"context"
	"os"
	"path/filepath"

	"github.com/dcitarelli/workflow/internal/auth"
	"github.com/dcitarelli/workflow/internal/client/config"
	"github.com/dcitarelli/workflow/internal/filex"
	"github.com/dcitarelli/workflow/internal/logging"
	"github.com/dcitarelli/workflow/internal/securecache"
	"github.com/dcitarelli/workflow/internal/vault"
)

// App is the interactive client: it owns the document service, the
// password record, and the secure scratch cache, plus the password of the
// current unlocked session.
type App struct {
	config   *config.Config
	service  *vault.Service
	cache    *securecache.Cache
	log      logging.Logger
	reader   *bufio.Reader
	password string
}

// NewApp prepares the storage root and wires the service stack.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	root, err := filex.EnsureDir(c.StorageDir)
	if err != nil {
		return nil, err
	}

	store := vault.NewStore(root, log)
	authMgr := auth.NewManager(root)
	service := vault.NewService(store, authMgr, log)

	cache, err := securecache.Open(ctx, filepath.Join(root, "cache.db"))
	if err != nil {
		return nil, err
	}

	return &App{
		config:  c,
		service: service,
		cache:   cache,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the REPL and releases resources when it returns.
func (a *App) Run(ctx context.Context) {
	defer a.cache.Close()
	if _, err := a.cache.PurgeExpired(ctx); err != nil {
		a.log.Warn(ctx, "purging expired cache entries failed", "error", err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) isUnlocked() bool {
	return a.password != ""
}

func (a *App) status() string {
	if !a.service.Auth().IsSetUp() {
		return "(no password set)"
	}
	if a.isUnlocked() {
		return "(unlocked)"
	}
	return "(locked)"
}
