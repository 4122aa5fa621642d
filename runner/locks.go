package runner

import (
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// slugLocks serializes publish runs per episode. The in-process mutex map
// excludes concurrent API requests for the same slug; the flock file in the
// episode directory additionally excludes a CLI publish racing the server.
// Publishes for different slugs run concurrently.
type slugLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSlugLocks() *slugLocks {
	return &slugLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *slugLocks) get(slug string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[slug]
	if !ok {
		m = &sync.Mutex{}
		l.locks[slug] = m
	}
	return m
}

// lockEpisode takes both locks and returns an unlock function
func (l *slugLocks) lockEpisode(slug, dir string) (func(), error) {
	m := l.get(slug)
	m.Lock()

	fileLock := flock.New(filepath.Join(dir, ".publish.lock"))
	if err := fileLock.Lock(); err != nil {
		m.Unlock()
		return nil, err
	}

	return func() {
		_ = fileLock.Unlock()
		m.Unlock()
	}, nil
}
