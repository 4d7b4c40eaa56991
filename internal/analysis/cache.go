package analysis

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/OneOfOne/xxhash"
	"github.com/dgraph-io/badger/v3"
	"github.com/pion/logging"

	"github.com/satindergrewal/smoothdj/internal/autodj"
)

const cacheVersion = "v1"

// Cache persists analysis results keyed by a hash of the file contents, so
// renamed or moved files still hit and edited files miss.
type Cache struct {
	db  *badger.DB
	log logging.LeveledLogger
}

// cacheEntry is the stored form of an analyzed track. Path is not stored.
type cacheEntry struct {
	Title string            `json:"title"`
	Key   autodj.Camelot    `json:"key"`
	Tonic autodj.PitchClass `json:"tonic"`
	Mode  autodj.Mode       `json:"mode"`
	Tempo float64           `json:"tempo"`
}

// OpenCache opens (or creates) a cache in dir.
func OpenCache(dir string, lf logging.LoggerFactory) (*Cache, error) {
	return openCache(badger.DefaultOptions(dir), lf)
}

func openCache(opts badger.Options, lf logging.LoggerFactory) (*Cache, error) {
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}
	log := lf.NewLogger("cache")
	db, err := badger.Open(opts.WithLogger(badgerLogger{log}))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Cache{db: db, log: log}, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Fingerprint hashes the contents of the file at path.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New64()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func cacheKey(fingerprint string, opts Options) []byte {
	return fmt.Appendf(nil, "%s/%s/%d/%d", cacheVersion, fingerprint, opts.SampleRate, opts.Limit.Milliseconds())
}

// Get returns the cached track for a fingerprint. ok is false on a miss.
func (c *Cache) Get(fingerprint string, opts Options) (t autodj.Track, ok bool, err error) {
	var e cacheEntry
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(fingerprint, opts))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return autodj.Track{}, false, nil
	}
	if err != nil {
		return autodj.Track{}, false, err
	}
	return autodj.Track{Title: e.Title, Key: e.Key, Tonic: e.Tonic, Mode: e.Mode, Tempo: e.Tempo}, true, nil
}

// Put stores an analyzed track under a fingerprint.
func (c *Cache) Put(fingerprint string, opts Options, t autodj.Track) error {
	val, err := json.Marshal(cacheEntry{Title: t.Title, Key: t.Key, Tonic: t.Tonic, Mode: t.Mode, Tempo: t.Tempo})
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(fingerprint, opts), val)
	})
}

// badgerLogger routes badger's internal logging through a leveled logger.
type badgerLogger struct {
	logging.LeveledLogger
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.Debugf(format, args...)
}
