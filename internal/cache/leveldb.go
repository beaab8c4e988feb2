package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Disk is the LevelDB-backed Store. A store that fails to open is removed
// and recreated once: a corrupt cache costs a cold run, not an error.
type Disk struct {
	db  *leveldb.DB
	dir string
}

func OpenDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := openLevelDB(dir)
	if err != nil {
		if removeErr := os.RemoveAll(dir); removeErr != nil {
			return nil, fmt.Errorf("failed to open cache %s: %w (and failed to remove it: %v)", dir, err, removeErr)
		}
		db, err = openLevelDB(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to recreate cache %s: %w", dir, err)
		}
	}
	return &Disk{db: db, dir: dir}, nil
}

func openLevelDB(dir string) (*leveldb.DB, error) {
	options := &opt.Options{
		WriteBuffer:        4 * 1024 * 1024,
		BlockCacheCapacity: 8 * 1024 * 1024,
	}
	db, err := leveldb.OpenFile(dir, options)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dir, err)
	}
	return db, nil
}

func (d *Disk) Get(key string) ([]byte, error) {
	value, err := d.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache read %q: %w", key, err)
	}
	return value, nil
}

func (d *Disk) Put(key string, value []byte) error {
	if err := d.db.Put([]byte(key), value, nil); err != nil {
		return fmt.Errorf("cache write %q: %w", key, err)
	}
	return nil
}

func (d *Disk) Len() (int, error) {
	iter := d.db.NewIterator(nil, nil)
	defer iter.Release()
	count := 0
	for iter.Next() {
		count++
	}
	if err := iter.Error(); err != nil {
		return 0, fmt.Errorf("cache iterate: %w", err)
	}
	return count, nil
}

func (d *Disk) Close() error {
	return d.db.Close()
}

// Dir reports where the store lives on disk.
func (d *Disk) Dir() string {
	return d.dir
}

// Clear removes a disk store wholesale. Safe to call on a missing path.
func Clear(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear cache %s: %w", dir, err)
	}
	return nil
}
