package ldbstore

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/timpalpant/go-ipd"
)

// Store implements ipd.ResultStore on a LevelDB database.
// Only completed results are ever written.
type Store struct {
	path  string
	db    *leveldb.DB
	rOpts *opt.ReadOptions
	wOpts *opt.WriteOptions
}

// New opens (creating if needed) the LevelDB database at path.
func New(path string, opts *opt.Options) (*Store, error) {
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening result store %s", path)
	}

	glog.V(1).Infof("Opened LevelDB result store at %s", path)
	return &Store{
		path:  path,
		db:    db,
		wOpts: &opt.WriteOptions{Sync: true},
	}, nil
}

// Close implements ipd.ResultStore.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get implements ipd.ResultStore.
func (s *Store) Get(key []byte) (ipd.Result, bool, error) {
	buf, err := s.db.Get(key, s.rOpts)
	if err == leveldb.ErrNotFound {
		return ipd.Result{}, false, nil
	} else if err != nil {
		return ipd.Result{}, false, errors.Wrapf(err, "reading %q", key)
	}

	var r ipd.Result
	if err := r.UnmarshalBinary(buf); err != nil {
		return ipd.Result{}, false, errors.Wrapf(err, "decoding %q", key)
	}

	return r, true, nil
}

// Put implements ipd.ResultStore.
func (s *Store) Put(key []byte, r ipd.Result) error {
	buf, err := r.MarshalBinary()
	if err != nil {
		return err
	}

	return errors.Wrapf(s.db.Put(key, buf, s.wOpts), "writing %q", key)
}

// ForEach calls fn with every stored result in key order.
// fn must not retain key.
func (s *Store) ForEach(fn func(key []byte, r ipd.Result) error) error {
	iter := s.db.NewIterator(nil, s.rOpts)
	defer iter.Release()
	for iter.Next() {
		var r ipd.Result
		if err := r.UnmarshalBinary(iter.Value()); err != nil {
			return errors.Wrapf(err, "decoding %q", iter.Key())
		}

		if err := fn(iter.Key(), r); err != nil {
			return err
		}
	}

	return iter.Error()
}
