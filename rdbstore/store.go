package rdbstore

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"
	rocksdb "github.com/tecbot/gorocksdb"

	"github.com/timpalpant/go-ipd"
)

// Store implements ipd.ResultStore on a RocksDB database.
type Store struct {
	params     Params
	ownsParams bool
	db         *rocksdb.DB
}

// New opens the RocksDB database described by params.
// The Store does not take ownership of the options in params.
func New(params Params) (*Store, error) {
	db, err := rocksdb.OpenDb(params.Options, params.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening result store %s", params.Path)
	}

	glog.V(1).Infof("Opened RocksDB result store at %s", params.Path)
	return &Store{params: params, db: db}, nil
}

// Open opens the database at path with DefaultParams.
// The options are released when the Store is closed.
func Open(path string) (*Store, error) {
	params := DefaultParams(path)
	s, err := New(params)
	if err != nil {
		params.Close()
		return nil, err
	}

	s.ownsParams = true
	return s, nil
}

// Close implements ipd.ResultStore.
func (s *Store) Close() error {
	s.db.Close()
	if s.ownsParams {
		s.params.Close()
	}

	return nil
}

// Get implements ipd.ResultStore.
func (s *Store) Get(key []byte) (ipd.Result, bool, error) {
	value, err := s.db.Get(s.params.ReadOptions, key)
	if err != nil {
		return ipd.Result{}, false, errors.Wrapf(err, "reading %q", key)
	}
	defer value.Free()

	if !value.Exists() {
		return ipd.Result{}, false, nil
	}

	var r ipd.Result
	if err := r.UnmarshalBinary(value.Data()); err != nil {
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

	return errors.Wrapf(s.db.Put(s.params.WriteOptions, key, buf), "writing %q", key)
}

// ForEach calls fn with every stored result in key order.
// fn must not retain key.
func (s *Store) ForEach(fn func(key []byte, r ipd.Result) error) error {
	it := s.db.NewIterator(s.params.ReadOptions)
	defer it.Close()

	for it.SeekToFirst(); it.Valid(); it.Next() {
		key := it.Key()
		value := it.Value()

		var r ipd.Result
		err := r.UnmarshalBinary(value.Data())
		if err == nil {
			err = fn(key.Data(), r)
		}

		key.Free()
		value.Free()
		if err != nil {
			return err
		}
	}

	return it.Err()
}
