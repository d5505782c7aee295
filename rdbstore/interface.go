// Package rdbstore implements an ipd.ResultStore that keeps completed
// results in a RocksDB database.
package rdbstore

import (
	rocksdb "github.com/tecbot/gorocksdb"
)

// Params holds the RocksDB handles a Store is opened with. The caller
// owns them and releases them with Close, unless the Store came from Open.
type Params struct {
	Path         string
	Options      *rocksdb.Options
	ReadOptions  *rocksdb.ReadOptions
	WriteOptions *rocksdb.WriteOptions
}

// DefaultParams creates the database at path if it is missing and syncs
// every write, so a result reported by a sweep is on disk even if the
// process is killed before the store is closed.
func DefaultParams(path string) Params {
	opts := rocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)

	wOpts := rocksdb.NewDefaultWriteOptions()
	wOpts.SetSync(true)

	return Params{
		Path:         path,
		Options:      opts,
		ReadOptions:  rocksdb.NewDefaultReadOptions(),
		WriteOptions: wOpts,
	}
}

// Close releases the option handles.
func (p Params) Close() {
	p.Options.Destroy()
	p.ReadOptions.Destroy()
	p.WriteOptions.Destroy()
}
