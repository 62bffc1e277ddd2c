/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package ledger

import (
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/ristretto/v2/z"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/sakyalin/udacity-BDND-private-blockchain/x"
)

// BadgerDefaults are the default values of the --badger superflag.
const BadgerDefaults = "compression=snappy; sync-writes=true; in-memory=false; " +
	"numversions=1; value-threshold=1024;"

// Options configures a badger backed ledger.
type Options struct {
	// Dir is the directory holding the badger files. Ignored when InMemory is set.
	Dir string
	// InMemory keeps everything in memory. Used for tests and throwaway chains.
	InMemory bool
	// SyncWrites makes every Put durable before it returns.
	SyncWrites bool
	// Compression is applied to every record value written from now on.
	Compression Compression
	// NumVersions is the number of versions badger keeps per key.
	NumVersions int
	// ValueThreshold is the size above which badger moves values to the value log.
	ValueThreshold int64
}

// OptionsFromFlag builds Options from a --badger superflag string.
func OptionsFromFlag(dir, flag string) (Options, error) {
	sf := z.NewSuperFlag(flag).MergeAndCheckDefault(BadgerDefaults)
	c, err := ParseCompression(sf.GetString("compression"))
	if err != nil {
		return Options{}, err
	}
	return Options{
		Dir:            dir,
		InMemory:       sf.GetBool("in-memory"),
		SyncWrites:     sf.GetBool("sync-writes"),
		Compression:    c,
		NumVersions:    int(sf.GetInt64("numversions")),
		ValueThreshold: sf.GetInt64("value-threshold"),
	}, nil
}

// Badger is a Store on top of a badger database. Keys are x.HeightKey(h),
// values are codec tagged canonical block encodings.
type Badger struct {
	db     *badger.DB
	opt    Options
	codec  *valueCodec
	closed atomic.Bool
}

var _ Store = (*Badger)(nil)

// OpenBadger opens (creating if needed) the ledger described by opt.
func OpenBadger(opt Options) (*Badger, error) {
	dir := opt.Dir
	if opt.InMemory {
		dir = ""
	} else if dir == "" {
		return nil, errors.New("ledger directory must be set when not running in memory")
	}
	bopt := badger.DefaultOptions(dir).
		WithInMemory(opt.InMemory).
		WithSyncWrites(opt.SyncWrites).
		WithLogger(&glogger{})
	if opt.NumVersions > 0 {
		bopt = bopt.WithNumVersionsToKeep(opt.NumVersions)
	}
	if opt.ValueThreshold > 0 {
		bopt = bopt.WithValueThreshold(opt.ValueThreshold)
	}

	codec, err := newValueCodec(opt.Compression)
	if err != nil {
		return nil, err
	}
	db, err := badger.Open(bopt)
	if err != nil {
		codec.close()
		return nil, errors.Wrapf(ErrStoreUnavailable, "while opening badger at %q: %v", dir, err)
	}
	glog.Infof("Opened ledger at %q (in-memory: %v, compression: %s)",
		dir, opt.InMemory, opt.Compression)
	return &Badger{db: db, opt: opt, codec: codec}, nil
}

// OpenFromFlag opens the ledger in dir configured by a --badger superflag.
func OpenFromFlag(dir, flag string) (*Badger, error) {
	opt, err := OptionsFromFlag(dir, flag)
	if err != nil {
		return nil, err
	}
	return OpenBadger(opt)
}

// NewInMemory returns an empty ledger that lives only in memory.
func NewInMemory() (*Badger, error) {
	return OpenBadger(Options{InMemory: true, Compression: CompressionSnappy})
}

// Path returns the directory of the ledger, empty when in memory.
func (s *Badger) Path() string {
	if s.opt.InMemory {
		return ""
	}
	return s.opt.Dir
}

// Options returns the options the ledger was opened with.
func (s *Badger) Options() Options {
	return s.opt
}

func (s *Badger) Get(height uint64) ([]byte, error) {
	if s.closed.Load() {
		return nil, errors.Wrapf(ErrStoreUnavailable, "get %d: ledger is closed", height)
	}
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(x.HeightKey(height))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, errors.Wrapf(ErrNotFound, "height %d", height)
	case err != nil:
		return nil, errors.Wrapf(ErrStoreUnavailable, "get %d: %v", height, err)
	}
	record, err := s.codec.decode(val)
	if err != nil {
		return nil, errors.Wrapf(err, "height %d", height)
	}
	return record, nil
}

func (s *Badger) Put(height uint64, record []byte) error {
	if s.closed.Load() {
		return errors.Wrapf(ErrStoreUnavailable, "put %d: ledger is closed", height)
	}
	val := s.codec.encode(record)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(x.HeightKey(height), val)
	})
	if err != nil {
		return errors.Wrapf(ErrWriteFailed, "put %d: %v", height, err)
	}
	return nil
}

func (s *Badger) Len() (uint64, error) {
	if s.closed.Load() {
		return 0, errors.Wrapf(ErrStoreUnavailable, "len: ledger is closed")
	}
	var n uint64
	err := s.db.View(func(txn *badger.Txn) error {
		iopt := badger.DefaultIteratorOptions
		iopt.PrefetchValues = false
		iopt.Prefix = x.BlockPrefix()
		itr := txn.NewIterator(iopt)
		defer itr.Close()

		for itr.Rewind(); itr.Valid(); itr.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(ErrStoreUnavailable, "len: %v", err)
	}
	return n, nil
}

// errStop marks errors coming from the Iterate callback, which are returned
// to the caller as they are.
type errStop struct{ err error }

func (e errStop) Error() string { return e.err.Error() }

func (s *Badger) Iterate(fn func(height uint64, record []byte) error) error {
	if s.closed.Load() {
		return errors.Wrapf(ErrStoreUnavailable, "iterate: ledger is closed")
	}
	err := s.db.View(func(txn *badger.Txn) error {
		iopt := badger.DefaultIteratorOptions
		iopt.Prefix = x.BlockPrefix()
		itr := txn.NewIterator(iopt)
		defer itr.Close()

		for itr.Rewind(); itr.Valid(); itr.Next() {
			item := itr.Item()
			height, err := x.ParseHeightKey(item.Key())
			if err != nil {
				return errStop{errors.Wrapf(ErrStoreUnavailable, "%v", err)}
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			record, err := s.codec.decode(val)
			if err != nil {
				return errStop{errors.Wrapf(err, "height %d", height)}
			}
			if err := fn(height, record); err != nil {
				return errStop{err}
			}
		}
		return nil
	})
	var stop errStop
	switch {
	case errors.As(err, &stop):
		return stop.err
	case err != nil:
		return errors.Wrapf(ErrStoreUnavailable, "iterate: %v", err)
	}
	return nil
}

// Size returns the size in bytes of the LSM tree and of the value log.
func (s *Badger) Size() (lsm, vlog int64) {
	if s.closed.Load() {
		return 0, 0
	}
	return s.db.Size()
}

// Close flushes and closes the database. Calling Close twice is a no-op.
func (s *Badger) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	defer s.codec.close()
	if err := s.db.Close(); err != nil {
		return errors.Wrapf(ErrStoreUnavailable, "close: %v", err)
	}
	glog.V(2).Infof("Closed ledger at %q", s.Path())
	return nil
}

// glogger routes badger's internal logging to glog.
type glogger struct{}

func (*glogger) Errorf(format string, args ...interface{}) {
	glog.ErrorDepth(1, "badger: "+fmt.Sprintf(format, args...))
}

func (*glogger) Warningf(format string, args ...interface{}) {
	glog.WarningDepth(1, "badger: "+fmt.Sprintf(format, args...))
}

func (*glogger) Infof(format string, args ...interface{}) {
	if glog.V(2) {
		glog.InfoDepth(1, "badger: "+fmt.Sprintf(format, args...))
	}
}

func (*glogger) Debugf(format string, args ...interface{}) {
	if glog.V(3) {
		glog.InfoDepth(1, "badger: "+fmt.Sprintf(format, args...))
	}
}
