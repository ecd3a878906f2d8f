package simrun

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	currPrefix   = "curr-"
	finishPrefix = "finish-"
)

// RunStore persists SimJob records to a leveldb database keyed by job
// id, with secondary indexes for in-flight and finished jobs, adapted
// directly from the teacher's job DB (spec.md §4.6 "persisted run
// store").
type RunStore struct {
	db *leveldb.DB
}

// OpenRunStore opens (or creates) a leveldb store at path. An empty
// path opens an in-memory store, used by tests.
func OpenRunStore(path string) (*RunStore, error) {
	var db *leveldb.DB
	var err error
	if path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("simrun: open run store: %w", err)
	}
	return &RunStore{db: db}, nil
}

func (s *RunStore) Close() error { return s.db.Close() }

func currentKey(id string) []byte { return []byte(currPrefix + id) }

func finishKey(j *SimJob) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(j.Finished.Unix()))
	key := append([]byte(finishPrefix), b...)
	key = append(key, '-')
	return append(key, []byte(j.ID)...)
}

// Put upserts a job record and maintains the current/finished indexes.
func (s *RunStore) Put(j *SimJob) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("simrun: marshal job %s: %w", j.ID, err)
	}
	if err := s.db.Put([]byte(j.ID), data, nil); err != nil {
		return fmt.Errorf("simrun: put job %s: %w", j.ID, err)
	}
	if j.Done() {
		_ = s.db.Delete(currentKey(j.ID), nil)
		if err := s.db.Put(finishKey(j), []byte(j.ID), nil); err != nil {
			return err
		}
	} else if err := s.db.Put(currentKey(j.ID), []byte(j.ID), nil); err != nil {
		return err
	}
	return nil
}

// Get fetches one job record by id.
func (s *RunStore) Get(id string) (*SimJob, error) {
	data, err := s.db.Get([]byte(id), nil)
	if err != nil {
		return nil, fmt.Errorf("simrun: get job %s: %w", id, err)
	}
	j := &SimJob{}
	if err := json.Unmarshal(data, j); err != nil {
		return nil, fmt.Errorf("simrun: unmarshal job %s: %w", id, err)
	}
	return j, nil
}

// Current returns every job still queued or running.
func (s *RunStore) Current() ([]*SimJob, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte(currPrefix)), nil)
	defer it.Release()

	var ids []string
	for it.Next() {
		ids = append(ids, string(it.Value()))
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return s.fetchAll(ids)
}

// Recent returns up to n of the most recently finished jobs.
func (s *RunStore) Recent(n int) ([]*SimJob, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte(finishPrefix)), nil)
	defer it.Release()

	var ids []string
	for it.Next() {
		ids = append(ids, string(it.Value()))
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	if len(ids) > n {
		ids = ids[len(ids)-n:]
	}
	return s.fetchAll(ids)
}

// Failed returns every job whose final status is failed or timed out.
func (s *RunStore) Failed() ([]*SimJob, error) {
	it := s.db.NewIterator(nil, nil)
	defer it.Release()

	var out []*SimJob
	for it.Next() {
		key := it.Key()
		if len(key) >= len(currPrefix) && string(key[:len(currPrefix)]) == currPrefix {
			continue
		}
		if len(key) >= len(finishPrefix) && string(key[:len(finishPrefix)]) == finishPrefix {
			continue
		}
		j := &SimJob{}
		if err := json.Unmarshal(it.Value(), j); err != nil {
			return nil, err
		}
		if j.Status == StatusFailed || j.Status == StatusTimedOut {
			out = append(out, j)
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RunStore) fetchAll(ids []string) ([]*SimJob, error) {
	out := make([]*SimJob, 0, len(ids))
	for _, id := range ids {
		j, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}
