// Package experiment sweeps watermark settings over a carrier and records
// how each combination survives 16-bit quantization.
package experiment

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/OneOfOne/xxhash"
	"github.com/dgraph-io/badger/v3"
	"github.com/sirupsen/logrus"

	"watermark-backend/models"
)

const resultPrefix = "result/"

// ResultStore caches experiment results in badger so reruns over the same
// carrier skip finished grid points.
type ResultStore struct {
	db *badger.DB
}

// OpenStore opens a store in dir, or an in-memory one when dir is empty.
func OpenStore(dir string, logger logrus.FieldLogger) (*ResultStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	if logger != nil {
		opts = opts.WithLogger(logger.WithField("component", "badger"))
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}
	return &ResultStore{db: db}, nil
}

func (s *ResultStore) Close() error {
	return s.db.Close()
}

// Get returns the stored result for key. ok is false when nothing is stored.
func (s *ResultStore) Get(key string) (result models.ExperimentResult, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(resultPrefix + key))
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(value, &result)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.ExperimentResult{}, false, nil
	}
	if err != nil {
		return models.ExperimentResult{}, false, fmt.Errorf("failed to read result %s: %w", key, err)
	}
	return result, true, nil
}

func (s *ResultStore) Put(key string, result models.ExperimentResult) error {
	value, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result %s: %w", key, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(resultPrefix+key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to store result %s: %w", key, err)
	}
	return nil
}

// All returns every stored result in key order.
func (s *ResultStore) All() ([]models.ExperimentResult, error) {
	var results []models.ExperimentResult
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(resultPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var result models.ExperimentResult
			if err := json.Unmarshal(value, &result); err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}

// CarrierFingerprint hashes the samples and their rate.
func CarrierFingerprint(samples []float64, sampleRate int) uint64 {
	h := xxhash.New64()
	buf := make([]byte, 8)

	binary.BigEndian.PutUint64(buf, uint64(sampleRate))
	h.Write(buf)
	for _, s := range samples {
		binary.BigEndian.PutUint64(buf, math.Float64bits(s))
		h.Write(buf)
	}
	return h.Sum64()
}

// resultKey identifies one grid point for one carrier, message and codec
// parameter set.
func resultKey(carrier uint64, params string, message string, sampleRate, frameMs, strengthPercent int) string {
	return fmt.Sprintf("%016x/%016x/%016x/%d_%d_%d",
		carrier,
		xxhash.Checksum64([]byte(params)),
		xxhash.Checksum64([]byte(message)),
		sampleRate, frameMs, strengthPercent)
}
