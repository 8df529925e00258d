// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package settings persists scalar preferences (the gyro drift offset) in a
// small bbolt database.
package settings

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/relabs-tech/gyro_heading/internal/orientation"
)

var bucketPrefs = []byte("preferences")

// Drift offset keys.
const (
	KeyDriftX = "x_drift"
	KeyDriftY = "y_drift"
	KeyDriftZ = "z_drift"
)

// Store is a key/value preference store.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0660, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("settings: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPrefs)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("settings: create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetFloat64 returns the value stored under key, or 0 if there is none.
func (s *Store) GetFloat64(key string) (float64, error) {
	var v float64
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketPrefs).Get([]byte(key))
		if raw == nil {
			return nil
		}
		var err error
		v, err = decodeFloat64(raw)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("settings: get: %w", err)
	}
	return v, nil
}

// PutFloat64 stores v under key.
func (s *Store) PutFloat64(key string, v float64) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPrefs).Put([]byte(key), encodeFloat64(v))
	})
	if err != nil {
		return fmt.Errorf("settings: put %q: %w", key, err)
	}
	return nil
}

// LoadDrift reads the drift offset. Missing axes read as 0.
func (s *Store) LoadDrift() (orientation.DriftOffset, error) {
	var d orientation.DriftOffset
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPrefs)
		for _, f := range []struct {
			key string
			dst *float64
		}{
			{KeyDriftX, &d.X},
			{KeyDriftY, &d.Y},
			{KeyDriftZ, &d.Z},
		} {
			raw := b.Get([]byte(f.key))
			if raw == nil {
				continue
			}
			v, err := decodeFloat64(raw)
			if err != nil {
				return fmt.Errorf("key %q: %w", f.key, err)
			}
			*f.dst = v
		}
		return nil
	})
	if err != nil {
		return orientation.DriftOffset{}, fmt.Errorf("settings: load drift: %w", err)
	}
	return d, nil
}

// SaveDrift writes all three drift axes in one transaction.
func (s *Store) SaveDrift(d orientation.DriftOffset) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPrefs)
		if err := b.Put([]byte(KeyDriftX), encodeFloat64(d.X)); err != nil {
			return err
		}
		if err := b.Put([]byte(KeyDriftY), encodeFloat64(d.Y)); err != nil {
			return err
		}
		return b.Put([]byte(KeyDriftZ), encodeFloat64(d.Z))
	})
	if err != nil {
		return fmt.Errorf("settings: save drift: %w", err)
	}
	return nil
}

func encodeFloat64(v float64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(v))
	return buf
}

func decodeFloat64(raw []byte) (float64, error) {
	if len(raw) != 8 {
		return 0, fmt.Errorf("want 8 bytes, got %d", len(raw))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(raw)), nil
}
