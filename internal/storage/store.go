package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"

	"github.com/hailam/chessnet/internal/nn"
)

const keyNetwork = "network"

// ErrNoNetwork is returned when the store holds no network.
var ErrNoNetwork = errors.New("no stored network")

// modelRecord is the stored value: metadata plus the zstd-compressed
// model file encoding.
type modelRecord struct {
	SavedAt    time.Time `json:"saved_at"`
	LayerSizes []int     `json:"layer_sizes"`
	Model      []byte    `json:"model"`
}

// ModelInfo describes the stored network without decoding it.
type ModelInfo struct {
	SavedAt        time.Time
	LayerSizes     []int
	CompressedSize int
}

// ModelStore wraps BadgerDB and keeps exactly one network.
type ModelStore struct {
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	log     zerolog.Logger
}

// Open opens or creates a store in dir.
func Open(dir string) (*ModelStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open model store: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &ModelStore{db: db, encoder: encoder, decoder: decoder, log: zerolog.Nop()}, nil
}

// OpenDefault opens the store in the platform data directory.
func OpenDefault() (*ModelStore, error) {
	dir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dir)
}

// SetLogger sets the logger for store events.
func (s *ModelStore) SetLogger(log zerolog.Logger) {
	s.log = log.With().Str("component", "storage").Logger()
}

// Close closes the database.
func (s *ModelStore) Close() error {
	if s.decoder != nil {
		s.decoder.Close()
	}
	if s.encoder != nil {
		s.encoder.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveNetwork replaces the stored network with net.
func (s *ModelStore) SaveNetwork(net *nn.Network) error {
	raw, err := net.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode network: %w", err)
	}

	rec := modelRecord{
		SavedAt:    time.Now().UTC(),
		LayerSizes: net.LayerSizes(),
		Model:      s.encoder.EncodeAll(raw, nil),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyNetwork), data)
	}); err != nil {
		return fmt.Errorf("save network: %w", err)
	}

	s.log.Info().
		Ints("layers", rec.LayerSizes).
		Int("raw_bytes", len(raw)).
		Int("stored_bytes", len(rec.Model)).
		Msg("network saved")
	return nil
}

func (s *ModelStore) load() (*modelRecord, error) {
	var rec modelRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyNetwork))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoNetwork
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// LoadNetwork decodes the stored network. It returns ErrNoNetwork when
// nothing has been saved.
func (s *ModelStore) LoadNetwork() (*nn.Network, error) {
	rec, err := s.load()
	if err != nil {
		return nil, err
	}

	raw, err := s.decoder.DecodeAll(rec.Model, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress network: %w", err)
	}
	net := &nn.Network{}
	if err := net.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("decode network: %w", err)
	}
	net.SetLogger(s.log)
	return net, nil
}

// Info returns metadata of the stored network.
func (s *ModelStore) Info() (ModelInfo, error) {
	rec, err := s.load()
	if err != nil {
		return ModelInfo{}, err
	}
	return ModelInfo{SavedAt: rec.SavedAt, LayerSizes: rec.LayerSizes, CompressedSize: len(rec.Model)}, nil
}

// HasNetwork reports whether a network is stored.
func (s *ModelStore) HasNetwork() (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyNetwork))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// DeleteNetwork removes the stored network. Deleting from an empty store
// is not an error.
func (s *ModelStore) DeleteNetwork() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyNetwork))
	})
}
