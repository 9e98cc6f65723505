package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Storage keys
const (
	keyStats      = "stats"
	prefixGame    = "game/"
	prefixOpening = "opening/"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// GameRecord is a finished game.
type GameRecord struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	StartFEN  string        `json:"start_fen,omitempty"` // empty for the standard start
	Moves     []string      `json:"moves"`               // SAN, with suffixes
	LAN       []string      `json:"lan"`
	Result    string        `json:"result"` // "1-0", "0-1", "1/2-1/2" or "*"
	Reason    string        `json:"reason"`
	Opening   string        `json:"opening,omitempty"`
}

// GameStats aggregates every saved game.
type GameStats struct {
	GamesPlayed   int            `json:"games_played"`
	WhiteWins     int            `json:"white_wins"`
	BlackWins     int            `json:"black_wins"`
	Draws         int            `json:"draws"`
	Unfinished    int            `json:"unfinished"`
	DrawsByReason map[string]int `json:"draws_by_reason"`
	TotalPlayTime time.Duration  `json:"total_play_time"`
	LongestGame   int            `json:"longest_game"` // in plies
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{
		DrawsByReason: make(map[string]int),
	}
}

// add folds one finished game into the statistics.
func (s *GameStats) add(rec *GameRecord) {
	s.GamesPlayed++
	s.TotalPlayTime += rec.Duration
	if n := len(rec.LAN); n > s.LongestGame {
		s.LongestGame = n
	}

	switch rec.Result {
	case "1-0":
		s.WhiteWins++
	case "0-1":
		s.BlackWins++
	case "1/2-1/2":
		s.Draws++
		s.DrawsByReason[rec.Reason]++
	default:
		s.Unfinished++
	}
}

// WhiteScore returns white's score as a percentage (0-100), counting draws
// as half a point.
func (s *GameStats) WhiteScore() float64 {
	decided := s.WhiteWins + s.BlackWins + s.Draws
	if decided == 0 {
		return 0
	}
	return (float64(s.WhiteWins) + float64(s.Draws)/2) / float64(decided) * 100
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens or creates the database in dir.
func Open(dir string, logger zerolog.Logger) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable badger's own logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open database in %s", dir)
	}
	logger.Debug().Str("dir", dir).Msg("database opened")
	return &Storage{db: db, log: logger}, nil
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory(logger zerolog.Logger) (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open in-memory database")
	}
	return &Storage{db: db, log: logger}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveGame stores a finished game and folds it into the statistics in the
// same transaction. An empty ID is filled from the start time.
func (s *Storage) SaveGame(rec *GameRecord) error {
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("%020d", rec.StartedAt.UnixNano())
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encode game")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		stats, err := loadStats(txn)
		if err != nil {
			return err
		}
		stats.add(rec)
		statsData, err := json.Marshal(stats)
		if err != nil {
			return errors.Wrap(err, "encode stats")
		}
		if err := txn.Set([]byte(prefixGame+rec.ID), data); err != nil {
			return err
		}
		return txn.Set([]byte(keyStats), statsData)
	})
	if err != nil {
		return errors.Wrapf(err, "save game %s", rec.ID)
	}

	s.log.Debug().Str("id", rec.ID).Str("result", rec.Result).Int("plies", len(rec.LAN)).Msg("game saved")
	return nil
}

// LoadGame returns the game with the given ID, or ErrNotFound.
func (s *Storage) LoadGame(id string) (*GameRecord, error) {
	rec := &GameRecord{}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixGame + id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, rec)
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, "load game %s", id)
	}
	return rec, nil
}

// ListGames returns up to limit games, newest first. A limit of zero or less
// returns all of them.
func (s *Storage) ListGames(limit int) ([]GameRecord, error) {
	var games []GameRecord

	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixGame)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append(prefix, 0xff)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(games) >= limit {
				break
			}
			var rec GameRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			games = append(games, rec)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list games")
	}
	return games, nil
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	var stats *GameStats

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		stats, err = loadStats(txn)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "load stats")
	}
	return stats, nil
}

func loadStats(txn *badger.Txn) (*GameStats, error) {
	stats := NewGameStats()

	item, err := txn.Get([]byte(keyStats))
	if err == badger.ErrKeyNotFound {
		return stats, nil // Use empty stats
	}
	if err != nil {
		return nil, err
	}

	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
	if stats.DrawsByReason == nil {
		stats.DrawsByReason = make(map[string]int)
	}
	return stats, err
}

// SaveOpenings stores opening names keyed by piece placement, replacing any
// name already stored for the same placement.
func (s *Storage) SaveOpenings(names map[string]string) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for placement, name := range names {
		if err := wb.Set([]byte(prefixOpening+placement), []byte(name)); err != nil {
			return errors.Wrap(err, "save openings")
		}
	}
	if err := wb.Flush(); err != nil {
		return errors.Wrap(err, "save openings")
	}

	s.log.Info().Int("openings", len(names)).Msg("opening table saved")
	return nil
}

// LoadOpenings returns every stored opening name keyed by piece placement.
func (s *Storage) LoadOpenings() (map[string]string, error) {
	names := make(map[string]string)

	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixOpening)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			placement := string(item.Key()[len(prefix):])
			if err := item.Value(func(val []byte) error {
				names[placement] = string(val)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "load openings")
	}
	return names, nil
}
