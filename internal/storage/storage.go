// Package storage persists the darknet peer directory in sqlite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"relaychat/internal/models"
)

const DBFileName = "peers.db"

type Store struct {
	db *sql.DB
}

// PeerDB bundles the store with its background last-seen writer.
type PeerDB struct {
	Store *Store
	Peers *PeerManager
}

// NewSQLiteStore opens (or creates) a sqlite DB file.
func NewSQLiteStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	pragmas := []struct{ stmt, what string }{
		{`PRAGMA journal_mode = WAL;`, "enable WAL"},
		{`PRAGMA synchronous = NORMAL;`, "set synchronous"},
		{`PRAGMA foreign_keys = ON;`, "enable foreign_keys"},
		{`PRAGMA busy_timeout = 5000;`, "set busy_timeout"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p.what, err)
		}
	}
	return &Store{db: db}, nil
}

// OpenPeerDB opens <dataDir>/peers.db, migrates it and starts the writer.
func OpenPeerDB(dataDir string, writeQSize int) (*PeerDB, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := NewSQLiteStore(filepath.Join(dataDir, DBFileName))
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	p := NewPeerManager(writeQSize)
	p.Start(store)
	return &PeerDB{Store: store, Peers: p}, nil
}

// Close drains the writer before closing the database.
func (p *PeerDB) Close() {
	p.Peers.Stop()
	p.Store.Close()
}

func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// Migrate creates the peers table. This is idempotent.
func (s *Store) Migrate() error {
	const sqlStmt = `
CREATE TABLE IF NOT EXISTS peers (
  identity BLOB PRIMARY KEY,
  peer_id TEXT NOT NULL UNIQUE,
  nickname TEXT NOT NULL UNIQUE,
  addrs TEXT NOT NULL DEFAULT '[]', -- JSON array of multiaddrs
  added_at INTEGER NOT NULL, -- unix seconds
  last_seen INTEGER -- unix seconds, nullable
);
`
	if s.db == nil {
		return ErrDBNotConnected
	}
	if _, err := s.db.Exec(sqlStmt); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func isUniqueViolation(err error, column string) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) || se.ExtendedCode != sqlite3.ErrConstraintUnique {
		return false
	}
	return strings.Contains(se.Error(), "peers."+column)
}

// SavePeer inserts a peer or updates the one with the same identity.
func (s *Store) SavePeer(ctx context.Context, p *models.Peer) error {
	addrs := p.Addrs
	if addrs == nil {
		addrs = []string{}
	}
	addrsJSON, err := json.Marshal(addrs)
	if err != nil {
		return fmt.Errorf("encode addrs: %w", err)
	}
	added := p.AddedAt
	if added.IsZero() {
		added = time.Now()
	}
	var lastSeen sql.NullInt64
	if !p.LastSeen.IsZero() {
		lastSeen = sql.NullInt64{Int64: p.LastSeen.Unix(), Valid: true}
	}

	const q = `
INSERT INTO peers (identity, peer_id, nickname, addrs, added_at, last_seen)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(identity) DO UPDATE SET
  peer_id = excluded.peer_id,
  nickname = excluded.nickname,
  addrs = excluded.addrs,
  last_seen = COALESCE(excluded.last_seen, peers.last_seen);
`
	_, err = s.db.ExecContext(ctx, q, p.Identity[:], p.PeerID, p.Nickname, string(addrsJSON), added.Unix(), lastSeen)
	if isUniqueViolation(err, "nickname") {
		return ErrNicknameTaken.WithDetails(p.Nickname)
	}
	if err != nil {
		return fmt.Errorf("save peer: %w", err)
	}
	return nil
}

const peerColumns = `identity, peer_id, nickname, addrs, added_at, last_seen`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeer(row rowScanner) (*models.Peer, error) {
	var (
		identity  []byte
		peerID    string
		nickname  string
		addrsJSON string
		addedAt   int64
		lastSeen  sql.NullInt64
	)
	if err := row.Scan(&identity, &peerID, &nickname, &addrsJSON, &addedAt, &lastSeen); err != nil {
		return nil, err
	}
	id, err := models.IdentityFromBytes(identity)
	if err != nil {
		return nil, err
	}
	p := &models.Peer{
		Identity: id,
		PeerID:   peerID,
		Nickname: nickname,
		AddedAt:  time.Unix(addedAt, 0),
	}
	if err := json.Unmarshal([]byte(addrsJSON), &p.Addrs); err != nil {
		return nil, fmt.Errorf("decode addrs of %s: %w", nickname, err)
	}
	if lastSeen.Valid {
		p.LastSeen = time.Unix(lastSeen.Int64, 0)
	}
	return p, nil
}

func (s *Store) getPeerWhere(ctx context.Context, where string, arg any) (*models.Peer, error) {
	q := `SELECT ` + peerColumns + ` FROM peers WHERE ` + where + ` LIMIT 1;`
	p, err := scanPeer(s.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("select peer: %w", err)
	}
	return p, nil
}

func (s *Store) GetPeer(ctx context.Context, id models.Identity) (*models.Peer, error) {
	return s.getPeerWhere(ctx, `identity = ?`, id[:])
}

func (s *Store) GetPeerByPeerID(ctx context.Context, peerID string) (*models.Peer, error) {
	return s.getPeerWhere(ctx, `peer_id = ?`, peerID)
}

func (s *Store) GetPeerByNickname(ctx context.Context, nickname string) (*models.Peer, error) {
	return s.getPeerWhere(ctx, `nickname = ?`, nickname)
}

// ListPeers returns the whole darknet directory ordered by nickname.
func (s *Store) ListPeers(ctx context.Context) ([]*models.Peer, error) {
	q := `SELECT ` + peerColumns + ` FROM peers ORDER BY nickname COLLATE NOCASE ASC;`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select peers: %w", err)
	}
	defer rows.Close()

	var out []*models.Peer
	for rows.Next() {
		p, err := scanPeer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeletePeer(ctx context.Context, id models.Identity) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM peers WHERE identity = ?;`, id[:])
	if err != nil {
		return fmt.Errorf("delete peer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRows
	}
	return nil
}

// TouchPeer records that the peer was connected at seen.
func (s *Store) TouchPeer(ctx context.Context, id models.Identity, seen time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE peers SET last_seen = ? WHERE identity = ?;`, seen.Unix(), id[:])
	if err != nil {
		return fmt.Errorf("touch peer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRows
	}
	return nil
}
