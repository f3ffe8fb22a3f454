package main

import (
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/apibillme/cache"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Selection is one GetImageForSlide outcome. PhotoID is empty when no image
// was found.
type Selection struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Layout      string    `json:"layout"`
	Provider    string    `json:"provider"`
	Strategy    string    `json:"strategy"`
	PhotoID     string    `json:"photoId,omitempty"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Store struct {
	db        *sql.DB
	log       *log.Logger
	userCache cache.Cache
	stop      chan struct{}
}

const selectionTable string = `
  CREATE TABLE IF NOT EXISTS selections (
      id TEXT NOT NULL PRIMARY KEY,
      description TEXT NOT NULL,
      layout TEXT NOT NULL,
      provider TEXT NOT NULL,
      strategy TEXT NOT NULL,
      photo_id TEXT NOT NULL,
      photo_url TEXT NOT NULL,
      created INT NOT NULL
  )
`

const userTable string = `
  CREATE TABLE IF NOT EXISTS users (
      user TEXT NOT NULL UNIQUE,
      hash TEXT NOT NULL,
      level INT NOT NULL
  )
`

const dbFile string = "data/slideimg.db"

func NewStore(cfg *Config) (*Store, error) {
	logger := newLogger("store")

	filename := dbFile
	if cfg.Database != "" {
		filename = cfg.Database
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", "file:"+filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	for _, table := range []string{selectionTable, userTable} {
		if _, err := db.Exec(table); err != nil {
			db.Close()
			return nil, fmt.Errorf("create table: %w", err)
		}
	}

	return &Store{
		db:        db,
		log:       logger,
		userCache: cache.New(256, cache.WithTTL(1*time.Hour)),
		stop:      make(chan struct{}),
	}, nil
}

func (store *Store) Close() error {
	select {
	case <-store.stop:
	default:
		close(store.stop)
	}
	return store.db.Close()
}

// StartPurge deletes selections older than retention once an hour.
func (store *Store) StartPurge(retention time.Duration) {
	if retention <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(time.Hour)
		defer t.Stop()
		for {
			store.DeleteBefore(time.Now().Add(-retention).Unix())
			select {
			case <-store.stop:
				return
			case <-t.C:
			}
		}
	}()
}

func (store *Store) DeleteBefore(created int64) {
	_, err := store.db.Exec("DELETE FROM selections WHERE created < ?", created)
	if err != nil {
		store.log.Println("DB Error", err.Error())
	}
}

func (store *Store) RecordSelection(sel Selection) error {
	if sel.ID == "" {
		sel.ID = uuid.NewString()
	}
	if sel.CreatedAt.IsZero() {
		sel.CreatedAt = time.Now()
	}
	_, err := store.db.Exec("INSERT INTO selections VALUES (?,?,?,?,?,?,?,?)",
		sel.ID,
		sel.Description,
		sel.Layout,
		sel.Provider,
		sel.Strategy,
		sel.PhotoID,
		sel.PhotoURL,
		sel.CreatedAt.Unix(),
	)
	return err
}

// RecentSelections returns the newest selections first.
func (store *Store) RecentSelections(limit int) ([]Selection, error) {
	rows, err := store.db.Query(`SELECT id, description, layout, provider, strategy, photo_id, photo_url, created
		FROM selections ORDER BY created DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Selection
	for rows.Next() {
		var sel Selection
		var created int64
		if err := rows.Scan(&sel.ID, &sel.Description, &sel.Layout, &sel.Provider, &sel.Strategy, &sel.PhotoID, &sel.PhotoURL, &created); err != nil {
			return nil, err
		}
		sel.CreatedAt = time.Unix(created, 0)
		out = append(out, sel)
	}
	return out, rows.Err()
}

func (store *Store) AddUser(user string, pass string, level int) error {
	hash, err := argon2id.CreateHash(pass, argon2id.DefaultParams)
	if err != nil {
		return err
	}
	_, err = store.db.Exec("INSERT OR REPLACE INTO users VALUES (?,?,?)", user, hash, level)
	return err
}

func (store *Store) HasUsers() bool {
	var n int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		store.log.Println(err.Error())
		return false
	}
	return n > 0
}

func (store *Store) TestUser(user string, pass string) bool {
	userPass, ok := store.userCache.Get(user)
	if ok && 1 == subtle.ConstantTimeCompare([]byte(userPass.(string)), []byte(pass)) {
		return true
	}
	row := store.db.QueryRow("SELECT hash FROM users WHERE user = ?", user)
	var hash string
	err := row.Scan(&hash)
	if err == nil {
		match, err := argon2id.ComparePasswordAndHash(pass, hash)
		if err != nil {
			store.log.Println("Error comparing password hashes", err.Error())
			return false
		}
		if match {
			store.userCache.Set(user, pass)
			return true
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		store.log.Println(err.Error())
	}
	return false
}
