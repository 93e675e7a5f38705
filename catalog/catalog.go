/*
Package catalog keeps places in a SQLite database so they can be collected
from many lookup directories and written back out later.

Sprite sheets are stored once, as PNG, keyed by the SHA-1 of their encoding;
places that share a sprite sheet share the row.
*/
package catalog

import (
	"bytes"
	"crypto/sha1"
	"database/sql"
	"fmt"
	"io"

	"github.com/bodgit/pieces"
	"github.com/bodgit/pieces/sprite"
	_ "github.com/mattn/go-sqlite3" // register sqlite3 driver
)

// DB is a catalog of places
type DB struct {
	db *sql.DB
}

// Open opens the catalog stored in file, creating it if necessary
func Open(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS sprite (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, png BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS place (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL UNIQUE, sprite_id INTEGER NOT NULL, FOREIGN KEY(sprite_id) REFERENCES sprite(id))"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS piece (place_id INTEGER NOT NULL, position INTEGER NOT NULL, idx TEXT NOT NULL, x INTEGER NOT NULL, y INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, sprite_x INTEGER NOT NULL, sprite_y INTEGER NOT NULL, PRIMARY KEY(place_id, position), FOREIGN KEY(place_id) REFERENCES place(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{
		db: db,
	}, nil
}

// Close closes the catalog
func (db *DB) Close() error {
	return db.db.Close()
}

// AddPlace stores place, replacing any place with the same ID. A sprite
// sheet left unused by the replacement is removed.
func (db *DB) AddPlace(place *pieces.Place) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	spriteID, err := addSprite(tx, place)
	if err != nil {
		return err
	}

	var id, oldSpriteID int64
	switch err := tx.QueryRow("SELECT id, sprite_id FROM place WHERE name = ?", place.ID).Scan(&id, &oldSpriteID); err {
	case sql.ErrNoRows:
		result, err := tx.Exec("INSERT INTO place (name, sprite_id) VALUES (?, ?)", place.ID, spriteID)
		if err != nil {
			return err
		}
		if id, err = result.LastInsertId(); err != nil {
			return err
		}
	case nil:
		if _, err := tx.Exec("UPDATE place SET sprite_id = ? WHERE id = ?", spriteID, id); err != nil {
			return err
		}
		// Drop the previous sprite sheet once no place uses it
		if _, err := tx.Exec("DELETE FROM sprite WHERE id = ? AND NOT EXISTS (SELECT 1 FROM place WHERE sprite_id = sprite.id)", oldSpriteID); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM piece WHERE place_id = ?", id); err != nil {
			return err
		}
	default:
		return err
	}

	for i, p := range place.Pieces {
		idx, err := pieces.IndexFromGlobalID(p.ID)
		if err != nil {
			return err
		}
		b := p.BitmapImage
		if _, err := tx.Exec("INSERT INTO piece (place_id, position, idx, x, y, width, height, sprite_x, sprite_y) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", id, i, idx, b.X, b.Y, b.Width, b.Height, b.SpriteOffset.X, b.SpriteOffset.Y); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func addSprite(tx *sql.Tx, place *pieces.Place) (int64, error) {
	h := sha1.New()
	b := new(bytes.Buffer)
	if err := sprite.Encode(io.MultiWriter(b, h), place.Sprite); err != nil {
		return 0, err
	}
	sha := fmt.Sprintf("%X", h.Sum(nil))

	var id int64
	switch err := tx.QueryRow("SELECT id FROM sprite WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := tx.Exec("INSERT INTO sprite (sha1, png) VALUES (?, ?)", sha, b.Bytes())
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// Place returns the place with the given ID, or nil if there is no such
// place
func (db *DB) Place(name string) (*pieces.Place, error) {
	var id int64
	var png []byte
	switch err := db.db.QueryRow("SELECT p.id, s.png FROM place AS p JOIN sprite AS s ON p.sprite_id = s.id WHERE p.name = ?", name).Scan(&id, &png); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
	default:
		return nil, err
	}

	m, err := sprite.Decode(bytes.NewReader(png))
	if err != nil {
		return nil, err
	}

	rows, err := db.db.Query("SELECT idx, x, y, width, height, sprite_x, sprite_y FROM piece WHERE place_id = ? ORDER BY position", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	place := &pieces.Place{
		ID:     name,
		Sprite: m,
		Pieces: []pieces.Piece{},
	}
	for rows.Next() {
		var idx string
		var b pieces.BitmapImage
		if err := rows.Scan(&idx, &b.X, &b.Y, &b.Width, &b.Height, &b.SpriteOffset.X, &b.SpriteOffset.Y); err != nil {
			return nil, err
		}
		place.Pieces = append(place.Pieces, pieces.Piece{
			ID:          pieces.MakeGlobalID(name, idx),
			BitmapImage: b,
		})
	}

	return place, rows.Err()
}

// Names returns the ID of every place in the catalog, sorted
func (db *DB) Names() ([]string, error) {
	rows, err := db.db.Query("SELECT name FROM place ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
