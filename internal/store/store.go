// Package store persists the small CRUD entities that ride along with the
// conversion API: persons and their posts. Storage is simple keyed rows;
// normalized financial records are never persisted.
//
// Expected schema:
//
//	CREATE TABLE persons (
//	    id   UUID PRIMARY KEY,
//	    name TEXT NOT NULL,
//	    age  INT  NOT NULL
//	);
//	CREATE TABLE posts (
//	    id        UUID PRIMARY KEY,
//	    person_id UUID NOT NULL REFERENCES persons(id),
//	    content   TEXT NOT NULL
//	);
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Person is a stored person entity.
type Person struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Age  int       `json:"age"`
}

// Post is a stored post entity belonging to a person.
type Post struct {
	ID       uuid.UUID `json:"id"`
	PersonID uuid.UUID `json:"personId"`
	Content  string    `json:"content"`
}

// Store provides keyed access to persons and posts.
type Store struct {
	db DBTX
}

// New creates a Store backed by db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// CreatePerson inserts a person and returns it with a generated ID.
func (s *Store) CreatePerson(ctx context.Context, name string, age int) (Person, error) {
	p := Person{ID: uuid.New(), Name: name, Age: age}
	_, err := s.db.Exec(ctx,
		`INSERT INTO persons (id, name, age) VALUES ($1, $2, $3)`,
		p.ID, p.Name, p.Age,
	)
	if err != nil {
		return Person{}, fmt.Errorf("creating person: %w", err)
	}
	return p, nil
}

// GetPerson fetches a person by ID.
func (s *Store) GetPerson(ctx context.Context, id uuid.UUID) (Person, error) {
	var p Person
	err := s.db.QueryRow(ctx,
		`SELECT id, name, age FROM persons WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Age)
	if errors.Is(err, pgx.ErrNoRows) {
		return Person{}, ErrNotFound
	}
	if err != nil {
		return Person{}, fmt.Errorf("fetching person: %w", err)
	}
	return p, nil
}

// CreatePost inserts a post for an existing person.
func (s *Store) CreatePost(ctx context.Context, personID uuid.UUID, content string) (Post, error) {
	p := Post{ID: uuid.New(), PersonID: personID, Content: content}
	_, err := s.db.Exec(ctx,
		`INSERT INTO posts (id, person_id, content) VALUES ($1, $2, $3)`,
		p.ID, p.PersonID, p.Content,
	)
	if err != nil {
		return Post{}, fmt.Errorf("creating post: %w", err)
	}
	return p, nil
}

// GetPost fetches a post by ID.
func (s *Store) GetPost(ctx context.Context, id uuid.UUID) (Post, error) {
	var p Post
	err := s.db.QueryRow(ctx,
		`SELECT id, person_id, content FROM posts WHERE id = $1`, id,
	).Scan(&p.ID, &p.PersonID, &p.Content)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("fetching post: %w", err)
	}
	return p, nil
}

// ListPostsByPerson returns every post belonging to a person, newest last.
func (s *Store) ListPostsByPerson(ctx context.Context, personID uuid.UUID) ([]Post, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, person_id, content FROM posts WHERE person_id = $1 ORDER BY id`, personID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.PersonID, &p.Content); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
