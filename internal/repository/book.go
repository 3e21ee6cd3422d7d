package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertBook = `
INSERT INTO books (title, author, isbn, price)
VALUES ($1, $2, $3, $4)
RETURNING id, title, author, isbn, price, is_deleted, created_at, updated_at
`

type InsertBookParams struct {
	Title  string
	Author string
	Isbn   string
	Price  pgtype.Numeric
}

func (q *Queries) InsertBook(c context.Context, arg InsertBookParams) (Book, error) {
	row := q.db.QueryRow(c, insertBook, arg.Title, arg.Author, arg.Isbn, arg.Price)
	var b Book
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Isbn,
		&b.Price,
		&b.IsDeleted,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

const findBookById = `
SELECT id, title, author, isbn, price, is_deleted, created_at, updated_at
FROM books
WHERE id = $1 AND NOT is_deleted
`

func (q *Queries) FindBookById(c context.Context, id uuid.UUID) (Book, error) {
	row := q.db.QueryRow(c, findBookById, id)
	var b Book
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Isbn,
		&b.Price,
		&b.IsDeleted,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

const findBooksByIds = `
SELECT id, title, author, isbn, price, is_deleted, created_at, updated_at
FROM books
WHERE id = ANY($1) AND NOT is_deleted
`

func (q *Queries) FindBooksByIds(c context.Context, ids []uuid.UUID) ([]Book, error) {
	rows, err := q.db.Query(c, findBooksByIds, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(
			&b.ID,
			&b.Title,
			&b.Author,
			&b.Isbn,
			&b.Price,
			&b.IsDeleted,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const findBooks = `
SELECT id, title, author, isbn, price, is_deleted, created_at, updated_at
FROM books
WHERE NOT is_deleted
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`

type FindBooksParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) FindBooks(c context.Context, arg FindBooksParams) ([]Book, error) {
	rows, err := q.db.Query(c, findBooks, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(
			&b.ID,
			&b.Title,
			&b.Author,
			&b.Isbn,
			&b.Price,
			&b.IsDeleted,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const softDeleteBook = `
UPDATE books
SET is_deleted = TRUE, updated_at = now()
WHERE id = $1 AND NOT is_deleted
`

func (q *Queries) SoftDeleteBook(c context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(c, softDeleteBook, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
