package db

import (
	"context"
	"database/sql"
)

const insertSearch = `-- name: InsertSearch :one
insert into searches (raw_query, query, mirror, created_at)
values (?, ?, ?, ?)
returning id
`

type InsertSearchParams struct {
	RawQuery  string
	Query     string
	Mirror    string
	CreatedAt int64
}

func (q *Queries) InsertSearch(ctx context.Context, arg InsertSearchParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertSearch,
		arg.RawQuery,
		arg.Query,
		arg.Mirror,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const insertRecord = `-- name: InsertRecord :exec
insert into records (
    search_id, position, book_id, author, title, series, publisher, year,
    language, pages, size, size_bytes, extension, download, added_at
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertRecordParams struct {
	SearchID  int64
	Position  int64
	BookID    string
	Author    string
	Title     string
	Series    string
	Publisher string
	Year      string
	Language  string
	Pages     string
	Size      string
	SizeBytes int64
	Extension string
	Download  string
	AddedAt   sql.NullInt64
}

func (q *Queries) InsertRecord(ctx context.Context, arg InsertRecordParams) error {
	_, err := q.db.ExecContext(ctx, insertRecord,
		arg.SearchID,
		arg.Position,
		arg.BookID,
		arg.Author,
		arg.Title,
		arg.Series,
		arg.Publisher,
		arg.Year,
		arg.Language,
		arg.Pages,
		arg.Size,
		arg.SizeBytes,
		arg.Extension,
		arg.Download,
		arg.AddedAt,
	)
	return err
}

const insertFailure = `-- name: InsertFailure :exec
insert into failures (search_id, mirror, error)
values (?, ?, ?)
`

type InsertFailureParams struct {
	SearchID int64
	Mirror   string
	Error    string
}

func (q *Queries) InsertFailure(ctx context.Context, arg InsertFailureParams) error {
	_, err := q.db.ExecContext(ctx, insertFailure, arg.SearchID, arg.Mirror, arg.Error)
	return err
}

const listSearches = `-- name: ListSearches :many
select id, raw_query, query, mirror, created_at from searches
order by id desc
limit ?
`

func (q *Queries) ListSearches(ctx context.Context, limit int64) ([]Search, error) {
	rows, err := q.db.QueryContext(ctx, listSearches, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Search
	for rows.Next() {
		var i Search
		if err := rows.Scan(
			&i.ID,
			&i.RawQuery,
			&i.Query,
			&i.Mirror,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRecords = `-- name: ListRecords :many
select
    search_id, position, book_id, author, title, series, publisher, year,
    language, pages, size, size_bytes, extension, download, added_at
from records
where search_id = ?
order by position
`

func (q *Queries) ListRecords(ctx context.Context, searchID int64) ([]Record, error) {
	rows, err := q.db.QueryContext(ctx, listRecords, searchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Record
	for rows.Next() {
		var i Record
		if err := rows.Scan(
			&i.SearchID,
			&i.Position,
			&i.BookID,
			&i.Author,
			&i.Title,
			&i.Series,
			&i.Publisher,
			&i.Year,
			&i.Language,
			&i.Pages,
			&i.Size,
			&i.SizeBytes,
			&i.Extension,
			&i.Download,
			&i.AddedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listFailures = `-- name: ListFailures :many
select search_id, mirror, error from failures
where search_id = ?
order by rowid
`

func (q *Queries) ListFailures(ctx context.Context, searchID int64) ([]Failure, error) {
	rows, err := q.db.QueryContext(ctx, listFailures, searchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Failure
	for rows.Next() {
		var i Failure
		if err := rows.Scan(&i.SearchID, &i.Mirror, &i.Error); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertFeedItem = `-- name: InsertFeedItem :execrows
insert into feed_items (link, title, first_seen)
values (?, ?, ?)
on conflict (link) do nothing
`

type InsertFeedItemParams struct {
	Link      string
	Title     string
	FirstSeen int64
}

func (q *Queries) InsertFeedItem(ctx context.Context, arg InsertFeedItemParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertFeedItem, arg.Link, arg.Title, arg.FirstSeen)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
