// Package store keeps a history of searches and of feed items already announced.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bookmirror/internal/components/assert"
	"bookmirror/internal/components/chrono"
	"bookmirror/internal/components/telemetry"
	"bookmirror/internal/db"
	"bookmirror/internal/extract"
	"bookmirror/internal/race"
	configsqlite "bookmirror/lib/configutil/sqlite"
)

const (
	report_store_save_outcome = "store.save-outcome"
	report_store_mark_seen    = "store.mark-seen"
)

type Store struct {
	sqlite *sql.DB
	qry    *db.Queries
	makeTx db.MakeTx
	clock  chrono.API
	tel    telemetry.API
}

// Open opens the database at path, ":memory:" keeps everything in memory.
func Open(path string, clock chrono.API, tel telemetry.API) (*Store, error) {
	assert.NotNil(clock)
	assert.NotNil(tel)

	sqlite, err := configsqlite.Struct{File: path}.OpenDB(db.Schema)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{
		sqlite: sqlite,
		qry:    db.New(sqlite),
		makeTx: db.NewMakeTx(sqlite),
		clock:  clock,
		tel:    telemetry.NewScopedAPI("store", tel),
	}, nil
}

func (s *Store) Close() error {
	return s.sqlite.Close()
}

// SaveOutcome records a search and what came of it, it returns the id of the search.
func (s *Store) SaveOutcome(ctx context.Context, rawQuery string, outcome race.Outcome) (int64, error) {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_store_save_outcome, err)
		return 0, err
	}
	defer discard()

	id, err := tx.InsertSearch(ctx, db.InsertSearchParams{
		RawQuery:  rawQuery,
		Query:     outcome.Query,
		Mirror:    outcome.Mirror,
		CreatedAt: s.clock.Now().Unix(),
	})
	if err != nil {
		s.tel.ReportBroken(report_store_save_outcome, fmt.Errorf("insert search: %w", err))
		return 0, err
	}

	for i, rec := range outcome.Records {
		var added sql.NullInt64
		if rec.Added != nil {
			added = sql.NullInt64{Int64: rec.Added.Unix(), Valid: true}
		}
		err = tx.InsertRecord(ctx, db.InsertRecordParams{
			SearchID:  id,
			Position:  int64(i),
			BookID:    rec.ID,
			Author:    rec.Author,
			Title:     rec.Title,
			Series:    rec.Series,
			Publisher: rec.Publisher,
			Year:      rec.Year,
			Language:  rec.Language,
			Pages:     rec.Pages,
			Size:      rec.Size,
			SizeBytes: rec.SizeBytes,
			Extension: rec.Extension,
			Download:  rec.Download,
			AddedAt:   added,
		})
		if err != nil {
			s.tel.ReportBroken(report_store_save_outcome, fmt.Errorf("insert record: %w", err), i)
			return 0, err
		}
	}

	for _, f := range outcome.Failures {
		message := ""
		if f.Error != nil {
			message = f.Error.Error()
		}
		err = tx.InsertFailure(ctx, db.InsertFailureParams{
			SearchID: id,
			Mirror:   f.Mirror,
			Error:    message,
		})
		if err != nil {
			s.tel.ReportBroken(report_store_save_outcome, fmt.Errorf("insert failure: %w", err), f.Mirror)
			return 0, err
		}
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_store_save_outcome, fmt.Errorf("commit: %w", err))
		return 0, err
	}
	return id, nil
}

type Search struct {
	ID        int64
	RawQuery  string
	Query     string
	Mirror    string
	CreatedAt time.Time
	Records   []extract.SearchRecord
	// Failures maps mirror names to the error message they failed with.
	Failures map[string]string
}

// RecentSearches returns up to limit searches, newest first.
func (s *Store) RecentSearches(ctx context.Context, limit int) ([]Search, error) {
	rows, err := s.qry.ListSearches(ctx, int64(limit))
	if err != nil {
		return nil, err
	}

	out := make([]Search, 0, len(rows))
	for _, row := range rows {
		search, err := s.loadSearch(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, search)
	}
	return out, nil
}

func (s *Store) loadSearch(ctx context.Context, row db.Search) (Search, error) {
	search := Search{
		ID:        row.ID,
		RawQuery:  row.RawQuery,
		Query:     row.Query,
		Mirror:    row.Mirror,
		CreatedAt: time.Unix(row.CreatedAt, 0).In(s.clock.Location()),
		Records:   []extract.SearchRecord{},
		Failures:  map[string]string{},
	}

	records, err := s.qry.ListRecords(ctx, row.ID)
	if err != nil {
		return Search{}, fmt.Errorf("list records: %w", err)
	}
	for _, r := range records {
		rec := extract.SearchRecord{
			ID:        r.BookID,
			Author:    r.Author,
			Title:     r.Title,
			Series:    r.Series,
			Publisher: r.Publisher,
			Year:      r.Year,
			Language:  r.Language,
			Pages:     r.Pages,
			Size:      r.Size,
			SizeBytes: r.SizeBytes,
			Extension: r.Extension,
			Download:  r.Download,
		}
		if r.AddedAt.Valid {
			added := time.Unix(r.AddedAt.Int64, 0).UTC()
			rec.Added = &added
		}
		search.Records = append(search.Records, rec)
	}

	failures, err := s.qry.ListFailures(ctx, row.ID)
	if err != nil {
		return Search{}, fmt.Errorf("list failures: %w", err)
	}
	for _, f := range failures {
		search.Failures[f.Mirror] = f.Error
	}

	return search, nil
}

// MarkSeen remembers a feed item by its link, it reports whether the link is new.
func (s *Store) MarkSeen(ctx context.Context, rec extract.FeedRecord) (bool, error) {
	affected, err := s.qry.InsertFeedItem(ctx, db.InsertFeedItemParams{
		Link:      rec.Link,
		Title:     rec.Title,
		FirstSeen: s.clock.Now().Unix(),
	})
	if err != nil {
		s.tel.ReportBroken(report_store_mark_seen, err, rec.Link)
		return false, err
	}
	return affected > 0, nil
}
