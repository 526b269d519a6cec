package db

import (
	"database/sql"
)

type Search struct {
	ID        int64
	RawQuery  string
	Query     string
	Mirror    string
	CreatedAt int64
}

type Record struct {
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

type Failure struct {
	SearchID int64
	Mirror   string
	Error    string
}

type FeedItem struct {
	Link      string
	Title     string
	FirstSeen int64
}
