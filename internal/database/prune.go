package database

import (
	"context"
	"time"

	"github.com/nao1215/nyaacache/internal/model"
)

// PruneResult describes what a Prune call removed.
type PruneResult struct {
	// Queries are the deleted query rows, most recently used first.
	Queries []model.Query

	// TorrentsDeleted is the number of torrents left without any query.
	TorrentsDeleted int64

	// NothingToPrune is set when no query was older than the window.
	// The store is unchanged in that case.
	NothingToPrune bool
}

// Prune deletes every query whose last_used is at or before now-window,
// together with its associations, then deletes every torrent that no longer
// belongs to any query. Either everything is removed or nothing is.
func (cdb *CacheDB) Prune(ctx context.Context, window time.Duration, now time.Time) (result *PruneResult, err error) {
	if window < 0 {
		return nil, ErrNegativeWindow
	}
	cutoff := now.Unix() - int64(window/time.Second)

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("prune", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // the original error matters more
		}
	}()

	rows, err := tx.QueryContext(ctx, `
	SELECT id, query, last_used, created FROM queries
	WHERE last_used <= ?
	ORDER BY last_used DESC, id DESC
	`, cutoff)
	if err != nil {
		return nil, storageErr("prune", err)
	}

	stale := make([]model.Query, 0)
	for rows.Next() {
		q, scanErr := scanQuery(rows)
		if scanErr != nil {
			_ = rows.Close()
			err = scanErr
			return nil, storageErr("prune", err)
		}
		stale = append(stale, *q)
	}
	if err = rows.Err(); err != nil {
		_ = rows.Close()
		return nil, storageErr("prune", err)
	}
	if err = rows.Close(); err != nil {
		return nil, storageErr("prune", err)
	}

	if len(stale) == 0 {
		if err = tx.Commit(); err != nil {
			return nil, storageErr("prune", err)
		}
		return &PruneResult{NothingToPrune: true}, nil
	}

	// ON DELETE CASCADE drops the query2torrent rows of these queries.
	if _, err = tx.ExecContext(ctx, `DELETE FROM queries WHERE last_used <= ?`, cutoff); err != nil {
		return nil, storageErr("prune", err)
	}

	res, err := tx.ExecContext(ctx, `
	DELETE FROM torrents
	WHERE NOT EXISTS (
		SELECT 1 FROM query2torrent AS qt WHERE qt.torrent_id = torrents.id
	)
	`)
	if err != nil {
		return nil, storageErr("prune", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return nil, storageErr("prune", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, storageErr("prune", err)
	}

	return &PruneResult{
		Queries:         stale,
		TorrentsDeleted: deleted,
	}, nil
}
