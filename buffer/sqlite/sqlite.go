/*
 * MIT License
 *
 * Copyright (c) 2026 logshipper authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package sqlite is the file-backed buffer.Buffer: rows survive a process
// restart in a single-table SQLite database opened through gorm.io/gorm,
// the same driver wiring database/gorm uses for its own Driver.Dialector.
package sqlite

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sabouaram/logshipper/buffer"
	"github.com/sabouaram/logshipper/event"

	drvsql "gorm.io/driver/sqlite"
	gormdb "gorm.io/gorm"
)

// DefaultChunkSize bounds how many row IDs go into a single IN (...) clause,
// mirroring DatabaseEventChunkSize in the facade Config.
const DefaultChunkSize = 750

// DefaultOpenTimeout is applied when Open is called with timeout <= 0,
// matching the database_timeout default in the facade Config.
const DefaultOpenTimeout = 5 * time.Second

// Buffer is a SQLite-backed buffer.Buffer.
type Buffer struct {
	mu        sync.Mutex
	db        *gormdb.DB
	chunkSize int
	closed    atomic.Bool
}

// Open creates (if needed) and migrates the event_rows table at path, then
// resets every InFlight row to Queued -- a crash mid-send must not strand
// rows in flight forever. chunkSize <= 0 falls back to DefaultChunkSize.
// timeout bounds the whole open-migrate-reset sequence, the connect-timeout
// the spec describes for the durable buffer's file-backed backend; timeout
// <= 0 falls back to DefaultOpenTimeout.
func Open(path string, chunkSize int, timeout time.Duration) (*Buffer, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if timeout <= 0 {
		timeout = DefaultOpenTimeout
	}

	type result struct {
		b   *Buffer
		err error
	}
	done := make(chan result, 1)

	go func() {
		db, err := gormdb.Open(drvsql.Open(path), &gormdb.Config{})
		if err != nil {
			done <- result{err: ErrorDatabaseOpen.Error(err)}
			return
		}

		if err = db.AutoMigrate(&eventRow{}); err != nil {
			done <- result{err: ErrorDatabaseMigrate.Error(err)}
			return
		}

		b := &Buffer{db: db, chunkSize: chunkSize}

		if err = b.resetInFlight(); err != nil {
			done <- result{err: err}
			return
		}

		done <- result{b: b}
	}()

	select {
	case r := <-done:
		return r.b, r.err
	case <-time.After(timeout):
		// The goroutine above may still complete after we give up on it;
		// it closes over nothing the caller can race on, so we simply
		// stop waiting and report the timeout.
		return nil, ErrorDatabaseOpenTimeout.Error(nil)
	}
}

func (b *Buffer) resetInFlight() error {
	tx := b.db.Model(&eventRow{}).
		Where("send_state = ?", uint8(event.InFlight)).
		Update("send_state", uint8(event.Queued))
	if tx.Error != nil {
		return ErrorDatabaseExec.Error(tx.Error)
	}
	return nil
}

func timeToUnixMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func unixMillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (b *Buffer) Enqueue(_ context.Context, payload []byte, at time.Time) (int64, error) {
	if b.closed.Load() {
		return 0, buffer.ErrorClosed.Error(nil)
	}

	row := &eventRow{
		Payload:      payload,
		PendingSince: timeToUnixMillis(at),
		SendState:    uint8(event.Queued),
	}

	if tx := b.db.Create(row); tx.Error != nil {
		return 0, ErrorDatabaseExec.Error(tx.Error)
	}

	return row.ID, nil
}

func (b *Buffer) ClaimBatch(_ context.Context, limit int) ([]event.Row, error) {
	if b.closed.Load() {
		return nil, buffer.ErrorClosed.Error(nil)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var rows []eventRow
	if tx := b.db.Where("send_state = ?", uint8(event.Queued)).
		Order("id asc").
		Limit(limit).
		Find(&rows); tx.Error != nil {
		return nil, ErrorDatabaseQuery.Error(tx.Error)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	if err := b.updateStateChunked(ids, event.InFlight); err != nil {
		return nil, err
	}

	out := make([]event.Row, len(rows))
	for i, r := range rows {
		r.SendState = uint8(event.InFlight)
		out[i] = r.toRow()
	}

	return out, nil
}

func (b *Buffer) Ack(_ context.Context, ids []int64) error {
	if b.closed.Load() {
		return buffer.ErrorClosed.Error(nil)
	}
	return b.deleteChunked(ids)
}

func (b *Buffer) Requeue(_ context.Context, ids []int64) error {
	if b.closed.Load() {
		return buffer.ErrorClosed.Error(nil)
	}
	return b.updateStateChunked(ids, event.Queued)
}

func (b *Buffer) Expire(_ context.Context, now time.Time, ttl time.Duration) (int, error) {
	if b.closed.Load() {
		return 0, buffer.ErrorClosed.Error(nil)
	}
	if ttl <= 0 {
		return 0, nil
	}

	cutoff := timeToUnixMillis(now.Add(-ttl))

	tx := b.db.Where("pending_since < ?", cutoff).Delete(&eventRow{})
	if tx.Error != nil {
		return 0, ErrorDatabaseExec.Error(tx.Error)
	}

	return int(tx.RowsAffected), nil
}

func (b *Buffer) Size(_ context.Context) (int, error) {
	if b.closed.Load() {
		return 0, buffer.ErrorClosed.Error(nil)
	}

	var n int64
	if tx := b.db.Model(&eventRow{}).Count(&n); tx.Error != nil {
		return 0, ErrorDatabaseQuery.Error(tx.Error)
	}

	return int(n), nil
}

func (b *Buffer) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	sqlDB, err := b.db.DB()
	if err != nil {
		return ErrorDatabaseCannotSQLDB.Error(err)
	}

	return sqlDB.Close()
}

// updateStateChunked rewrites send_state for ids in batches no larger than
// b.chunkSize, keeping a single IN (...) clause within SQLite's variable
// limit for large claim/requeue batches.
func (b *Buffer) updateStateChunked(ids []int64, state event.SendState) error {
	for _, chunk := range chunkIDs(ids, b.chunkSize) {
		tx := b.db.Model(&eventRow{}).
			Where("id in ?", chunk).
			Update("send_state", uint8(state))
		if tx.Error != nil {
			return ErrorDatabaseExec.Error(tx.Error)
		}
	}
	return nil
}

func (b *Buffer) deleteChunked(ids []int64) error {
	for _, chunk := range chunkIDs(ids, b.chunkSize) {
		tx := b.db.Where("id in ?", chunk).Delete(&eventRow{})
		if tx.Error != nil {
			return ErrorDatabaseExec.Error(tx.Error)
		}
	}
	return nil
}

func chunkIDs(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks [][]int64
	for len(ids) > 0 {
		n := size
		if n > len(ids) {
			n = len(ids)
		}
		chunks = append(chunks, ids[:n])
		ids = ids[n:]
	}
	return chunks
}

var _ buffer.Buffer = (*Buffer)(nil)
