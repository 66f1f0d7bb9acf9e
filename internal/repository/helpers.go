package repository

import (
	"database/sql"
	"errors"
)

// HandleNotFound converts sql.ErrNoRows into a nil result without error.
// Lookups like GetByID and FindByUsername report a missing row as (nil, nil)
// so callers can distinguish absence from a store failure.
//
// Usage:
//
//	var msg model.Message
//	err := r.db.GetContext(ctx, &msg, `SELECT * FROM messages WHERE id = $1`, id)
//	return HandleNotFound(&msg, err)
func HandleNotFound[T any](result *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
