package repository

import (
	"context"
	"familynotes/cmd/internal/utils/dbctx"

	"gorm.io/gorm"
)

// conn picks the transaction when there is one. Using the root handle inside
// a transaction would deadlock on SQLite's single connection.
func conn(db *gorm.DB, dbc dbctx.Context) *gorm.DB {
	ctx := dbc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if dbc.Tx != nil {
		return dbc.Tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
