package service

import (
	"context"
	"errors"
	"familynotes/cmd/internal/utils/apierror"
	"familynotes/cmd/internal/utils/dbctx"

	"github.com/labstack/gommon/log"
)

// errRollback aborts a transaction whose body produced an API error.
var errRollback = errors.New("rollback requested")

// runTx runs fn in a transaction. Any ErrorResponse returned by fn rolls the
// whole transaction back and is handed to the caller untouched.
func runTx(ctx context.Context, tx TxRunner, fn func(dbc dbctx.Context) apierror.ErrorResponse) apierror.ErrorResponse {
	var apierr apierror.ErrorResponse
	err := tx.InTx(ctx, func(dbc dbctx.Context) error {
		apierr = fn(dbc)
		if apierr != nil {
			return errRollback
		}
		return nil
	})

	if apierr != nil {
		return apierr
	}

	if err != nil {
		log.Errorf("transaction failed: %v", err)
		return apierror.InternalServerError
	}
	return nil
}

func internalError(op string, err error) apierror.ErrorResponse {
	log.Errorf("failed to %s: %v", op, err)
	return apierror.InternalServerError
}
