package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// DB returns the transaction when one is set, otherwise the fallback handle, bound to Ctx.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	t := c.Tx
	if t == nil {
		t = fallback
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return t.WithContext(ctx)
}

// Transaction runs fn inside a transaction. When c already carries one, fn joins it instead of
// opening a nested transaction.
func (c Context) Transaction(fallback *gorm.DB, fn func(Context) error) error {
	if c.Tx != nil {
		return fn(c)
	}
	return c.DB(fallback).Transaction(func(tx *gorm.DB) error {
		return fn(Context{Ctx: c.Ctx, Tx: tx})
	})
}
