// Package repo is the gorm-backed store layer. Every multi-statement
// mutation (rotation, mass revoke, permission back-fill) runs inside a
// single DB.Transaction so partial application is never observable.
package repo

import (
	"context"

	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}
