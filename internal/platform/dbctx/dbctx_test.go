package dbctx

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type row struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:dbctx_test?mode=memory&cache=private"), &gorm.Config{Logger: gormLogger.Discard})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(&row{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestTransactionRollsBackOnError(t *testing.T) {
	db := openDB(t)
	boom := errors.New("boom")
	err := Context{Ctx: context.Background()}.Transaction(db, func(dbc Context) error {
		if dbc.Tx == nil {
			t.Fatalf("fn must receive the transaction")
		}
		if err := dbc.DB(db).Create(&row{Name: "a"}).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got=%v", err)
	}
	var n int64
	db.Model(&row{}).Count(&n)
	if n != 0 {
		t.Fatalf("rows after rollback: got=%d", n)
	}
}

func TestTransactionJoinsExisting(t *testing.T) {
	db := openDB(t)
	err := db.Transaction(func(tx *gorm.DB) error {
		outer := Context{Ctx: context.Background(), Tx: tx}
		return outer.Transaction(db, func(inner Context) error {
			if inner.Tx != tx {
				t.Fatalf("inner must reuse the outer transaction")
			}
			return inner.DB(db).Create(&row{Name: "b"}).Error
		})
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	var n int64
	db.Model(&row{}).Count(&n)
	if n != 1 {
		t.Fatalf("rows: got=%d want=1", n)
	}
}
