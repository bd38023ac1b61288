package database

import (
	"errors"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteDialect is the gorm sqlite dialect driven by modernc.org/sqlite.
// The stock Translate only understands mattn's error type, so constraint
// failures from modernc are mapped to gorm's sentinel errors here.
type sqliteDialect struct {
	sqlite.Dialector
}

func (d sqliteDialect) Translate(err error) error {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return d.Dialector.Translate(err)
	}
	switch code := sqliteErr.Code(); {
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return gorm.ErrDuplicatedKey
	case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return gorm.ErrForeignKeyViolated
	case code&0xff == sqlite3.SQLITE_CONSTRAINT:
		// Primary code only; the message names the constraint.
		msg := sqliteErr.Error()
		if strings.Contains(msg, "UNIQUE constraint failed") {
			return gorm.ErrDuplicatedKey
		}
		if strings.Contains(msg, "FOREIGN KEY constraint failed") {
			return gorm.ErrForeignKeyViolated
		}
	}
	return err
}
