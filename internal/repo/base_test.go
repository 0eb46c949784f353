package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return conn
}

func TestBaseDBBindsContext(t *testing.T) {
	conn := openTestDB(t)
	base := NewBase(conn)

	ctx := context.Background()
	bound := base.DB(ctx)
	require.NotNil(t, bound)
	assert.Equal(t, ctx, bound.Statement.Context)
}

func TestBaseDBNilContext(t *testing.T) {
	conn := openTestDB(t)
	base := NewBase(conn)

	assert.NotNil(t, base.DB(nil))
}

func TestBaseWithTx(t *testing.T) {
	conn := openTestDB(t)
	base := NewBase(conn)

	tx := conn.Session(&gorm.Session{NewDB: true})
	rebound := base.WithTx(tx)
	assert.NotNil(t, rebound.DB(context.Background()))

	same := base.WithTx(nil)
	assert.Equal(t, base, same)
}
