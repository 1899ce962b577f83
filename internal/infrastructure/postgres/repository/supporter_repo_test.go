package repository

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlRecorder captures the statements gorm builds.
type sqlRecorder struct {
	mu    sync.Mutex
	stmts []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface      { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stmts = append(r.stmts, sql)
}

func (r *sqlRecorder) all() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.stmts, "\n")
}

// dryRunDB builds statements without ever connecting.
func dryRunDB(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=kickstarter dbname=kickstarter sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 rec,
	})
	require.NoError(t, err)
	return db, rec
}

func TestSupporterRepository_LocksRowInsideTransaction(t *testing.T) {
	db, rec := dryRunDB(t)
	repo, ok := (&Store{db: db, inTx: true}).Supporters().(*DefaultSupporterRepository)
	require.True(t, ok)

	_, _ = repo.GetSupporter(context.Background(), "alice")

	sql := rec.all()
	assert.Contains(t, sql, `INSERT INTO "supporters"`)
	assert.Contains(t, sql, "ON CONFLICT DO NOTHING")
	assert.Contains(t, sql, "FOR UPDATE")
	assert.Less(t, strings.Index(sql, "ON CONFLICT DO NOTHING"), strings.Index(sql, "FOR UPDATE"))
}

func TestSupporterRepository_PlainReadTakesNoLock(t *testing.T) {
	db, rec := dryRunDB(t)
	repo := NewStore(db).Supporters()

	_, _ = repo.GetSupporter(context.Background(), "alice")

	sql := rec.all()
	assert.Contains(t, sql, `FROM "supporters"`)
	assert.NotContains(t, sql, "INSERT")
	assert.NotContains(t, sql, "FOR UPDATE")
}
