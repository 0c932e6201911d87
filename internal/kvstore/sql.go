package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/harvestconnect/harvestcart/pkg/db"
	pkgerrors "github.com/harvestconnect/harvestcart/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQL keeps carts in the cart_kv_entries table.
type SQL struct {
	client    *db.Client
	opTimeout time.Duration
	now       func() time.Time
}

func NewSQL(client *db.Client, opTimeout time.Duration) *SQL {
	return &SQL{client: client, opTimeout: opTimeout, now: time.Now}
}

func (s *SQL) Get(key string) (string, bool, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	var entry db.KVEntry
	err := s.client.DB().WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapSQLError(err, "sql get cart")
	}
	return entry.Value, true, nil
}

func (s *SQL) Set(key, value string) error {
	ctx, cancel := s.opContext()
	defer cancel()

	entry := db.KVEntry{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	err := s.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return wrapSQLError(err, "sql set cart")
	}
	return nil
}

// Client exposes the underlying connection for migrations.
func (s *SQL) Client() *db.Client {
	return s.client
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *SQL) Close() error {
	return s.client.Close()
}

// wrapSQLError tags connectivity failures as dependency errors so they can
// be told apart from rejected statements in logs.
func wrapSQLError(err error, msg string) error {
	if db.IsTransient(err) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, msg)
}

func (s *SQL) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opTimeout)
}
