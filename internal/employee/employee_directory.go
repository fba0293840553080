package employee

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	employeeerrors "go-skud/internal/employee/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DirectoryKeyPrefix = "employees:directory:"

func GetDirectoryKey(id int64) string {
	return DirectoryKeyPrefix + strconv.FormatInt(id, 10)
}

func fmtID(id int64) string {
	return "ID " + strconv.FormatInt(id, 10)
}

//go:generate mockgen -source=employee_directory.go -destination=mock/employee_directory_mock.go -package=mock
type Directory interface {
	// Lookup returns employeeerrors.ErrEmployeeNotFound for unknown ids.
	Lookup(ctx context.Context, id int64) (DirectoryEntry, error)
}

type directory struct {
	repo   Repository
	rdb    *redis.Client
	ttl    time.Duration
	sf     *singleflight.Group
	logger *zap.Logger
}

// NewDirectory wraps repo with a redis read-through cache. rdb may be nil,
// in which case every lookup goes to the database.
func NewDirectory(repo Repository, rdb *redis.Client, ttl time.Duration, logger ...*zap.Logger) Directory {
	l := zap.L().Named("employee.directory")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.directory")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &directory{
		repo:   repo,
		rdb:    rdb,
		ttl:    ttl,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (d *directory) Lookup(ctx context.Context, id int64) (DirectoryEntry, error) {
	if id <= 0 {
		return DirectoryEntry{}, employeeerrors.ErrInvalidEmployeeID
	}
	cacheKey := GetDirectoryKey(id)

	if d.rdb != nil {
		if cached, err := d.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var entry DirectoryEntry
			if json.Unmarshal([]byte(cached), &entry) == nil {
				return entry, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			d.logger.Warn("employee cache read failed", zap.Int64("employee_id", id), zap.Error(err))
		}
	}

	// terminals burst the same badge several times per second
	v, err, _ := d.sf.Do(cacheKey, func() (any, error) {
		empl, err := d.repo.FindByID(ctx, id)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		entry := DirectoryEntry{ID: empl.ID, FullName: empl.FullName}

		if d.rdb != nil {
			if jsonData, err := json.Marshal(entry); err == nil {
				if err := d.rdb.Set(ctx, cacheKey, jsonData, d.ttl).Err(); err != nil {
					d.logger.Warn("employee cache write failed", zap.Int64("employee_id", id), zap.Error(err))
				}
			}
		}

		return entry, nil
	})
	if err != nil {
		return DirectoryEntry{}, err
	}

	return v.(DirectoryEntry), nil
}
