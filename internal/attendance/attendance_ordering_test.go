package attendance_test

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"go-skud/internal/attendance"
	"go-skud/internal/device"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memRepo keeps attendance rows in memory and counts inserts per key.
type memRepo struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[string]*attendance.AttendanceLog
	inserts map[string]int
}

func newMemRepo() *memRepo {
	return &memRepo{
		rows:    make(map[string]*attendance.AttendanceLog),
		inserts: make(map[string]int),
	}
}

func memKey(employeeID int64, date time.Time) string {
	return strconv.FormatInt(employeeID, 10) + "/" + date.Format("2006-01-02")
}

func (r *memRepo) WithTx(_ *gorm.DB) attendance.Repository { return r }

func (r *memRepo) FindForUpdate(_ context.Context, employeeID int64, date time.Time) (*attendance.AttendanceLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[memKey(employeeID, date)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *memRepo) Create(_ context.Context, a *attendance.AttendanceLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	k := memKey(a.EmployeeID, a.AttendanceDate)
	r.inserts[k]++
	cp := *a
	r.rows[k] = &cp
	return nil
}

func (r *memRepo) byID(id int64) *attendance.AttendanceLog {
	for _, row := range r.rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

func (r *memRepo) SetCheckinIfEmpty(_ context.Context, id int64, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.byID(id)
	if row == nil || row.Checkin != nil {
		return false, nil
	}
	row.Checkin = &at
	return true, nil
}

func (r *memRepo) SetCheckout(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row := r.byID(id); row != nil {
		row.Checkout = &at
	}
	return nil
}

func (r *memRepo) FindReport(context.Context, attendance.ReportFilter) ([]attendance.ReportRecord, int64, error) {
	return nil, 0, nil
}

func (r *memRepo) stored(employeeID int64, date time.Time) *attendance.AttendanceLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[memKey(employeeID, date)]
}

func setupMemService(t *testing.T, txs int) (attendance.Service, *memRepo, sqlmock.Sqlmock) {
	gdb, sqlMock := openGorm(t)
	for i := 0; i < txs; i++ {
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()
	}
	repo := newMemRepo()
	return attendance.NewService(gdb, repo), repo, sqlMock
}

func TestReconcile_FirstReceivedEntryIsKept(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, dushanbe)

	for round := 0; round < 25; round++ {
		n := 2 + rng.Intn(6)
		stamps := make([]time.Time, n)
		for i := range stamps {
			stamps[i] = at(7+rng.Intn(4), rng.Intn(60), rng.Intn(60))
		}

		svc, repo, sqlMock := setupMemService(t, n)
		for _, ts := range stamps {
			_, err := svc.Reconcile(ctx, attendanceEvent(device.DirectionEntry, ts))
			require.NoError(t, err)
		}

		row := repo.stored(42, day)
		require.NotNil(t, row)
		assert.Equal(t, stamps[0], *row.Checkin, "round %d", round)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	}
}

func TestReconcile_LastReceivedExitWins(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, dushanbe)

	t.Run("out of order arrival keeps the later arrival", func(t *testing.T) {
		svc, repo, _ := setupMemService(t, 3)

		_, err := svc.Reconcile(ctx, attendanceEvent(device.DirectionEntry, at(8, 2, 0)))
		require.NoError(t, err)
		_, err = svc.Reconcile(ctx, attendanceEvent(device.DirectionExit, at(17, 40, 0)))
		require.NoError(t, err)
		outcome, err := svc.Reconcile(ctx, attendanceEvent(device.DirectionExit, at(17, 5, 0)))
		require.NoError(t, err)

		assert.Equal(t, attendance.OutcomeUpdated, outcome)
		row := repo.stored(42, day)
		assert.Equal(t, at(8, 2, 0), *row.Checkin)
		assert.Equal(t, at(17, 5, 0), *row.Checkout)
	})

	t.Run("random sequences end on the last arrival", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		for round := 0; round < 25; round++ {
			n := 1 + rng.Intn(6)
			svc, repo, _ := setupMemService(t, n)

			var last time.Time
			for i := 0; i < n; i++ {
				last = at(12+rng.Intn(8), rng.Intn(60), 0)
				_, err := svc.Reconcile(ctx, attendanceEvent(device.DirectionExit, last))
				require.NoError(t, err)
			}
			assert.Equal(t, last, *repo.stored(42, day).Checkout, "round %d", round)
		}
	})
}

func TestReconcile_ConcurrentEntriesInsertOnce(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, dushanbe)
	const workers = 8

	svc, repo, sqlMock := setupMemService(t, workers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := svc.Reconcile(ctx, attendanceEvent(device.DirectionEntry, at(8, 0, i)))
			assert.NoError(t, err)
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, repo.inserts[memKey(42, day)])
	assert.NotNil(t, repo.stored(42, day).Checkin)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
