package internal

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"reservas-backend/internal/model"
	"reservas-backend/internal/parse"
	"reservas-backend/internal/realtime"
	"reservas-backend/internal/reconcile"
	"reservas-backend/internal/store"
)

// legacyReservations is a deployed schema that predates both the English
// shift tokens and the phone column.
const legacyReservations = `CREATE TABLE reservations (
	id TEXT PRIMARY KEY,
	date TEXT NOT NULL,
	shift TEXT NOT NULL CHECK (shift IN ('almoco', 'jantar')),
	table_number INTEGER NOT NULL,
	client_name TEXT NOT NULL,
	guest_count INTEGER NOT NULL,
	reservation_time TEXT NOT NULL,
	notes TEXT,
	UNIQUE (date, shift, table_number)
)`

func newInstance(t *testing.T, gdb *gorm.DB, rdb *redis.Client) *reconcile.Controller {
	feed := realtime.NewRedisFeed(rdb, "it", zerolog.Nop())
	c := reconcile.NewController(store.NewGormStore(gdb),
		reconcile.WithFeed(feed),
		reconcile.WithPublishWrites(true),
	)
	t.Cleanup(c.Close)
	return c
}

// TestTwoInstancesConvergeOnDriftedSchema runs two service instances against
// one legacy database. Writes on one reach the other through the realtime
// feed, and a periodic refetch on either yields the same committed view.
func TestTwoInstancesConvergeOnDriftedSchema(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := gdb.DB()
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, gdb.Exec(legacyReservations).Error)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	front := newInstance(t, gdb, rdb)
	floor := newInstance(t, gdb, rdb)
	require.NoError(t, front.SetActiveDate(ctx, "2025-03-01"))
	require.NoError(t, floor.SetActiveDate(ctx, "2025-03-01"))

	// --- Save with a phone against a schema without a phone column ---
	err = front.Save(ctx, reconcile.SaveRequest{
		Shift:       model.ShiftLunch,
		TableNumber: 7,
		ClientName:  "Maria",
		GuestCount:  4,
		Phone:       "5599999999999",
		Notes:       "Aniversário",
	})
	require.NoError(t, err)

	saved, ok := front.Cache().Lookup(model.ShiftLunch, 7)
	require.True(t, ok)
	assert.Equal(t, "5599999999999", saved.Phone)
	assert.Equal(t, "12:00", saved.ReservationTime)
	assert.Equal(t, "Aniversário", parse.DisplayNotes(saved.Notes))

	var stored model.Row
	require.NoError(t, gdb.Raw("SELECT * FROM reservations").Scan(&stored).Error)
	assert.Equal(t, "almoco", stored.Shift)

	assert.Eventually(t, func() bool {
		r, ok := floor.Cache().Lookup(model.ShiftLunch, 7)
		return ok && r.ID == saved.ID && r.Phone == "5599999999999"
	}, 2*time.Second, 10*time.Millisecond, "floor instance never saw the booking")

	// --- Arrival from the other instance, twice ---
	require.NoError(t, floor.MarkArrived(ctx, model.ShiftLunch, 7))
	require.NoError(t, floor.MarkArrived(ctx, model.ShiftLunch, 7))

	assert.Eventually(t, func() bool {
		r, ok := front.Cache().Lookup(model.ShiftLunch, 7)
		return ok && r.Arrived
	}, 2*time.Second, 10*time.Millisecond, "front instance never saw the arrival")

	require.NoError(t, front.Refetch(ctx))
	arrived, _ := front.Cache().Lookup(model.ShiftLunch, 7)
	assert.Equal(t, "Status: chegou | Telefone: 5599999999999 | Aniversário", arrived.Notes)

	// --- Overwrite keeps a single row ---
	require.NoError(t, front.Save(ctx, reconcile.SaveRequest{
		Shift: model.ShiftLunch, TableNumber: 7, ClientName: "Maria Clara", GuestCount: 5, ReservationTime: "12:30",
		Phone: "5599999999999", Notes: "Aniversário",
	}))
	var count int64
	require.NoError(t, gdb.Model(&model.Row{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	overwritten, _ := front.Cache().Lookup(model.ShiftLunch, 7)
	assert.True(t, overwritten.Arrived, "overwriting must not lose the arrival")

	// --- Delete propagates ---
	require.NoError(t, front.Delete(ctx, model.ShiftLunch, 7))
	assert.Eventually(t, func() bool {
		_, ok := floor.Cache().Lookup(model.ShiftLunch, 7)
		return !ok
	}, 2*time.Second, 10*time.Millisecond, "floor instance kept the deleted booking")

	// --- Writes for another date do not leak into the active view ---
	require.NoError(t, floor.SetActiveDate(ctx, "2025-03-02"))
	require.NoError(t, front.Save(ctx, reconcile.SaveRequest{Shift: model.ShiftDinner, TableNumber: 3, ClientName: "Ana"}))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, floor.Cache().Snapshot())
	assert.Equal(t, "2025-03-02", floor.ActiveDate())
}
