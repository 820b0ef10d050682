package clinic

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mr.Close)
	return NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestStoreReturnsDefaultWhenMissing(t *testing.T) {
	store := newTestStore(t)

	p, err := store.Get(context.Background(), "clinic-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.ClinicID != "clinic-1" {
		t.Errorf("ClinicID = %q", p.ClinicID)
	}
	if p.MinAdvanceHours != 2 || p.MaxAdvanceDays != 90 || p.MaxDailyAppointments != 50 {
		t.Errorf("unexpected defaults: %+v", p)
	}
	if p.IsOperatingDay(time.Saturday) {
		t.Error("default policy should not operate on Saturday")
	}
	if !p.IsOperatingDay(time.Wednesday) {
		t.Error("default policy should operate on Wednesday")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	custom := &Policy{
		ClinicID:               "clinic-2",
		MinAdvanceHours:        24,
		MaxAdvanceDays:         30,
		MaxDailyAppointments:   8,
		DefaultDurationMinutes: 45,
		OperatingDays:          []string{"tuesday", "saturday"},
		Timezone:               "America/Fortaleza",
	}
	if err := store.Set(ctx, custom); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "clinic-2")
	if err != nil {
		t.Fatal(err)
	}
	if got.MinAdvanceHours != 24 || got.MaxDailyAppointments != 8 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.IsOperatingDay(time.Saturday) || got.IsOperatingDay(time.Monday) {
		t.Errorf("operating days mismatch: %v", got.OperatingDays)
	}
}

func TestPolicyLocationFallsBackToUTC(t *testing.T) {
	p := DefaultPolicy("clinic-3")
	p.Timezone = "Not/AZone"
	if loc := p.Location(); loc != time.UTC {
		t.Errorf("Location() = %v, want UTC", loc)
	}
}
