package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cupom-store/internal/config"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/repository"
)

type failingSpecialDayRepo struct {
	repository.SpecialDayRepository
}

func (failingSpecialDayRepo) FindActiveAt(time.Time) (*models.SpecialDay, error) {
	return nil, errors.New("database unavailable")
}

func TestCurrentSpecialDayFailsClosed(t *testing.T) {
	svc := NewSpecialDayService(failingSpecialDayRepo{}, config.SpecialDayConfig{})
	if day := svc.CurrentSpecialDay(context.Background()); day != nil {
		t.Fatalf("lookup failure must behave as no special day, got %+v", day)
	}
}

func TestCurrentSpecialDayWindow(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSpecialDayService(repository.NewSpecialDayRepository(db), config.SpecialDayConfig{})
	base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	days := []models.SpecialDay{
		{Name: "Inativo", StartAt: base.Add(-3 * time.Hour), EndAt: base.Add(3 * time.Hour), IsActive: false},
		{Name: "Dia das Mães", StartAt: base.Add(-2 * time.Hour), EndAt: base.Add(2 * time.Hour), IsActive: true},
		{Name: "Sobreposto", StartAt: base.Add(-time.Hour), EndAt: base.Add(time.Hour), IsActive: true},
	}
	for i := range days {
		if err := db.Create(&days[i]).Error; err != nil {
			t.Fatalf("create day: %v", err)
		}
	}
	day := svc.CurrentSpecialDay(context.Background())
	if day == nil || day.Name != "Dia das Mães" {
		t.Fatalf("want earliest active window, got %+v", day)
	}

	svc.now = func() time.Time { return base.Add(5 * time.Hour) }
	if day := svc.CurrentSpecialDay(context.Background()); day != nil {
		t.Fatalf("outside every window, got %+v", day)
	}
}

func TestSpecialDayAdminValidation(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSpecialDayService(repository.NewSpecialDayRepository(db), config.SpecialDayConfig{})
	ctx := context.Background()
	start := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	tooMuch := 150

	cases := []SpecialDayInput{
		{Name: "", StartAt: start, EndAt: start.Add(time.Hour)},
		{Name: "Natal", StartAt: start, EndAt: start},
		{Name: "Natal", StartAt: start, EndAt: start.Add(-time.Hour)},
		{Name: "Natal", StartAt: start, EndAt: start.Add(time.Hour), ExtraDiscountPercent: &tooMuch},
	}
	for i, input := range cases {
		if _, err := svc.CreateSpecialDay(ctx, input, 1); !errors.Is(err, ErrInvalidSpecialDay) {
			t.Fatalf("case %d want ErrInvalidSpecialDay got %v", i, err)
		}
	}

	sp := time.FixedZone("BRT", -3*3600)
	day, err := svc.CreateSpecialDay(ctx, SpecialDayInput{Name: " Natal ", StartAt: start.In(sp), EndAt: start.Add(24 * time.Hour).In(sp), IsActive: true}, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if day.Name != "Natal" || day.StartAt.Location() != time.UTC || day.CreatedBy != 1 {
		t.Fatalf("unexpected day %+v", day)
	}

	updated, err := svc.UpdateSpecialDay(ctx, day.ID, SpecialDayInput{Name: "Natal", StartAt: start, EndAt: start.Add(48 * time.Hour), IsActive: false})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.IsActive {
		t.Fatalf("update must persist is_active=false")
	}
	if _, err := svc.UpdateSpecialDay(ctx, 999, SpecialDayInput{Name: "X", StartAt: start, EndAt: start.Add(time.Hour)}); !errors.Is(err, ErrSpecialDayNotFound) {
		t.Fatalf("want ErrSpecialDayNotFound got %v", err)
	}
	if err := svc.DeleteSpecialDay(ctx, day.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteSpecialDay(ctx, day.ID); !errors.Is(err, ErrSpecialDayNotFound) {
		t.Fatalf("second delete want ErrSpecialDayNotFound got %v", err)
	}
}

type nextLookupFailingRepo struct {
	repository.SpecialDayRepository
}

func (nextLookupFailingRepo) FindNextStartAfter(time.Time) (*models.SpecialDay, error) {
	return nil, errors.New("database unavailable")
}

func TestSpecialDayCacheTTL(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewSpecialDayService(repository.NewSpecialDayRepository(db), config.SpecialDayConfig{CacheTTLSeconds: 3600})
	base := time.Date(2026, 11, 27, 0, 0, 0, 0, time.UTC)

	if ttl := svc.cacheTTLFor(nil, base); ttl != time.Hour {
		t.Fatalf("no upcoming window keeps full ttl, got %s", ttl)
	}

	upcoming := &models.SpecialDay{Name: "Black Friday", StartAt: base.Add(10 * time.Minute), EndAt: base.Add(24 * time.Hour), IsActive: true}
	if err := db.Create(upcoming).Error; err != nil {
		t.Fatalf("create day: %v", err)
	}
	if ttl := svc.cacheTTLFor(nil, base); ttl != 10*time.Minute {
		t.Fatalf("empty result must expire when the next window starts, got %s", ttl)
	}
	if ttl := svc.cacheTTLFor(upcoming, base.Add(24*time.Hour-5*time.Minute)); ttl != 5*time.Minute {
		t.Fatalf("active window must expire at its end, got %s", ttl)
	}

	failing := NewSpecialDayService(nextLookupFailingRepo{}, config.SpecialDayConfig{CacheTTLSeconds: 3600})
	if ttl := failing.cacheTTLFor(nil, base); ttl != 0 {
		t.Fatalf("unknown next window must not be cached, got %s", ttl)
	}
}
