package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"
	"taskMaster/internal/repository/inmemory"
	"taskMaster/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (*service.UserService, *fakeClock) {
	t.Helper()
	clock := newClock()
	return service.NewUserService(inmemory.New(), clock.Now), clock
}

func TestUserService_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("success - creates with defaults", func(t *testing.T) {
		svc, clock := newUserService(t)

		user, created, err := svc.Upsert(ctx, service.Profile{ID: "subject-1", Email: "ann@example.com"})
		require.NoError(t, err)

		assert.True(t, created)
		assert.Equal(t, "ann@example.com", user.DisplayName)
		assert.Equal(t, models.DefaultSettings(), user.Settings)
		assert.Equal(t, "es", user.Settings.Language)
		assert.Equal(t, clock.Now(), user.CreatedAt)
		assert.Equal(t, clock.Now(), user.LastLoginAt)
	})

	t.Run("success - repeat keeps profile and creation time", func(t *testing.T) {
		svc, clock := newUserService(t)

		first, _, err := svc.Upsert(ctx, service.Profile{ID: "subject-1", Email: "ann@example.com", DisplayName: "Ann"})
		require.NoError(t, err)
		require.NoError(t, svc.ToggleDarkMode(ctx, "subject-1"))

		clock.Advance(time.Hour)
		second, created, err := svc.Upsert(ctx, service.Profile{ID: "subject-1", Email: "ann@example.com", DisplayName: "Other"})
		require.NoError(t, err)

		assert.False(t, created)
		assert.Equal(t, "Ann", second.DisplayName)
		assert.True(t, second.Settings.DarkMode)
		assert.Equal(t, first.CreatedAt, second.CreatedAt)
		assert.Equal(t, clock.Now(), second.LastLoginAt)
	})

	t.Run("error - empty subject", func(t *testing.T) {
		svc, _ := newUserService(t)

		_, _, err := svc.Upsert(ctx, service.Profile{Email: "ann@example.com"})
		var busErr *service.BusinessError
		assert.True(t, errors.As(err, &busErr))
	})
}

func TestUserService_RecordLoginDoesNotTouchUpdatedAt(t *testing.T) {
	ctx := context.Background()
	svc, clock := newUserService(t)

	user, _, err := svc.Upsert(ctx, service.Profile{ID: "subject-1", Email: "ann@example.com"})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	require.NoError(t, svc.RecordLogin(ctx, "subject-1"))

	got, err := svc.Get(ctx, "subject-1")
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), got.LastLoginAt)
	assert.Equal(t, user.UpdatedAt, got.UpdatedAt)

	assert.NoError(t, svc.RecordLogin(ctx, "missing"))
}

func TestUserService_Settings(t *testing.T) {
	ctx := context.Background()
	svc, clock := newUserService(t)

	user, _, err := svc.Upsert(ctx, service.Profile{ID: "subject-1", Email: "ann@example.com"})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	require.NoError(t, svc.ToggleDarkMode(ctx, user.ID))
	require.NoError(t, svc.ToggleNotifications(ctx, user.ID))
	require.NoError(t, svc.ToggleEmailNotifications(ctx, user.ID))
	require.NoError(t, svc.ToggleCalendarSync(ctx, user.ID))
	require.NoError(t, svc.ToggleBiometric(ctx, user.ID))
	require.NoError(t, svc.UpdateLanguage(ctx, user.ID, "en"))
	require.NoError(t, svc.UpdateDefaultView(ctx, user.ID, models.ViewBoard))
	require.NoError(t, svc.UpdateDefaultProject(ctx, user.ID, models.Ptr("project-1")))

	got, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserSettings{
		DarkMode:           true,
		Language:           "en",
		Notifications:      false,
		EmailNotifications: false,
		DefaultProjectID:   models.Ptr("project-1"),
		CalendarSync:       true,
		Biometric:          true,
		DefaultView:        models.ViewBoard,
	}, got.Settings)
	assert.Equal(t, clock.Now(), got.UpdatedAt)
	assert.Equal(t, user.LastLoginAt, got.LastLoginAt)

	require.NoError(t, svc.UpdateSettings(ctx, user.ID, models.DefaultSettings()))
	got, err = svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got.Settings)
}

func TestUserService_SettingsValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)

	_, _, err := svc.Upsert(ctx, service.Profile{ID: "subject-1", Email: "ann@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name string
		op   func() error
	}{
		{"error - empty language", func() error { return svc.UpdateLanguage(ctx, "subject-1", " ") }},
		{"error - unknown view", func() error { return svc.UpdateDefaultView(ctx, "subject-1", "GRID") }},
		{"error - settings with unknown view", func() error {
			settings := models.DefaultSettings()
			settings.DefaultView = "GRID"
			return svc.UpdateSettings(ctx, "subject-1", settings)
		}},
		{"error - empty display name", func() error { return svc.UpdateDisplayName(ctx, "subject-1", "") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var busErr *service.BusinessError
			assert.True(t, errors.As(tt.op(), &busErr))
		})
	}
}

func TestUserService_Profile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)

	_, _, err := svc.Upsert(ctx, service.Profile{ID: "subject-1", Email: "Ann@Example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateDisplayName(ctx, "subject-1", "Ann"))
	require.NoError(t, svc.UpdatePhoto(ctx, "subject-1", models.Ptr("https://example.com/a.png")))

	got, err := svc.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.DisplayName)
	assert.Equal(t, "https://example.com/a.png", *got.PhotoURL)

	require.NoError(t, svc.UpdatePhoto(ctx, "subject-1", nil))
	got, err = svc.Get(ctx, "subject-1")
	require.NoError(t, err)
	assert.Nil(t, got.PhotoURL)

	_, err = svc.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
