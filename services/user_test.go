package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/algoviz-app/algoviz_api/dto"
	"github.com/algoviz-app/algoviz_api/model"
)

func TestEnsureUserIsIdempotent(t *testing.T) {
	sqlSvc := newTestSql(t)
	svc := &UserService{sqlSvc: sqlSvc}

	require.NoError(t, svc.EnsureUser("uma@example_com", "uma@example.com", "Uma"))

	// A second backfill with different details must not clobber the profile.
	require.NoError(t, svc.EnsureUser("uma@example_com", "other@example.com", "Someone Else"))

	user, err := sqlSvc.GetUser("uma@example_com")
	require.NoError(t, err)
	require.Equal(t, "uma@example.com", user.Email)
	require.Equal(t, "Uma", user.Name)
	require.Equal(t, "python", user.Language)
	require.True(t, user.EmailNotifications)
}

func TestEnsureUserRejectsEmptyID(t *testing.T) {
	svc := &UserService{sqlSvc: newTestSql(t)}
	require.Error(t, svc.EnsureUser("", "x@example.com", "X"))
}

func TestNextStreak(t *testing.T) {
	svc := &UserService{streakLoc: time.UTC}
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	sameDay := now.Add(-2 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)
	threeDaysAgo := now.Add(-72 * time.Hour)
	lateYesterday := time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)

	cases := []struct {
		name        string
		user        model.User
		wantCurrent int
		wantLongest int
	}{
		{"first activity ever", model.User{}, 1, 1},
		{"same day keeps streak", model.User{
			CurrentStreak: 4, LongestStreak: 6, LastActivityAt: &sameDay,
		}, 4, 6},
		{"consecutive day extends", model.User{
			CurrentStreak: 4, LongestStreak: 6, LastActivityAt: &yesterday,
		}, 5, 6},
		{"extension sets new record", model.User{
			CurrentStreak: 6, LongestStreak: 6, LastActivityAt: &yesterday,
		}, 7, 7},
		{"gap resets to one", model.User{
			CurrentStreak: 9, LongestStreak: 9, LastActivityAt: &threeDaysAgo,
		}, 1, 9},
		{"late evening still counts as previous day", model.User{
			CurrentStreak: 2, LongestStreak: 3, LastActivityAt: &lateYesterday,
		}, 3, 3},
		{"same day with zero streak floors at one", model.User{
			LastActivityAt: &sameDay,
		}, 1, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			current, longest := svc.nextStreak(&tc.user, now)
			require.Equal(t, tc.wantCurrent, current)
			require.Equal(t, tc.wantLongest, longest)
		})
	}
}

func TestNextStreakUsesConfiguredCalendar(t *testing.T) {
	svc := &UserService{streakLoc: time.FixedZone("UTC+2", 2*60*60)}

	// 23:00 UTC is already the next calendar day in UTC+2, while 20:00 UTC
	// the same UTC day is still the previous local date: consecutive days,
	// so the streak extends.
	now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	last := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

	user := model.User{CurrentStreak: 4, LongestStreak: 4, LastActivityAt: &last}
	current, longest := svc.nextStreak(&user, now)
	require.Equal(t, 5, current)
	require.Equal(t, 5, longest)
}

func TestIncrementCompletedRollsStats(t *testing.T) {
	sqlSvc := newTestSql(t)
	svc := &UserService{sqlSvc: sqlSvc}

	require.NoError(t, sqlSvc.CreateUser(&model.User{
		ID:    "vic@example_com",
		Email: "vic@example.com",
	}))

	require.NoError(t, svc.IncrementCompleted("vic@example_com"))
	require.NoError(t, svc.IncrementCompleted("vic@example_com"))

	user, err := sqlSvc.GetUser("vic@example_com")
	require.NoError(t, err)
	require.Equal(t, 2, user.TotalCompleted)
	require.Equal(t, 1, user.CurrentStreak)
	require.Equal(t, 1, user.LongestStreak)
	require.NotNil(t, user.LastActivityAt)
}

func TestUpdatePreferencesIsPartial(t *testing.T) {
	sqlSvc := newTestSql(t)
	svc := &UserService{sqlSvc: sqlSvc}

	require.NoError(t, svc.EnsureUser("wes@example_com", "wes@example.com", "Wes"))

	theme := "dark"
	profile, err := svc.UpdatePreferences("wes@example_com", &dto.UpdatePreferencesRequest{
		Theme: &theme,
	})
	require.NoError(t, err)
	require.Equal(t, "dark", profile.Preferences.Theme)
	require.Equal(t, "python", profile.Preferences.Language)
	require.True(t, profile.Preferences.EmailNotifications)

	off := false
	profile, err = svc.UpdatePreferences("wes@example_com", &dto.UpdatePreferencesRequest{
		EmailNotifications: &off,
	})
	require.NoError(t, err)
	require.Equal(t, "dark", profile.Preferences.Theme)
	require.False(t, profile.Preferences.EmailNotifications)
}

func TestUpdateProfileSkipsEmptyFields(t *testing.T) {
	svc := &UserService{sqlSvc: newTestSql(t)}

	require.NoError(t, svc.EnsureUser("yara@example_com", "yara@example.com", "Yara"))

	profile, err := svc.UpdateProfile("yara@example_com", &dto.UpdateProfileRequest{
		Image: "https://cdn.example.com/yara.png",
	})
	require.NoError(t, err)
	require.Equal(t, "Yara", profile.Name)
	require.Equal(t, "https://cdn.example.com/yara.png", profile.Image)
}
