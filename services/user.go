package services

import (
	"os"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/algoviz-app/algoviz_api/dto"
	"github.com/algoviz-app/algoviz_api/model"
	"github.com/algoviz-app/algoviz_api/shared"
)

// UserService owns profile data, preferences and the activity streak
// counters that completion events feed.
type UserService struct {
	context.DefaultService

	sqlSvc *SqlService

	// streakLoc is the timezone whose calendar dates the streak rolls on.
	streakLoc *time.Location
}

const USER_SVC = "user_svc"

func (svc UserService) Id() string {
	return USER_SVC
}

func (svc *UserService) Configure(ctx *context.Context) error {
	svc.streakLoc = time.Local
	if tz := os.Getenv("STREAK_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			log.WithError(err).WithField("tz", tz).Warn("Invalid STREAK_TIMEZONE, using server local time")
		} else {
			svc.streakLoc = loc
		}
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *UserService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	return nil
}

// EnsureUser creates a minimal profile row if none exists for the id. Used
// by webhook folds to backfill purchasers who never registered directly.
func (svc *UserService) EnsureUser(userID, email, name string) error {
	if userID == "" {
		return shared.NewBadRequestError(nil, "Missing user ID")
	}

	if _, err := svc.sqlSvc.GetUser(userID); err == nil {
		return nil
	}

	user := &model.User{
		ID:                 userID,
		Email:              email,
		Name:               name,
		Provider:           "stripe",
		Role:               shared.RoleUser,
		Language:           "python",
		Theme:              "system",
		EmailNotifications: true,
	}
	if err := svc.sqlSvc.CreateUser(user); err != nil {
		return err
	}

	log.WithField("userID", userID).Info("Backfilled user profile")
	return nil
}

func (svc *UserService) GetProfile(userID string) (*dto.UserProfileResponse, error) {
	user, err := svc.sqlSvc.GetUser(userID)
	if err != nil {
		return nil, err
	}
	return svc.toProfile(user), nil
}

func (svc *UserService) UpdateProfile(userID string, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	fields := map[string]interface{}{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Image != "" {
		fields["image"] = req.Image
	}

	if len(fields) > 0 {
		if err := svc.sqlSvc.UpdateUserFields(userID, fields); err != nil {
			return nil, err
		}
	}

	return svc.GetProfile(userID)
}

func (svc *UserService) UpdatePreferences(userID string, req *dto.UpdatePreferencesRequest) (*dto.UserProfileResponse, error) {
	fields := map[string]interface{}{}
	if req.Language != nil {
		fields["language"] = *req.Language
	}
	if req.Theme != nil {
		fields["theme"] = *req.Theme
	}
	if req.EmailNotifications != nil {
		fields["email_notifications"] = *req.EmailNotifications
	}

	if len(fields) > 0 {
		if err := svc.sqlSvc.UpdateUserFields(userID, fields); err != nil {
			return nil, err
		}
	}

	return svc.GetProfile(userID)
}

// IncrementCompleted bumps the completion counter and rolls the daily
// streak: consecutive-day activity extends it, same-day activity leaves it,
// anything else resets to 1.
func (svc *UserService) IncrementCompleted(userID string) error {
	user, err := svc.sqlSvc.GetUser(userID)
	if err != nil {
		return err
	}

	now := time.Now()
	current, longest := svc.nextStreak(user, now)

	return svc.sqlSvc.UpdateUserFields(userID, map[string]interface{}{
		"total_completed":  user.TotalCompleted + 1,
		"current_streak":   current,
		"longest_streak":   longest,
		"last_activity_at": now,
	})
}

// nextStreak rolls the streak against calendar dates in the configured
// timezone, so a session at 23:50 followed by one at 00:10 still counts as
// consecutive days.
func (svc *UserService) nextStreak(user *model.User, now time.Time) (current, longest int) {
	current = 1
	if user.LastActivityAt != nil {
		loc := svc.streakLoc
		if loc == nil {
			loc = time.Local
		}
		today := now.In(loc)
		last := user.LastActivityAt.In(loc)

		switch {
		case sameCalendarDay(last, today):
			current = user.CurrentStreak
			if current == 0 {
				current = 1
			}
		case sameCalendarDay(last.AddDate(0, 0, 1), today):
			current = user.CurrentStreak + 1
		}
	}

	longest = user.LongestStreak
	if current > longest {
		longest = current
	}
	return current, longest
}

func sameCalendarDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func (svc *UserService) toProfile(user *model.User) *dto.UserProfileResponse {
	return &dto.UserProfileResponse{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Image:    user.Image,
		Provider: user.Provider,
		Preferences: dto.PreferencesDTO{
			Language:           user.Language,
			Theme:              user.Theme,
			EmailNotifications: user.EmailNotifications,
		},
		Stats: dto.UserStatsResponse{
			TotalCompleted: user.TotalCompleted,
			CurrentStreak:  user.CurrentStreak,
			LongestStreak:  user.LongestStreak,
			LastActivityAt: user.LastActivityAt,
		},
		JoinedAt:    user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}
