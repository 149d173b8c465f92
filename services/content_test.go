package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algoviz-app/algoviz_api/dto"
	"github.com/algoviz-app/algoviz_api/model"
	"github.com/algoviz-app/algoviz_api/shared"
)

func newTestContent(t *testing.T) (*ContentService, *SqlService, *EntitlementService) {
	t.Helper()

	sqlSvc := newTestSql(t)
	entSvc := newTestEntitlements(t, sqlSvc)
	svc := &ContentService{sqlSvc: sqlSvc, entSvc: entSvc}

	require.NoError(t, sqlSvc.UpsertLesson(&model.Lesson{
		ID: "two-sum", Title: "Two Sum", Category: "Array",
		Difficulty: "easy", Order: 1, TotalSteps: 8, IsActive: true,
	}))
	require.NoError(t, sqlSvc.UpsertLesson(&model.Lesson{
		ID: "climbing-stairs", Title: "Climbing Stairs", Category: "Dynamic Programming",
		Difficulty: "easy", Order: 40, TotalSteps: 8, Premium: true, IsActive: true,
	}))

	return svc, sqlSvc, entSvc
}

func makePremium(t *testing.T, entSvc *EntitlementService, userID string) {
	t.Helper()
	_, err := entSvc.ApplyCheckoutCompleted(context.Background(), CheckoutCompleted{
		UserID:         userID,
		PlanID:         shared.PlanYearly,
		SubscriptionID: "sub_test",
	})
	require.NoError(t, err)
}

func TestCheckLessonAccessFreeLesson(t *testing.T) {
	svc, _, _ := newTestContent(t)

	// Free lessons are open to everyone, signed in or not.
	res, err := svc.CheckLessonAccess(context.Background(), "", "two-sum")
	require.NoError(t, err)
	require.True(t, res.CanAccess)
	require.Empty(t, res.Reason)
}

func TestCheckLessonAccessPremiumGate(t *testing.T) {
	svc, _, entSvc := newTestContent(t)
	ctx := context.Background()

	res, err := svc.CheckLessonAccess(ctx, "", "climbing-stairs")
	require.NoError(t, err)
	require.False(t, res.CanAccess)
	require.Equal(t, "premium_required", res.Reason)

	res, err = svc.CheckLessonAccess(ctx, "free@example_com", "climbing-stairs")
	require.NoError(t, err)
	require.False(t, res.CanAccess)

	makePremium(t, entSvc, "paid@example_com")
	res, err = svc.CheckLessonAccess(ctx, "paid@example_com", "climbing-stairs")
	require.NoError(t, err)
	require.True(t, res.CanAccess)
}

func TestCheckLessonAccessUnknownLesson(t *testing.T) {
	svc, _, _ := newTestContent(t)

	_, err := svc.CheckLessonAccess(context.Background(), "", "no-such-lesson")
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, 404, appErr.StatusCode)
}

func TestListLessonsMarksLockedForFreeTier(t *testing.T) {
	svc, _, entSvc := newTestContent(t)
	ctx := context.Background()

	list, err := svc.ListLessons(ctx, "free@example_com")
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)

	locked := map[string]bool{}
	for _, lesson := range list.Lessons {
		locked[lesson.ID] = lesson.Locked
	}
	require.False(t, locked["two-sum"])
	require.True(t, locked["climbing-stairs"])

	makePremium(t, entSvc, "paid@example_com")
	list, err = svc.ListLessons(ctx, "paid@example_com")
	require.NoError(t, err)
	for _, lesson := range list.Lessons {
		require.False(t, lesson.Locked, "lesson %s should unlock for premium", lesson.ID)
	}
}

func TestUpsertLessonCreatesAndReplaces(t *testing.T) {
	svc, sqlSvc, _ := newTestContent(t)

	res, err := svc.UpsertLesson(&dto.UpsertLessonRequest{
		ID:         "merge-intervals",
		Title:      "Merge Intervals",
		Category:   "Interval",
		Difficulty: "medium",
		Order:      50,
		TotalSteps: 12,
		Premium:    true,
	})
	require.NoError(t, err)
	require.Equal(t, "merge-intervals", res.ID)

	inactive := false
	_, err = svc.UpsertLesson(&dto.UpsertLessonRequest{
		ID:         "merge-intervals",
		Title:      "Merge Intervals",
		Category:   "Interval",
		Difficulty: "medium",
		Order:      51,
		TotalSteps: 12,
		Premium:    true,
		IsActive:   &inactive,
	})
	require.NoError(t, err)

	stored, err := sqlSvc.GetLesson("merge-intervals")
	require.NoError(t, err)
	require.Equal(t, 51, stored.Order)
	require.False(t, stored.IsActive)
}
