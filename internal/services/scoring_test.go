package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/edubot-backend/internal/ai/gateway/gatewaytest"
	"github.com/yungbote/edubot-backend/internal/data/repos/testutil"
	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/dbctx"
)

func TestSubmitScoreOnlyTouchesOwnersCopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.seedUser(t, "u1@school.edu", domain.RoleStudent)
	u2 := f.seedUser(t, "u2@school.edu", domain.RoleStudent)
	rec := testutil.SeedLesson(t, ctx, f.db, u1.ID, "Water cycle")

	svc := NewScoringService(testutil.Logger(t), gatewaytest.New(t, gatewaytest.Static("Great work!")), f.lessons, nil, "")

	feedback := svc.SubmitScore(ctx, SubmitScoreInput{LessonID: &rec.ID, OwnerID: u2.ID, Score: 5, Total: 5, Topic: "Water cycle"})
	require.Equal(t, "Great work!", feedback)
	got, err := f.lessons.GetForUser(dbctx.Of(ctx), u1.ID, rec.ID)
	require.NoError(t, err)
	require.Nil(t, got.Score)
	require.Equal(t, domain.LessonStatusPending, got.Status)

	svc.SubmitScore(ctx, SubmitScoreInput{LessonID: &rec.ID, OwnerID: u1.ID, Score: 4, Total: 5, Topic: "Water cycle"})
	got, err = f.lessons.GetForUser(dbctx.Of(ctx), u1.ID, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Score)
	require.Equal(t, 4, *got.Score)
	require.Equal(t, domain.LessonStatusCompleted, got.Status)
	require.Equal(t, "Great work!", got.Feedback)
}

func TestSubmitScoreFallsBackWhenModelFails(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "u1@school.edu", domain.RoleStudent)
	svc := NewScoringService(testutil.Logger(t), gatewaytest.New(t, gatewaytest.Failing(errors.New("down"))), f.lessons, nil, "")
	missing := uuid.New()

	got := svc.SubmitScore(context.Background(), SubmitScoreInput{LessonID: &missing, OwnerID: u.ID, Score: 1, Total: 5})
	require.Equal(t, DefaultFallbackFeedback, got)
}

func TestEvaluateAnswer(t *testing.T) {
	f := newFixture(t)
	cases := map[string]struct {
		reply string
		err   error
		want  Evaluation
	}{
		"fenced object": {
			reply: "```json\n{\"score\": 8.6, \"feedback\": \" Good \", \"correction\": \"null\"}\n```",
			want:  Evaluation{Score: 9, Feedback: "Good"},
		},
		"clamped": {
			reply: `{"score": 14, "feedback": "ok", "correction": null}`,
			want:  Evaluation{Score: 10, Feedback: "ok"},
		},
		"garbage": {
			reply: "I cannot grade this.",
			want:  Evaluation{Score: 0, Feedback: EvaluationErrorFeedback},
		},
		"transport": {
			err:  errors.New("timeout"),
			want: Evaluation{Score: 0, Feedback: EvaluationErrorFeedback},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			p := gatewaytest.Static(tc.reply)
			if tc.err != nil {
				p = gatewaytest.Failing(tc.err)
			}
			svc := NewScoringService(testutil.Logger(t), gatewaytest.New(t, p), f.lessons, nil, "")
			got := svc.EvaluateAnswer(context.Background(), "passage", "question", "answer")
			require.Equal(t, tc.want, got)
		})
	}

	t.Run("correction kept", func(t *testing.T) {
		svc := NewScoringService(testutil.Logger(t), gatewaytest.New(t, gatewaytest.Static(`{"score":3,"feedback":"f","correction":" Use past tense "}`)), f.lessons, nil, "")
		got := svc.EvaluateAnswer(context.Background(), "p", "q", "a")
		require.NotNil(t, got.Correction)
		require.Equal(t, "Use past tense", *got.Correction)
	})
}
