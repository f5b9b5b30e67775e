package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/edubot-backend/internal/data/repos"
	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/observability"
	"github.com/yungbote/edubot-backend/internal/platform/dbctx"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

const lookupConcurrency = 8

type DistributeInput struct {
	Content          string
	Quiz             domain.Quiz
	Topic            string
	Source           domain.LessonSource
	CreatorID        uuid.UUID
	CreatorEmail     string
	RecipientEmails  []string
	CreatorIsTeacher bool
}

// Report lists requested emails in request order. Failed holds resolved
// recipients whose record could not be written.
type Report struct {
	Assigned []string `json:"assigned"`
	NotFound []string `json:"not_found"`
	Failed   []string `json:"failed,omitempty"`
}

type DistributionService interface {
	// Distribute writes one independent record per recipient. The creator's
	// copy is written first and is the only hard failure; later inserts are
	// best effort with no rollback.
	Distribute(ctx context.Context, in DistributeInput) (uuid.UUID, Report, error)
}

type distributionService struct {
	log        *logger.Logger
	userRepo   repos.UserRepo
	lessonRepo repos.LessonRecordRepo
	metrics    *observability.Metrics
}

func NewDistributionService(log *logger.Logger, userRepo repos.UserRepo, lessonRepo repos.LessonRecordRepo, metrics *observability.Metrics) DistributionService {
	return &distributionService{
		log:        log.With("service", "DistributionService"),
		userRepo:   userRepo,
		lessonRepo: lessonRepo,
		metrics:    metrics,
	}
}

type recipient struct {
	email  string
	userID uuid.UUID
}

func (ds *distributionService) Distribute(ctx context.Context, in DistributeInput) (uuid.UUID, Report, error) {
	report := Report{Assigned: []string{}, NotFound: []string{}}
	if in.CreatorID == uuid.Nil {
		return uuid.Nil, report, fmt.Errorf("missing creator id")
	}
	generationID := uuid.New()

	creatorRec := ds.newRecord(in, generationID, in.CreatorID, nil)
	if _, err := ds.lessonRepo.Create(dbctx.Of(ctx), []*domain.LessonRecord{creatorRec}); err != nil {
		return uuid.Nil, report, fmt.Errorf("create creator lesson: %w", err)
	}

	var emails []string
	if in.CreatorIsTeacher {
		emails = normalizeRecipientEmails(in.RecipientEmails, in.CreatorEmail)
	}
	if len(emails) == 0 {
		return creatorRec.ID, report, nil
	}

	resolved := ds.resolve(ctx, emails)
	creator := in.CreatorID
	for i, email := range emails {
		r := resolved[i]
		if r == nil {
			report.NotFound = append(report.NotFound, email)
			continue
		}
		if r.userID == in.CreatorID {
			continue
		}
		rec := ds.newRecord(in, generationID, r.userID, &creator)
		if _, err := ds.lessonRepo.Create(dbctx.Of(ctx), []*domain.LessonRecord{rec}); err != nil {
			ds.log.Error("Failed to assign lesson; continuing", "generation_id", generationID, "recipient_id", r.userID, "error", err)
			report.Failed = append(report.Failed, email)
			continue
		}
		report.Assigned = append(report.Assigned, email)
	}
	ds.metrics.ObserveDistribution(len(report.Assigned), len(report.NotFound))
	ds.log.Info("Lesson distributed",
		"generation_id", generationID,
		"assigned", len(report.Assigned),
		"not_found", len(report.NotFound),
		"failed", len(report.Failed),
	)
	return creatorRec.ID, report, nil
}

// resolve looks emails up concurrently. Index i of the result matches
// emails[i]; nil means unresolvable or the lookup failed.
func (ds *distributionService) resolve(ctx context.Context, emails []string) []*recipient {
	out := make([]*recipient, len(emails))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, email := range emails {
		i, email := i, email
		g.Go(func() error {
			u, err := ds.userRepo.GetByEmail(dbctx.Of(gctx), email)
			if err != nil {
				ds.log.Warn("Recipient lookup failed", "recipient_email", email, "error", err)
				return nil
			}
			if u != nil {
				out[i] = &recipient{email: email, userID: u.ID}
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (ds *distributionService) newRecord(in DistributeInput, generationID, ownerID uuid.UUID, assignedBy *uuid.UUID) *domain.LessonRecord {
	source := in.Source
	if source == "" {
		source = domain.LessonSourceText
	}
	return &domain.LessonRecord{
		ID:           uuid.New(),
		UserID:       ownerID,
		AssignedBy:   assignedBy,
		GenerationID: generationID,
		Topic:        in.Topic,
		Source:       source,
		Content:      in.Content,
		Quiz:         append(domain.Quiz(nil), in.Quiz...),
		Status:       domain.LessonStatusPending,
	}
}

// normalizeRecipientEmails trims, lower-cases and de-duplicates, dropping
// blanks and the creator's own address. Order follows first occurrence.
func normalizeRecipientEmails(raw []string, creatorEmail string) []string {
	creator := repos.NormalizeEmail(creatorEmail)
	seen := map[string]bool{}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		n := repos.NormalizeEmail(e)
		if n == "" || n == creator || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// SplitEmails parses a comma, semicolon or whitespace separated list.
func SplitEmails(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
	})
}
