// Package matcher scores postings against a profile through an ai.Oracle and
// ranks them by score.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobhunter/internal/ai"
	"github.com/spigell/jobhunter/internal/jobs"
	"github.com/spigell/jobhunter/internal/logger"
)

const DefaultConcurrency = 1

var ErrNoProfile = errors.New("profile is required for scoring")

type Scorer struct {
	oracle      ai.Oracle
	concurrency int
	logger      *zap.Logger
}

func New(oracle ai.Oracle, concurrency int, log *zap.Logger) *Scorer {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Scorer{
		oracle:      oracle,
		concurrency: concurrency,
		logger:      logger.WithFields(log),
	}
}

// ScoreOne folds the oracle verdict into posting. An oracle failure degrades
// the posting to score 0 and records the error in Match.Error.
func (s *Scorer) ScoreOne(ctx context.Context, posting *jobs.Posting, profile *jobs.Profile) *jobs.Posting {
	if profile == nil {
		posting.Match = &jobs.Match{Error: ErrNoProfile.Error()}
		return posting
	}
	return s.score(ctx, posting, ProfileSummary(profile))
}

// ScoreMany scores every posting and returns them sorted by score, highest
// first. Ties keep their input order. When ctx is cancelled the postings not
// yet scored get score 0 and the result is returned together with ctx.Err().
// A nil profile fails with ErrNoProfile before any oracle call.
func (s *Scorer) ScoreMany(ctx context.Context, postings *jobs.Postings, profile *jobs.Profile) (*jobs.Postings, error) {
	if postings.Len() == 0 {
		return &jobs.Postings{}, nil
	}
	if profile == nil {
		return nil, ErrNoProfile
	}

	profileSummary := ProfileSummary(profile)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, posting := range postings.Items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				posting.Match = &jobs.Match{Error: fmt.Sprintf("not scored: %v", err)}
				return nil
			}
			s.score(ctx, posting, profileSummary)
			return nil
		})
	}
	_ = g.Wait()

	ranked := &jobs.Postings{Items: append([]*jobs.Posting(nil), postings.Items...)}
	sort.SliceStable(ranked.Items, func(i, j int) bool {
		return ranked.Items[i].Score() > ranked.Items[j].Score()
	})

	s.logger.Info("postings scored", zap.Int("count", ranked.Len()))

	return ranked, ctx.Err()
}

func (s *Scorer) score(ctx context.Context, posting *jobs.Posting, profileSummary string) *jobs.Posting {
	result, err := s.oracle.Score(ctx, profileSummary, JobSummary(posting))
	if err != nil {
		s.logger.Warn("scoring failed", append(logger.PostingFields(posting), zap.Error(err))...)
		posting.Match = &jobs.Match{Error: err.Error()}
		return posting
	}

	posting.Match = &jobs.Match{
		Score:    ai.ClampScore(result.Score),
		Summary:  result.Summary,
		Matching: result.MatchingSkills,
		Gaps:     result.SkillGaps,
	}

	if len(posting.RequiredSkills) == 0 && len(result.RequiredSkills) > 0 {
		posting.RequiredSkills = result.RequiredSkills
	}

	s.logger.Debug("posting scored", logger.PostingFields(posting)...)

	return posting
}
