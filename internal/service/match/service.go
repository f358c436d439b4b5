// Package match exposes read and unmatch operations over the match
// store for the messaging and profile surfaces.
package match

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sparkvine/matchcore/internal/app"
	"github.com/sparkvine/matchcore/internal/db"
	svcErr "github.com/sparkvine/matchcore/internal/errors"
	"github.com/sparkvine/matchcore/internal/repository"
)

type Service struct {
	appCtx    *app.AppContext
	matchRepo *repository.MatchRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		matchRepo: repository.NewMatchRepository(appCtx.DB),
	}
}

// MatchView is a match from one participant's perspective.
type MatchView struct {
	MatchID   string `json:"match_id"`
	PartnerID uint64 `json:"partner_id"`
	MatchedAt int64  `json:"matched_at_millis"`
}

// ListActive returns the user's active matches, newest first.
func (s *Service) ListActive(ctx context.Context, userID uint64, paginationToken *string, limit int) ([]MatchView, *string, error) {
	matches, nextToken, err := s.matchRepo.ListActive(ctx, userID, paginationToken, limit)
	if err != nil {
		return nil, nil, err
	}

	views := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, MatchView{
			MatchID:   m.ID,
			PartnerID: repository.PartnerID(m, userID),
			MatchedAt: m.MatchedAt.UnixMilli(),
		})
	}
	return views, nextToken, nil
}

// Unmatch dissolves a match on behalf of one participant. Either side
// may do this unilaterally; the row is kept with unmatched status.
//
// Both underlying swipes are retired in the same transaction, so a
// later re-match needs fresh reciprocal swipes. Without that, one user
// re-swiping would reactivate the match without the other's consent.
func (s *Service) Unmatch(ctx context.Context, matchID string, actingUserID uint64) error {
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		matches := repository.NewMatchRepository(tx)

		match, err := matches.GetByID(ctx, matchID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.ErrNotFound
		} else if err != nil {
			return err
		}

		if err := matches.Unmatch(ctx, matchID, actingUserID); err != nil {
			return err
		}
		return repository.NewSwipeRepository(tx).MarkPairUndone(ctx, match.UserAID, match.UserBID)
	})
	if err != nil {
		return err
	}
	s.appCtx.Logger.Info("match dissolved", "match_id", matchID, "by", actingUserID)
	return nil
}

// Get returns the raw match row.
func (s *Service) Get(ctx context.Context, matchID string) (db.Match, error) {
	return s.matchRepo.GetByID(ctx, matchID)
}
