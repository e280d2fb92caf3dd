package services

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/example/vapeshop/internal/repository"
)

// Level is a read-only loyalty tier.
type Level string

const (
	LevelSilver   Level = "silver"
	LevelGold     Level = "gold"
	LevelPlatinum Level = "platinum"
)

const (
	pointsPerOrder    = 10
	spendPerPoint     = 10
	pointsPerReferral = 20
)

// LevelInfo describes a tier and its cosmetic benefits.
type LevelInfo struct {
	Level     Level    `json:"level"`
	MinPoints int64    `json:"min_points"`
	Title     string   `json:"title"`
	Benefits  []string `json:"benefits"`
}

// levelTable is ordered by MinPoints ascending.
var levelTable = []LevelInfo{
	{Level: LevelSilver, MinPoints: 0, Title: "Срібний", Benefits: []string{"Бонуси за запрошених друзів", "Історія бонусів"}},
	{Level: LevelGold, MinPoints: 100, Title: "Золотий", Benefits: []string{"Золотий значок у профілі", "Ранній доступ до новинок"}},
	{Level: LevelPlatinum, MinPoints: 500, Title: "Платиновий", Benefits: []string{"Платиновий значок у профілі", "Пріоритетна підтримка", "Закриті розпродажі"}},
}

// Levels returns the tier table, lowest first.
func Levels() []LevelInfo {
	out := make([]LevelInfo, len(levelTable))
	copy(out, levelTable)
	return out
}

// UserPoints is the derived loyalty score. It is never spendable.
type UserPoints struct {
	OrdersPoints    int64 `json:"orders_points"`
	SpendingPoints  int64 `json:"spending_points"`
	ReferralsPoints int64 `json:"referrals_points"`
	TotalPoints     int64 `json:"total_points"`
}

// CalculatePoints derives points from counted orders, their spend and the
// number of referred users.
func CalculatePoints(orders, spend, referrals int64) UserPoints {
	p := UserPoints{
		OrdersPoints:    orders * pointsPerOrder,
		SpendingPoints:  spend / spendPerPoint,
		ReferralsPoints: referrals * pointsPerReferral,
	}
	if p.SpendingPoints < 0 {
		p.SpendingPoints = 0
	}
	p.TotalPoints = p.OrdersPoints + p.SpendingPoints + p.ReferralsPoints
	return p
}

// LevelForPoints returns the highest tier whose threshold totalPoints reaches.
func LevelForPoints(totalPoints int64) Level {
	return levelInfoFor(totalPoints).Level
}

func levelInfoFor(totalPoints int64) LevelInfo {
	current := levelTable[0]
	for _, info := range levelTable {
		if totalPoints >= info.MinPoints {
			current = info
		}
	}
	return current
}

// LevelProgress feeds the profile progress bar.
type LevelProgress struct {
	Level            Level  `json:"level"`
	Points           int64  `json:"points"`
	CurrentThreshold int64  `json:"current_threshold"`
	NextLevel        *Level `json:"next_level,omitempty"`
	NextThreshold    int64  `json:"next_threshold,omitempty"`
	PointsToNext     int64  `json:"points_to_next"`
	Percentage       int    `json:"percentage"`
}

// ProgressForPoints reports how far totalPoints is through the current tier.
// The top tier always reports 100% and no next level.
func ProgressForPoints(totalPoints int64) LevelProgress {
	current := levelInfoFor(totalPoints)
	progress := LevelProgress{
		Level:            current.Level,
		Points:           totalPoints,
		CurrentThreshold: current.MinPoints,
		Percentage:       100,
	}

	for _, info := range levelTable {
		if info.MinPoints <= current.MinPoints {
			continue
		}
		next := info.Level
		progress.NextLevel = &next
		progress.NextThreshold = info.MinPoints
		progress.PointsToNext = info.MinPoints - totalPoints
		span := info.MinPoints - current.MinPoints
		progress.Percentage = int((totalPoints - current.MinPoints) * 100 / span)
		break
	}
	return progress
}

// LevelSummary is the profile view of a user's loyalty standing.
type LevelSummary struct {
	Points   UserPoints    `json:"points"`
	Progress LevelProgress `json:"progress"`
	Info     LevelInfo     `json:"info"`
}

// LevelService computes points and tiers from the order source and caches
// the tier onto the user record.
type LevelService struct {
	store repository.Store
	cache PointsCache
}

// NewLevelService constructs a LevelService. A nil cache disables caching.
func NewLevelService(store repository.Store, cache PointsCache) *LevelService {
	if cache == nil {
		cache = NoopPointsCache{}
	}
	return &LevelService{store: store, cache: cache}
}

// UserPoints recomputes (or reads from cache) the user's points.
func (s *LevelService) UserPoints(ctx context.Context, userID uuid.UUID) (UserPoints, error) {
	if cached, ok := s.cache.Get(ctx, userID); ok {
		return cached, nil
	}

	stats, err := collectStats(ctx, s.store, userID)
	if err != nil {
		return UserPoints{}, err
	}
	points := CalculatePoints(stats.TotalOrders, stats.TotalSpent, stats.ReferralsCount)
	s.cache.Set(ctx, userID, points)
	return points, nil
}

// Summary returns points, progress and tier details for a user.
func (s *LevelService) Summary(ctx context.Context, userID uuid.UUID) (*LevelSummary, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	points, err := s.UserPoints(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &LevelSummary{
		Points:   points,
		Progress: ProgressForPoints(points.TotalPoints),
		Info:     levelInfoFor(points.TotalPoints),
	}, nil
}

// RefreshLevel drops cached points, recomputes the tier and stores it on the
// user when it changed.
func (s *LevelService) RefreshLevel(ctx context.Context, userID uuid.UUID) (Level, error) {
	s.Invalidate(ctx, userID)

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	points, err := s.UserPoints(ctx, userID)
	if err != nil {
		return "", err
	}

	level := LevelForPoints(points.TotalPoints)
	if user.Level != string(level) {
		if _, err := s.store.UpdateUserFields(ctx, userID, map[string]interface{}{"level": string(level)}); err != nil {
			return "", err
		}
		log.Printf("[Level] user %s moved %q -> %q (%d points)", userID, user.Level, level, points.TotalPoints)
	}
	return level, nil
}

// Invalidate forgets cached points for the user.
func (s *LevelService) Invalidate(ctx context.Context, userID uuid.UUID) {
	s.cache.Invalidate(ctx, userID)
}
