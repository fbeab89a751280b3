// Package aggregates computes the derived read-only fields attached to
// resource payloads. Nothing here mutates state; every value is recomputed
// from the store at query time so it always reflects the consistency
// engine's side effects.
package aggregates

import (
	"fmt"
	"math"

	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/policy"
	"gorm.io/gorm"
)

// Service runs aggregate queries against the entity store
type Service struct {
	db *gorm.DB
}

// New creates an aggregation service
func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// MovieAggregates bundles the derived fields of a movie payload
type MovieAggregates struct {
	AvgRating      *float64 `json:"avg_rating"`
	SeenCount      int64    `json:"seen_count"`
	WatchlistCount int64    `json:"watchlist_count"`
	ListCount      int64    `json:"list_count"`
	RatingCount    int64    `json:"rating_count"`
	ReportCount    int64    `json:"report_count"`
	ReleaseDecade  int      `json:"release_decade"`
}

// MoviePointers are the caller's own relationship row ids for a movie.
// All nil for anonymous callers.
type MoviePointers struct {
	SeenID      *uint `json:"seen_id"`
	WatchlistID *uint `json:"watchlist_id"`
	RatingID    *uint `json:"rating_id"`
}

// ProfileAggregates bundles the derived fields of a profile payload
type ProfileAggregates struct {
	MovieCount     int64 `json:"movie_count"`
	SeenCount      int64 `json:"seen_count"`
	WatchlistCount int64 `json:"watchlist_count"`
	ListCount      int64 `json:"list_count"`
	RatingCount    int64 `json:"rating_count"`
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
}

// ReleaseDecade floors a release year to its decade: 1997 -> 1990
func ReleaseDecade(releaseYear int) int {
	return releaseYear - releaseYear%10
}

// AvgRating returns the mean rating value for a movie rounded to two
// decimals, or nil when the movie has no ratings. Nil is deliberate: an
// unrated movie is not a zero-rated one.
func (s *Service) AvgRating(movieID uint) (*float64, error) {
	var row struct {
		Avg float64
		Cnt int64
	}
	err := s.db.Model(&database.Rating{}).
		Select("COALESCE(AVG(value), 0) AS avg, COUNT(*) AS cnt").
		Where("movie_id = ?", movieID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute average rating: %w", err)
	}
	if row.Cnt == 0 {
		return nil, nil
	}
	avg := math.Round(row.Avg*100) / 100
	return &avg, nil
}

// ForMovie computes all derived fields for a movie
func (s *Service) ForMovie(movie *database.Movie) (MovieAggregates, error) {
	agg := MovieAggregates{ReleaseDecade: ReleaseDecade(movie.ReleaseYear)}

	avg, err := s.AvgRating(movie.ID)
	if err != nil {
		return agg, err
	}
	agg.AvgRating = avg

	counts := []struct {
		dst   *int64
		model interface{}
	}{
		{&agg.SeenCount, &database.Seen{}},
		{&agg.WatchlistCount, &database.Watchlist{}},
		{&agg.RatingCount, &database.Rating{}},
		{&agg.ReportCount, &database.Report{}},
	}
	for _, c := range counts {
		if err := s.db.Model(c.model).Where("movie_id = ?", movie.ID).Count(c.dst).Error; err != nil {
			return agg, fmt.Errorf("failed to count movie relationships: %w", err)
		}
	}

	if err := s.db.Table("list_movies").Where("movie_id = ?", movie.ID).Count(&agg.ListCount).Error; err != nil {
		return agg, fmt.Errorf("failed to count list memberships: %w", err)
	}

	return agg, nil
}

// PointersForMovie returns the caller's own seen/watchlist/rating row ids
// for a movie. Only the caller's identity is consulted; an anonymous caller
// gets nil pointers.
func (s *Service) PointersForMovie(caller *policy.Identity, movieID uint) (MoviePointers, error) {
	var ptrs MoviePointers
	if caller == nil {
		return ptrs, nil
	}

	lookups := []struct {
		dst   **uint
		model interface{}
	}{
		{&ptrs.SeenID, &database.Seen{}},
		{&ptrs.WatchlistID, &database.Watchlist{}},
		{&ptrs.RatingID, &database.Rating{}},
	}
	for _, l := range lookups {
		var row struct{ ID uint }
		err := s.db.Model(l.model).
			Select("id").
			Where("owner_id = ? AND movie_id = ?", caller.UserID, movieID).
			First(&row).Error
		if err == nil {
			id := row.ID
			*l.dst = &id
		} else if !database.IsNotFound(err) {
			return ptrs, fmt.Errorf("failed to resolve relationship pointer: %w", err)
		}
	}
	return ptrs, nil
}

// FollowingID returns the id of the caller's Follower row for the given
// user, or nil when the caller is anonymous or not following them.
func (s *Service) FollowingID(caller *policy.Identity, followedID uint) (*uint, error) {
	if caller == nil {
		return nil, nil
	}
	var row struct{ ID uint }
	err := s.db.Model(&database.Follower{}).
		Select("id").
		Where("owner_id = ? AND followed_id = ?", caller.UserID, followedID).
		First(&row).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve following id: %w", err)
	}
	id := row.ID
	return &id, nil
}

// ForProfile computes all derived counts for a profile owner
func (s *Service) ForProfile(ownerID uint) (ProfileAggregates, error) {
	var agg ProfileAggregates

	counts := []struct {
		dst   *int64
		model interface{}
		query string
	}{
		{&agg.MovieCount, &database.Movie{}, "owner_id = ?"},
		{&agg.SeenCount, &database.Seen{}, "owner_id = ?"},
		{&agg.WatchlistCount, &database.Watchlist{}, "owner_id = ?"},
		{&agg.ListCount, &database.List{}, "owner_id = ?"},
		{&agg.RatingCount, &database.Rating{}, "owner_id = ?"},
		{&agg.FollowersCount, &database.Follower{}, "followed_id = ?"},
		{&agg.FollowingCount, &database.Follower{}, "owner_id = ?"},
	}
	for _, c := range counts {
		if err := s.db.Model(c.model).Where(c.query, ownerID).Count(c.dst).Error; err != nil {
			return agg, fmt.Errorf("failed to count profile relationships: %w", err)
		}
	}
	return agg, nil
}

// CommentsCountForList returns the number of comments on a list
func (s *Service) CommentsCountForList(listID uint) (int64, error) {
	var count int64
	err := s.db.Model(&database.ListComment{}).Where("list_id = ?", listID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count list comments: %w", err)
	}
	return count, nil
}

// CommentsCountForRating returns the number of comments on a rating
func (s *Service) CommentsCountForRating(ratingID uint) (int64, error) {
	var count int64
	err := s.db.Model(&database.RatingComment{}).Where("rating_id = ?", ratingID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count rating comments: %w", err)
	}
	return count, nil
}
