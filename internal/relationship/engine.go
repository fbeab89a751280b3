// Package relationship implements the consistency engine for the
// user-to-movie fact records. A single (user, movie) pair interacts through
// three states: Watchlisted (plans to watch), Seen (has watched) and Rated
// (has watched and reviewed). The transitions below keep those states
// mutually consistent:
//
//   - marking a movie seen retracts a pending watchlist entry
//   - adding a movie to the watchlist retracts both seen and rating, since
//     planning a future watch contradicts having watched it
//   - rating a movie implies having seen it, so a seen row is created and a
//     pending watchlist entry is retracted
//
// Every transition runs inside one database transaction, serialized per pair
// by a striped lock. The unique indexes on the underlying tables are the last
// line of defense if the lock is ever bypassed.
package relationship

import (
	"context"
	"fmt"

	"github.com/reelist/reelist/internal/database"
	"gorm.io/gorm"
)

// Engine applies the transition rules atomically
type Engine struct {
	db    *gorm.DB
	locks pairLocks
}

// NewEngine creates a consistency engine over the given database
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// MarkSeen records that the owner has watched the movie. A pending watchlist
// entry for the pair is retracted in the same transaction.
func (e *Engine) MarkSeen(ctx context.Context, ownerID, movieID uint) (*database.Seen, error) {
	unlock := e.locks.lock(ownerID, movieID)
	defer unlock()

	seen := &database.Seen{OwnerID: ownerID, MovieID: movieID}
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := movieExists(tx, movieID); err != nil {
			return err
		}
		if exists, err := pairExists(tx, &database.Seen{}, ownerID, movieID); err != nil {
			return err
		} else if exists {
			return ErrAlreadySeen
		}
		if err := deletePair(tx, &database.Watchlist{}, ownerID, movieID); err != nil {
			return err
		}
		if err := tx.Create(seen).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrAlreadySeen
			}
			return fmt.Errorf("failed to create seen entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seen, nil
}

// AddToWatchlist records that the owner plans to watch the movie. Existing
// seen and rating rows for the pair are retracted in the same transaction.
func (e *Engine) AddToWatchlist(ctx context.Context, ownerID, movieID uint) (*database.Watchlist, error) {
	unlock := e.locks.lock(ownerID, movieID)
	defer unlock()

	entry := &database.Watchlist{OwnerID: ownerID, MovieID: movieID}
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := movieExists(tx, movieID); err != nil {
			return err
		}
		if exists, err := pairExists(tx, &database.Watchlist{}, ownerID, movieID); err != nil {
			return err
		} else if exists {
			return ErrAlreadyWatchlisted
		}
		if err := deletePair(tx, &database.Seen{}, ownerID, movieID); err != nil {
			return err
		}
		if err := deletePair(tx, &database.Rating{}, ownerID, movieID); err != nil {
			return err
		}
		if err := tx.Create(entry).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrAlreadyWatchlisted
			}
			return fmt.Errorf("failed to create watchlist entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RateMovie records a review for the movie. Rating is evidence of having
// watched: a seen row is created when absent and a pending watchlist entry is
// retracted. A second rating for the same pair is rejected, never updated in
// place.
func (e *Engine) RateMovie(ctx context.Context, ownerID, movieID uint, value int, content string) (*database.Rating, error) {
	unlock := e.locks.lock(ownerID, movieID)
	defer unlock()

	rating := &database.Rating{OwnerID: ownerID, MovieID: movieID, Value: value, Content: content}
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := movieExists(tx, movieID); err != nil {
			return err
		}
		if exists, err := pairExists(tx, &database.Rating{}, ownerID, movieID); err != nil {
			return err
		} else if exists {
			return ErrAlreadyRated
		}
		if err := deletePair(tx, &database.Watchlist{}, ownerID, movieID); err != nil {
			return err
		}
		if exists, err := pairExists(tx, &database.Seen{}, ownerID, movieID); err != nil {
			return err
		} else if !exists {
			if err := tx.Create(&database.Seen{OwnerID: ownerID, MovieID: movieID}).Error; err != nil {
				return fmt.Errorf("failed to create implied seen entry: %w", err)
			}
		}
		if err := tx.Create(rating).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrAlreadyRated
			}
			return fmt.Errorf("failed to create rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// FileReport opens a report against the movie. An open report for the pair
// blocks a new one; a closed report is replaced by the new one.
func (e *Engine) FileReport(ctx context.Context, ownerID, movieID uint, content string) (*database.Report, error) {
	unlock := e.locks.lock(ownerID, movieID)
	defer unlock()

	report := &database.Report{OwnerID: ownerID, MovieID: movieID, Content: content}
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := movieExists(tx, movieID); err != nil {
			return err
		}
		var existing database.Report
		err := tx.Where("owner_id = ? AND movie_id = ?", ownerID, movieID).First(&existing).Error
		switch {
		case err == nil:
			if !existing.IsClosed {
				return ErrAlreadyReported
			}
			// A closed report does not block; it is replaced.
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("failed to replace closed report: %w", err)
			}
		case database.IsNotFound(err):
			// no prior report
		default:
			return fmt.Errorf("failed to look up report: %w", err)
		}
		if err := tx.Create(report).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrAlreadyReported
			}
			return fmt.Errorf("failed to create report: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Follow records that owner follows followed. Self-follows are rejected.
func (e *Engine) Follow(ctx context.Context, ownerID, followedID uint) (*database.Follower, error) {
	if ownerID == followedID {
		return nil, ErrSelfFollow
	}

	unlock := e.locks.lock(ownerID, followedID)
	defer unlock()

	follower := &database.Follower{OwnerID: ownerID, FollowedID: followedID}
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&database.User{}, followedID).Error; err != nil {
			if database.IsNotFound(err) {
				return database.ErrNotFound
			}
			return fmt.Errorf("failed to look up user: %w", err)
		}
		var count int64
		if err := tx.Model(&database.Follower{}).
			Where("owner_id = ? AND followed_id = ?", ownerID, followedID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing follow: %w", err)
		}
		if count > 0 {
			return ErrAlreadyFollowing
		}
		if err := tx.Create(follower).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrAlreadyFollowing
			}
			return fmt.Errorf("failed to create follower: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return follower, nil
}

func movieExists(tx *gorm.DB, movieID uint) error {
	if err := tx.Select("id").First(&database.Movie{}, movieID).Error; err != nil {
		if database.IsNotFound(err) {
			return database.ErrNotFound
		}
		return fmt.Errorf("failed to look up movie: %w", err)
	}
	return nil
}

func pairExists(tx *gorm.DB, model interface{}, ownerID, movieID uint) (bool, error) {
	var count int64
	if err := tx.Model(model).
		Where("owner_id = ? AND movie_id = ?", ownerID, movieID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check existing relationship: %w", err)
	}
	return count > 0, nil
}

func deletePair(tx *gorm.DB, model interface{}, ownerID, movieID uint) error {
	if err := tx.Where("owner_id = ? AND movie_id = ?", ownerID, movieID).
		Delete(model).Error; err != nil {
		return fmt.Errorf("failed to retract conflicting relationship: %w", err)
	}
	return nil
}
