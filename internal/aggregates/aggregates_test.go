package aggregates

import (
	"fmt"
	"strings"
	"testing"

	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.AllModels()...))
	return db
}

func TestReleaseDecade(t *testing.T) {
	assert.Equal(t, 1990, ReleaseDecade(1997))
	assert.Equal(t, 2000, ReleaseDecade(2000))
	assert.Equal(t, 2000, ReleaseDecade(2009))
	assert.Equal(t, 1880, ReleaseDecade(1888))
}

func TestAvgRating(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	user := database.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	movie := database.Movie{OwnerID: user.ID, Title: "Ran", ReleaseYear: 1985}
	require.NoError(t, db.Create(&movie).Error)

	// No ratings yet: nil, not zero
	avg, err := svc.AvgRating(movie.ID)
	require.NoError(t, err)
	assert.Nil(t, avg)

	for i, v := range []int{5, 3, 4} {
		rater := database.User{Username: fmt.Sprintf("rater%d", i), PasswordHash: "x"}
		require.NoError(t, db.Create(&rater).Error)
		require.NoError(t, db.Create(&database.Rating{
			OwnerID: rater.ID, MovieID: movie.ID, Value: v,
		}).Error)
	}

	avg, err = svc.AvgRating(movie.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.Equal(t, 4.0, *avg)
}

func TestAvgRatingRounding(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	user := database.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	movie := database.Movie{OwnerID: user.ID, Title: "M", ReleaseYear: 1931}
	require.NoError(t, db.Create(&movie).Error)

	for i, v := range []int{5, 4, 4} {
		rater := database.User{Username: fmt.Sprintf("rater%d", i), PasswordHash: "x"}
		require.NoError(t, db.Create(&rater).Error)
		require.NoError(t, db.Create(&database.Rating{
			OwnerID: rater.ID, MovieID: movie.ID, Value: v,
		}).Error)
	}

	avg, err := svc.AvgRating(movie.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 4.33, *avg, 0.001)
}

func TestPointersForMovie(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	alice := database.User{Username: "alice", PasswordHash: "x"}
	bob := database.User{Username: "bob", PasswordHash: "x"}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)
	movie := database.Movie{OwnerID: alice.ID, Title: "Solaris", ReleaseYear: 1972}
	require.NoError(t, db.Create(&movie).Error)

	seen := database.Seen{OwnerID: alice.ID, MovieID: movie.ID}
	require.NoError(t, db.Create(&seen).Error)

	// Anonymous callers get no pointers
	ptrs, err := svc.PointersForMovie(nil, movie.ID)
	require.NoError(t, err)
	assert.Nil(t, ptrs.SeenID)
	assert.Nil(t, ptrs.WatchlistID)
	assert.Nil(t, ptrs.RatingID)

	// The owner of the seen mark sees its id
	ptrs, err = svc.PointersForMovie(&policy.Identity{UserID: alice.ID}, movie.ID)
	require.NoError(t, err)
	require.NotNil(t, ptrs.SeenID)
	assert.Equal(t, seen.ID, *ptrs.SeenID)
	assert.Nil(t, ptrs.WatchlistID)

	// Another caller's pointers are isolated from alice's marks
	ptrs, err = svc.PointersForMovie(&policy.Identity{UserID: bob.ID}, movie.ID)
	require.NoError(t, err)
	assert.Nil(t, ptrs.SeenID)
}

func TestForMovieCounts(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	alice := database.User{Username: "alice", PasswordHash: "x"}
	bob := database.User{Username: "bob", PasswordHash: "x"}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)
	movie := database.Movie{OwnerID: alice.ID, Title: "Yojimbo", ReleaseYear: 1961}
	require.NoError(t, db.Create(&movie).Error)

	require.NoError(t, db.Create(&database.Seen{OwnerID: alice.ID, MovieID: movie.ID}).Error)
	require.NoError(t, db.Create(&database.Seen{OwnerID: bob.ID, MovieID: movie.ID}).Error)
	require.NoError(t, db.Create(&database.Rating{OwnerID: bob.ID, MovieID: movie.ID, Value: 5}).Error)

	list := database.List{OwnerID: alice.ID, Title: "Kurosawa"}
	require.NoError(t, db.Create(&list).Error)
	require.NoError(t, db.Model(&list).Association("Movies").Append(&movie))

	agg, err := svc.ForMovie(&movie)
	require.NoError(t, err)
	assert.Equal(t, int64(2), agg.SeenCount)
	assert.Equal(t, int64(1), agg.RatingCount)
	assert.Equal(t, int64(1), agg.ListCount)
	assert.Equal(t, int64(0), agg.WatchlistCount)
	assert.Equal(t, 1960, agg.ReleaseDecade)
}

func TestForProfileCounts(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	alice := database.User{Username: "alice", PasswordHash: "x"}
	bob := database.User{Username: "bob", PasswordHash: "x"}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)
	movie := database.Movie{OwnerID: alice.ID, Title: "Ikiru", ReleaseYear: 1952}
	require.NoError(t, db.Create(&movie).Error)

	require.NoError(t, db.Create(&database.Seen{OwnerID: alice.ID, MovieID: movie.ID}).Error)
	require.NoError(t, db.Create(&database.Follower{OwnerID: bob.ID, FollowedID: alice.ID}).Error)

	agg, err := svc.ForProfile(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), agg.MovieCount)
	assert.Equal(t, int64(1), agg.SeenCount)
	assert.Equal(t, int64(1), agg.FollowersCount)
	assert.Equal(t, int64(0), agg.FollowingCount)

	agg, err = svc.ForProfile(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), agg.FollowersCount)
	assert.Equal(t, int64(1), agg.FollowingCount)
}

func TestFollowingID(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	alice := database.User{Username: "alice", PasswordHash: "x"}
	bob := database.User{Username: "bob", PasswordHash: "x"}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)
	follow := database.Follower{OwnerID: alice.ID, FollowedID: bob.ID}
	require.NoError(t, db.Create(&follow).Error)

	id, err := svc.FollowingID(&policy.Identity{UserID: alice.ID}, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, follow.ID, *id)

	id, err = svc.FollowingID(&policy.Identity{UserID: bob.ID}, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = svc.FollowingID(nil, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, id)
}
