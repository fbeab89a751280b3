package database

import (
	"time"
)

// GenreChoices is the fixed set of accepted movie/profile genres
var GenreChoices = []string{
	"action", "adventure", "comedy", "drama", "fantasy", "horror", "mystery",
	"romance", "science_fiction", "thriller", "crime", "documentary",
	"historical", "musical",
}

// ValidGenre reports whether g is empty or one of the accepted genres
func ValidGenre(g string) bool {
	if g == "" {
		return true
	}
	for _, c := range GenreChoices {
		if g == c {
			return true
		}
	}
	return false
}

// User represents an account in the system. IsSuperuser is the single source
// of truth for admin checks; Profile.IsAdmin is display-only.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:150" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuthToken is an opaque bearer token issued at login
type AuthToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is created synchronously with its User and lives exactly as long
// as the User does (1:1).
type Profile struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OwnerID       uint      `gorm:"uniqueIndex;not null" json:"owner_id"`
	Owner         User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Name          string    `gorm:"size:255" json:"name"`
	Description   string    `json:"description"`
	Image         string    `json:"image"`
	FavoriteGenre string    `gorm:"size:20" json:"favorite_genre"`
	IsAdmin       bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Movie is created by any authenticated user but only admins may edit it
type Movie struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	OwnerID     uint       `gorm:"not null;index" json:"owner_id"`
	Owner       User       `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string     `gorm:"not null;size:100;index" json:"title"`
	Synopsis    string     `gorm:"size:400" json:"synopsis"`
	Poster      string     `json:"poster"`
	ReleaseYear int        `gorm:"not null" json:"release_year"`
	Genre       string     `gorm:"size:20" json:"genre"`
	Directors   []Director `gorm:"many2many:movie_directors;" json:"-"`
	MainCast    []Actor    `gorm:"many2many:movie_cast;" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Director is a crew entity, admin-edited
type Director struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:255;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Actor is a crew entity, admin-edited
type Actor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:255;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rating holds a 1..5 review. At most one per (owner, movie) pair.
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;uniqueIndex:idx_ratings_owner_movie" json:"owner_id"`
	Owner     User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	MovieID   uint      `gorm:"not null;uniqueIndex:idx_ratings_owner_movie" json:"movie_id"`
	Movie     Movie     `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE" json:"-"`
	Value     int       `gorm:"not null" json:"value"`
	Content   string    `gorm:"size:250" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Seen marks a movie as watched. At most one per (owner, movie) pair.
type Seen struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;uniqueIndex:idx_seen_owner_movie" json:"owner_id"`
	Owner     User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	MovieID   uint      `gorm:"not null;uniqueIndex:idx_seen_owner_movie" json:"movie_id"`
	Movie     Movie     `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Watchlist marks a movie as a planned watch. At most one per (owner, movie)
// pair, and mutually exclusive with Seen for the same pair.
type Watchlist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;uniqueIndex:idx_watchlist_owner_movie" json:"owner_id"`
	Owner     User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	MovieID   uint      `gorm:"not null;uniqueIndex:idx_watchlist_owner_movie" json:"movie_id"`
	Movie     Movie     `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Report flags a problem with a movie entry. At most one open report per
// (owner, movie) pair; a closed report is replaced when a new one is filed.
type Report struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;uniqueIndex:idx_reports_owner_movie" json:"owner_id"`
	Owner     User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	MovieID   uint      `gorm:"not null;uniqueIndex:idx_reports_owner_movie" json:"movie_id"`
	Movie     Movie     `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE" json:"-"`
	Content   string    `gorm:"size:250" json:"content"`
	IsClosed  bool      `gorm:"not null;default:false" json:"is_closed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Follower records that Owner follows Followed. At most one row per pair.
type Follower struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OwnerID    uint      `gorm:"not null;uniqueIndex:idx_followers_owner_followed" json:"owner_id"`
	Owner      User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	FollowedID uint      `gorm:"not null;uniqueIndex:idx_followers_owner_followed" json:"followed_id"`
	Followed   User      `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// List is a user-curated collection of movies
type List struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`
	Owner       User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string    `gorm:"not null;size:100" json:"title"`
	Description string    `gorm:"size:400" json:"description"`
	Movies      []Movie   `gorm:"many2many:list_movies;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListComment is a comment on a List
type ListComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	Owner     User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	ListID    uint      `gorm:"not null;index" json:"list_id"`
	List      List      `gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE" json:"-"`
	Content   string    `gorm:"not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingComment is a comment on a Rating
type RatingComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	Owner     User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	RatingID  uint      `gorm:"not null;index" json:"rating_id"`
	Rating    Rating    `gorm:"foreignKey:RatingID;constraint:OnDelete:CASCADE" json:"-"`
	Content   string    `gorm:"not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AllModels lists every model migrated at startup, in FK dependency order
func AllModels() []interface{} {
	return []interface{}{
		&User{}, &AuthToken{}, &Profile{}, &Director{}, &Actor{}, &Movie{},
		&Rating{}, &Seen{}, &Watchlist{}, &Report{}, &Follower{},
		&List{}, &ListComment{}, &RatingComment{},
	}
}
