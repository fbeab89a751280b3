package relationship

import "errors"

// ErrDuplicateRelationship groups every uniqueness violation of the
// user-to-target fact records. Callers match it with errors.Is; the concrete
// values below carry the user-facing detail message.
var ErrDuplicateRelationship = errors.New("duplicate relationship")

type duplicateError struct {
	msg string
}

func (e duplicateError) Error() string { return e.msg }

func (e duplicateError) Is(target error) bool { return target == ErrDuplicateRelationship }

var (
	ErrAlreadySeen        = duplicateError{"You have already marked this movie as seen."}
	ErrAlreadyWatchlisted = duplicateError{"You have already added this movie to your watchlist."}
	ErrAlreadyRated       = duplicateError{"You have already rated this movie."}
	ErrAlreadyReported    = duplicateError{"You already reported an error in this movie."}
	ErrAlreadyFollowing   = duplicateError{"You are already following this user."}
)

// ErrSelfFollow rejects a follow where owner and followed are the same user
var ErrSelfFollow = errors.New("You cannot follow yourself.")
