package domain

import "context"

// UserRepository persists users. Create returns ErrDuplicate when the email
// or username is taken.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	// FindRefs returns references for the given ids; unknown ids are skipped.
	FindRefs(ctx context.Context, ids []string) ([]UserRef, error)
	// ListExcept returns every user but id, ordered by username.
	ListExcept(ctx context.Context, id string) ([]UserRef, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error)
}

type ListingRepository interface {
	Create(ctx context.Context, l *Listing) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	FindByIDs(ctx context.Context, ids []string) ([]Listing, error)
	Find(ctx context.Context, f ListingFilter) ([]Listing, error)
	Update(ctx context.Context, id string, ch ListingChanges) (*Listing, error)
	Delete(ctx context.Context, id string) error
	// MarkSold flips an unsold listing to sold. It returns ErrConflict when
	// the listing was already sold.
	MarkSold(ctx context.Context, id, buyerID string, external bool) (*Listing, error)
}

type ConversationRepository interface {
	// FindOrCreate returns the conversation between a and b about listingID,
	// creating it when missing.
	FindOrCreate(ctx context.Context, a, b, listingID string) (*Conversation, error)
	FindByID(ctx context.Context, id string) (*Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]Conversation, error)
	ListForListing(ctx context.Context, listingID string) ([]Conversation, error)
	// Touch records lastMessageID as the latest message.
	Touch(ctx context.Context, id, lastMessageID string) error
	// SetOffer stores offer and the latest message. When expectMessageID is
	// set the write only applies if the current offer still points at that
	// message, otherwise ErrConflict.
	SetOffer(ctx context.Context, id, lastMessageID string, offer OfferState, expectMessageID string) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	FindByID(ctx context.Context, id string) (*Message, error)
	FindByIDs(ctx context.Context, ids []string) ([]Message, error)
	ListForConversation(ctx context.Context, conversationID string) ([]Message, error)
	MarkRead(ctx context.Context, conversationID, recipientID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type ReviewRepository interface {
	// Create returns ErrDuplicate for a second (reviewer, reviewee, transaction).
	Create(ctx context.Context, r *Review) error
	Exists(ctx context.Context, reviewerID, revieweeID, transactionID string) (bool, error)
	// ListForReviewee returns reviews newest first; limit <= 0 means all.
	ListForReviewee(ctx context.Context, revieweeID string, limit int) ([]Review, error)
	CountForReviewee(ctx context.Context, revieweeID string) (int64, error)
}

type FavoriteRepository interface {
	// Add returns ErrDuplicate when the pair already exists.
	Add(ctx context.Context, f *Favorite) error
	Find(ctx context.Context, userID, listingID string) (*Favorite, error)
	ListForUser(ctx context.Context, userID string) ([]Favorite, error)
	Remove(ctx context.Context, userID, listingID string) error
}

// Pinger reports database reachability for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
