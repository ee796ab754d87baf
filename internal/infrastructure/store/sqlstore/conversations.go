package sqlstore

import (
	"context"
	"time"

	"marketplace-backend/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepository struct {
	db *gorm.DB
}

// FindOrCreate inserts with ON CONFLICT DO NOTHING on the key and then reads
// the row back, so concurrent first messages converge on one conversation.
func (r *ConversationRepository) FindOrCreate(ctx context.Context, a, b, listingID string) (*domain.Conversation, error) {
	for _, id := range []string{a, b, listingID} {
		if err := checkID(id); err != nil {
			return nil, err
		}
	}
	key := domain.ConversationKey(a, b, listingID)
	now := time.Now().UTC()
	row := conversationRow{
		ID:           domain.NewID(),
		Key:          key,
		ParticipantA: a,
		ParticipantB: b,
		ListingID:    listingID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "conv_key"}}, DoNothing: true}).Create(&row).Error; err != nil {
		return nil, translate(err)
	}
	var stored conversationRow
	if err := db.Where("conv_key = ?", key).First(&stored).Error; err != nil {
		return nil, translate(err)
	}
	return stored.toDomain()
}

func (r *ConversationRepository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var row conversationRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.toDomain()
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	var rows []conversationRow
	err := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toConversations(rows)
}

func (r *ConversationRepository) ListForListing(ctx context.Context, listingID string) ([]domain.Conversation, error) {
	var rows []conversationRow
	if err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toConversations(rows)
}

func toConversations(rows []conversationRow) ([]domain.Conversation, error) {
	out := make([]domain.Conversation, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *ConversationRepository) Touch(ctx context.Context, id, lastMessageID string) error {
	res := r.db.WithContext(ctx).Model(&conversationRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_message_id": lastMessageID,
		"updated_at":      time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ConversationRepository) SetOffer(ctx context.Context, id, lastMessageID string, offer domain.OfferState, expectMessageID string) error {
	state, err := encodeJSON(offer)
	if err != nil {
		return err
	}
	q := r.db.WithContext(ctx).Model(&conversationRow{}).Where("id = ?", id)
	if expectMessageID != "" {
		q = q.Where("offer_message_id = ?", expectMessageID)
	}
	res := q.Updates(map[string]interface{}{
		"offer":            state,
		"offer_message_id": offer.MessageID,
		"last_message_id":  lastMessageID,
		"updated_at":       time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if expectMessageID != "" {
			return domain.ErrConflict
		}
		return domain.ErrNotFound
	}
	return nil
}
