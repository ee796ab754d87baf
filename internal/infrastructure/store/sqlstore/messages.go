package sqlstore

import (
	"context"
	"time"

	"marketplace-backend/internal/domain"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = domain.NewID()
	}
	m.CreatedAt = time.Now().UTC()
	row := messageRow{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		RecipientID:    m.RecipientID,
		ListingID:      strPtr(m.ListingID),
		Content:        m.Content,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
	if m.Offer != nil {
		offer, err := encodeJSON(m.Offer)
		if err != nil {
			return err
		}
		row.Offer = offer
	}
	return translate(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var row messageRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.toDomain()
}

func (r *MessageRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []messageRow
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toMessages(rows)
}

func (r *MessageRepository) ListForConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	var rows []messageRow
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toMessages(rows)
}

func toMessages(rows []messageRow) ([]domain.Message, error) {
	out := make([]domain.Message, 0, len(rows))
	for i := range rows {
		m, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, recipientID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&messageRow{}).
		Where("conversation_id = ? AND recipient_id = ? AND read = ?", conversationID, recipientID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&messageRow{}).Error
}
