package repositories

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"
)

// Procedures wraps the server-side functions installed by the schema.
type Procedures interface {
	UpdateExploreScore(ctx context.Context, postID string) error
	// ClearMyNotifications deletes every notification of the caller identified by userID.
	ClearMyNotifications(ctx context.Context, userID string) error
}

type postgresProcedures struct {
	db *gorm.DB
}

func NewPostgresProcedures(db *gorm.DB) Procedures {
	return &postgresProcedures{db: db}
}

func (p *postgresProcedures) UpdateExploreScore(ctx context.Context, postID string) error {
	return p.db.WithContext(ctx).Exec("SELECT update_explore_score(?)", postID).Error
}

func (p *postgresProcedures) ClearMyNotifications(ctx context.Context, userID string) error {
	claims, err := json.Marshal(map[string]string{"sub": userID})
	if err != nil {
		return err
	}
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT set_config('request.jwt.claims', ?, true)", string(claims)).Error; err != nil {
			return err
		}
		return tx.Exec("SELECT clear_my_notifications()").Error
	})
}
