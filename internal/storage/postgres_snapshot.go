package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
)

// importSnapshot replays a Snapshot into Postgres in one transaction. Rows
// are upserted so a partially migrated database can be re-imported. Watch
// history entries are inserted in their stored slice order, which preserves
// each user's history ordering through the position identity column.
func (r *postgresRepository) importSnapshot(ctx context.Context, snapshot *Snapshot) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, id := range sortedSnapshotKeys(snapshot.Users) {
		user := snapshot.Users[id]
		_, err := tx.Exec(ctx, `
INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token_hash, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
	username = EXCLUDED.username,
	email = EXCLUDED.email,
	full_name = EXCLUDED.full_name,
	avatar_url = EXCLUDED.avatar_url,
	cover_image_url = EXCLUDED.cover_image_url,
	password_hash = EXCLUDED.password_hash,
	refresh_token_hash = EXCLUDED.refresh_token_hash,
	created_at = EXCLUDED.created_at
`, user.ID, user.Username, user.Email, user.FullName, user.AvatarURL,
			user.CoverImageURL, user.PasswordHash, user.RefreshTokenHash, user.CreatedAt)
		if err != nil {
			return fmt.Errorf("import user %s: %w", user.ID, err)
		}
	}

	for _, id := range sortedSnapshotKeys(snapshot.Videos) {
		video := snapshot.Videos[id]
		_, err := tx.Exec(ctx, `
INSERT INTO videos (id, owner_id, title, description, file_url, thumbnail_url, duration, views, is_published, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
	owner_id = EXCLUDED.owner_id,
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	file_url = EXCLUDED.file_url,
	thumbnail_url = EXCLUDED.thumbnail_url,
	duration = EXCLUDED.duration,
	views = EXCLUDED.views,
	is_published = EXCLUDED.is_published,
	created_at = EXCLUDED.created_at
`, video.ID, video.OwnerID, video.Title, video.Description, video.FileURL,
			video.ThumbnailURL, video.Duration, video.Views, video.IsPublished, video.CreatedAt)
		if err != nil {
			return fmt.Errorf("import video %s: %w", video.ID, err)
		}
	}

	for _, userID := range sortedSnapshotKeys(snapshot.Users) {
		user := snapshot.Users[userID]
		if len(user.WatchHistory) == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, "DELETE FROM watch_history WHERE user_id = $1", userID); err != nil {
			return fmt.Errorf("reset watch history for %s: %w", userID, err)
		}
		for _, entry := range user.WatchHistory {
			_, err := tx.Exec(ctx, `
INSERT INTO watch_history (user_id, video_id, title, thumbnail_url, duration, watched_at, progress)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, userID, entry.VideoID, entry.Title, entry.ThumbnailURL, entry.Duration, entry.WatchedAt, entry.Progress)
			if err != nil {
				return fmt.Errorf("import watch history for %s: %w", userID, err)
			}
		}
	}

	for _, channelID := range sortedSnapshotKeys(snapshot.Subscriptions) {
		subscribers := snapshot.Subscriptions[channelID]
		for _, subscriberID := range sortedSnapshotKeys(subscribers) {
			_, err := tx.Exec(ctx, `
INSERT INTO channel_subscriptions (subscriber_id, channel_id, subscribed_at)
VALUES ($1, $2, $3)
ON CONFLICT (channel_id, subscriber_id) DO UPDATE SET subscribed_at = EXCLUDED.subscribed_at
`, subscriberID, channelID, subscribers[subscriberID])
			if err != nil {
				return fmt.Errorf("import subscription %s -> %s: %w", subscriberID, channelID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func sortedSnapshotKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
