package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"vidtube/internal/models"
)

type postgresRepository struct {
	pool *pgxpool.Pool
	cfg  PostgresConfig
}

// NewPostgresRepository opens a Postgres-backed repository. The caller must
// ensure database migrations have been applied prior to invoking this
// constructor.
func NewPostgresRepository(dsn string, opts ...Option) (Repository, error) {
	cfg := newPostgresConfig(dsn, opts...)
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections >= 0 {
		poolCfg.MinConns = cfg.MinConnections
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckInterval > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckInterval
	}
	if cfg.AcquireTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.AcquireTimeout
	}
	if cfg.ApplicationName != "" {
		if poolCfg.ConnConfig.RuntimeParams == nil {
			poolCfg.ConnConfig.RuntimeParams = make(map[string]string)
		}
		poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	return &postgresRepository{pool: pool, cfg: cfg}, nil
}

func (r *postgresRepository) Ping(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("postgres pool not configured")
	}
	return r.pool.Ping(ctx)
}

func (r *postgresRepository) Close(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.pool.Close()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func isNoRows(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const userColumns = "id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token_hash, created_at"

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.AvatarURL, &user.CoverImageURL, &user.PasswordHash,
		&user.RefreshTokenHash, &user.CreatedAt)
	return user, err
}

func (r *postgresRepository) CreateUser(params CreateUserParams) (models.User, error) {
	username := FoldUsername(params.Username)
	email := models.NormalizeEmail(params.Email)
	fullName := trimmed(params.FullName)
	if username == "" {
		return models.User{}, InvalidArgumentf("username is required")
	}
	if email == "" {
		return models.User{}, InvalidArgumentf("email is required")
	}
	if fullName == "" {
		return models.User{}, InvalidArgumentf("full name is required")
	}
	if len(params.Password) < 8 {
		return models.User{}, InvalidArgumentf("password must be at least 8 characters")
	}
	if trimmed(params.AvatarURL) == "" {
		return models.User{}, InvalidArgumentf("avatar is required")
	}

	hashed, err := hashPassword(params.Password)
	if err != nil {
		return models.User{}, Internal("hash password", err)
	}
	id, err := generateID()
	if err != nil {
		return models.User{}, Internal("generate user id", err)
	}

	user := models.User{
		ID:            id,
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     trimmed(params.AvatarURL),
		CoverImageURL: trimmed(params.CoverImageURL),
		PasswordHash:  hashed,
		CreatedAt:     r.cfg.Clock(),
	}

	_, err = r.pool.Exec(context.Background(), `
INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token_hash, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, '', $8)
`, user.ID, user.Username, user.Email, user.FullName, user.AvatarURL, user.CoverImageURL, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, Conflictf("username or email already registered")
		}
		return models.User{}, Internal("insert user", err)
	}
	return user, nil
}

func (r *postgresRepository) GetUser(id string) (models.User, bool) {
	row := r.pool.QueryRow(context.Background(),
		"SELECT "+userColumns+" FROM users WHERE id = $1", id)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

func (r *postgresRepository) FindUserByUsername(username string) (models.User, bool) {
	row := r.pool.QueryRow(context.Background(),
		"SELECT "+userColumns+" FROM users WHERE username = $1", FoldUsername(username))
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

func (r *postgresRepository) AuthenticateUser(identifier, password string) (models.User, error) {
	if password == "" {
		return models.User{}, InvalidArgumentf("password is required")
	}
	if trimmed(identifier) == "" {
		return models.User{}, InvalidArgumentf("username or email is required")
	}
	row := r.pool.QueryRow(context.Background(),
		"SELECT "+userColumns+" FROM users WHERE username = $1 OR email = $2",
		FoldUsername(identifier), models.NormalizeEmail(identifier))
	user, err := scanUser(row)
	if err != nil {
		if isNoRows(err) {
			return models.User{}, Unauthorizedf("invalid credentials")
		}
		return models.User{}, Internal("query user", err)
	}
	if err := verifyPassword(user.PasswordHash, password); err != nil {
		if IsUnauthorized(err) {
			return models.User{}, err
		}
		return models.User{}, Internal("verify password", err)
	}
	return user, nil
}

func (r *postgresRepository) UpdateAccount(id string, update AccountUpdate) (models.User, error) {
	setClauses := make([]string, 0, 4)
	args := make([]any, 0, 5)
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if update.FullName != nil {
		name := trimmed(*update.FullName)
		if name == "" {
			return models.User{}, InvalidArgumentf("full name cannot be blank")
		}
		setClauses = append(setClauses, "full_name = "+arg(name))
	}
	if update.Email != nil {
		email := models.NormalizeEmail(*update.Email)
		if email == "" {
			return models.User{}, InvalidArgumentf("email cannot be blank")
		}
		setClauses = append(setClauses, "email = "+arg(email))
	}
	if update.AvatarURL != nil {
		avatar := trimmed(*update.AvatarURL)
		if avatar == "" {
			return models.User{}, InvalidArgumentf("avatar url cannot be blank")
		}
		setClauses = append(setClauses, "avatar_url = "+arg(avatar))
	}
	if update.CoverImageURL != nil {
		setClauses = append(setClauses, "cover_image_url = "+arg(trimmed(*update.CoverImageURL)))
	}
	if len(setClauses) == 0 {
		return models.User{}, InvalidArgumentf("no fields to update")
	}

	query := "UPDATE users SET " + strings.Join(setClauses, ", ") +
		" WHERE id = " + arg(id) + " RETURNING " + userColumns
	row := r.pool.QueryRow(context.Background(), query, args...)
	user, err := scanUser(row)
	if err != nil {
		if isNoRows(err) {
			return models.User{}, NotFoundf("user %s not found", id)
		}
		if isUniqueViolation(err) {
			return models.User{}, Conflictf("email already registered")
		}
		return models.User{}, Internal("update user", err)
	}
	return user, nil
}

func (r *postgresRepository) ChangePassword(id, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return InvalidArgumentf("password must be at least 8 characters")
	}
	row := r.pool.QueryRow(context.Background(),
		"SELECT password_hash FROM users WHERE id = $1", id)
	var currentHash string
	if err := row.Scan(&currentHash); err != nil {
		if isNoRows(err) {
			return NotFoundf("user %s not found", id)
		}
		return Internal("query user", err)
	}
	if err := verifyPassword(currentHash, oldPassword); err != nil {
		if IsUnauthorized(err) {
			return Unauthorizedf("current password is incorrect")
		}
		return Internal("verify password", err)
	}
	hashed, err := hashPassword(newPassword)
	if err != nil {
		return Internal("hash password", err)
	}
	if _, err := r.pool.Exec(context.Background(),
		"UPDATE users SET password_hash = $1 WHERE id = $2", hashed, id); err != nil {
		return Internal("update password", err)
	}
	return nil
}

func (r *postgresRepository) SetRefreshTokenHash(id, hash string) error {
	return r.updateRefreshTokenHash(id, hash)
}

func (r *postgresRepository) ClearRefreshTokenHash(id string) error {
	return r.updateRefreshTokenHash(id, "")
}

func (r *postgresRepository) updateRefreshTokenHash(id, hash string) error {
	tag, err := r.pool.Exec(context.Background(),
		"UPDATE users SET refresh_token_hash = $1 WHERE id = $2", hash, id)
	if err != nil {
		return Internal("update refresh token", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundf("user %s not found", id)
	}
	return nil
}

const videoColumns = "id, owner_id, title, description, file_url, thumbnail_url, duration, views, is_published, created_at"

func scanVideo(row pgx.Row) (models.Video, error) {
	var video models.Video
	err := row.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description,
		&video.FileURL, &video.ThumbnailURL, &video.Duration, &video.Views,
		&video.IsPublished, &video.CreatedAt)
	return video, err
}

func (r *postgresRepository) CreateVideo(params CreateVideoParams) (models.Video, error) {
	title := trimmed(params.Title)
	description := trimmed(params.Description)
	if title == "" {
		return models.Video{}, InvalidArgumentf("title is required")
	}
	if len(title) > MaxTitleLength {
		return models.Video{}, InvalidArgumentf("title exceeds %d characters", MaxTitleLength)
	}
	if description == "" {
		return models.Video{}, InvalidArgumentf("description is required")
	}
	if len(description) > MaxDescriptionLength {
		return models.Video{}, InvalidArgumentf("description exceeds %d characters", MaxDescriptionLength)
	}
	if trimmed(params.FileURL) == "" {
		return models.Video{}, InvalidArgumentf("video file is required")
	}
	if trimmed(params.ThumbnailURL) == "" {
		return models.Video{}, InvalidArgumentf("thumbnail is required")
	}

	id, err := generateID()
	if err != nil {
		return models.Video{}, Internal("generate video id", err)
	}
	video := models.Video{
		ID:           id,
		OwnerID:      params.OwnerID,
		Title:        title,
		Description:  description,
		FileURL:      trimmed(params.FileURL),
		ThumbnailURL: trimmed(params.ThumbnailURL),
		Duration:     roundDuration(params.Duration),
		IsPublished:  true,
		CreatedAt:    r.cfg.Clock(),
	}

	_, err = r.pool.Exec(context.Background(), `
INSERT INTO videos (id, owner_id, title, description, file_url, thumbnail_url, duration, views, is_published, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, 0, TRUE, $8)
`, video.ID, video.OwnerID, video.Title, video.Description, video.FileURL, video.ThumbnailURL, video.Duration, video.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.Video{}, NotFoundf("owner %s not found", params.OwnerID)
		}
		return models.Video{}, Internal("insert video", err)
	}
	return video, nil
}

func (r *postgresRepository) GetVideo(id string) (models.Video, bool) {
	row := r.pool.QueryRow(context.Background(),
		"SELECT "+videoColumns+" FROM videos WHERE id = $1", id)
	video, err := scanVideo(row)
	if err != nil {
		return models.Video{}, false
	}
	return video, true
}

// guardVideoOwner distinguishes a missing video from one owned by somebody
// else before a mutation runs.
func (r *postgresRepository) guardVideoOwner(ctx context.Context, tx pgx.Tx, id, callerID string) (models.Video, error) {
	row := tx.QueryRow(ctx, "SELECT "+videoColumns+" FROM videos WHERE id = $1 FOR UPDATE", id)
	video, err := scanVideo(row)
	if err != nil {
		if isNoRows(err) {
			return models.Video{}, NotFoundf("video %s not found", id)
		}
		return models.Video{}, Internal("query video", err)
	}
	if video.OwnerID != callerID {
		return models.Video{}, Forbiddenf("video %s is not owned by caller", id)
	}
	return video, nil
}

func (r *postgresRepository) UpdateVideo(id, callerID string, update VideoUpdate) (models.Video, string, error) {
	ctx := context.Background()
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Video{}, "", Internal("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	video, err := r.guardVideoOwner(ctx, tx, id, callerID)
	if err != nil {
		return models.Video{}, "", err
	}

	previousThumbnail := ""
	if update.Title != nil {
		title := trimmed(*update.Title)
		if title == "" {
			return models.Video{}, "", InvalidArgumentf("title cannot be blank")
		}
		if len(title) > MaxTitleLength {
			return models.Video{}, "", InvalidArgumentf("title exceeds %d characters", MaxTitleLength)
		}
		video.Title = title
	}
	if update.Description != nil {
		description := trimmed(*update.Description)
		if description == "" {
			return models.Video{}, "", InvalidArgumentf("description cannot be blank")
		}
		if len(description) > MaxDescriptionLength {
			return models.Video{}, "", InvalidArgumentf("description exceeds %d characters", MaxDescriptionLength)
		}
		video.Description = description
	}
	if update.ThumbnailURL != nil {
		thumbnail := trimmed(*update.ThumbnailURL)
		if thumbnail == "" {
			return models.Video{}, "", InvalidArgumentf("thumbnail url cannot be blank")
		}
		if thumbnail != video.ThumbnailURL {
			previousThumbnail = video.ThumbnailURL
		}
		video.ThumbnailURL = thumbnail
	}

	_, err = tx.Exec(ctx, `
UPDATE videos SET title = $1, description = $2, thumbnail_url = $3 WHERE id = $4
`, video.Title, video.Description, video.ThumbnailURL, id)
	if err != nil {
		return models.Video{}, "", Internal("update video", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Video{}, "", Internal("commit video update", err)
	}
	return video, previousThumbnail, nil
}

func (r *postgresRepository) DeleteVideo(id, callerID string) (models.Video, error) {
	ctx := context.Background()
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Video{}, Internal("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	video, err := r.guardVideoOwner(ctx, tx, id, callerID)
	if err != nil {
		return models.Video{}, err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM videos WHERE id = $1", id); err != nil {
		return models.Video{}, Internal("delete video", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Video{}, Internal("commit video delete", err)
	}
	return video, nil
}

func (r *postgresRepository) TogglePublish(id, callerID string) (models.Video, error) {
	ctx := context.Background()
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Video{}, Internal("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := r.guardVideoOwner(ctx, tx, id, callerID); err != nil {
		return models.Video{}, err
	}
	row := tx.QueryRow(ctx, `
UPDATE videos SET is_published = NOT is_published WHERE id = $1 RETURNING `+videoColumns, id)
	video, err := scanVideo(row)
	if err != nil {
		return models.Video{}, Internal("toggle publish", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Video{}, Internal("commit publish toggle", err)
	}
	return video, nil
}

// sortColumns maps the allow-listed sort fields onto real column names. The
// listing never interpolates caller input into SQL.
var sortColumns = map[SortField]string{
	SortByTitle:     "title",
	SortByCreatedAt: "created_at",
	SortByDuration:  "duration",
	SortByViews:     "views",
}

func escapeLikePattern(query string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(query) + "%"
}

func (r *postgresRepository) ListVideos(query VideoQuery) (VideoPage, error) {
	normalized, err := query.normalize()
	if err != nil {
		return VideoPage{}, err
	}

	ctx := context.Background()
	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if normalized.OwnerUsername != "" {
		owner, ok := r.FindUserByUsername(normalized.OwnerUsername)
		if !ok {
			return VideoPage{}, NotFoundf("user %s not found", normalized.OwnerUsername)
		}
		args = append(args, owner.ID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if normalized.Query != "" {
		args = append(args, escapeLikePattern(normalized.Query))
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM videos"+whereClause, args...).Scan(&total); err != nil {
		return VideoPage{}, Internal("count videos", err)
	}

	direction := "ASC"
	if normalized.Descending {
		direction = "DESC"
	}
	orderBy := fmt.Sprintf(" ORDER BY %s %s, id %s", sortColumns[normalized.SortBy], direction, direction)

	args = append(args, normalized.Limit)
	limitArg := len(args)
	args = append(args, (normalized.Page-1)*normalized.Limit)
	offsetArg := len(args)

	rows, err := r.pool.Query(ctx,
		"SELECT "+videoColumns+" FROM videos"+whereClause+orderBy+
			fmt.Sprintf(" LIMIT $%d OFFSET $%d", limitArg, offsetArg), args...)
	if err != nil {
		return VideoPage{}, Internal("query videos", err)
	}
	defer rows.Close()

	items := []models.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return VideoPage{}, Internal("scan video", err)
		}
		items = append(items, video)
	}
	if err := rows.Err(); err != nil {
		return VideoPage{}, Internal("iterate videos", err)
	}

	return VideoPage{
		Items:      items,
		Page:       normalized.Page,
		Limit:      normalized.Limit,
		TotalCount: total,
		TotalPages: (total + normalized.Limit - 1) / normalized.Limit,
	}, nil
}

// RecordView increments the view counter and touches the watch history in a
// single transaction. The history write is an atomic insert-or-touch keyed on
// (user_id, video_id), so concurrent views from the same user cannot lose
// updates.
func (r *postgresRepository) RecordView(userID, videoID string) (models.Video, error) {
	ctx := context.Background()
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Video{}, Internal("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		"UPDATE videos SET views = views + 1 WHERE id = $1 RETURNING "+videoColumns, videoID)
	video, err := scanVideo(row)
	if err != nil {
		if isNoRows(err) {
			return models.Video{}, NotFoundf("video %s not found", videoID)
		}
		return models.Video{}, Internal("update views", err)
	}

	now := r.cfg.Clock()
	_, err = tx.Exec(ctx, `
INSERT INTO watch_history (user_id, video_id, title, thumbnail_url, duration, watched_at, progress)
VALUES ($1, $2, $3, $4, $5, $6, 0)
ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = EXCLUDED.watched_at
`, userID, videoID, video.Title, video.ThumbnailURL, video.Duration, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.Video{}, Internalf("user %s not found", userID)
		}
		return models.Video{}, Internal("record watch history", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Video{}, Internal("commit view", err)
	}
	return video, nil
}

func (r *postgresRepository) WatchHistory(userID string) ([]models.HistoryItem, error) {
	ctx := context.Background()

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", userID).Scan(&exists); err != nil {
		return nil, Internal("query user", err)
	}
	if !exists {
		return nil, NotFoundf("user %s not found", userID)
	}

	rows, err := r.pool.Query(ctx, `
SELECT h.video_id, h.title, h.thumbnail_url, h.duration, h.watched_at, h.progress,
       o.id, o.username, o.full_name, o.avatar_url
FROM watch_history h
LEFT JOIN videos v ON v.id = h.video_id
LEFT JOIN users o ON o.id = v.owner_id
WHERE h.user_id = $1
ORDER BY h.position
`, userID)
	if err != nil {
		return nil, Internal("query watch history", err)
	}
	defer rows.Close()

	items := []models.HistoryItem{}
	for rows.Next() {
		var item models.HistoryItem
		var ownerID, ownerUsername, ownerFullName, ownerAvatar *string
		if err := rows.Scan(&item.VideoID, &item.Title, &item.ThumbnailURL,
			&item.Duration, &item.WatchedAt, &item.Progress,
			&ownerID, &ownerUsername, &ownerFullName, &ownerAvatar); err != nil {
			return nil, Internal("scan watch history", err)
		}
		if ownerID != nil {
			item.Owner = &models.HistoryOwner{
				UserID:    *ownerID,
				Username:  stringOrEmpty(ownerUsername),
				FullName:  stringOrEmpty(ownerFullName),
				AvatarURL: stringOrEmpty(ownerAvatar),
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, Internal("iterate watch history", err)
	}
	return items, nil
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func (r *postgresRepository) Subscribe(subscriberID, channelID string) error {
	if subscriberID == channelID {
		return InvalidArgumentf("cannot subscribe to your own channel")
	}
	_, err := r.pool.Exec(context.Background(), `
INSERT INTO channel_subscriptions (subscriber_id, channel_id, subscribed_at)
VALUES ($1, $2, $3)
ON CONFLICT (channel_id, subscriber_id) DO NOTHING
`, subscriberID, channelID, r.cfg.Clock())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return NotFoundf("channel %s not found", channelID)
		}
		return Internal("insert subscription", err)
	}
	return nil
}

func (r *postgresRepository) Unsubscribe(subscriberID, channelID string) error {
	var exists bool
	if err := r.pool.QueryRow(context.Background(),
		"SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", channelID).Scan(&exists); err != nil {
		return Internal("query channel", err)
	}
	if !exists {
		return NotFoundf("channel %s not found", channelID)
	}
	_, err := r.pool.Exec(context.Background(),
		"DELETE FROM channel_subscriptions WHERE channel_id = $1 AND subscriber_id = $2",
		channelID, subscriberID)
	if err != nil {
		return Internal("delete subscription", err)
	}
	return nil
}

func (r *postgresRepository) IsSubscribed(subscriberID, channelID string) bool {
	var exists bool
	err := r.pool.QueryRow(context.Background(), `
SELECT EXISTS (SELECT 1 FROM channel_subscriptions WHERE channel_id = $1 AND subscriber_id = $2)
`, channelID, subscriberID).Scan(&exists)
	return err == nil && exists
}

func (r *postgresRepository) ChannelProfile(username, viewerID string) (models.ChannelProfile, error) {
	folded := FoldUsername(username)
	if folded == "" {
		return models.ChannelProfile{}, InvalidArgumentf("username is required")
	}
	row := r.pool.QueryRow(context.Background(), `
SELECT u.id, u.username, u.full_name, u.avatar_url, u.cover_image_url,
       (SELECT COUNT(*) FROM channel_subscriptions s WHERE s.channel_id = u.id),
       (SELECT COUNT(*) FROM channel_subscriptions s WHERE s.subscriber_id = u.id),
       EXISTS (SELECT 1 FROM channel_subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2)
FROM users u
WHERE u.username = $1
`, folded, viewerID)
	var profile models.ChannelProfile
	err := row.Scan(&profile.UserID, &profile.Username, &profile.FullName,
		&profile.AvatarURL, &profile.CoverImageURL, &profile.SubscriberCount,
		&profile.SubscribedToCount, &profile.IsSubscribed)
	if err != nil {
		if isNoRows(err) {
			return models.ChannelProfile{}, NotFoundf("channel %s not found", folded)
		}
		return models.ChannelProfile{}, Internal("query channel profile", err)
	}
	return profile, nil
}

var _ Repository = (*postgresRepository)(nil)
