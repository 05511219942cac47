package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vidshare/backend/internal/db"
	"github.com/vidshare/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, channel_name, email, phone, password_hash, logo_url, logo_id,
        videos, subscribers, subscribed_channels, created_at, updated_at`

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `, user.ID, user.ChannelName, user.Email, user.Phone, user.Password, user.LogoURL, user.LogoID,
		textArray(user.Videos), textArray(user.Subscribers), textArray(user.SubscribedChannels),
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return translateWriteError("insert user", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "email", email)
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, column, value string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE `+column+` = $1
    `, value)

	var user models.User
	if err := row.Scan(&user.ID, &user.ChannelName, &user.Email, &user.Phone, &user.Password, &user.LogoURL, &user.LogoID,
		&user.Videos, &user.Subscribers, &user.SubscribedChannels, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by %s: %w", column, err)
	}

	return user, nil
}

// AppendVideo adds a video id to the end of the user's owned-video list.
func (r *PostgresUserRepository) AppendVideo(ctx context.Context, userID, videoID string) error {
	return r.execOnUser(ctx, "append owned video", `
        UPDATE users
        SET videos = array_append(videos, $2), updated_at = NOW()
        WHERE id = $1
    `, userID, videoID)
}

// RemoveVideo removes every occurrence of the video id from the user's owned-video list.
func (r *PostgresUserRepository) RemoveVideo(ctx context.Context, userID, videoID string) error {
	return r.execOnUser(ctx, "remove owned video", `
        UPDATE users
        SET videos = array_remove(videos, $2), updated_at = NOW()
        WHERE id = $1
    `, userID, videoID)
}

func (r *PostgresUserRepository) execOnUser(ctx context.Context, op, query string, args ...any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, category, tags, video_url, video_id,
            thumbnail_url, thumbnail_id, likes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.Category, textArray(video.Tags),
		video.VideoURL, video.VideoID, video.ThumbnailURL, video.ThumbnailID, textArray(video.Likes),
		video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return translateWriteError("insert video", err)
	}

	return nil
}

// FindByID loads a single video with its owner projection and comments.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, videoSelect+` WHERE v.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	list := []models.Video{video}
	if err := attachComments(ctx, conn, list); err != nil {
		return models.Video{}, err
	}

	return list[0], nil
}

// Update replaces the mutable metadata and thumbnail of a video. Owner, video
// asset and engagement state are left untouched.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2,
            description = $3,
            category = $4,
            tags = $5,
            thumbnail_url = $6,
            thumbnail_id = $7,
            updated_at = $8
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.Category, textArray(video.Tags),
		video.ThumbnailURL, video.ThumbnailID, video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a video record. Its comments are removed by cascade.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// List returns videos matching the filter, newest first.
func (r *PostgresVideoRepository) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	where, args := filterClause(filter)

	rows, err := conn.Query(ctx, videoSelect+where+` ORDER BY v.created_at DESC, v.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	if err := attachComments(ctx, conn, videos); err != nil {
		return nil, err
	}

	return videos, nil
}

// AddLike puts the user into the video's like set. It returns ErrConflict when
// the user already likes the video.
func (r *PostgresVideoRepository) AddLike(ctx context.Context, videoID, userID string) error {
	return r.updateLikes(ctx, "add like", `
        UPDATE videos
        SET likes = array_append(likes, $2)
        WHERE id = $1 AND NOT ($2 = ANY(likes))
    `, videoID, userID)
}

// RemoveLike takes the user out of the video's like set. It returns ErrConflict
// when the user does not like the video.
func (r *PostgresVideoRepository) RemoveLike(ctx context.Context, videoID, userID string) error {
	return r.updateLikes(ctx, "remove like", `
        UPDATE videos
        SET likes = array_remove(likes, $2)
        WHERE id = $1 AND $2 = ANY(likes)
    `, videoID, userID)
}

func (r *PostgresVideoRepository) updateLikes(ctx context.Context, op, query, videoID, userID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, videoID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, videoID).Scan(&exists); err != nil {
		return fmt.Errorf("%s: check video: %w", op, err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

// AddComment appends a comment to a video.
func (r *PostgresVideoRepository) AddComment(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO video_comments (id, video_id, author_id, body, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, comment.ID, comment.VideoID, comment.AuthorID, comment.Text, comment.CreatedAt)
	if err != nil {
		return translateWriteError("insert comment", err)
	}

	return nil
}

// DeleteComment removes a comment from a video. Removing a comment that does
// not exist is not an error.
func (r *PostgresVideoRepository) DeleteComment(ctx context.Context, videoID, commentID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        DELETE FROM video_comments
        WHERE video_id = $1 AND id = $2
    `, videoID, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	return nil
}

const videoSelect = `
        SELECT v.id, v.owner_id, v.title, v.description, v.category, v.tags,
            v.video_url, v.video_id, v.thumbnail_url, v.thumbnail_id, v.likes,
            v.created_at, v.updated_at,
            COALESCE(u.id, ''), COALESCE(u.channel_name, ''), COALESCE(u.email, ''),
            COALESCE(u.phone, ''), COALESCE(u.logo_url, ''),
            COALESCE(u.videos, ARRAY[]::TEXT[]), COALESCE(u.subscribers, ARRAY[]::TEXT[]),
            COALESCE(u.subscribed_channels, ARRAY[]::TEXT[]), COALESCE(u.created_at, v.created_at)
        FROM videos v
        LEFT JOIN users u ON u.id = v.owner_id`

func scanVideo(row pgx.Row) (models.Video, error) {
	var (
		video models.Video
		owner models.User
	)
	if err := row.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.Category, &video.Tags,
		&video.VideoURL, &video.VideoID, &video.ThumbnailURL, &video.ThumbnailID, &video.Likes,
		&video.CreatedAt, &video.UpdatedAt,
		&owner.ID, &owner.ChannelName, &owner.Email, &owner.Phone, &owner.LogoURL,
		&owner.Videos, &owner.Subscribers, &owner.SubscribedChannels, &owner.CreatedAt); err != nil {
		return models.Video{}, err
	}

	video.Tags = textArray(video.Tags)
	video.Likes = textArray(video.Likes)
	video.Comments = []models.Comment{}
	if owner.ID != "" {
		public := owner.Public()
		video.Owner = &public
	}
	return video, nil
}

func filterClause(filter models.VideoFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(format string, value any) {
		args = append(args, value)
		clauses = append(clauses, strings.ReplaceAll(format, "$?", fmt.Sprintf("$%d", len(args))))
	}

	if filter.OwnerID != "" {
		add("v.owner_id = $?", filter.OwnerID)
	}
	if filter.Category != "" {
		add("v.category = $?", filter.Category)
	}
	if filter.Tag != "" {
		add("$? = ANY(v.tags)", filter.Tag)
	}
	if filter.Search != "" {
		add("(v.title ILIKE $? OR v.description ILIKE $? OR EXISTS (SELECT 1 FROM unnest(v.tags) AS t WHERE t ILIKE $?))",
			"%"+escapeLike(filter.Search)+"%")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func attachComments(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, videos []models.Video) error {
	if len(videos) == 0 {
		return nil
	}

	ids := make([]string, len(videos))
	index := make(map[string]int, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
		index[v.ID] = i
	}

	rows, err := q.Query(ctx, `
        SELECT id, video_id, author_id, body, created_at
        FROM video_comments
        WHERE video_id = ANY($1)
        ORDER BY created_at, id
    `, ids)
	if err != nil {
		return fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.VideoID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
			return fmt.Errorf("scan comment: %w", err)
		}
		if i, ok := index[c.VideoID]; ok {
			videos[i].Comments = append(videos[i].Comments, c)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate comments: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
