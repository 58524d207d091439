package image

const (
	imageColumns = `uuid, user_uuid, urls, keys, title, size_bytes, mime_type, created_at, updated_at`

	InsertImage = `
		INSERT INTO images (user_uuid, urls, keys, title, size_bytes, mime_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + imageColumns
	SelectImageByID = `
		SELECT ` + imageColumns + `
		FROM images
		WHERE uuid = $1
	`
	SelectImagesByOwner = `
		SELECT ` + imageColumns + `
		FROM images
		WHERE user_uuid = $1
		ORDER BY created_at DESC, uuid
		LIMIT $2 OFFSET $3
	`
	CountImagesByOwner = `SELECT count(*) FROM images WHERE user_uuid = $1`
	SelectKeysByOwner  = `
		SELECT k
		FROM images, unnest(keys) AS k
		WHERE user_uuid = $1
	`
	UpdateImageTitle = `
		UPDATE images
		SET title = $2,
		    updated_at = now()
		WHERE uuid = $1
		RETURNING ` + imageColumns
	// the cardinality guard keeps concurrent appends from overflowing the list
	AppendImageURL = `
		UPDATE images
		SET urls = array_append(urls, $2::text),
		    keys = CASE WHEN $3::text = '' THEN keys ELSE array_append(keys, $3::text) END,
		    updated_at = now()
		WHERE uuid = $1 AND cardinality(urls) < $4
		RETURNING ` + imageColumns
	DeleteImageByID      = `DELETE FROM images WHERE uuid = $1`
	DeleteImagesByUserID = `DELETE FROM images WHERE user_uuid = $1`
)
