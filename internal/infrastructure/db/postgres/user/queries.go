package user

const (
	userColumns = `uuid, username, email, password_hash, created_at, updated_at`

	SelectUserByID = `
		SELECT ` + userColumns + `
		FROM users
		WHERE uuid = $1
	`
	SelectUserByEmail = `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1)
	`
	InsertUser = `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns
	DeleteUserByID = `
		DELETE FROM users
		WHERE uuid = $1
		RETURNING ` + userColumns
)
