package users

const (
	userColumns = `id, email, name, avatar_url, created_at, updated_at`

	queryCreate = `
		INSERT INTO users (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	queryFindByID = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	queryFindCredentials = `
		SELECT ` + userColumns + `, password_hash
		FROM users
		WHERE email = $1
	`

	queryList = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`

	queryCount = `
		SELECT COUNT(*) FROM users
	`

	queryUpdateProfile = `
		UPDATE users
		SET name = $1, avatar_url = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + userColumns

	queryDelete = `
		DELETE FROM users
		WHERE id = $1
	`
)
