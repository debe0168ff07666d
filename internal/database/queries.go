package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

func (db *PgFlatFinderRepository) CreateIdentity(email, passwordHash string) (Identity, error) {
	res := db.conn.QueryRow(
		"INSERT INTO identities (email, password_hash, created_at) "+
			"VALUES ($1, $2, $3) RETURNING id, email, created_at",
		email,
		passwordHash,
		time.Now().UTC(),
	)

	var ident Identity
	err := res.Scan(
		&ident.Id,
		&ident.Email,
		&ident.CreatedAt,
	)

	return ident, err
}

func (db *PgFlatFinderRepository) GetIdentityByEmail(email string) (Identity, error) {
	row := db.conn.QueryRow(
		"SELECT id, email, password_hash, created_at FROM identities "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var ident Identity
	err := row.Scan(
		&ident.Id,
		&ident.Email,
		&ident.PasswordHash,
		&ident.CreatedAt,
	)

	return ident, err
}

func (db *PgFlatFinderRepository) UpdateIdentityPassword(identityId int, passwordHash string) error {
	_, err := db.conn.Exec(
		"UPDATE identities SET password_hash = $2 WHERE id = $1",
		identityId,
		passwordHash,
	)

	return err
}

func (db *PgFlatFinderRepository) DeleteIdentity(identityId int) error {
	res, err := db.conn.Exec("DELETE FROM identities WHERE id = $1", identityId)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgFlatFinderRepository) CreateProfile(params CreateProfileParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO users (id, email, first_name, last_name, birth_date, is_admin, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, false, $6, $6) "+
			"RETURNING id, email, first_name, last_name, birth_date, is_admin, created_at, updated_at",
		params.UserId,
		params.Email,
		params.FirstName,
		params.LastName,
		params.BirthDate,
		time.Now().UTC(),
	)

	return scanUser(res)
}

func (db *PgFlatFinderRepository) GetProfile(userId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, email, first_name, last_name, birth_date, is_admin, created_at, updated_at "+
			"FROM users WHERE id = $1 LIMIT 1",
		userId,
	)

	return scanUser(row)
}

func (db *PgFlatFinderRepository) UpdateProfile(params UpdateProfileParams) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE users SET first_name = $2, last_name = $3, birth_date = $4, updated_at = $5 "+
			"WHERE id = $1 "+
			"RETURNING id, email, first_name, last_name, birth_date, is_admin, created_at, updated_at",
		params.UserId,
		params.FirstName,
		params.LastName,
		params.BirthDate,
		time.Now().UTC(),
	)

	return scanUser(res)
}

func (db *PgFlatFinderRepository) DeleteProfile(userId int) error {
	res, err := db.conn.Exec("DELETE FROM users WHERE id = $1", userId)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgFlatFinderRepository) ListProfiles() ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT id, email, first_name, last_name, birth_date, is_admin, created_at, updated_at " +
			"FROM users ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err = rows.Scan(&u.Id, &u.Email, &u.FirstName, &u.LastName, &u.BirthDate,
			&u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}

		users = append(users, u)
	}

	return users, rows.Err()
}

func (db *PgFlatFinderRepository) GrantAdmin(userId int) error {
	res, err := db.conn.Exec(
		"UPDATE users SET is_admin = true, updated_at = $2 WHERE id = $1",
		userId,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgFlatFinderRepository) CreateFlat(params CreateFlatParams) (Flat, error) {
	res := db.conn.QueryRow(
		"INSERT INTO flats (external_id, owner_id, city, street_name, street_number, rent_price, "+
			"area_size, year_built, date_available, has_ac, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11) "+
			"RETURNING id, external_id, owner_id, city, street_name, street_number, rent_price, "+
			"area_size, year_built, date_available, has_ac, created_at, updated_at",
		params.ExternalId,
		params.OwnerId,
		params.City,
		params.StreetName,
		params.StreetNumber,
		params.RentPrice,
		params.AreaSize,
		params.YearBuilt,
		params.DateAvailable,
		params.HasAC,
		time.Now().UTC(),
	)

	flat, err := scanFlat(res)
	if err != nil {
		return Flat{}, err
	}

	flat.Favorites = make([]int, 0)
	return flat, nil
}

func (db *PgFlatFinderRepository) GetFlatByExternalId(externalId string) (Flat, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, owner_id, city, street_name, street_number, rent_price, "+
			"area_size, year_built, date_available, has_ac, created_at, updated_at "+
			"FROM flats WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	flat, err := scanFlat(row)
	if err != nil {
		return Flat{}, err
	}

	favorites, err := db.favoritesForFlats([]int{flat.Id})
	if err != nil {
		return Flat{}, fmt.Errorf("load favorites: %w", err)
	}

	flat.Favorites = favorites[flat.Id]
	if flat.Favorites == nil {
		flat.Favorites = make([]int, 0)
	}

	return flat, nil
}

func (db *PgFlatFinderRepository) ListFlats() ([]Flat, error) {
	return db.listFlats(
		"SELECT id, external_id, owner_id, city, street_name, street_number, rent_price, " +
			"area_size, year_built, date_available, has_ac, created_at, updated_at " +
			"FROM flats ORDER BY id",
	)
}

func (db *PgFlatFinderRepository) ListFlatsByOwner(ownerId int) ([]Flat, error) {
	return db.listFlats(
		"SELECT id, external_id, owner_id, city, street_name, street_number, rent_price, "+
			"area_size, year_built, date_available, has_ac, created_at, updated_at "+
			"FROM flats WHERE owner_id = $1 ORDER BY id",
		ownerId,
	)
}

func (db *PgFlatFinderRepository) ListFavoriteFlats(userId int) ([]Flat, error) {
	return db.listFlats(
		"SELECT f.id, f.external_id, f.owner_id, f.city, f.street_name, f.street_number, f.rent_price, "+
			"f.area_size, f.year_built, f.date_available, f.has_ac, f.created_at, f.updated_at "+
			"FROM flats f JOIN flat_favorites ff ON ff.flat_id = f.id WHERE ff.user_id = $1 ORDER BY f.id",
		userId,
	)
}

func (db *PgFlatFinderRepository) listFlats(query string, args ...any) ([]Flat, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flats = make([]Flat, 0)
	var ids []int
	for rows.Next() {
		var f Flat
		if err = rows.Scan(&f.Id, &f.ExternalId, &f.OwnerId, &f.City, &f.StreetName, &f.StreetNumber,
			&f.RentPrice, &f.AreaSize, &f.YearBuilt, &f.DateAvailable, &f.HasAC,
			&f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}

		f.Favorites = make([]int, 0)
		flats = append(flats, f)
		ids = append(ids, f.Id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return flats, nil
	}

	favorites, err := db.favoritesForFlats(ids)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}

	for i := range flats {
		if favs, ok := favorites[flats[i].Id]; ok {
			flats[i].Favorites = favs
		}
	}

	return flats, nil
}

// favoritesForFlats loads the favorites sets for the given flat ids in a
// single query, grouped by flat id.
func (db *PgFlatFinderRepository) favoritesForFlats(flatIds []int) (map[int][]int, error) {
	rows, err := db.conn.Query(
		"SELECT flat_id, user_id FROM flat_favorites WHERE flat_id = ANY($1) ORDER BY user_id",
		pq.Array(flatIds),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	favorites := make(map[int][]int)
	for rows.Next() {
		var flatId, userId int
		if err := rows.Scan(&flatId, &userId); err != nil {
			return nil, err
		}

		favorites[flatId] = append(favorites[flatId], userId)
	}

	return favorites, rows.Err()
}

func (db *PgFlatFinderRepository) UpdateFlat(params UpdateFlatParams) (Flat, error) {
	res := db.conn.QueryRow(
		"UPDATE flats SET city = $2, street_name = $3, street_number = $4, rent_price = $5, "+
			"area_size = $6, year_built = $7, date_available = $8, has_ac = $9, updated_at = $10 "+
			"WHERE id = $1 "+
			"RETURNING id, external_id, owner_id, city, street_name, street_number, rent_price, "+
			"area_size, year_built, date_available, has_ac, created_at, updated_at",
		params.FlatId,
		params.City,
		params.StreetName,
		params.StreetNumber,
		params.RentPrice,
		params.AreaSize,
		params.YearBuilt,
		params.DateAvailable,
		params.HasAC,
		time.Now().UTC(),
	)

	return scanFlat(res)
}

func (db *PgFlatFinderRepository) DeleteFlat(flatId int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec("DELETE FROM flat_favorites WHERE flat_id = $1", flatId)
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM flats WHERE id = $1", flatId)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// AddFavorite is the atomic set-add: concurrent or repeated adds for the same
// pair collapse into a single membership row.
func (db *PgFlatFinderRepository) AddFavorite(flatId, userId int) error {
	_, err := db.conn.Exec(
		"INSERT INTO flat_favorites (flat_id, user_id, created_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (flat_id, user_id) DO NOTHING",
		flatId,
		userId,
		time.Now().UTC(),
	)

	return err
}

// RemoveFavorite is the atomic set-remove; removing an absent member is a
// no-op, not an error.
func (db *PgFlatFinderRepository) RemoveFavorite(flatId, userId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM flat_favorites WHERE flat_id = $1 AND user_id = $2",
		flatId,
		userId,
	)

	return err
}

func (db *PgFlatFinderRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	res := db.conn.QueryRow(
		"INSERT INTO messages (external_id, flat_id, sender_id, sender_email, recipient_id, "+
			"recipient_email, content, read, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8) "+
			"RETURNING id, external_id, flat_id, sender_id, sender_email, recipient_id, "+
			"recipient_email, content, read, created_at",
		params.ExternalId,
		params.FlatId,
		params.SenderId,
		params.SenderEmail,
		params.RecipientId,
		params.RecipientEmail,
		params.Content,
		params.CreatedAt,
	)

	return scanMessage(res)
}

func (db *PgFlatFinderRepository) GetMessageByExternalId(externalId string) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, flat_id, sender_id, sender_email, recipient_id, "+
			"recipient_email, content, read, created_at "+
			"FROM messages WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	return scanMessage(row)
}

func (db *PgFlatFinderRepository) ListInbox(recipientId int) ([]Message, error) {
	return db.listMessages(
		"SELECT id, external_id, flat_id, sender_id, sender_email, recipient_id, "+
			"recipient_email, content, read, created_at "+
			"FROM messages WHERE recipient_id = $1 ORDER BY created_at DESC, id DESC",
		recipientId,
	)
}

func (db *PgFlatFinderRepository) ListSent(senderId int) ([]Message, error) {
	return db.listMessages(
		"SELECT id, external_id, flat_id, sender_id, sender_email, recipient_id, "+
			"recipient_email, content, read, created_at "+
			"FROM messages WHERE sender_id = $1 ORDER BY created_at DESC, id DESC",
		senderId,
	)
}

func (db *PgFlatFinderRepository) listMessages(query string, args ...any) ([]Message, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages = make([]Message, 0)
	for rows.Next() {
		var m Message
		if err = rows.Scan(&m.Id, &m.ExternalId, &m.FlatId, &m.SenderId, &m.SenderEmail,
			&m.RecipientId, &m.RecipientEmail, &m.Content, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}

		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// MarkMessageRead sets the read flag; the flag is never cleared once set.
func (db *PgFlatFinderRepository) MarkMessageRead(messageId int) error {
	_, err := db.conn.Exec("UPDATE messages SET read = true WHERE id = $1", messageId)

	return err
}

func (db *PgFlatFinderRepository) DeleteMessage(messageId int) error {
	res, err := db.conn.Exec("DELETE FROM messages WHERE id = $1", messageId)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgFlatFinderRepository) UnreadCount(recipientId int) (int, error) {
	row := db.conn.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND read = false",
		recipientId,
	)

	var count int
	err := row.Scan(&count)

	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (User, error) {
	var u User
	err := row.Scan(
		&u.Id,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.BirthDate,
		&u.IsAdmin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func scanFlat(row scanner) (Flat, error) {
	var f Flat
	err := row.Scan(
		&f.Id,
		&f.ExternalId,
		&f.OwnerId,
		&f.City,
		&f.StreetName,
		&f.StreetNumber,
		&f.RentPrice,
		&f.AreaSize,
		&f.YearBuilt,
		&f.DateAvailable,
		&f.HasAC,
		&f.CreatedAt,
		&f.UpdatedAt,
	)

	return f, err
}

func scanMessage(row scanner) (Message, error) {
	var m Message
	err := row.Scan(
		&m.Id,
		&m.ExternalId,
		&m.FlatId,
		&m.SenderId,
		&m.SenderEmail,
		&m.RecipientId,
		&m.RecipientEmail,
		&m.Content,
		&m.Read,
		&m.CreatedAt,
	)

	return m, err
}
