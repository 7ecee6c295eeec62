package store

import (
	"database/sql"
	"fmt"

	"github.com/rlanders/choreward/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var email sql.NullString
	var pinHash string
	var active int

	err := scanner.Scan(
		&u.ID, &u.FamilyID, &u.Name, &email, &u.Role,
		&pinHash, &u.PointsBalance, &active, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		u.Email = email.String
	}
	u.HasPIN = pinHash != ""
	u.IsActive = active != 0
	return &u, nil
}

const userCols = `id, family_id, name, email, role, pin_hash, points_balance, is_active, created_at, updated_at`

// RegisterParent creates a family and its first parent in one transaction.
func (s *UserStore) RegisterParent(familyName, parentName, email, passwordHash string) (*model.User, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO families (name) VALUES (?)`, familyName)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	familyID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	res, err = tx.Exec(
		`INSERT INTO users (family_id, name, email, role, password_hash) VALUES (?, ?, ?, 'parent', ?)`,
		familyID, parentName, email, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert parent: %w", err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := insertActivityTx(tx, familyID, &userID, "family.registered", "family", familyID, map[string]any{
		"family_name": familyName,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(familyID, userID)
}

// Create adds a user to an existing family. Parents use it to create
// child accounts (and additional parents).
func (s *UserStore) Create(familyID int64, name, email string, role model.Role, passwordHash string) (*model.User, error) {
	var e sql.NullString
	if email != "" {
		e = sql.NullString{String: email, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO users (family_id, name, email, role, password_hash) VALUES (?, ?, ?, ?, ?)`,
		familyID, name, e, role, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(familyID, id)
}

func (s *UserStore) GetByID(familyID, id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ? AND family_id = ?`, id, familyID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) List(familyID int64) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM users WHERE family_id = ? ORDER BY role ASC, name ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) Update(familyID, id int64, name, email string) (*model.User, error) {
	var e sql.NullString
	if email != "" {
		e = sql.NullString{String: email, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE users SET name = ?, email = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND family_id = ?`,
		name, e, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(familyID, id)
}

// Deactivate soft-deletes a user. Rows are never hard-deleted so verified
// chores and redemptions keep their history.
func (s *UserStore) Deactivate(familyID, id int64) error {
	_, err := s.db.Exec(
		`UPDATE users SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND family_id = ?`,
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	return nil
}

func (s *UserStore) PasswordHash(email string) (int64, string, error) {
	var id int64
	var hash string
	err := s.db.QueryRow(`SELECT id, password_hash FROM users WHERE email = ? AND is_active = 1`, email).Scan(&id, &hash)
	if err == sql.ErrNoRows {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("get password hash: %w", err)
	}
	return id, hash, nil
}

func (s *UserStore) SetPIN(familyID, id int64, pinHash string) error {
	_, err := s.db.Exec(
		`UPDATE users SET pin_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND family_id = ?`,
		pinHash, id, familyID,
	)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *UserStore) ClearPIN(familyID, id int64) error {
	return s.SetPIN(familyID, id, "")
}

func (s *UserStore) PINHash(familyID, id int64) (string, error) {
	var hash string
	err := s.db.QueryRow(
		`SELECT pin_hash FROM users WHERE id = ? AND family_id = ? AND is_active = 1`,
		id, familyID,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get pin hash: %w", err)
	}
	return hash, nil
}
