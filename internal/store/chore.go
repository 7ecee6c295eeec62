package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rlanders/choreward/internal/chore"
	"github.com/rlanders/choreward/internal/model"
	"github.com/rlanders/choreward/internal/points"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var categoryID, assignedTo, verifiedBy sql.NullInt64
	var dueDate, claimedAt, completedAt, verifiedAt sql.NullTime
	var isBonus int

	err := scanner.Scan(
		&c.ID, &c.FamilyID, &c.Title, &c.Description, &categoryID, &c.PointValue,
		&c.Status, &isBonus, &assignedTo, &dueDate, &claimedAt, &completedAt,
		&c.PhotoURL, &c.CompletionNotes, &verifiedAt, &verifiedBy,
		&c.VerificationNotes, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.IsBonus = isBonus != 0
	if categoryID.Valid {
		c.CategoryID = &categoryID.Int64
	}
	if assignedTo.Valid {
		c.AssignedTo = &assignedTo.Int64
	}
	if verifiedBy.Valid {
		c.VerifiedBy = &verifiedBy.Int64
	}
	if dueDate.Valid {
		c.DueDate = &dueDate.Time
	}
	if claimedAt.Valid {
		c.ClaimedAt = &claimedAt.Time
	}
	if completedAt.Valid {
		c.CompletedAt = &completedAt.Time
	}
	if verifiedAt.Valid {
		c.VerifiedAt = &verifiedAt.Time
	}
	return &c, nil
}

const choreCols = `id, family_id, title, description, category_id, point_value, status, is_bonus, assigned_to, due_date, claimed_at, completed_at, photo_url, completion_notes, verified_at, verified_by, verification_notes, created_by, created_at, updated_at`

// getChoreTx re-reads the chore inside the caller's transaction. Family
// scoping is part of the lookup: a chore outside the actor's family is
// indistinguishable from a missing one.
func getChoreTx(tx *sql.Tx, familyID, id int64) (*model.Chore, error) {
	row := tx.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ? AND family_id = ?`, id, familyID)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, points.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// ChoreParams carries the parent-editable fields.
type ChoreParams struct {
	Title       string
	Description string
	CategoryID  *int64
	PointValue  int
	IsBonus     bool
	AssignedTo  *int64
	DueDate     *time.Time
}

// validateRefsTx checks that the assignee (a child) and category, when
// given, belong to the family.
func validateRefsTx(tx *sql.Tx, familyID int64, p ChoreParams) error {
	if p.AssignedTo != nil {
		var role model.Role
		err := tx.QueryRow(
			`SELECT role FROM users WHERE id = ? AND family_id = ? AND is_active = 1`,
			*p.AssignedTo, familyID,
		).Scan(&role)
		if err == sql.ErrNoRows {
			return points.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check assignee: %w", err)
		}
		if role != model.RoleChild {
			return points.ErrInvalidTransition
		}
	}
	if p.CategoryID != nil {
		var n int
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM categories WHERE id = ? AND family_id = ?`,
			*p.CategoryID, familyID,
		).Scan(&n)
		if err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if n == 0 {
			return points.ErrNotFound
		}
	}
	return nil
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Create inserts a new PENDING chore. Parent-only; the handler has
// already checked the role, the store checks the references.
func (s *ChoreStore) Create(familyID, createdBy int64, p ChoreParams) (*model.Chore, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := validateRefsTx(tx, familyID, p); err != nil {
		return nil, err
	}

	var bonus int
	if p.IsBonus {
		bonus = 1
	}
	var claimedAt sql.NullTime
	if p.AssignedTo != nil {
		// Direct assignment at creation is not a claim; claimed_at
		// stays null.
		claimedAt = sql.NullTime{}
	}

	res, err := tx.Exec(
		`INSERT INTO chores (family_id, title, description, category_id, point_value, is_bonus, assigned_to, due_date, claimed_at, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		familyID, p.Title, p.Description, nullID(p.CategoryID), p.PointValue, bonus,
		nullID(p.AssignedTo), nullTime(p.DueDate), claimedAt, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := insertActivityTx(tx, familyID, &createdBy, "chore.created", "chore", id, map[string]any{
		"title":  p.Title,
		"points": p.PointValue,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(familyID, id)
}

func (s *ChoreStore) GetByID(familyID, id int64) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ? AND family_id = ?`, id, familyID)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// ListOptions filter List. Zero values mean "no filter".
type ListOptions struct {
	Status     model.ChoreStatus
	AssignedTo *int64
	// Claimable selects unassigned pending chores (the bonus board).
	Claimable bool
}

func (s *ChoreStore) List(familyID int64, opts ListOptions) ([]model.Chore, error) {
	query := `SELECT ` + choreCols + ` FROM chores WHERE family_id = ?`
	args := []any{familyID}

	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, opts.Status)
	}
	if opts.AssignedTo != nil {
		query += ` AND assigned_to = ?`
		args = append(args, *opts.AssignedTo)
	}
	if opts.Claimable {
		query += ` AND assigned_to IS NULL AND status = 'pending'`
	}
	query += ` ORDER BY due_date ASC, title ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// VerificationQueue lists completed chores oldest-completion first, so
// parents review the backlog in FIFO order.
func (s *ChoreStore) VerificationQueue(familyID int64) ([]model.Chore, error) {
	rows, err := s.db.Query(
		`SELECT `+choreCols+` FROM chores WHERE family_id = ? AND status = 'completed' ORDER BY completed_at ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("verification queue: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// Update edits parent-editable fields. Verified chores are immutable.
func (s *ChoreStore) Update(familyID, id, actorID int64, role model.Role, p ChoreParams) (*model.Chore, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := getChoreTx(tx, familyID, id)
	if err != nil {
		return nil, err
	}
	if err := chore.Guard(c, chore.ActionUpdate, actorID, role); err != nil {
		return nil, err
	}
	if err := validateRefsTx(tx, familyID, p); err != nil {
		return nil, err
	}

	var bonus int
	if p.IsBonus {
		bonus = 1
	}
	_, err = tx.Exec(
		`UPDATE chores SET title = ?, description = ?, category_id = ?, point_value = ?, is_bonus = ?, assigned_to = ?, due_date = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		p.Title, p.Description, nullID(p.CategoryID), p.PointValue, bonus,
		nullID(p.AssignedTo), nullTime(p.DueDate), id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}

	if err := insertActivityTx(tx, familyID, &actorID, "chore.updated", "chore", id, map[string]any{
		"title": p.Title,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(familyID, id)
}

func (s *ChoreStore) Delete(familyID, id, actorID int64, role model.Role) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := getChoreTx(tx, familyID, id)
	if err != nil {
		return err
	}
	if err := chore.Guard(c, chore.ActionDelete, actorID, role); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM chores WHERE id = ? AND family_id = ?`, id, familyID); err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	if err := insertActivityTx(tx, familyID, &actorID, "chore.deleted", "chore", id, map[string]any{
		"title": c.Title,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// BulkDelete removes the given chores, skipping verified ones and ids
// outside the family. Returns how many were deleted.
func (s *ChoreStore) BulkDelete(familyID int64, ids []int64, actorID int64, role model.Role) (int, error) {
	if role != model.RoleParent {
		return 0, points.ErrForbidden
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	deleted := 0
	for _, id := range ids {
		res, err := tx.Exec(
			`DELETE FROM chores WHERE id = ? AND family_id = ? AND status != 'verified'`,
			id, familyID,
		)
		if err != nil {
			return 0, fmt.Errorf("bulk delete chore %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("bulk delete rows: %w", err)
		}
		deleted += int(n)
	}

	if deleted > 0 {
		if err := insertActivityTx(tx, familyID, &actorID, "chore.bulk_deleted", "chore", 0, map[string]any{
			"count": deleted,
		}); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return deleted, nil
}

// Claim self-assigns an unassigned pending chore to the calling child.
// The transaction makes concurrent claims on the same chore mutually
// exclusive: the second claimer re-reads an already-assigned row and
// fails the guard.
func (s *ChoreStore) Claim(familyID, id, actorID int64, role model.Role) (*model.Chore, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := getChoreTx(tx, familyID, id)
	if err != nil {
		return nil, err
	}
	if err := chore.Guard(c, chore.ActionClaim, actorID, role); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = tx.Exec(
		`UPDATE chores SET assigned_to = ?, claimed_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND family_id = ?`,
		actorID, now, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("claim chore: %w", err)
	}

	if err := insertActivityTx(tx, familyID, &actorID, "chore.claimed", "chore", id, map[string]any{
		"title": c.Title,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(familyID, id)
}

// Complete marks an assigned chore done and queues it for verification.
// A complete after rejection is a resubmission; the previous verification
// decision is cleared.
func (s *ChoreStore) Complete(familyID, id, actorID int64, role model.Role, photoURL, notes string) (*model.Chore, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := getChoreTx(tx, familyID, id)
	if err != nil {
		return nil, err
	}
	if err := chore.Guard(c, chore.ActionComplete, actorID, role); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = tx.Exec(
		`UPDATE chores SET status = 'completed', completed_at = ?, photo_url = ?, completion_notes = ?,
		        verified_at = NULL, verified_by = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		now, photoURL, notes, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("complete chore: %w", err)
	}

	action := "chore.completed"
	if c.Status == model.ChoreStatusRejected {
		action = "chore.resubmitted"
	}
	if err := insertActivityTx(tx, familyID, &actorID, action, "chore", id, map[string]any{
		"title": c.Title,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(familyID, id)
}

// AddPhoto updates only the photo URL of a completed or rejected chore.
func (s *ChoreStore) AddPhoto(familyID, id, actorID int64, role model.Role, photoURL string) (*model.Chore, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := getChoreTx(tx, familyID, id)
	if err != nil {
		return nil, err
	}
	if err := chore.Guard(c, chore.ActionAddPhoto, actorID, role); err != nil {
		return nil, err
	}

	_, err = tx.Exec(
		`UPDATE chores SET photo_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND family_id = ?`,
		photoURL, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("add photo: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(familyID, id)
}

// Verify records the parent's decision on a completed chore.
//
// Approval credits the assignee's balance with the chore's point value
// and finalizes the chore permanently. Rejection optionally debits a
// penalty (refused with ErrInsufficientPoints if it exceeds the current
// balance) and clears completed_at so the child can resubmit. Both paths
// write the status, the ledger adjustment, and the activity entry in one
// transaction.
func (s *ChoreStore) Verify(familyID, id, actorID int64, role model.Role, approved bool, feedback string, penalty int) (*model.Chore, error) {
	if penalty < 0 {
		return nil, points.ErrInvalidTransition
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := getChoreTx(tx, familyID, id)
	if err != nil {
		return nil, err
	}
	if err := chore.Guard(c, chore.ActionVerify, actorID, role); err != nil {
		return nil, err
	}
	if !c.Assigned() {
		// Completed implies assigned; guard against corrupt rows.
		return nil, points.ErrInvalidTransition
	}
	assigneeID := *c.AssignedTo

	now := time.Now().UTC()
	if approved {
		_, err = tx.Exec(
			`UPDATE chores SET status = 'verified', verified_at = ?, verified_by = ?, verification_notes = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND family_id = ?`,
			now, actorID, feedback, id, familyID,
		)
		if err != nil {
			return nil, fmt.Errorf("verify chore: %w", err)
		}
		if c.PointValue > 0 {
			if err := adjustBalanceTx(tx, assigneeID, c.PointValue); err != nil {
				return nil, err
			}
		}
		if err := insertActivityTx(tx, familyID, &actorID, "chore.verified", "chore", id, map[string]any{
			"title":          c.Title,
			"points_awarded": c.PointValue,
			"child_id":       assigneeID,
		}); err != nil {
			return nil, err
		}
	} else {
		if penalty > 0 {
			balance, err := balanceTx(tx, assigneeID)
			if err != nil {
				return nil, err
			}
			if penalty > balance {
				return nil, points.ErrInsufficientPoints
			}
		}
		_, err = tx.Exec(
			`UPDATE chores SET status = 'rejected', verified_at = ?, verified_by = ?, verification_notes = ?, completed_at = NULL, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND family_id = ?`,
			now, actorID, feedback, id, familyID,
		)
		if err != nil {
			return nil, fmt.Errorf("reject chore: %w", err)
		}
		if penalty > 0 {
			if err := adjustBalanceTx(tx, assigneeID, -penalty); err != nil {
				return nil, err
			}
		}
		if err := insertActivityTx(tx, familyID, &actorID, "chore.rejected", "chore", id, map[string]any{
			"title":          c.Title,
			"points_penalty": penalty,
			"child_id":       assigneeID,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(familyID, id)
}

// Reset returns a rejected chore to pending and wipes the completion
// attempt, including any resubmitted photo.
func (s *ChoreStore) Reset(familyID, id, actorID int64, role model.Role) (*model.Chore, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := getChoreTx(tx, familyID, id)
	if err != nil {
		return nil, err
	}
	if err := chore.Guard(c, chore.ActionReset, actorID, role); err != nil {
		return nil, err
	}

	_, err = tx.Exec(
		`UPDATE chores SET status = 'pending', completed_at = NULL, photo_url = '', completion_notes = '',
		        verified_at = NULL, verified_by = NULL, verification_notes = '', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("reset chore: %w", err)
	}

	if err := insertActivityTx(tx, familyID, &actorID, "chore.reset", "chore", id, map[string]any{
		"title": c.Title,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(familyID, id)
}
