package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rlanders/choreward/internal/model"
	"github.com/rlanders/choreward/internal/points"
	"github.com/rlanders/choreward/internal/redemption"
)

type RedemptionStore struct {
	db *sql.DB
}

func NewRedemptionStore(db *sql.DB) *RedemptionStore {
	return &RedemptionStore{db: db}
}

func scanRedemption(scanner interface{ Scan(...any) error }) (*model.Redemption, error) {
	var r model.Redemption
	var rewardID, reviewedBy sql.NullInt64
	var reviewedAt, fulfilledAt sql.NullTime

	err := scanner.Scan(
		&r.ID, &r.FamilyID, &r.ChildID, &rewardID, &r.PointsSpent, &r.Status,
		&r.Notes, &r.ReviewNotes, &r.RequestedAt, &reviewedAt, &reviewedBy, &fulfilledAt,
	)
	if err != nil {
		return nil, err
	}

	if rewardID.Valid {
		r.RewardID = &rewardID.Int64
	}
	if reviewedBy.Valid {
		r.ReviewedBy = &reviewedBy.Int64
	}
	if reviewedAt.Valid {
		r.ReviewedAt = &reviewedAt.Time
	}
	if fulfilledAt.Valid {
		r.FulfilledAt = &fulfilledAt.Time
	}
	return &r, nil
}

const redemptionCols = `id, family_id, child_id, reward_id, points_spent, status, notes, review_notes, requested_at, reviewed_at, reviewed_by, fulfilled_at`

func getRedemptionTx(tx *sql.Tx, familyID, id int64) (*model.Redemption, error) {
	row := tx.QueryRow(`SELECT `+redemptionCols+` FROM redemptions WHERE id = ? AND family_id = ?`, id, familyID)
	r, err := scanRedemption(row)
	if err == sql.ErrNoRows {
		return nil, points.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return r, nil
}

// Request creates a pending redemption, debiting the child's balance and
// decrementing limited inventory immediately. Reserving the points at
// request time stops a child from promising the same balance to several
// pending requests; rejection is the compensating transaction.
func (s *RedemptionStore) Request(familyID, childID int64, role model.Role, rewardID int64, notes string) (*model.Redemption, error) {
	if role != model.RoleChild {
		return nil, points.ErrForbidden
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Re-read the reward inside the transaction: cost, stock, and
	// balance checks must be against the latest committed state.
	row := tx.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ? AND family_id = ?`, rewardID, familyID)
	reward, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, points.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	if !reward.Active {
		return nil, points.ErrNotFound
	}
	if reward.QuantityAvailable != nil && *reward.QuantityAvailable <= 0 {
		return nil, points.ErrOutOfStock
	}

	balance, err := balanceTx(tx, childID)
	if err != nil {
		return nil, err
	}
	if balance < reward.PointCost {
		return nil, points.ErrInsufficientPoints
	}

	if err := adjustBalanceTx(tx, childID, -reward.PointCost); err != nil {
		return nil, err
	}
	if reward.QuantityAvailable != nil {
		if _, err := tx.Exec(
			`UPDATE rewards SET quantity_available = quantity_available - 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			rewardID,
		); err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
	}

	res, err := tx.Exec(
		`INSERT INTO redemptions (family_id, child_id, reward_id, points_spent, notes) VALUES (?, ?, ?, ?, ?)`,
		familyID, childID, rewardID, reward.PointCost, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := insertActivityTx(tx, familyID, &childID, "redemption.requested", "redemption", id, map[string]any{
		"reward":       reward.Title,
		"points_spent": reward.PointCost,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(familyID, id)
}

// Review records the parent's decision on a pending redemption.
// Approval has no ledger effect (points were debited at request time).
// Rejection refunds the snapshot amount and restores limited inventory.
func (s *RedemptionStore) Review(familyID, id, actorID int64, role model.Role, approve bool, notes string) (*model.Redemption, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	r, err := getRedemptionTx(tx, familyID, id)
	if err != nil {
		return nil, err
	}
	if err := redemption.Guard(r, redemption.ActionReview, role); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	status := model.RedemptionStatusApproved
	if !approve {
		status = model.RedemptionStatusRejected
	}

	_, err = tx.Exec(
		`UPDATE redemptions SET status = ?, reviewed_at = ?, reviewed_by = ?, review_notes = ? WHERE id = ? AND family_id = ?`,
		status, now, actorID, notes, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("review redemption: %w", err)
	}

	if !approve {
		if err := adjustBalanceTx(tx, r.ChildID, r.PointsSpent); err != nil {
			return nil, err
		}
		// Restore inventory only if the reward still exists and is
		// quantity-limited. The reward may have been deleted or made
		// unlimited since the request; the refund stands either way.
		if r.RewardID != nil {
			if _, err := tx.Exec(
				`UPDATE rewards SET quantity_available = quantity_available + 1, updated_at = CURRENT_TIMESTAMP
				 WHERE id = ? AND quantity_available IS NOT NULL`,
				*r.RewardID,
			); err != nil {
				return nil, fmt.Errorf("restore stock: %w", err)
			}
		}
	}

	action := "redemption.approved"
	if !approve {
		action = "redemption.rejected"
	}
	if err := insertActivityTx(tx, familyID, &actorID, action, "redemption", id, map[string]any{
		"child_id":     r.ChildID,
		"points_spent": r.PointsSpent,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(familyID, id)
}

// Fulfill marks an approved redemption as delivered. No ledger effect.
func (s *RedemptionStore) Fulfill(familyID, id, actorID int64, role model.Role) (*model.Redemption, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	r, err := getRedemptionTx(tx, familyID, id)
	if err != nil {
		return nil, err
	}
	if err := redemption.Guard(r, redemption.ActionFulfill, role); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = tx.Exec(
		`UPDATE redemptions SET status = 'fulfilled', fulfilled_at = ? WHERE id = ? AND family_id = ?`,
		now, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("fulfill redemption: %w", err)
	}

	if err := insertActivityTx(tx, familyID, &actorID, "redemption.fulfilled", "redemption", id, map[string]any{
		"child_id": r.ChildID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(familyID, id)
}

func (s *RedemptionStore) GetByID(familyID, id int64) (*model.Redemption, error) {
	row := s.db.QueryRow(`SELECT `+redemptionCols+` FROM redemptions WHERE id = ? AND family_id = ?`, id, familyID)
	r, err := scanRedemption(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return r, nil
}

func (s *RedemptionStore) ListByFamily(familyID int64) ([]model.Redemption, error) {
	return s.list(`SELECT `+redemptionCols+` FROM redemptions WHERE family_id = ? ORDER BY requested_at DESC`, familyID)
}

func (s *RedemptionStore) ListByChild(familyID, childID int64) ([]model.Redemption, error) {
	return s.list(`SELECT `+redemptionCols+` FROM redemptions WHERE family_id = ? AND child_id = ? ORDER BY requested_at DESC`, familyID, childID)
}

func (s *RedemptionStore) list(query string, args ...any) ([]model.Redemption, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	var redemptions []model.Redemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	return redemptions, rows.Err()
}
