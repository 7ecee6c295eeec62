package store

import (
	"database/sql"
	"fmt"

	"github.com/rlanders/choreward/internal/model"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var quantity sql.NullInt64
	var active int

	err := scanner.Scan(&r.ID, &r.FamilyID, &r.Title, &r.Description, &r.PointCost, &quantity, &active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if quantity.Valid {
		q := int(quantity.Int64)
		r.QuantityAvailable = &q
	}
	r.Active = active != 0
	return &r, nil
}

const rewardCols = `id, family_id, title, description, point_cost, quantity_available, active, created_at, updated_at`

func nullQuantity(q *int) sql.NullInt64 {
	if q == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*q), Valid: true}
}

func (s *RewardStore) Create(familyID int64, title, description string, pointCost int, quantity *int, active bool) (*model.Reward, error) {
	var a int
	if active {
		a = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO rewards (family_id, title, description, point_cost, quantity_available, active) VALUES (?, ?, ?, ?, ?, ?)`,
		familyID, title, description, pointCost, nullQuantity(quantity), a,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(familyID, id)
}

func (s *RewardStore) GetByID(familyID, id int64) (*model.Reward, error) {
	row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ? AND family_id = ?`, id, familyID)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// List returns the family's rewards, active first, then by title.
func (s *RewardStore) List(familyID int64) ([]model.Reward, error) {
	rows, err := s.db.Query(
		`SELECT `+rewardCols+` FROM rewards WHERE family_id = ? ORDER BY active DESC, title ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

// ListActive returns only active rewards, ordered by point cost.
func (s *RewardStore) ListActive(familyID int64) ([]model.Reward, error) {
	rows, err := s.db.Query(
		`SELECT `+rewardCols+` FROM rewards WHERE family_id = ? AND active = 1 ORDER BY point_cost ASC, title ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Update(familyID, id int64, title, description string, pointCost int, quantity *int, active bool) (*model.Reward, error) {
	var a int
	if active {
		a = 1
	}

	_, err := s.db.Exec(
		`UPDATE rewards SET title = ?, description = ?, point_cost = ?, quantity_available = ?, active = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		title, description, pointCost, nullQuantity(quantity), a, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(familyID, id)
}

func (s *RewardStore) Delete(familyID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM rewards WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

// GetPointBalance returns the child's live balance plus informational
// earned/spent totals. The balance column is authoritative; the totals
// are derived for display and can diverge from balance by the sum of
// rejection penalties.
func (s *RewardStore) GetPointBalance(familyID, userID int64) (*model.PointBalance, error) {
	var name string
	var balance int
	err := s.db.QueryRow(
		`SELECT name, points_balance FROM users WHERE id = ? AND family_id = ?`,
		userID, familyID,
	).Scan(&name, &balance)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user balance: %w", err)
	}

	var earned int
	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(point_value), 0) FROM chores WHERE assigned_to = ? AND status = 'verified'`,
		userID,
	).Scan(&earned)
	if err != nil {
		return nil, fmt.Errorf("sum points earned: %w", err)
	}

	var spent int
	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(points_spent), 0) FROM redemptions WHERE child_id = ? AND status != 'rejected'`,
		userID,
	).Scan(&spent)
	if err != nil {
		return nil, fmt.Errorf("sum points spent: %w", err)
	}

	return &model.PointBalance{
		UserID:      userID,
		UserName:    name,
		TotalEarned: earned,
		TotalSpent:  spent,
		Balance:     balance,
	}, nil
}

// Leaderboard returns the family's active children ordered by balance
// descending.
func (s *RewardStore) Leaderboard(familyID int64) ([]model.PointBalance, error) {
	rows, err := s.db.Query(
		`SELECT id FROM users WHERE family_id = ? AND role = 'child' AND is_active = 1`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan child id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children: %w", err)
	}

	var balances []model.PointBalance
	for _, id := range ids {
		b, err := s.GetPointBalance(familyID, id)
		if err != nil {
			return nil, err
		}
		if b != nil {
			balances = append(balances, *b)
		}
	}

	for i := 0; i < len(balances); i++ {
		for j := i + 1; j < len(balances); j++ {
			if balances[j].Balance > balances[i].Balance {
				balances[i], balances[j] = balances[j], balances[i]
			}
		}
	}
	return balances, nil
}
