package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/flexprice/coupon-service/internal/domain/coupon"
	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/flexprice/coupon-service/internal/postgres"
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/lib/pq"
)

const couponColumns = `
	id, group_id, code, language, description, image, type, amount,
	minimum_cart_amount, active_from, expire_at, is_approve, shop_id,
	user_id, target, status, created_at, updated_at`

// pqUniqueViolation is the postgres error code for unique_violation
const pqUniqueViolation = "23505"

type couponRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewCouponRepository(db *postgres.DB, logger *logger.Logger) coupon.Repository {
	return &couponRepository{db: db, logger: logger}
}

func (r *couponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	query := `
		INSERT INTO coupons (
			group_id, code, language, description, image, type, amount,
			minimum_cart_amount, active_from, expire_at, is_approve, shop_id,
			user_id, target, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`

	r.logger.Debugw("creating coupon",
		"code", c.Code,
		"language", c.Language,
		"group_id", c.GroupID,
	)

	q := r.db.GetQuerier(ctx)
	err := q.QueryRowxContext(ctx, query,
		c.GroupID,
		c.Code,
		c.Language,
		c.Description,
		c.Image,
		c.Type,
		c.Amount,
		c.MinimumCartAmount,
		c.ActiveFrom,
		c.ExpireAt,
		c.IsApprove,
		c.ShopID,
		c.UserID,
		c.Target,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return r.mapError(err, "create", map[string]any{"code": c.Code, "language": c.Language})
	}

	if c.GroupID == 0 {
		c.GroupID = c.ID
		if _, err := q.ExecContext(ctx, `UPDATE coupons SET group_id = $1 WHERE id = $1`, c.ID); err != nil {
			return r.mapError(err, "create", map[string]any{"coupon_id": c.ID})
		}
	}

	return nil
}

func (r *couponRepository) Get(ctx context.Context, id int64) (*coupon.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1 AND status = $2`

	var c coupon.Coupon
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query, id, types.StatusPublished); err != nil {
		return nil, r.mapError(err, "get", map[string]any{"coupon_id": id})
	}
	return &c, nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string, language string) (*coupon.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 AND language = $2 AND status = $3`

	var c coupon.Coupon
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query, code, language, types.StatusPublished); err != nil {
		return nil, r.mapError(err, "get_by_code", map[string]any{"code": code, "language": language})
	}
	return &c, nil
}

func (r *couponRepository) List(ctx context.Context, filter *types.CouponFilter) ([]*coupon.Coupon, error) {
	if filter == nil {
		filter = types.NewCouponFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if filter.MatchesNothing() {
		return []*coupon.Coupon{}, nil
	}

	where, args := buildCouponWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM coupons WHERE %s ORDER BY %s %s, id DESC`,
		couponColumns, where, filter.GetSort(), strings.ToUpper(filter.GetOrder()))

	if !filter.IsUnlimited() {
		args = append(args, filter.GetLimit(), filter.GetOffset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	} else if filter.GetOffset() > 0 {
		args = append(args, filter.GetOffset())
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	coupons := make([]*coupon.Coupon, 0)
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &coupons, query, args...); err != nil {
		return nil, r.mapError(err, "list", nil)
	}
	return coupons, nil
}

func (r *couponRepository) Count(ctx context.Context, filter *types.CouponFilter) (int, error) {
	if filter == nil {
		filter = types.NewCouponFilter()
	}
	if filter.MatchesNothing() {
		return 0, nil
	}

	where, args := buildCouponWhere(filter)
	query := `SELECT COUNT(*) FROM coupons WHERE ` + where

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, args...); err != nil {
		return 0, r.mapError(err, "count", nil)
	}
	return count, nil
}

func (r *couponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	query := `
		UPDATE coupons SET
			code = $2,
			language = $3,
			description = $4,
			image = $5,
			type = $6,
			amount = $7,
			minimum_cart_amount = $8,
			active_from = $9,
			expire_at = $10,
			is_approve = $11,
			shop_id = $12,
			user_id = $13,
			target = $14,
			updated_at = $15
		WHERE id = $1 AND status = $16
	`

	c.UpdatedAt = time.Now().UTC()

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		c.ID,
		c.Code,
		c.Language,
		c.Description,
		c.Image,
		c.Type,
		c.Amount,
		c.MinimumCartAmount,
		c.ActiveFrom,
		c.ExpireAt,
		c.IsApprove,
		c.ShopID,
		c.UserID,
		c.Target,
		c.UpdatedAt,
		types.StatusPublished,
	)
	if err != nil {
		return r.mapError(err, "update", map[string]any{"coupon_id": c.ID})
	}
	return r.requireAffected(result, c.ID)
}

func (r *couponRepository) Delete(ctx context.Context, id int64) error {
	query := `UPDATE coupons SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		id, types.StatusDeleted, time.Now().UTC(), types.StatusPublished)
	if err != nil {
		return r.mapError(err, "delete", map[string]any{"coupon_id": id})
	}
	return r.requireAffected(result, id)
}

func (r *couponRepository) ListGroup(ctx context.Context, groupID int64) ([]*coupon.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons
		WHERE group_id = $1 AND status = $2
		ORDER BY (id = group_id) DESC, id ASC`

	coupons := make([]*coupon.Coupon, 0)
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &coupons, query, groupID, types.StatusPublished); err != nil {
		return nil, r.mapError(err, "list_group", map[string]any{"group_id": groupID})
	}
	return coupons, nil
}

func (r *couponRepository) LockGroup(ctx context.Context, groupID int64) error {
	if _, ok := postgres.GetTx(ctx); !ok {
		return ierr.NewError("group lock requires a transaction").
			WithReportableDetails(map[string]any{"group_id": groupID}).
			Mark(ierr.ErrSystem)
	}

	query := `SELECT id FROM coupons WHERE group_id = $1 AND status = $2 ORDER BY id FOR UPDATE`

	var ids []int64
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &ids, query, groupID, types.StatusPublished); err != nil {
		return r.mapError(err, "lock_group", map[string]any{"group_id": groupID})
	}
	if len(ids) == 0 {
		return ierr.NewError("coupon group not found").
			WithHint(ierr.MsgNotFound).
			WithReportableDetails(map[string]any{"group_id": groupID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *couponRepository) UpdateGroupShared(ctx context.Context, canonical *coupon.Coupon) error {
	query := `
		UPDATE coupons SET
			code = $2,
			type = $3,
			amount = $4,
			minimum_cart_amount = $5,
			active_from = $6,
			expire_at = $7,
			is_approve = $8,
			shop_id = $9,
			user_id = $10,
			target = $11,
			updated_at = $12
		WHERE group_id = $1 AND status = $13
	`

	canonical.UpdatedAt = time.Now().UTC()

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		canonical.GroupID,
		canonical.Code,
		canonical.Type,
		canonical.Amount,
		canonical.MinimumCartAmount,
		canonical.ActiveFrom,
		canonical.ExpireAt,
		canonical.IsApprove,
		canonical.ShopID,
		canonical.UserID,
		canonical.Target,
		canonical.UpdatedAt,
		types.StatusPublished,
	)
	if err != nil {
		return r.mapError(err, "update_group_shared", map[string]any{"group_id": canonical.GroupID})
	}
	return nil
}

func (r *couponRepository) DeleteGroup(ctx context.Context, groupID int64) error {
	query := `UPDATE coupons SET status = $2, updated_at = $3 WHERE group_id = $1 AND status = $4`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		groupID, types.StatusDeleted, time.Now().UTC(), types.StatusPublished)
	if err != nil {
		return r.mapError(err, "delete_group", map[string]any{"group_id": groupID})
	}
	return nil
}

// buildCouponWhere renders the filter as a WHERE clause with positional args
func buildCouponWhere(filter *types.CouponFilter) (string, []interface{}) {
	conditions := []string{"status = $1"}
	args := []interface{}{types.StatusPublished}

	if filter.ShopIDs != nil {
		args = append(args, pq.Array(filter.ShopIDs))
		conditions = append(conditions, fmt.Sprintf("shop_id = ANY($%d)", len(args)))
	} else if filter.GlobalOnly {
		conditions = append(conditions, "shop_id IS NULL")
	}
	if filter.Language != "" {
		args = append(args, filter.Language)
		conditions = append(conditions, fmt.Sprintf("language = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if len(filter.GroupIDs) > 0 {
		args = append(args, pq.Array(filter.GroupIDs))
		conditions = append(conditions, fmt.Sprintf("group_id = ANY($%d)", len(args)))
	}

	return strings.Join(conditions, " AND "), args
}

func (r *couponRepository) requireAffected(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return r.mapError(err, "rows_affected", map[string]any{"coupon_id": id})
	}
	if affected == 0 {
		return ierr.NewError("coupon not found").
			WithHint(ierr.MsgNotFound).
			WithReportableDetails(map[string]any{"coupon_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// mapError classifies a driver error. Misses become ErrNotFound, unique violations
// ErrAlreadyExists, everything else ErrDatabase so it never reads as a missing record.
func (r *couponRepository) mapError(err error, op string, details map[string]any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHint(ierr.MsgNotFound).
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return ierr.WithError(err).
			WithHint("A coupon with this code already exists for this language").
			WithReportableDetails(details).
			Mark(ierr.ErrAlreadyExists)
	}

	r.logger.Errorw("coupon storage failure", "op", op, "error", err)
	return ierr.WithError(err).
		WithHint(ierr.MsgStorageUnavailable).
		WithReportableDetails(details).
		Mark(ierr.ErrDatabase)
}
