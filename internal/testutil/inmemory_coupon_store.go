package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flexprice/coupon-service/internal/domain/coupon"
	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/samber/lo"
)

var _ coupon.Repository = (*InMemoryCouponStore)(nil)

// InMemoryCouponStore implements coupon.Repository with the same visibility
// and uniqueness rules as the postgres repository
type InMemoryCouponStore struct {
	*InMemoryStore[int64, *coupon.Coupon]
	nextID atomic.Int64

	// guards read-check-write sequences such as the (code, language) uniqueness check
	writeMu sync.Mutex

	failMu  sync.RWMutex
	failErr error
}

// NewInMemoryCouponStore creates a new in-memory coupon store
func NewInMemoryCouponStore() *InMemoryCouponStore {
	return &InMemoryCouponStore{
		InMemoryStore: NewInMemoryStore[int64, *coupon.Coupon](),
	}
}

// FailWith makes every subsequent call return err, marked as a storage failure.
// Pass nil to restore normal behaviour.
func (s *InMemoryCouponStore) FailWith(err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failErr = err
}

func (s *InMemoryCouponStore) failure() error {
	s.failMu.RLock()
	defer s.failMu.RUnlock()
	if s.failErr == nil {
		return nil
	}
	return ierr.WithError(s.failErr).
		WithHint(ierr.MsgStorageUnavailable).
		Mark(ierr.ErrDatabase)
}

// copyCoupon returns a deep copy so callers never share state with the store
func copyCoupon(c *coupon.Coupon) *coupon.Coupon {
	if c == nil {
		return nil
	}

	copied := *c
	if c.Image != nil {
		image := *c.Image
		copied.Image = &image
	}
	if c.ShopID != nil {
		copied.ShopID = lo.ToPtr(*c.ShopID)
	}
	if c.UserID != nil {
		copied.UserID = lo.ToPtr(*c.UserID)
	}
	return &copied
}

func isLive(c *coupon.Coupon) bool {
	return c.Status == types.StatusPublished
}

func couponNotFound(details map[string]any) error {
	return ierr.NewError("coupon not found").
		WithHint(ierr.MsgNotFound).
		WithReportableDetails(details).
		Mark(ierr.ErrNotFound)
}

// codeTaken reports whether a live coupon other than those in exclude holds code in language
func (s *InMemoryCouponStore) codeTaken(ctx context.Context, code, language string, exclude func(*coupon.Coupon) bool) bool {
	items, _ := s.InMemoryStore.List(ctx, nil, func(_ context.Context, c *coupon.Coupon, _ interface{}) bool {
		return isLive(c) && c.Code == code && c.Language == language && !exclude(c)
	}, nil)
	return len(items) > 0
}

func (s *InMemoryCouponStore) Create(ctx context.Context, c *coupon.Coupon) error {
	if err := s.failure(); err != nil {
		return err
	}
	if c == nil {
		return ierr.NewError("coupon cannot be nil").
			WithHint("Coupon cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.codeTaken(ctx, c.Code, c.Language, func(*coupon.Coupon) bool { return false }) {
		return ierr.NewError("coupon already exists").
			WithHint(ierr.MsgCouldNotCreate).
			WithReportableDetails(map[string]any{"code": c.Code, "language": c.Language}).
			Mark(ierr.ErrAlreadyExists)
	}

	c.ID = s.nextID.Add(1)
	if c.GroupID == 0 {
		c.GroupID = c.ID
	}
	if c.Status == "" {
		c.Status = types.StatusPublished
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	return s.InMemoryStore.Create(ctx, c.ID, copyCoupon(c))
}

func (s *InMemoryCouponStore) Get(ctx context.Context, id int64) (*coupon.Coupon, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}

	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !isLive(c) {
		return nil, couponNotFound(map[string]any{"coupon_id": id})
	}
	return copyCoupon(c), nil
}

func (s *InMemoryCouponStore) GetByCode(ctx context.Context, code string, language string) (*coupon.Coupon, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}

	items, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, c *coupon.Coupon, _ interface{}) bool {
		return isLive(c) && c.Code == code && c.Language == language
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, couponNotFound(map[string]any{"code": code, "language": language})
	}
	return copyCoupon(items[0]), nil
}

func (s *InMemoryCouponStore) List(ctx context.Context, filter *types.CouponFilter) ([]*coupon.Coupon, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = types.NewCouponFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if filter.MatchesNothing() {
		return []*coupon.Coupon{}, nil
	}

	items, err := s.InMemoryStore.List(ctx, filter, couponFilterFn, couponSortFn(filter))
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(c *coupon.Coupon, _ int) *coupon.Coupon {
		return copyCoupon(c)
	}), nil
}

func (s *InMemoryCouponStore) Count(ctx context.Context, filter *types.CouponFilter) (int, error) {
	if err := s.failure(); err != nil {
		return 0, err
	}
	if filter == nil {
		filter = types.NewCouponFilter()
	}
	if filter.MatchesNothing() {
		return 0, nil
	}
	return s.InMemoryStore.Count(ctx, filter, couponFilterFn)
}

func (s *InMemoryCouponStore) Update(ctx context.Context, c *coupon.Coupon) error {
	if err := s.failure(); err != nil {
		return err
	}
	if c == nil {
		return ierr.NewError("coupon cannot be nil").
			WithHint("Coupon cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.InMemoryStore.Get(ctx, c.ID)
	if err != nil || !isLive(existing) {
		return couponNotFound(map[string]any{"coupon_id": c.ID})
	}
	if s.codeTaken(ctx, c.Code, c.Language, func(other *coupon.Coupon) bool { return other.ID == c.ID }) {
		return ierr.NewError("coupon already exists").
			WithReportableDetails(map[string]any{"code": c.Code, "language": c.Language}).
			Mark(ierr.ErrAlreadyExists)
	}

	c.UpdatedAt = time.Now().UTC()
	updated := copyCoupon(c)
	updated.GroupID = existing.GroupID
	updated.Status = existing.Status
	updated.CreatedAt = existing.CreatedAt
	return s.InMemoryStore.Update(ctx, c.ID, updated)
}

func (s *InMemoryCouponStore) Delete(ctx context.Context, id int64) error {
	if err := s.failure(); err != nil {
		return err
	}

	found := false
	now := time.Now().UTC()
	s.InMemoryStore.Mutate(func(itemID int64, c *coupon.Coupon) (*coupon.Coupon, bool) {
		if itemID != id || !isLive(c) {
			return nil, false
		}
		found = true
		deleted := copyCoupon(c)
		deleted.Status = types.StatusDeleted
		deleted.UpdatedAt = now
		return deleted, true
	})
	if !found {
		return couponNotFound(map[string]any{"coupon_id": id})
	}
	return nil
}

func (s *InMemoryCouponStore) ListGroup(ctx context.Context, groupID int64) ([]*coupon.Coupon, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}

	items, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, c *coupon.Coupon, _ interface{}) bool {
		return isLive(c) && c.GroupID == groupID
	}, func(a, b *coupon.Coupon) bool {
		if a.IsCanonical() != b.IsCanonical() {
			return a.IsCanonical()
		}
		return a.ID < b.ID
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(c *coupon.Coupon, _ int) *coupon.Coupon {
		return copyCoupon(c)
	}), nil
}

// LockGroup only checks that the group exists. Tests run writes sequentially.
func (s *InMemoryCouponStore) LockGroup(ctx context.Context, groupID int64) error {
	members, err := s.ListGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return couponNotFound(map[string]any{"group_id": groupID})
	}
	return nil
}

func (s *InMemoryCouponStore) UpdateGroupShared(ctx context.Context, canonical *coupon.Coupon) error {
	if err := s.failure(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	members, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, c *coupon.Coupon, _ interface{}) bool {
		return isLive(c) && c.GroupID == canonical.GroupID
	}, nil)
	if err != nil {
		return err
	}
	for _, m := range members {
		if s.codeTaken(ctx, canonical.Code, m.Language, func(other *coupon.Coupon) bool { return other.GroupID == canonical.GroupID }) {
			return ierr.NewError("coupon already exists").
				WithReportableDetails(map[string]any{"code": canonical.Code, "language": m.Language}).
				Mark(ierr.ErrAlreadyExists)
		}
	}

	canonical.UpdatedAt = time.Now().UTC()
	s.InMemoryStore.Mutate(func(_ int64, c *coupon.Coupon) (*coupon.Coupon, bool) {
		if !isLive(c) || c.GroupID != canonical.GroupID {
			return nil, false
		}
		updated := copyCoupon(c)
		coupon.CopyShared(updated, copyCoupon(canonical))
		updated.UpdatedAt = canonical.UpdatedAt
		return updated, true
	})
	return nil
}

func (s *InMemoryCouponStore) DeleteGroup(ctx context.Context, groupID int64) error {
	if err := s.failure(); err != nil {
		return err
	}

	now := time.Now().UTC()
	s.InMemoryStore.Mutate(func(_ int64, c *coupon.Coupon) (*coupon.Coupon, bool) {
		if !isLive(c) || c.GroupID != groupID {
			return nil, false
		}
		deleted := copyCoupon(c)
		deleted.Status = types.StatusDeleted
		deleted.UpdatedAt = now
		return deleted, true
	})
	return nil
}

// Clear removes every coupon and resets the id sequence
func (s *InMemoryCouponStore) Clear() {
	s.InMemoryStore.Clear()
	s.nextID.Store(0)
	s.FailWith(nil)
}

func couponFilterFn(ctx context.Context, c *coupon.Coupon, filter interface{}) bool {
	f, ok := filter.(*types.CouponFilter)
	if !ok {
		return false
	}
	if !isLive(c) {
		return false
	}
	if f.ShopIDs != nil && (c.ShopID == nil || !lo.Contains(f.ShopIDs, *c.ShopID)) {
		return false
	}
	if f.ShopIDs == nil && f.GlobalOnly && c.ShopID != nil {
		return false
	}
	if f.Language != "" && c.Language != f.Language {
		return false
	}
	if f.UserID != nil && (c.UserID == nil || *c.UserID != *f.UserID) {
		return false
	}
	if len(f.GroupIDs) > 0 && !lo.Contains(f.GroupIDs, c.GroupID) {
		return false
	}
	return true
}

// couponSortFn orders by the filter's sort column, ties broken by id descending
func couponSortFn(filter *types.CouponFilter) SortFunc[*coupon.Coupon] {
	desc := filter.GetOrder() == types.OrderDesc

	return func(a, b *coupon.Coupon) bool {
		var cmp int
		switch filter.GetSort() {
		case "id":
			cmp = compareInt64(a.ID, b.ID)
		case "code":
			cmp = compareString(a.Code, b.Code)
		case "created_at":
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		case "expire_at":
			cmp = a.ExpireAt.Compare(b.ExpireAt)
		default:
			cmp = a.UpdatedAt.Compare(b.UpdatedAt)
		}
		if cmp == 0 {
			return a.ID > b.ID
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
