package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/flexprice/coupon-service/internal/auth"
	"github.com/flexprice/coupon-service/internal/config"
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/samber/lo"
)

// GenerateToken prints a signed bearer token for the actor described by
// USER_ID, PERMISSIONS and SHOP_IDS
func GenerateToken() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}

	userID, err := strconv.ParseInt(os.Getenv("USER_ID"), 10, 64)
	if err != nil || userID <= 0 {
		return fmt.Errorf("USER_ID must be a positive integer")
	}

	shopIDs, err := parseIDs(os.Getenv("SHOP_IDS"))
	if err != nil {
		return err
	}

	actor := &types.Actor{
		UserID:      userID,
		Permissions: lo.Map(splitList(os.Getenv("PERMISSIONS")), func(p string, _ int) types.Permission { return types.Permission(p) }),
		ShopIDs:     shopIDs,
	}

	token, err := auth.NewProvider(cfg).GenerateToken(actor, 24*time.Hour)
	if err != nil {
		return err
	}

	fmt.Printf("\nToken for user %d %v (valid 24h):\n", actor.UserID, actor.Permissions)
	fmt.Printf("Authorization: Bearer %s\n", token)
	return nil
}

func splitList(raw string) []string {
	return lo.Compact(lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

func parseIDs(raw string) ([]int64, error) {
	ids := make([]int64, 0)
	for _, s := range splitList(raw) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
