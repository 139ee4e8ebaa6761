package model

import (
	"context"
	"fmt"
	"time"

	"github.com/Laisky/errors/v2"
	"gorm.io/gorm/clause"

	"github.com/matchops/arena-api/cache"
)

// ProtectedUser is an account id that requested deletion. Protected ids are
// elided from every response until the user re-enrolls.
type ProtectedUser struct {
	AccountID uint32 `json:"account_id" gorm:"primaryKey"`
	CreatedAt int64  `json:"created_at" gorm:"bigint;autoCreateTime"`
}

var protectedSetCache = cache.New("protected_users", time.Minute)

// GetProtectedAccountIDs returns the full opt-out set, cached briefly so the
// per-request filter stays cheap.
func GetProtectedAccountIDs(ctx context.Context) (map[uint32]struct{}, error) {
	return cache.GetOrCompute(ctx, protectedSetCache, "all", 0, func(ctx context.Context) (map[uint32]struct{}, error) {
		var rows []ProtectedUser
		if err := DB.WithContext(ctx).Find(&rows).Error; err != nil {
			return nil, errors.Wrap(err, "list protected users")
		}
		set := make(map[uint32]struct{}, len(rows))
		for _, row := range rows {
			set[row.AccountID] = struct{}{}
		}
		return set, nil
	})
}

// IsProtected reports whether a single account id has opted out.
func IsProtected(ctx context.Context, accountID uint32) (bool, error) {
	set, err := GetProtectedAccountIDs(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[accountID]
	return ok, nil
}

// FilterProtected removes opted-out ids from the list.
func FilterProtected(ctx context.Context, accountIDs []uint32) ([]uint32, error) {
	set, err := GetProtectedAccountIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := accountIDs[:0]
	for _, id := range accountIDs {
		if _, ok := set[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// SetProtected records an opt-out or opt-in and refreshes the analytics
// store's row-level exclusion policy.
func SetProtected(ctx context.Context, accountID uint32, protected bool) error {
	if protected {
		err := DB.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&ProtectedUser{AccountID: accountID}).Error
		if err != nil {
			return errors.Wrap(err, "insert protected user")
		}
	} else {
		err := DB.WithContext(ctx).Delete(&ProtectedUser{}, "account_id = ?", accountID).Error
		if err != nil {
			return errors.Wrap(err, "delete protected user")
		}
	}
	protectedSetCache.Forget("all")

	if err := applyRowPolicy(ctx); err != nil {
		return errors.Wrap(err, "apply analytics row policy")
	}
	return nil
}

// applyRowPolicy rewrites the analytics-store row policy excluding opted-out
// account ids from player-level tables.
func applyRowPolicy(ctx context.Context) error {
	set, err := GetProtectedAccountIDs(ctx)
	if err != nil {
		return err
	}

	if len(set) == 0 {
		return AnalyticsDB.WithContext(ctx).
			Exec("DROP ROW POLICY IF EXISTS protected_users_filter ON match_player").Error
	}

	ids := ""
	for id := range set {
		if ids != "" {
			ids += ","
		}
		ids += fmt.Sprintf("%d", id)
	}
	stmt := fmt.Sprintf(
		"CREATE OR REPLACE ROW POLICY protected_users_filter ON match_player FOR SELECT USING account_id NOT IN (%s) TO ALL",
		ids)
	return AnalyticsDB.WithContext(ctx).Exec(stmt).Error
}
