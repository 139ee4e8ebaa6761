package model

import (
	"context"

	"gorm.io/driver/clickhouse"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Laisky/errors/v2"

	"github.com/matchops/arena-api/common/config"
)

// DB is the relational metadata store: API keys, custom quotas, the
// protected-users set.
var DB *gorm.DB

// AnalyticsDB is the columnar analytics store: salts, match info, player
// history. User requests treat it as read-only except the salts-ingest and
// privacy paths.
var AnalyticsDB *gorm.DB

// InitDB connects both stores and migrates the metadata schema. The
// analytics schema is managed externally; only the tables this service
// writes are migrated there.
func InitDB() error {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if config.DebugEnabled {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(config.PostgresDSN), gormCfg)
	if err != nil {
		return errors.Wrap(err, "open metadata store")
	}
	if err = DB.AutoMigrate(&ApiKey{}, &CustomQuota{}, &ProtectedUser{}); err != nil {
		return errors.Wrap(err, "migrate metadata store")
	}

	AnalyticsDB, err = gorm.Open(clickhouse.Open(config.ClickHouseDSN), gormCfg)
	if err != nil {
		return errors.Wrap(err, "open analytics store")
	}
	if err = AnalyticsDB.AutoMigrate(&MatchSalts{}, &PlayerMatchHistory{}); err != nil {
		return errors.Wrap(err, "migrate analytics store")
	}

	return nil
}

// Ping verifies both stores answer.
func Ping(ctx context.Context) error {
	for name, db := range map[string]*gorm.DB{"metadata": DB, "analytics": AnalyticsDB} {
		if db == nil {
			return errors.Errorf("%s store not initialized", name)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return errors.Wrapf(err, "get underlying sql.DB for %s store", name)
		}
		if err = sqlDB.PingContext(ctx); err != nil {
			return errors.Wrapf(err, "ping %s store", name)
		}
	}
	return nil
}

// CloseDB releases both database handles.
func CloseDB() error {
	for _, db := range []*gorm.DB{DB, AnalyticsDB} {
		if db == nil {
			continue
		}
		sqlDB, err := db.DB()
		if err != nil {
			return errors.Wrap(err, "get underlying sql.DB")
		}
		if err = sqlDB.Close(); err != nil {
			return errors.Wrap(err, "close database")
		}
	}
	return nil
}
