package artifact

import (
	"fmt"

	"github.com/matchops/arena-api/common/config"
)

// MetadataKey is the cache-store object key for a match's metadata blob.
func MetadataKey(matchID uint64) string { return fmt.Sprintf("%d.meta.bz2", matchID) }

// MetadataHltvKey is the fallback key for broadcast-sourced metadata.
func MetadataHltvKey(matchID uint64) string { return fmt.Sprintf("%d.meta_hltv.bz2", matchID) }

// PrimaryMetadataKey is the primary-store key for processed metadata.
func PrimaryMetadataKey(matchID uint64) string {
	return fmt.Sprintf("processed/metadata/%d.meta.bz2", matchID)
}

// PrimaryMetadataHltvKey is the primary-store fallback key.
func PrimaryMetadataHltvKey(matchID uint64) string {
	return fmt.Sprintf("processed/metadata/%d.meta_hltv.bz2", matchID)
}

// MetadataURL composes the upstream CDN URL of a match's metadata blob.
func MetadataURL(clusterID uint32, matchID uint64, metadataSalt uint32) string {
	return fmt.Sprintf(config.ReplayBaseURLFormat, clusterID) +
		fmt.Sprintf("/%d/%d_%d.meta.bz2", config.GameAppID, matchID, metadataSalt)
}

// DemoURL composes the upstream CDN URL of a match's demo blob.
func DemoURL(clusterID uint32, matchID uint64, replaySalt uint32) string {
	return fmt.Sprintf(config.ReplayBaseURLFormat, clusterID) +
		fmt.Sprintf("/%d/%d_%d.dem.bz2", config.GameAppID, matchID, replaySalt)
}
