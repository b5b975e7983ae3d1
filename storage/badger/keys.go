package badger

import "fmt"

// Key prefixes for different data types
const (
	versionRecordPrefix    = "verrec"
	versionTombstonePrefix = "vertomb"
	summaryRecordPrefix    = "sumrec"
)

// makeVersionKey generates a key for a version record by ID.
func makeVersionKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", versionRecordPrefix, id))
}

// makeVersionTombstoneKey marks an ID that belonged to a deleted version.
func makeVersionTombstoneKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", versionTombstonePrefix, id))
}

// makeSummaryKey generates a key for a cached summary by content hash.
func makeSummaryKey(hash string) []byte {
	return []byte(fmt.Sprintf("%s:%s", summaryRecordPrefix, hash))
}

func versionScanPrefix() []byte {
	return []byte(versionRecordPrefix + ":")
}

func summaryScanPrefix() []byte {
	return []byte(summaryRecordPrefix + ":")
}
