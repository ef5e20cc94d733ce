package redis

// Key prefixes for primary entity storage.
const (
	prefixRecord = "dispatch:inv:"
)

// Key prefixes for sorted set indexes (scored by received time).
const (
	zRecordAll    = "dispatch:z:inv:all"
	zRecordEvent  = "dispatch:z:inv:event:"  // + event name
	zRecordStatus = "dispatch:z:inv:status:" // + status
)

// entityKey returns the primary key for a record.
func entityKey(prefix, id string) string {
	return prefix + id
}
