package postgres

// userRow is the GORM model backing one index.UserRecord.
type userRow struct {
	UserID    string `gorm:"primaryKey"`
	ByteLimit uint64
	BytesUsed uint64
}

func (userRow) TableName() string { return "index_users" }

// bucketRow is the GORM model backing one index.BucketRecord.
type bucketRow struct {
	BucketID  string `gorm:"primaryKey"`
	UsedBytes uint64
	DataLimit uint64
	Full      bool
}

func (bucketRow) TableName() string { return "index_buckets" }

// blobBucketRow is the GORM model backing one blob-to-bucket assignment.
// UserSet is stored as a comma-separated list of user ids rather than a
// join table: the set is small (bounded by how many users share a blob)
// and is always read or written whole, alongside the rest of its row.
type blobBucketRow struct {
	Hash    string `gorm:"primaryKey"`
	Size    uint64
	Bucket  string
	UserSet string
}

func (blobBucketRow) TableName() string { return "index_blob_buckets" }

// outboxEventRow is the GORM model backing one pending index->bucket sync
// event. Seq preserves FIFO order within a bucket's outbox across restart.
type outboxEventRow struct {
	ID         uint `gorm:"primaryKey;autoIncrement"`
	BucketID   string `gorm:"index"`
	Seq        int
	Kind       string
	UserID     string
	AccessorID string
}

func (outboxEventRow) TableName() string { return "index_outbox_events" }

func allModels() []any {
	return []any{&userRow{}, &bucketRow{}, &blobBucketRow{}, &outboxEventRow{}}
}
