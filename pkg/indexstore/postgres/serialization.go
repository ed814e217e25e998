package postgres

import (
	"strings"

	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/index"
	"github.com/coldvault/core/pkg/reconcile"
)

func snapshotToRows(snap index.Snapshot) ([]userRow, []bucketRow, []blobBucketRow, []outboxEventRow) {
	users := make([]userRow, 0, len(snap.Users))
	for id, rec := range snap.Users {
		users = append(users, userRow{UserID: id.String(), ByteLimit: rec.ByteLimit, BytesUsed: rec.BytesUsed})
	}

	buckets := make([]bucketRow, 0, len(snap.Buckets))
	for _, b := range snap.Buckets {
		buckets = append(buckets, bucketRow{BucketID: b.ID.String(), UsedBytes: b.UsedBytes, DataLimit: b.DataLimit, Full: b.Full})
	}

	blobBuckets := make([]blobBucketRow, 0, len(snap.BlobBuckets))
	for hash, entry := range snap.BlobBuckets {
		userIDs := make([]string, 0, len(entry.UserSet))
		for _, u := range entry.UserSet {
			userIDs = append(userIDs, u.String())
		}
		blobBuckets = append(blobBuckets, blobBucketRow{
			Hash: hash.String(), Size: entry.Size, Bucket: entry.Bucket.String(),
			UserSet: strings.Join(userIDs, ","),
		})
	}

	var outbox []outboxEventRow
	for bucketID, events := range snap.Outboxes {
		for seq, event := range events {
			row := outboxEventRow{BucketID: bucketID.String(), Seq: seq, Kind: event.Kind.String()}
			switch event.Kind {
			case reconcile.EventUserAdded, reconcile.EventUserRemoved:
				row.UserID = event.UserId.String()
			case reconcile.EventAccessorRemoved:
				row.AccessorID = event.AccessorId.String()
			}
			outbox = append(outbox, row)
		}
	}

	return users, buckets, blobBuckets, outbox
}

func rowsToSnapshot(users []userRow, buckets []bucketRow, blobBuckets []blobBucketRow, outbox []outboxEventRow) (index.Snapshot, error) {
	snap := index.Snapshot{
		Users:       make(map[ids.UserId]index.UserRecord, len(users)),
		BlobBuckets: make(map[ids.Hash]index.BlobBucketSnapshot, len(blobBuckets)),
		Buckets:     make([]index.BucketRecord, 0, len(buckets)),
		Outboxes:    make(map[ids.BucketId][]reconcile.IndexEvent),
	}

	for _, row := range users {
		id, err := ids.ParseUserId(row.UserID)
		if err != nil {
			return index.Snapshot{}, err
		}
		snap.Users[id] = index.UserRecord{ByteLimit: row.ByteLimit, BytesUsed: row.BytesUsed}
	}

	for _, row := range buckets {
		id, err := ids.ParseBucketId(row.BucketID)
		if err != nil {
			return index.Snapshot{}, err
		}
		snap.Buckets = append(snap.Buckets, index.BucketRecord{ID: id, UsedBytes: row.UsedBytes, DataLimit: row.DataLimit, Full: row.Full})
	}

	for _, row := range blobBuckets {
		hash, err := ids.ParseHash(row.Hash)
		if err != nil {
			return index.Snapshot{}, err
		}
		bucket, err := ids.ParseBucketId(row.Bucket)
		if err != nil {
			return index.Snapshot{}, err
		}
		var userSet []ids.UserId
		if row.UserSet != "" {
			for _, s := range strings.Split(row.UserSet, ",") {
				u, err := ids.ParseUserId(s)
				if err != nil {
					return index.Snapshot{}, err
				}
				userSet = append(userSet, u)
			}
		}
		snap.BlobBuckets[hash] = index.BlobBucketSnapshot{Size: row.Size, Bucket: bucket, UserSet: userSet}
	}

	byBucket := make(map[string][]outboxEventRow)
	for _, row := range outbox {
		byBucket[row.BucketID] = append(byBucket[row.BucketID], row)
	}
	for bucketIDStr, rows := range byBucket {
		bucketID, err := ids.ParseBucketId(bucketIDStr)
		if err != nil {
			return index.Snapshot{}, err
		}
		events := make([]reconcile.IndexEvent, len(rows))
		for _, row := range rows {
			event := reconcile.IndexEvent{}
			switch row.Kind {
			case "UserAdded":
				event.Kind = reconcile.EventUserAdded
				event.UserId, err = ids.ParseUserId(row.UserID)
			case "UserRemoved":
				event.Kind = reconcile.EventUserRemoved
				event.UserId, err = ids.ParseUserId(row.UserID)
			case "AccessorRemoved":
				event.Kind = reconcile.EventAccessorRemoved
				event.AccessorId, err = ids.ParseAccessorId(row.AccessorID)
			}
			if err != nil {
				return index.Snapshot{}, err
			}
			events[row.Seq] = event
		}
		snap.Outboxes[bucketID] = events
	}

	return snap, nil
}
