package jobs

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"

	"github.com/emrgen/contentstore/internal/model"
	"github.com/emrgen/contentstore/internal/store"
)

var _ CronJob = (*RevisionCoalescer)(nil)

// RevisionCoalescer bounds version history growth under frequent
// autosave: revisions whose creation times round to the same window keep
// only the newest snapshot, the rest are dropped. Dropping a snapshot
// also drops its image references, the next sweep reclaims the files.
type RevisionCoalescer struct {
	store    store.Store
	schedule string
	window   time.Duration
}

func NewRevisionCoalescer(s store.Store, schedule string, window time.Duration) *RevisionCoalescer {
	if window <= 0 {
		window = 10 * time.Minute
	}

	return &RevisionCoalescer{store: s, schedule: schedule, window: window}
}

func (c *RevisionCoalescer) Schedule() string {
	return c.schedule
}

func (c *RevisionCoalescer) Run() {
	// look twice as far back as the window so a whole window is always covered
	now := time.Now()
	if err := c.coalesce(context.Background(), now.Add(-2*c.window), now.Add(-c.window)); err != nil {
		logrus.Errorf("revision coalescing failed: %v", err)
	}
}

func (c *RevisionCoalescer) coalesce(ctx context.Context, from, to time.Time) error {
	revs, err := c.store.ListRevisionsByCreatedTime(ctx, from, to)
	if err != nil {
		return err
	}

	type window struct {
		id     string
		bucket time.Time
	}

	newest := make(map[window]*model.Revision)
	grouped := make(map[window][]*model.Revision)
	for _, rev := range revs {
		w := window{id: rev.ID, bucket: rev.CreatedAt.Round(c.window)}
		grouped[w] = append(grouped[w], rev)
		if head, ok := newest[w]; !ok || rev.Version > head.Version {
			newest[w] = rev
		}
	}

	remove := make(map[string][]int64)
	removed := mapset.NewSet[string]()
	for w, revs := range grouped {
		for _, rev := range revs {
			if rev.Version == newest[w].Version {
				continue
			}
			remove[rev.ID] = append(remove[rev.ID], rev.Version)
			removed.Add(rev.ID)
		}
	}

	if len(remove) == 0 {
		return nil
	}

	if err := c.store.DeleteRevisionVersions(ctx, remove); err != nil {
		return err
	}

	logrus.Infof("coalesced autosave revisions of %d records", removed.Cardinality())

	return nil
}
