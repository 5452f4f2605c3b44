package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/badgeboard/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a key is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, "submit-1")

			Convey("Then it should report the key as new", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And the same key arrives again", func() {
				So(d.SeenAndRecord(ctx, "submit-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a recorded key is unrecorded", func() {
			d.SeenAndRecord(ctx, "submit-1")
			d.SeenAndRecord(ctx, "submit-2")
			d.Unrecord(ctx, "submit-1")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 1)
				So(d.SeenAndRecord(ctx, "submit-1"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "submit-2"), ShouldBeTrue)
			})
		})

		Convey("When an unknown key is unrecorded", func() {
			d.SeenAndRecord(ctx, "submit-1")
			d.Unrecord(ctx, "missing")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 3; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i))
		}

		Convey("When a fourth key arrives", func() {
			So(d.SeenAndRecord(ctx, "k4"), ShouldBeFalse)

			Convey("Then the oldest key is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "k2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k1"), ShouldBeFalse)
			})
		})

		Convey("When the oldest key was unrecorded first", func() {
			d.Unrecord(ctx, "k1")
			d.SeenAndRecord(ctx, "k4")

			Convey("Then no live key is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "k2"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0), dedupe.WithTTL(0))

		Convey("When many keys are recorded", func() {
			for i := 0; i < 500; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i))
			}

			Convey("Then all keys are kept", func() {
				So(d.Size(), ShouldEqual, 500)
				So(d.SeenAndRecord(ctx, "k0"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a deduper with a one hour ttl", t, func() {
		clock := &fakeClock{now: time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)}
		d := dedupe.NewInMemoryDeduper(dedupe.WithTTL(time.Hour), dedupe.WithClock(clock.Now))
		d.SeenAndRecord(ctx, "early")
		clock.Advance(30 * time.Minute)
		d.SeenAndRecord(ctx, "late")

		Convey("When less than the ttl has passed", func() {
			clock.Advance(10 * time.Minute)

			Convey("Then both keys are still remembered", func() {
				So(d.SeenAndRecord(ctx, "early"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "late"), ShouldBeTrue)
			})
		})

		Convey("When the first key expires", func() {
			clock.Advance(30 * time.Minute)

			Convey("Then it is accepted again and the later key is not", func() {
				So(d.SeenAndRecord(ctx, "early"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "late"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 2)
			})
		})
	})
}

func TestInMemoryDeduperConcurrency(t *testing.T) {
	Convey("Given goroutines racing on the same keys", t, func() {
		d := dedupe.NewInMemoryDeduper()
		const workers, keys = 8, 50

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < keys; i++ {
					if !d.SeenAndRecord(context.Background(), fmt.Sprintf("k%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each key is reported new exactly once", func() {
			So(fresh, ShouldEqual, keys)
			So(d.Size(), ShouldEqual, keys)
		})
	})
}
