package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerRecording(t *testing.T) {
	Convey("Given a metrics manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithRegistry(registry), WithNamespace("test"))

		So(m.Registry(), ShouldEqual, registry)

		Convey("Chunk counters accumulate", func() {
			m.ChunkAttempted()
			m.ChunkAttempted()
			m.ChunkProcessed()
			m.ChunkSkipped("blocked")
			m.ChunkNearCap()

			So(testutil.ToFloat64(m.chunksAttempted), ShouldEqual, 2)
			So(testutil.ToFloat64(m.chunksProcessed), ShouldEqual, 1)
			So(testutil.ToFloat64(m.chunksSkipped.WithLabelValues("blocked")), ShouldEqual, 1)
			So(testutil.ToFloat64(m.chunksNearCap), ShouldEqual, 1)
		})

		Convey("Merge outcomes are split across counters", func() {
			m.EventsMerged(10, 3, 1)
			m.EventsMerged(5, 0, 0)

			So(testutil.ToFloat64(m.eventsMerged), ShouldEqual, 15)
			So(testutil.ToFloat64(m.eventsDuplicate), ShouldEqual, 3)
			So(testutil.ToFloat64(m.rowsRejected), ShouldEqual, 1)
		})

		Convey("Fetch attempts are labelled by outcome", func() {
			m.FetchAttempt("ok", 200*time.Millisecond)
			m.FetchAttempt("timeout", 30*time.Second)

			So(testutil.ToFloat64(m.fetchAttempts.WithLabelValues("ok")), ShouldEqual, 1)
			So(testutil.ToFloat64(m.fetchAttempts.WithLabelValues("timeout")), ShouldEqual, 1)
		})

		Convey("Run completion sets the last-run gauge", func() {
			m.SessionRefreshed()
			m.SessionInvalidated()
			m.RunCompleted("success", 42, time.Minute)

			So(testutil.ToFloat64(m.lastRunEvents), ShouldEqual, 42)
			So(testutil.ToFloat64(m.runs.WithLabelValues("success")), ShouldEqual, 1)
			So(testutil.ToFloat64(m.sessionRefreshes), ShouldEqual, 1)
			So(testutil.ToFloat64(m.sessionInvalidate), ShouldEqual, 1)
		})

		Convey("The registry can be written as a textfile", func() {
			m.ChunkAttempted()
			path := filepath.Join(t.TempDir(), "econ.prom")

			So(m.WriteTextfile(path), ShouldBeNil)
			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(strings.Contains(string(data), "test_scrape_chunks_attempted_total 1"), ShouldBeTrue)
		})
	})
}

func TestManagersAreIndependent(t *testing.T) {
	Convey("Two managers without explicit registries do not collide", t, func() {
		So(func() {
			NewManager()
			NewManager()
		}, ShouldNotPanic)
	})
}
