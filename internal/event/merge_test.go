package event

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSetMerge(t *testing.T) {
	Convey("Given an empty merge set", t, func() {
		s := NewSet()

		Convey("Keyed events are appended once", func() {
			batch := []*Event{
				{EventID: "1", EventName: "CPI"},
				{EventID: "2", EventName: "GDP"},
			}
			stats := s.Merge(batch)
			So(stats.Added, ShouldEqual, 2)
			So(s.Len(), ShouldEqual, 2)

			Convey("Merging the same batch again does not grow the set", func() {
				again := s.Merge(batch)
				So(again.Added, ShouldEqual, 0)
				So(again.Duplicates, ShouldEqual, 2)
				So(s.Len(), ShouldEqual, 2)
				So(s.KeyedLen(), ShouldEqual, 2)
			})

			Convey("The first occurrence wins", func() {
				s.Merge([]*Event{{EventID: "1", EventName: "CPI (revised)"}})
				So(s.Events()[0].EventName, ShouldEqual, "CPI")
			})
		})

		Convey("Events without an id are always appended", func() {
			unkeyed := &Event{EventName: "Bank Holiday", Country: "Japan"}
			s.Merge([]*Event{unkeyed})
			stats := s.Merge([]*Event{unkeyed})
			So(stats.Unkeyed, ShouldEqual, 1)
			So(s.Len(), ShouldEqual, 2)
			So(s.KeyedLen(), ShouldEqual, 0)
		})

		Convey("Events without a name are never emitted", func() {
			stats := s.Merge([]*Event{
				{EventID: "9", EventName: ""},
				{EventID: "10", EventName: "  "},
				nil,
				{EventID: "11", EventName: "PMI"},
			})
			So(stats.Invalid, ShouldEqual, 3)
			So(stats.Added, ShouldEqual, 1)
			So(s.KeyedLen(), ShouldEqual, 1)
			So(s.Events()[0].EventID, ShouldEqual, "11")
		})

		Convey("Merge order is preserved", func() {
			s.Merge([]*Event{{EventID: "b", EventName: "B"}, {EventID: "a", EventName: "A"}})
			s.Merge([]*Event{{EventID: "c", EventName: "C"}, {EventID: "a", EventName: "A"}})
			var ids []string
			for _, evt := range s.Events() {
				ids = append(ids, evt.EventID)
			}
			So(ids, ShouldResemble, []string{"b", "a", "c"})
		})
	})
}

func TestUnion(t *testing.T) {
	Convey("Given two overlapping batches", t, func() {
		a := []*Event{{EventID: "1", EventName: "CPI"}, {EventID: "2", EventName: "GDP"}}
		b := []*Event{{EventID: "2", EventName: "GDP"}, {EventID: "3", EventName: "PPI"}}

		Convey("Union contains each keyed event once", func() {
			So(len(Union(a, b)), ShouldEqual, 3)
		})

		Convey("Union is idempotent", func() {
			once := Union(a, b)
			twice := Union(once, b)
			So(len(twice), ShouldEqual, len(once))
			So(len(Union(a, a)), ShouldEqual, len(a))
		})
	})
}

func TestMergeFunc(t *testing.T) {
	Convey("Merge delegates to the accumulator", t, func() {
		acc := NewSet()
		stats := Merge(acc, []*Event{{EventID: "1", EventName: "CPI"}, {EventID: "1", EventName: "CPI"}})
		So(stats.Added, ShouldEqual, 1)
		So(stats.Duplicates, ShouldEqual, 1)
		So(acc.KeyedLen(), ShouldEqual, 1)
	})
}
