package roster_test

import (
	"testing"

	datasource "github.com/okian/carelens/internal/datasource"
	roster "github.com/okian/carelens/internal/domain/roster"
	. "github.com/smartystreets/goconvey/convey"
)

func table(idCol string, ids ...string) datasource.Table {
	t := datasource.Table{Columns: []string{idCol}}
	for _, id := range ids {
		t.Rows = append(t.Rows, datasource.Row{idCol: id})
	}
	return t
}

func TestBuilder(t *testing.T) {
	Convey("Given identifiers spread across several sources", t, func() {
		b := roster.NewBuilder()
		b.AddTable(table("subject_id", "S2", "S1", " S3 "), "subject_id")
		b.AddTable(table("sid", "S1", "S4"), "sid")

		Convey("When building the roster", func() {
			ids := b.Build()

			Convey("Then every ID appears exactly once, sorted", func() {
				So(ids, ShouldResemble, []string{"S1", "S2", "S3", "S4"})
			})

			Convey("And rebuilding yields the same set", func() {
				So(b.Build(), ShouldResemble, ids)
			})
		})
	})

	Convey("Given sources with blank and placeholder values", t, func() {
		b := roster.NewBuilder()
		b.AddTable(table("subject_id", "subject_id", "", "  ", "S9"), "subject_id")
		b.AddID("ID")
		b.AddID("")

		Convey("When building the roster", func() {
			ids := b.Build()

			Convey("Then junk values are discarded", func() {
				So(ids, ShouldResemble, []string{"S9"})
			})
		})
	})

	Convey("Given an empty builder", t, func() {
		b := roster.NewBuilder()

		Convey("When building", func() {
			Convey("Then the roster is empty, not nil semantics dependent", func() {
				So(b.Build(), ShouldBeEmpty)
			})
		})
	})

	Convey("Given membership checks", t, func() {
		b := roster.NewBuilder()
		b.AddID("S1")

		Convey("Then Contains reflects the working set", func() {
			So(b.Contains("S1"), ShouldBeTrue)
			So(b.Contains("S2"), ShouldBeFalse)
		})
	})
}
