package store_test

import (
	"context"
	"testing"

	"github.com/helixhq/helix/internal/adapters/store"
	"github.com/helixhq/helix/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStoreConfidence(t *testing.T) {
	Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		s := store.NewMemoryStore()

		Convey("When reading an unknown employee", func() {
			snapshot, err := s.Confidence(ctx, "nobody")
			So(err, ShouldBeNil)
			So(snapshot, ShouldBeEmpty)

			history, err := s.ConfidenceHistory(ctx, "nobody")
			So(err, ShouldBeNil)
			So(history, ShouldBeEmpty)

			growth, err := s.MonthlyGrowth(ctx, "nobody", "2024-06")
			So(err, ShouldBeNil)
			So(growth, ShouldBeEmpty)
		})

		Convey("When appending updates", func() {
			updates := []model.ConfidenceUpdate{
				{Skill: "Go", PreviousConfidence: 0, NewConfidence: 5, Increment: 5, AppliedAt: "2024-05-10T00:00:00Z"},
				{Skill: "Go", PreviousConfidence: 5, NewConfidence: 12, Increment: 7, AppliedAt: "2024-06-01T00:00:00Z"},
				{Skill: "SQL", PreviousConfidence: 0, NewConfidence: 4, Increment: 4, AppliedAt: "2024-06-02T00:00:00Z"},
			}
			for _, update := range updates {
				So(s.AppendUpdate(ctx, "emp-1", update), ShouldBeNil)
			}

			Convey("Then the snapshot follows the latest update per skill", func() {
				snapshot, err := s.Confidence(ctx, "emp-1")
				So(err, ShouldBeNil)
				So(snapshot, ShouldResemble, model.SkillConfidence{"Go": 12, "SQL": 4})
			})

			Convey("And the history preserves insertion order", func() {
				history, err := s.ConfidenceHistory(ctx, "emp-1")
				So(err, ShouldBeNil)
				So(history, ShouldHaveLength, 3)
				So(history[0].AppliedAt, ShouldEqual, "2024-05-10T00:00:00Z")
			})

			Convey("And monthly growth only counts the requested month", func() {
				growth, err := s.MonthlyGrowth(ctx, "emp-1", "2024-06")
				So(err, ShouldBeNil)
				So(growth, ShouldResemble, map[string]float64{"Go": 7, "SQL": 4})
			})

			Convey("And snapshots copy out", func() {
				snapshot, _ := s.Confidence(ctx, "emp-1")
				snapshot["Go"] = 99
				again, _ := s.Confidence(ctx, "emp-1")
				So(again["Go"], ShouldEqual, 12)
			})
		})

		Convey("When appending without an employee id", func() {
			err := s.AppendUpdate(ctx, "", model.ConfidenceUpdate{Skill: "Go"})
			So(err, ShouldEqual, store.ErrMissingEmployee)
		})
	})
}

func TestMemoryStorePoints(t *testing.T) {
	Convey("Given a memory store with awards", t, func() {
		ctx := context.Background()
		s := store.NewMemoryStore()

		awards := []model.PointAward{
			{EmployeeID: "emp-1", Skill: "Go", PointsAwarded: 28, AwardedAt: "2024-05-20T00:00:00Z"},
			{EmployeeID: "emp-1", Skill: "Go", PointsAwarded: 50, AwardedAt: "2024-06-01T00:00:00Z"},
			{EmployeeID: "emp-1", Skill: "SQL", PointsAwarded: 10, AwardedAt: "2024-06-02T00:00:00Z"},
		}
		for _, award := range awards {
			So(s.AppendAward(ctx, "emp-1", award), ShouldBeNil)
		}

		Convey("Then the snapshot totals every award", func() {
			snapshot, err := s.Points(ctx, "emp-1")
			So(err, ShouldBeNil)
			So(snapshot.TotalPoints, ShouldEqual, 88)
		})

		Convey("Then monthly points filter by month and group by skill", func() {
			totals, err := s.MonthlyPoints(ctx, "emp-1", "2024-06")
			So(err, ShouldBeNil)
			So(totals, ShouldResemble, map[string]int{"Go": 50, "SQL": 10})
		})

		Convey("Then unknown employees read as zero", func() {
			snapshot, err := s.Points(ctx, "nobody")
			So(err, ShouldBeNil)
			So(snapshot.TotalPoints, ShouldEqual, 0)
		})
	})
}

func TestMemoryStoreContributions(t *testing.T) {
	Convey("Given a memory store with contributions", t, func() {
		ctx := context.Background()
		s := store.NewMemoryStore()

		contributions := []model.Contribution{
			{ID: "c-2", EmployeeID: "emp-1", Skill: "Go", Status: model.StatusValidated, ValidatedAt: "2024-06-02T00:00:00Z"},
			{ID: "c-1", EmployeeID: "emp-1", Skill: "Go", Status: model.StatusValidated, ValidatedAt: "2024-06-01T00:00:00Z"},
			{ID: "c-3", EmployeeID: "emp-1", Skill: "Go", Status: model.StatusPending, ValidatedAt: "2024-06-03T00:00:00Z"},
		}
		for _, contrib := range contributions {
			So(s.Put(ctx, contrib), ShouldBeNil)
		}

		Convey("Then only validated contributions are returned, in time order", func() {
			validated, err := s.Validated(ctx, "emp-1")
			So(err, ShouldBeNil)
			So(validated, ShouldHaveLength, 2)
			So(validated[0].ID, ShouldEqual, "c-1")
			So(validated[1].ID, ShouldEqual, "c-2")
		})

		Convey("Then re-putting an id replaces the record", func() {
			updated := contributions[2]
			updated.Status = model.StatusValidated
			So(s.Put(ctx, updated), ShouldBeNil)

			validated, _ := s.Validated(ctx, "emp-1")
			So(validated, ShouldHaveLength, 3)
		})

		Convey("Then puts without ids are rejected", func() {
			So(s.Put(ctx, model.Contribution{EmployeeID: "emp-1"}), ShouldEqual, store.ErrMissingContribID)
			So(s.Put(ctx, model.Contribution{ID: "c-9"}), ShouldEqual, store.ErrMissingEmployee)
		})

		Convey("Then the employee count tracks distinct employees", func() {
			So(s.EmployeeCount(ctx), ShouldEqual, 1)
			So(s.Put(ctx, model.Contribution{ID: "c-10", EmployeeID: "emp-2", Status: model.StatusValidated}), ShouldBeNil)
			So(s.EmployeeCount(ctx), ShouldEqual, 2)
		})
	})
}

func TestStoreFactory(t *testing.T) {
	Convey("Given the backend factory", t, func() {
		ctx := context.Background()

		Convey("The memory backend and the empty default both work", func() {
			s, err := store.New(ctx, store.BackendMemory, "")
			So(err, ShouldBeNil)
			So(s, ShouldNotBeNil)

			s, err = store.New(ctx, "", "")
			So(err, ShouldBeNil)
			So(s, ShouldNotBeNil)
		})

		Convey("Unknown backends are rejected", func() {
			_, err := store.New(ctx, "cassandra", "")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown store backend")
		})
	})
}
