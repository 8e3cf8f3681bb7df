package explain_test

import (
	"strings"
	"testing"

	explain "github.com/okian/carelens/internal/domain/explain"
	"github.com/okian/carelens/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fp(v float64) *float64 { return &v }

var features = []explain.Feature{
	{Key: "w_steps_sum", Label: "Daily steps"},
	{Key: "w_active_minutes", Label: "Active minutes"},
	{Key: "w_sleep_efficiency", Label: "Sleep efficiency"},
	{Key: "w_gait_speed", Label: "Gait speed"},
	{Key: "w_hr_rest", Label: "Resting heart rate"},
	{Key: "w_night_events", Label: "Night-time events"},
}

func subjectWithRecord(extra map[string]string) model.Subject {
	return model.Subject{
		ID:                "S1",
		IndependenceIndex: fp(1.25),
		IndexSource:       model.IndexSourceModel,
		RiskLevel:         model.RiskHigh,
		Records:           []model.Record{{SubjectID: "S1", Extra: extra}},
	}
}

func TestExplain(t *testing.T) {
	th := model.Threshold{Method: model.MethodQuantile, Low: -0.2, High: 0.8}

	Convey("Given an engine with configured features", t, func() {
		engine := explain.NewEngine(explain.WithFeatures(features))

		Convey("When explaining a subject with weighted feature columns", func() {
			subj := subjectWithRecord(map[string]string{
				"w_steps_sum":        "-1.6",
				"w_active_minutes":   "0.4",
				"w_sleep_efficiency": "2.1",
				"w_gait_speed":       "junk",
				"w_hr_rest":          "-0.1",
				"w_night_events":     "0.9",
			})
			out := engine.Explain(subj, th)

			Convey("Then contributions rank by descending absolute value", func() {
				So(out.Contributions, ShouldHaveLength, 5) // gait_speed dropped as malformed
				So(out.Contributions[0].Key, ShouldEqual, "w_sleep_efficiency")
				So(out.Contributions[1].Key, ShouldEqual, "w_steps_sum")
				So(out.Contributions[1].Direction, ShouldEqual, model.DirectionLow)
				So(out.Contributions[2].Key, ShouldEqual, "w_night_events")
			})

			Convey("And reasons phrase the top contributions", func() {
				So(out.Reasons, ShouldHaveLength, 3)
				So(out.Reasons[0], ShouldEqual, "Sleep efficiency is higher than the cohort average (2.10).")
				So(out.Reasons[1], ShouldEqual, "Daily steps is lower than the cohort average (-1.60).")
			})

			Convey("And the summary leads with the tier and thresholds", func() {
				So(out.Summary, ShouldStartWith, "Risk level is High.")
				So(out.Summary, ShouldContainSubstring, "low -0.20 / high 0.80 (quantile)")
			})
		})

		Convey("When more features qualify than the contribution limit", func() {
			extra := map[string]string{
				"w_steps_sum":        "0.1",
				"w_active_minutes":   "0.2",
				"w_sleep_efficiency": "0.3",
				"w_gait_speed":       "0.4",
				"w_hr_rest":          "0.5",
				"w_night_events":     "0.6",
			}
			out := engine.Explain(subjectWithRecord(extra), th)

			Convey("Then only the top five are retained", func() {
				So(out.Contributions, ShouldHaveLength, 5)
				So(out.Contributions[0].Key, ShouldEqual, "w_night_events")
			})
		})

		Convey("When the subject has no independence index", func() {
			subj := subjectWithRecord(map[string]string{"w_steps_sum": "1.0"})
			subj.IndependenceIndex = nil
			subj.RiskLevel = model.RiskUnknown
			out := engine.Explain(subj, th)

			Convey("Then the summary states unavailability", func() {
				So(out.RiskLevel, ShouldEqual, model.RiskUnknown)
				So(out.Summary, ShouldEqual,
					"Risk level unavailable: subject S1 has no independence index.")
			})
		})

		Convey("When the subject has no records", func() {
			subj := model.Subject{ID: "S2", IndependenceIndex: fp(0.1), RiskLevel: model.RiskMedium}
			out := engine.Explain(subj, th)

			Convey("Then contributions and reasons are empty but present", func() {
				So(out.Contributions, ShouldBeEmpty)
				So(out.Reasons, ShouldBeEmpty)
				So(strings.Contains(out.Summary, "Risk level is Medium."), ShouldBeTrue)
			})
		})
	})

	Convey("Given custom limits", t, func() {
		engine := explain.NewEngine(
			explain.WithFeatures(features),
			explain.WithContributionLimit(2),
			explain.WithReasonLimit(1),
		)
		out := engine.Explain(subjectWithRecord(map[string]string{
			"w_steps_sum":      "1.0",
			"w_active_minutes": "-2.0",
			"w_hr_rest":        "0.5",
		}), th)

		Convey("Then the limits are honored", func() {
			So(out.Contributions, ShouldHaveLength, 2)
			So(out.Reasons, ShouldHaveLength, 1)
		})
	})
}
