package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/carelens/internal/app"
	"github.com/okian/carelens/internal/domain/model"
	"github.com/okian/carelens/pkg/logger"
)

const scoredFixture = `subject_id,independence_index,steps_sum,active_minutes,w_steps_sum,w_gait_speed,w_hr_rest
s1,-1.2,52000,200,0.4,0.1,-0.2
s2,-0.1,30000,45,-0.6,-0.3,0.2
s3,0.3,41000,,0.1,0.2,-0.1
s4,1.5,61000,120,1.2,-1.8,0.5
`

const qcFixture = `subject_id,n_records,n_days,first_date,last_date,avg_steps,avg_active_minutes
s1,10,5,2026-01-01,2026-02-01,,
s1,20,7,2026-01-03,2026-01-20,,
s5,12,6,2026-01-05,2026-02-10,4000,80
s6,3,2,2026-01-01,2026-01-02,,
`

// s7 only exists in the raw attribute dump; "id" is a header artifact.
const rawFixture = "s7\nid\n"

func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	So(os.WriteFile(filepath.Join(dir, "merged_scored.csv"), []byte(scoredFixture), 0o600), ShouldBeNil)
	So(os.WriteFile(filepath.Join(dir, "qc_sensor_counts.csv"), []byte(qcFixture), 0o600), ShouldBeNil)
	So(os.WriteFile(filepath.Join(dir, "raw_ids.csv"), []byte(rawFixture), 0o600), ShouldBeNil)
	return dir
}

func newLoadedService(t *testing.T) *service.Service {
	t.Helper()
	So(logger.Init(), ShouldBeNil)
	svc := service.New(
		service.WithDataDir(writeFixtures(t)),
		service.WithRawAttributeFiles("raw_ids.csv"),
		service.WithMaxReportRows(3),
		service.WithFeatureLabels(map[string]string{
			"w_steps_sum":  "Daily steps",
			"w_gait_speed": "Gait speed",
			"w_hr_rest":    "Resting heart rate",
		}),
	)
	So(svc.Load(context.Background()), ShouldBeNil)
	return svc
}

func TestServiceLoadAndRoster(t *testing.T) {
	Convey("Given a service loaded from fixture tables", t, func() {
		ctx := context.Background()
		svc := newLoadedService(t)

		Convey("Then the roster is the sorted union of every source", func() {
			So(svc.Roster(ctx), ShouldResemble, []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7"})
		})

		Convey("Then QC rows are aggregated per subject", func() {
			subj, err := svc.Subject(ctx, "s1")
			So(err, ShouldBeNil)
			So(subj.QC, ShouldNotBeNil)
			So(subj.QC.RecordCount, ShouldEqual, 30)
			So(subj.QC.UniqueDays, ShouldEqual, 7)
			So(subj.QC.FirstDate, ShouldEqual, "2026-01-01")
			So(subj.QC.LastDate, ShouldEqual, "2026-02-01")
		})

		Convey("Then extra score columns travel with the record", func() {
			subj, err := svc.Subject(ctx, "s4")
			So(err, ShouldBeNil)
			So(subj.Records, ShouldHaveLength, 1)
			So(subj.Records[0].Extra["w_gait_speed"], ShouldEqual, "-1.8")
		})
	})
}

func TestServiceIndexProvenance(t *testing.T) {
	Convey("Given a loaded service", t, func() {
		ctx := context.Background()
		svc := newLoadedService(t)

		Convey("Subjects scored by the model carry the model source", func() {
			subj, err := svc.Subject(ctx, "s1")
			So(err, ShouldBeNil)
			So(subj.IndexSource, ShouldEqual, model.IndexSourceModel)
			So(subj.IndependenceIndex, ShouldNotBeNil)
			So(*subj.IndependenceIndex, ShouldAlmostEqual, -1.2)
		})

		Convey("Subjects without a model score get a QC-derived substitute", func() {
			// s5 is the only subject with QC averages, so both z-scores
			// collapse to zero and the substitute index is exactly zero.
			subj, err := svc.Subject(ctx, "s5")
			So(err, ShouldBeNil)
			So(subj.IndexSource, ShouldEqual, model.IndexSourceQCDerived)
			So(subj.IndependenceIndex, ShouldNotBeNil)
			So(*subj.IndependenceIndex, ShouldAlmostEqual, 0)
		})

		Convey("Subjects with neither stay unknown and untiered", func() {
			subj, err := svc.Subject(ctx, "s6")
			So(err, ShouldBeNil)
			So(subj.IndexSource, ShouldEqual, model.IndexSourceUnknown)
			So(subj.IndependenceIndex, ShouldBeNil)
			So(subj.RiskLevel, ShouldEqual, model.RiskLevel(""))
		})
	})
}

func TestServiceThresholdsAndClassification(t *testing.T) {
	Convey("Given a loaded service with a mixed index population", t, func() {
		ctx := context.Background()
		svc := newLoadedService(t)

		// Population is [-1.2, -0.1, 0.3, 1.5, 0] so the cut points land
		// at sorted[1] and sorted[3].
		subjects, th := svc.Subjects(ctx)

		Convey("Then the threshold blends both index sources", func() {
			So(th.Method, ShouldEqual, model.MethodQuantileCombined)
			So(th.Low, ShouldAlmostEqual, -0.1)
			So(th.High, ShouldAlmostEqual, 0.3)
		})

		Convey("Then every subject is tiered under the same cuts", func() {
			levels := map[string]model.RiskLevel{}
			for _, subj := range subjects {
				levels[subj.ID] = subj.RiskLevel
			}
			So(levels["s1"], ShouldEqual, model.RiskLow)
			So(levels["s2"], ShouldEqual, model.RiskLow)
			So(levels["s3"], ShouldEqual, model.RiskMedium)
			So(levels["s4"], ShouldEqual, model.RiskHigh)
			So(levels["s5"], ShouldEqual, model.RiskMedium)
		})
	})
}

func TestServiceSubjectLookup(t *testing.T) {
	Convey("Given a loaded service", t, func() {
		ctx := context.Background()
		svc := newLoadedService(t)

		Convey("A roster-only subject from a raw source is not found", func() {
			_, err := svc.Subject(ctx, "s7")
			So(errors.Is(err, service.ErrSubjectNotFound), ShouldBeTrue)
		})

		Convey("An unknown subject is not found", func() {
			_, err := svc.Subject(ctx, "nobody")
			So(errors.Is(err, service.ErrSubjectNotFound), ShouldBeTrue)
		})

		Convey("A QC-only subject is still found", func() {
			subj, err := svc.Subject(ctx, "s6")
			So(err, ShouldBeNil)
			So(subj.ID, ShouldEqual, "s6")
		})
	})

	Convey("Given a service that never loaded", t, func() {
		So(logger.Init(), ShouldBeNil)
		svc := service.New()
		_, err := svc.Subject(context.Background(), "s1")
		So(errors.Is(err, service.ErrNotLoaded), ShouldBeTrue)
	})
}

func TestServiceLoadTimeAlerts(t *testing.T) {
	Convey("Given a loaded service", t, func() {
		ctx := context.Background()
		svc := newLoadedService(t)

		alerts := svc.ListAlerts(ctx, "")

		Convey("Then High-tier and low-activity subjects each raise one alert", func() {
			So(alerts, ShouldHaveLength, 2)

			So(alerts[0].SubjectID, ShouldEqual, "s2")
			So(alerts[0].Type, ShouldEqual, model.AlertTypeLowActivity)
			So(alerts[0].Severity, ShouldEqual, model.SeverityMedium)
			So(alerts[0].Status, ShouldEqual, model.AlertOpen)

			So(alerts[1].SubjectID, ShouldEqual, "s4")
			So(alerts[1].Type, ShouldEqual, model.AlertTypeRiskHigh)
			So(alerts[1].Severity, ShouldEqual, model.SeverityHigh)
		})

		Convey("And alert operations forward to the store", func() {
			created, err := svc.CreateAlert(ctx, "s3", "manual", model.SeverityLow)
			So(err, ShouldBeNil)
			So(created.Status, ShouldEqual, model.AlertOpen)

			acked, err := svc.AcknowledgeAlert(ctx, created.ID)
			So(err, ShouldBeNil)
			So(acked.Status, ShouldEqual, model.AlertAcknowledged)

			declined, err := svc.DeclineAlert(ctx, alerts[0].ID)
			So(err, ShouldBeNil)
			So(declined.Status, ShouldEqual, model.AlertDeclined)

			So(svc.ListAlerts(ctx, model.AlertOpen), ShouldHaveLength, 1)
		})
	})
}

func TestServiceExplanation(t *testing.T) {
	Convey("Given a loaded service", t, func() {
		ctx := context.Background()
		svc := newLoadedService(t)

		Convey("When explaining a High-tier subject", func() {
			exp, err := svc.Explanation(ctx, "s4")
			So(err, ShouldBeNil)

			Convey("Then contributions rank by absolute magnitude", func() {
				So(exp.RiskLevel, ShouldEqual, model.RiskHigh)
				So(exp.Contributions, ShouldHaveLength, 3)
				So(exp.Contributions[0].Label, ShouldEqual, "Gait speed")
				So(exp.Contributions[0].Direction, ShouldEqual, model.DirectionLow)
				So(exp.Contributions[1].Label, ShouldEqual, "Daily steps")
				So(exp.Contributions[2].Label, ShouldEqual, "Resting heart rate")
			})

			Convey("Then the summary names the tier and the cuts", func() {
				So(exp.Summary, ShouldStartWith, "Risk level is High.")
				So(exp.Summary, ShouldContainSubstring, "Gait speed is lower than the cohort average (-1.80).")
			})
		})

		Convey("When explaining a subject without an index", func() {
			exp, err := svc.Explanation(ctx, "s6")
			So(err, ShouldBeNil)
			So(exp.Summary, ShouldStartWith, "Risk level unavailable")
			So(exp.Contributions, ShouldBeEmpty)
		})

		Convey("When explaining an unknown subject", func() {
			_, err := svc.Explanation(ctx, "nobody")
			So(errors.Is(err, service.ErrSubjectNotFound), ShouldBeTrue)
		})
	})
}

func TestServiceReportAndStats(t *testing.T) {
	Convey("Given a loaded service with a report cap of three rows", t, func() {
		ctx := context.Background()
		svc := newLoadedService(t)

		Convey("Then the CSV report is header plus capped rows", func() {
			csvText, rows := svc.ReportCSV(ctx)
			So(rows, ShouldEqual, 3)
			lines := strings.Split(strings.TrimRight(csvText, "\n"), "\n")
			So(lines, ShouldHaveLength, 4)
			So(lines[0], ShouldStartWith, "subject_id,")
			So(lines[1], ShouldStartWith, "s1,")
		})

		Convey("Then stats summarize the loaded population", func() {
			stats := svc.GetStats()
			So(stats["loaded"], ShouldBeTrue)
			So(stats["subjects"], ShouldEqual, 7)
			So(stats["subjectsWithModelIndex"], ShouldEqual, 4)
			So(stats["subjectsWithDerivedIndex"], ShouldEqual, 1)
			So(stats["subjectsWithoutIndex"], ShouldEqual, 2)
			So(stats["alertsTotal"], ShouldEqual, 2)
			So(stats["alertsOpen"], ShouldEqual, 2)
		})
	})

	Convey("Given a service whose score table is absent", t, func() {
		So(logger.Init(), ShouldBeNil)
		dir := t.TempDir()
		qcOnly := `subject_id,n_records,n_days,first_date,last_date,avg_steps,avg_active_minutes
q1,5,3,2026-01-01,2026-01-04,5200,110
q2,8,4,2026-01-02,2026-01-06,900,25
`
		So(os.WriteFile(filepath.Join(dir, "qc_sensor_counts.csv"), []byte(qcOnly), 0o600), ShouldBeNil)

		svc := service.New(service.WithDataDir(dir))
		So(svc.Load(context.Background()), ShouldBeNil)
		ctx := context.Background()

		Convey("Then the engine state derives solely from the QC source", func() {
			So(svc.Roster(ctx), ShouldResemble, []string{"q1", "q2"})

			subj, err := svc.Subject(ctx, "q1")
			So(err, ShouldBeNil)
			So(subj.IndexSource, ShouldEqual, model.IndexSourceQCDerived)
			So(subj.IndependenceIndex, ShouldNotBeNil)

			_, th := svc.Subjects(ctx)
			So(th.Method, ShouldEqual, model.MethodFixed)
		})

		Convey("Then the load-time heuristics still fire from QC data", func() {
			// With two subjects the derived indices land at +-0.707, so q1
			// crosses the fixed high cut and q2's 25 active minutes trip
			// the activity alert.
			alerts := svc.ListAlerts(ctx, "")
			So(alerts, ShouldHaveLength, 2)
			So(alerts[0].SubjectID, ShouldEqual, "q1")
			So(alerts[0].Type, ShouldEqual, model.AlertTypeRiskHigh)
			So(alerts[1].SubjectID, ShouldEqual, "q2")
			So(alerts[1].Type, ShouldEqual, model.AlertTypeLowActivity)
		})
	})

	Convey("Given a service whose sources are all absent", t, func() {
		So(logger.Init(), ShouldBeNil)
		svc := service.New(service.WithDataDir(t.TempDir()))
		So(svc.Load(context.Background()), ShouldBeNil)

		So(svc.Roster(context.Background()), ShouldBeEmpty)
		csvText, rows := svc.ReportCSV(context.Background())
		So(rows, ShouldEqual, 0)
		So(csvText, ShouldBeEmpty)
	})
}
