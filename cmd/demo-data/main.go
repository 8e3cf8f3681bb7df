package main

import (
	"context"
	"flag"
	"os"

	"github.com/okian/carelens/internal/demodata"
	"github.com/okian/carelens/pkg/logger"
)

func main() {
	cfg := demodata.NewConfig()
	flag.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory for the generated CSV files")
	flag.IntVar(&cfg.Subjects, "subjects", cfg.Subjects, "Number of scored subjects to generate")
	flag.Float64Var(&cfg.MissingIndexRatio, "missing", cfg.MissingIndexRatio, "Fraction of subjects without a model index")
	flag.IntVar(&cfg.RosterOnlyCount, "roster-only", cfg.RosterOnlyCount, "Extra IDs that appear only in the raw dump")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	if _, err := demodata.Generate(context.Background(), cfg); err != nil {
		os.Stderr.WriteString("generation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
