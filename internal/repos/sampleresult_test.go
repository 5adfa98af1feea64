package repos

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniciosgnr/MMT/internal/db/testdb"
	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/types"
)

func newResultRepoFixture(t *testing.T) (*gorm.DB, SampleResultRepo) {
	t.Helper()
	db := testdb.Open(t)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return db, NewSampleResultRepo(db, log)
}

func seedPointWithResults(t *testing.T, db *gorm.DB, n int) (uuid.UUID, []uuid.UUID) {
	t.Helper()
	point := &types.SamplePoint{
		ID:             uuid.New(),
		TagNumber:      "662-AP-2233",
		FPSOName:       "Sepetiba",
		AnalysisType:   "PVT",
		Classification: "Apropriation",
		Local:          "Onshore",
	}
	if err := db.Create(point).Error; err != nil {
		t.Fatalf("seed point: %v", err)
	}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sampleIDs := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		sample := &types.Sample{
			ID:            uuid.New(),
			SampleID:      fmt.Sprintf("AM-2025-%03d", i),
			Status:        types.PhaseReportUnderValidation,
			SamplePointID: point.ID,
		}
		if err := db.Create(sample).Error; err != nil {
			t.Fatalf("seed sample: %v", err)
		}
		result := &types.SampleResult{
			ID:        uuid.New(),
			SampleID:  sample.ID,
			Parameter: "density",
			Value:     float64(i + 1),
			Status:    types.CheckPass,
			CreatedAt: base.AddDate(0, 0, i),
		}
		if err := db.Create(result).Error; err != nil {
			t.Fatalf("seed result: %v", err)
		}
		sampleIDs = append(sampleIDs, sample.ID)
	}
	return point.ID, sampleIDs
}

func TestGetParameterHistory_NewestFirstWithLimit(t *testing.T) {
	db, repo := newResultRepoFixture(t)
	pointID, _ := seedPointWithResults(t, db, 12)

	rows, err := repo.GetParameterHistory(context.Background(), nil, pointID, "density", uuid.Nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(rows))
	}
	for i, row := range rows {
		want := float64(12 - i)
		if row.Value != want {
			t.Fatalf("row %d: expected %v, got %v", i, want, row.Value)
		}
	}
}

func TestGetParameterHistory_ExcludesGivenSample(t *testing.T) {
	db, repo := newResultRepoFixture(t)
	pointID, sampleIDs := seedPointWithResults(t, db, 5)

	// Excluding the newest sample removes its reading from the window.
	rows, err := repo.GetParameterHistory(context.Background(), nil, pointID, "density", sampleIDs[4], 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0].Value != 4 {
		t.Fatalf("expected newest remaining value 4, got %v", rows[0].Value)
	}
}

func TestGetParameterHistory_FiltersByParameter(t *testing.T) {
	db, repo := newResultRepoFixture(t)
	pointID, _ := seedPointWithResults(t, db, 3)

	rows, err := repo.GetParameterHistory(context.Background(), nil, pointID, "rs", uuid.Nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows for unseen parameter, got %d", len(rows))
	}
}

func TestReplaceForSample_FailureKeepsPriorResultSet(t *testing.T) {
	db, repo := newResultRepoFixture(t)
	_, sampleIDs := seedPointWithResults(t, db, 1)
	sampleID := sampleIDs[0]

	dupID := uuid.New()
	bad := []*types.SampleResult{
		{ID: dupID, SampleID: sampleID, Parameter: "density", Value: 1, Status: types.CheckPass, CreatedAt: time.Now()},
		{ID: dupID, SampleID: sampleID, Parameter: "rs", Value: 2, Status: types.CheckPass, CreatedAt: time.Now()},
	}
	if err := repo.ReplaceForSample(context.Background(), nil, sampleID, bad); err == nil {
		t.Fatalf("expected constraint violation")
	}

	rows, err := repo.ListBySample(context.Background(), nil, sampleID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(rows) != 1 || rows[0].Value != 1 {
		t.Fatalf("prior result set must survive a failed replacement, got %d rows", len(rows))
	}
}

func TestReplaceForSample_SwapsResultSet(t *testing.T) {
	db, repo := newResultRepoFixture(t)
	_, sampleIDs := seedPointWithResults(t, db, 1)
	sampleID := sampleIDs[0]

	replacement := []*types.SampleResult{
		{ID: uuid.New(), SampleID: sampleID, Parameter: "density", Value: 10, Status: types.CheckPass, CreatedAt: time.Now()},
		{ID: uuid.New(), SampleID: sampleID, Parameter: "rs", Value: 20, Status: types.CheckFail, CreatedAt: time.Now()},
	}
	if err := repo.ReplaceForSample(context.Background(), nil, sampleID, replacement); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, err := repo.ListBySample(context.Background(), nil, sampleID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after swap, got %d", len(rows))
	}
}
