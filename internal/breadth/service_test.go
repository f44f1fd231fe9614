package breadth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bidback/backend/internal/contracts"
	"github.com/bidback/backend/pkg/config"
	"github.com/bidback/backend/pkg/redis"
)

// memStore is an in-memory BreadthStore with the same merge semantics as the
// SQL repository: it reuses mergeRecords and ScoreRecord directly.
type memStore struct {
	records map[string]*contracts.RawBreadthRecord
	imports []*contracts.ImportLogEntry
	nextID  int64
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*contracts.RawBreadthRecord)}
}

func (s *memStore) Upsert(_ context.Context, record *contracts.RawBreadthRecord) (int64, error) {
	key := record.DateKey().Format("2006-01-02")
	merged := mergeRecords(s.records[key], record)
	ScoreRecord(merged)
	merged.DataQualityScore = QualityScore(merged)

	if existing := s.records[key]; existing != nil {
		merged.ID = existing.ID
	} else {
		s.nextID++
		merged.ID = s.nextID
	}
	s.records[key] = merged
	return merged.ID, nil
}

func (s *memStore) GetByDate(_ context.Context, date time.Time) (*contracts.RawBreadthRecord, error) {
	rec, ok := s.records[date.Format("2006-01-02")]
	if !ok {
		return nil, nil
	}
	out := *rec
	return &out, nil
}

func (s *memStore) GetRange(_ context.Context, start, end time.Time) ([]*contracts.RawBreadthRecord, error) {
	var out []*contracts.RawBreadthRecord
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if rec, ok := s.records[d.Format("2006-01-02")]; ok {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) LogImport(_ context.Context, entry *contracts.ImportLogEntry) error {
	s.imports = append(s.imports, entry)
	return nil
}

func newTestService(store contracts.BreadthStore) *Service {
	cfg := &config.Config{Env: "development", LogLevel: "error", LogFormat: "json"}
	client, _ := redis.New(cfg) // disabled stub
	return NewService(store, NewFieldMapper(), redis.NewCache(client, "test"), testLogger())
}

func TestSaveBreadthDataValidation(t *testing.T) {
	svc := newTestService(newMemStore())
	ctx := context.Background()

	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	bad := []*contracts.RawBreadthRecord{
		nil,
		{},
		{Date: date, T2108: contracts.FloatPtr(120)},
		{Date: date, T2108: contracts.FloatPtr(-1)},
		{Date: date, StocksUp4PctDaily: contracts.IntPtr(-5)},
		{Date: date, VIX: contracts.FloatPtr(-0.1)},
	}
	for i, rec := range bad {
		if _, err := svc.SaveBreadthData(ctx, rec); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}

	ok := &contracts.RawBreadthRecord{
		Date:                date,
		StocksUp4PctDaily:   contracts.IntPtr(180),
		StocksDown4PctDaily: contracts.IntPtr(120),
		T2108:               contracts.FloatPtr(65.4),
	}
	id, err := svc.SaveBreadthData(ctx, ok)
	if err != nil {
		t.Fatalf("SaveBreadthData: %v", err)
	}
	if id == 0 {
		t.Error("expected a row id")
	}

	saved, err := svc.GetByDate(ctx, date)
	if err != nil || saved == nil {
		t.Fatalf("GetByDate: %v, %v", saved, err)
	}
	if saved.DataSource != contracts.DataSourceManual {
		t.Errorf("DataSource = %s, want manual default", saved.DataSource)
	}
	if saved.BreadthScore == 0 {
		t.Error("derived score not computed")
	}
}

func TestUpsertIdempotence(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	rec := func() *contracts.RawBreadthRecord {
		return &contracts.RawBreadthRecord{
			Date:                time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			StocksUp4PctDaily:   contracts.IntPtr(180),
			StocksDown4PctDaily: contracts.IntPtr(120),
			T2108:               contracts.FloatPtr(65.4),
		}
	}

	id1, err := svc.SaveBreadthData(ctx, rec())
	if err != nil {
		t.Fatal(err)
	}
	id2, err := svc.SaveBreadthData(ctx, rec())
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("same date produced two rows: %d, %d", id1, id2)
	}
	if len(store.records) != 1 {
		t.Errorf("store has %d records, want 1", len(store.records))
	}
}

func TestUpsertMergePreservesStoredValues(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	// First write carries T2108 and VIX.
	_, err := svc.SaveBreadthData(ctx, &contracts.RawBreadthRecord{
		Date:                date,
		StocksUp4PctDaily:   contracts.IntPtr(180),
		StocksDown4PctDaily: contracts.IntPtr(120),
		T2108:               contracts.FloatPtr(65.4),
		VIX:                 contracts.FloatPtr(14.2),
	})
	if err != nil {
		t.Fatal(err)
	}

	// Second write for the same date: new up4, no T2108/VIX, a real zero down4.
	_, err = svc.SaveBreadthData(ctx, &contracts.RawBreadthRecord{
		Date:                date,
		StocksUp4PctDaily:   contracts.IntPtr(200),
		StocksDown4PctDaily: contracts.IntPtr(0),
	})
	if err != nil {
		t.Fatal(err)
	}

	merged, _ := svc.GetByDate(ctx, date)
	if *merged.StocksUp4PctDaily != 200 {
		t.Errorf("up4 = %d, want incoming 200", *merged.StocksUp4PctDaily)
	}
	if *merged.StocksDown4PctDaily != 0 {
		t.Errorf("down4 = %d, want real zero to overwrite", *merged.StocksDown4PctDaily)
	}
	if merged.T2108 == nil || *merged.T2108 != 65.4 {
		t.Errorf("T2108 = %v, incoming nil must not clobber", merged.T2108)
	}
	if merged.VIX == nil || *merged.VIX != 14.2 {
		t.Errorf("VIX = %v, incoming nil must not clobber", merged.VIX)
	}
}

func TestImportFromCSV(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	result, err := svc.ImportFromCSV(ctx, strings.NewReader(stockbeeSample), "sample.csv")
	if err != nil {
		t.Fatalf("ImportFromCSV: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 0 || result.Duplicates != 0 {
		t.Errorf("result = %+v", result)
	}
	if result.DateRangeStart != "2025-01-15" || result.DateRangeEnd != "2025-01-16" {
		t.Errorf("range = %s .. %s", result.DateRangeStart, result.DateRangeEnd)
	}

	// Re-import: everything is a merged duplicate, nothing is lost.
	result, err = svc.ImportFromCSV(ctx, strings.NewReader(stockbeeSample), "sample.csv")
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 2 || result.Duplicates != 2 {
		t.Errorf("reimport result = %+v", result)
	}
	if len(store.records) != 2 {
		t.Errorf("store has %d records, want 2", len(store.records))
	}

	// Both runs were audit-logged.
	if len(store.imports) != 2 {
		t.Fatalf("import log has %d entries, want 2", len(store.imports))
	}
	if store.imports[0].Status != "completed" || store.imports[0].RecordsOK != 2 {
		t.Errorf("log entry = %+v", store.imports[0])
	}
}

func TestImportPartialFailure(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	csvData := `Date,up4%,down4%,T2108
01/15/2025,180,120,65.4
01/16/2025,abc,100,66.0
01/17/2025,210,80,63.1
`
	result, err := svc.ImportFromCSV(context.Background(), strings.NewReader(csvData), "partial.csv")
	if err != nil {
		t.Fatalf("ImportFromCSV: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 1 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v", result.Errors)
	}
	if result.Total() != 3 {
		t.Errorf("Total() = %d, want 3: a skipped row must not be counted twice", result.Total())
	}
	if len(store.records) != 2 {
		t.Errorf("good rows must commit despite the bad one")
	}

	// The audit entry carries the same single-counted totals.
	if len(store.imports) != 1 {
		t.Fatalf("import log has %d entries, want 1", len(store.imports))
	}
	entry := store.imports[0]
	if entry.RecordsTotal != 3 || entry.RecordsOK != 2 || entry.RecordsFailed != 1 {
		t.Errorf("log entry totals = %d/%d/%d, want 3/2/1",
			entry.RecordsTotal, entry.RecordsOK, entry.RecordsFailed)
	}
}

func TestGetLatestRespectsLookback(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	old := midnight(time.Now().UTC().AddDate(0, 0, -60))
	_, err := svc.SaveBreadthData(ctx, &contracts.RawBreadthRecord{
		Date:                old,
		StocksUp4PctDaily:   contracts.IntPtr(180),
		StocksDown4PctDaily: contracts.IntPtr(120),
	})
	if err != nil {
		t.Fatal(err)
	}

	// A 30-day window must not surface a 60-day-old record.
	rec, err := svc.GetLatest(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Errorf("GetLatest(30) = %s, want nil outside the window", rec.DateKey())
	}

	// A wide enough window finds it.
	rec, err = svc.GetLatest(ctx, 90)
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || !rec.DateKey().Equal(old) {
		t.Errorf("GetLatest(90) = %v, want the stored record", rec)
	}

	// A newer record wins inside any window that contains both.
	recent := midnight(time.Now().UTC().AddDate(0, 0, -5))
	_, err = svc.SaveBreadthData(ctx, &contracts.RawBreadthRecord{
		Date:                recent,
		StocksUp4PctDaily:   contracts.IntPtr(200),
		StocksDown4PctDaily: contracts.IntPtr(90),
	})
	if err != nil {
		t.Fatal(err)
	}
	rec, err = svc.GetLatest(ctx, 90)
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || !rec.DateKey().Equal(recent) {
		t.Errorf("GetLatest(90) = %v, want the most recent record", rec)
	}
}

func TestDataQualityReport(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.ImportFromCSV(ctx, strings.NewReader(stockbeeSample), "sample.csv")
	if err != nil {
		t.Fatal(err)
	}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	report, err := svc.DataQualityReport(ctx, start, end)
	if err != nil {
		t.Fatal(err)
	}
	if report.Records != 2 {
		t.Errorf("Records = %d", report.Records)
	}
	if report.MissingVIX != 2 {
		t.Errorf("MissingVIX = %d, the sample has no vix column", report.MissingVIX)
	}
	if report.MissingT2108 != 0 || report.NoPrimary != 0 {
		t.Errorf("report = %+v", report)
	}
	if report.AvgQuality <= 0 || report.AvgQuality > 1 {
		t.Errorf("AvgQuality = %v", report.AvgQuality)
	}
}
