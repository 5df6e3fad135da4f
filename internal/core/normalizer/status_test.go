package normalizer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/pkg/metrics"
)

func TestMapCode_Table(t *testing.T) {
	want := map[domain.ParcelStatus][]string{
		domain.StatusPendingDispatch:      {"100", "101", "102", "103", "700"},
		domain.StatusInTransit:            {"200", "201", "202", "203", "204", "205", "206", "207", "300"},
		domain.StatusArrivedAtDestination: {"304"},
		domain.StatusDelivered:            {"301", "302", "402"},
		domain.StatusReturned:             {"303", "400", "401", "600", "601", "602"},
		domain.StatusCustomsInspection:    {"500", "501"},
	}

	total := 0
	for status, codes := range want {
		for _, code := range codes {
			total++
			if got := MapCode(code); got != status {
				t.Errorf("MapCode(%q) = %q, want %q", code, got, status)
			}
		}
	}
	if len(Codes()) != total {
		t.Errorf("table has %d codes, want %d", len(Codes()), total)
	}
}

func TestMapCode_UnknownCodes(t *testing.T) {
	for _, code := range []string{"", "0", "104", "305", "999", "abc", "3O1", "DELIVERY"} {
		if got := MapCode(code); got != domain.StatusUnknown {
			t.Errorf("MapCode(%q) = %q, want unknown", code, got)
		}
	}
}

func TestMapCode_TrimsWhitespace(t *testing.T) {
	if got := MapCode(" 301\n"); got != domain.StatusDelivered {
		t.Errorf("expected delivered, got %q", got)
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe("103"); got != "DEPOSIT" {
		t.Errorf("Describe(103) = %q", got)
	}
	if got := Describe("999"); got != "" {
		t.Errorf("Describe(999) = %q, want empty", got)
	}
}

func TestCodes_SortedByCode(t *testing.T) {
	codes := Codes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1].Code >= codes[i].Code {
			t.Fatalf("codes not sorted at %d: %s >= %s", i, codes[i-1].Code, codes[i].Code)
		}
	}
}

func TestStatusFor_UnmappedIsObserved(t *testing.T) {
	var buf bytes.Buffer
	n := New(zerolog.New(&buf), nil)
	counter := metrics.UnmappedStatusCodesTotal.WithLabelValues("888")
	before := testutil.ToFloat64(counter)

	if got := n.StatusFor("888"); got != domain.StatusUnknown {
		t.Fatalf("expected unknown, got %q", got)
	}
	if after := testutil.ToFloat64(counter); after != before+1 {
		t.Errorf("expected unmapped counter to increase by 1, got %v -> %v", before, after)
	}
	if !strings.Contains(buf.String(), `"code":"888"`) {
		t.Errorf("expected code in warning log, got: %s", buf.String())
	}
}

func TestStatusFor_MappedIsSilent(t *testing.T) {
	var buf bytes.Buffer
	n := New(zerolog.New(&buf), nil)

	if got := n.StatusFor("500"); got != domain.StatusCustomsInspection {
		t.Fatalf("expected customs_inspection, got %q", got)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected log output: %s", buf.String())
	}
}

func TestMostRecentStatus_Empty(t *testing.T) {
	n := New(zerolog.Nop(), nil)
	if got := n.MostRecentStatus(nil); got != domain.StatusUnknown {
		t.Errorf("expected unknown, got %q", got)
	}
	if got := n.MostRecentStatus([]domain.CarrierEvent{}); got != domain.StatusUnknown {
		t.Errorf("expected unknown, got %q", got)
	}
}

func TestMostRecentStatus_OutOfOrderInput(t *testing.T) {
	n := New(zerolog.Nop(), nil)
	events := []domain.CarrierEvent{
		{Status: "201", StatusDate: "21/07/2568 08:00:00+07:00"},
		{Status: "301", StatusDate: "23/07/2568 14:30:00+07:00"},
		{Status: "103", StatusDate: "20/07/2568 10:00:00+07:00"},
		{Status: "207", StatusDate: "22/07/2568 22:10:00+07:00"},
	}

	if got := n.MostRecentStatus(events); got != domain.StatusDelivered {
		t.Errorf("expected delivered, got %q", got)
	}
}

func TestMostRecentStatus_ComparesInstantsAcrossOffsets(t *testing.T) {
	n := New(zerolog.Nop(), nil)
	// 10:00+07:00 is 03:00Z; 05:00+00:00 is later despite the smaller clock reading.
	events := []domain.CarrierEvent{
		{Status: "201", StatusDate: "20/07/2568 10:00:00+07:00"},
		{Status: "500", StatusDate: "20/07/2568 05:00:00+00:00"},
	}

	if got := n.MostRecentStatus(events); got != domain.StatusCustomsInspection {
		t.Errorf("expected customs_inspection, got %q", got)
	}
}

func TestMostRecentStatus_TiesKeepInputOrder(t *testing.T) {
	n := New(zerolog.Nop(), nil)
	events := []domain.CarrierEvent{
		{Status: "103", StatusDate: "20/07/2568 10:00:00+07:00"},
		{Status: "304", StatusDate: "21/07/2568 09:00:00+07:00"},
		{Status: "301", StatusDate: "21/07/2568 09:00:00+07:00"},
	}

	if got := n.MostRecentStatus(events); got != domain.StatusArrivedAtDestination {
		t.Errorf("expected arrived_at_destination (first of tied events), got %q", got)
	}
}

func TestMostRecentStatus_UnparseableDateCountsAsNow(t *testing.T) {
	n := New(zerolog.Nop(), func() time.Time { return fixedNow })
	events := []domain.CarrierEvent{
		{Status: "301", StatusDate: "21/07/2568 09:00:00+07:00"},
		{Status: "600", StatusDate: "garbled"},
	}

	if got := n.MostRecentStatus(events); got != domain.StatusReturned {
		t.Errorf("expected returned, got %q", got)
	}
}

func TestTransformEvents_PreservesOrderAndFallbacks(t *testing.T) {
	n := New(zerolog.Nop(), nil)
	events := []domain.CarrierEvent{
		{Status: "301", StatusDate: "21/07/2568 09:00:00+07:00", StatusDetail: "Bangkok GPO", Location: "10501", StatusDescription: "DELIVERY"},
		{Status: "103", StatusDate: "20/07/2568 10:00:00+07:00", Location: "10240"},
		{Status: "999", StatusDate: "19/07/2568 07:00:00+07:00"},
	}

	got := n.TransformEvents(events)

	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if ts := got[0].Timestamp.Format(time.RFC3339); ts != "2025-07-21T09:00:00+07:00" {
		t.Errorf("events reordered or misconverted: first timestamp %s", ts)
	}
	if got[0].Location != "Bangkok GPO" || got[0].Message != "DELIVERY" {
		t.Errorf("unexpected first event: %+v", got[0])
	}
	if got[1].Location != "10240" || got[1].Message != "Status update" {
		t.Errorf("expected location fallback and default message, got %+v", got[1])
	}
	if got[2].Location != "Unknown" {
		t.Errorf("expected literal Unknown location, got %q", got[2].Location)
	}
}

func TestTransformEvents_Empty(t *testing.T) {
	n := New(zerolog.Nop(), nil)
	got := n.TransformEvents(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}
