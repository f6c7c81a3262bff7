package bulk

import (
	"errors"
	"strings"
	"testing"

	"github.com/regworks/companies-register/internal/domain"
)

func TestParseUploadCSV(t *testing.T) {
	data := `kind,subtype,effectiveDate,value
ADDRESS,REGISTERED,2026-09-01,"{""line1"": ""1 Quay Street"", ""city"": ""Auckland"", ""postCode"": ""1010""}"
SHARE_ALLOCATION,ORDINARY,,"{""totalShares"": 1000, ""parValue"": 1.0}"
COMPANY_NAME,,,"{""name"": ""Harbour Freight Limited""}"
`

	requests, rowErrors, err := ParseUpload("changes.csv", []byte(data), "applicant-001")
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(rowErrors) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrors)
	}
	if len(requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(requests))
	}

	first := requests[0]
	if first.Kind != domain.ChangeKindAddress || first.Subtype != "REGISTERED" {
		t.Fatalf("unexpected first request: %+v", first)
	}
	if first.ProposedValue["city"] != "Auckland" {
		t.Fatalf("proposed value not parsed: %v", first.ProposedValue)
	}
	if first.EffectiveDate.IsZero() {
		t.Fatalf("effective date not parsed")
	}
	if first.RequestedBy != "applicant-001" {
		t.Fatalf("requestedBy not stamped: %q", first.RequestedBy)
	}

	if requests[1].ProposedValue["totalShares"] != float64(1000) {
		t.Fatalf("share count not parsed: %v", requests[1].ProposedValue)
	}
	if requests[2].Kind != domain.ChangeKindCompanyName || requests[2].Subtype != "" {
		t.Fatalf("unexpected name request: %+v", requests[2])
	}
}

func TestParseUploadCollectsRowErrors(t *testing.T) {
	data := `kind,subtype,value
ADDRESS,REGISTERED,"{""line1"": ""ok""}"
ADDRESS,REGISTERED,not-json
ADDRESS,REGISTERED,
`

	requests, rowErrors, err := ParseUpload("changes.csv", []byte(data), "")
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("expected 1 good request, got %d", len(requests))
	}
	if len(rowErrors) != 2 {
		t.Fatalf("expected 2 row errors, got %v", rowErrors)
	}
	for _, rowErr := range rowErrors {
		if !strings.HasPrefix(rowErr, "row ") {
			t.Fatalf("row errors must name the failed row: %q", rowErr)
		}
	}
}

func TestParseUploadNormalizesKindCase(t *testing.T) {
	data := `kind,subtype,value
address,registered,"{""line1"": ""1 Quay Street""}"
`
	requests, _, err := ParseUpload("changes.csv", []byte(data), "")
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if requests[0].Kind != domain.ChangeKindAddress || requests[0].Subtype != "REGISTERED" {
		t.Fatalf("kind/subtype not upper-cased: %+v", requests[0])
	}
}

func TestParseUploadStripsByteOrderMark(t *testing.T) {
	data := "\xEF\xBB\xBFkind,value\nADDRESS,\"{\"\"line1\"\": \"\"x\"\"}\"\n"
	requests, _, err := ParseUpload("changes.csv", []byte(data), "")
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
}

func TestParseUploadRejectsUnknownFormat(t *testing.T) {
	_, _, err := ParseUpload("changes.pdf", []byte("x"), "")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseUploadRequiresColumns(t *testing.T) {
	_, _, err := ParseUpload("changes.csv", []byte("subtype,value\nA,B\n"), "")
	if err == nil || !strings.Contains(err.Error(), "kind") {
		t.Fatalf("expected missing kind column error, got %v", err)
	}

	_, _, err = ParseUpload("changes.csv", []byte("kind,subtype\nA,B\n"), "")
	if err == nil || !strings.Contains(err.Error(), "value") {
		t.Fatalf("expected missing value column error, got %v", err)
	}
}

func TestParseUploadEmptyFile(t *testing.T) {
	if _, _, err := ParseUpload("changes.csv", nil, ""); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}
