package rating_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/curator/internal/fault"
	"github.com/JaimeStill/curator/internal/rating"
)

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr error
	}{
		{
			"valid with correlation id",
			`{"id":"c-1","document_a":"20080101-001","document_b":"20080102-001","winner":"A","confidence":"High","context":"tone"}`,
			nil,
		},
		{
			"valid without id",
			`{"document_a":"20080101-001","document_b":"20080102-001","winner":"Draw","confidence":"Low"}`,
			nil,
		},
		{"malformed", `{"document_a":`, rating.ErrInvalidRecord},
		{"missing document", `{"document_a":"20080101-001","winner":"A","confidence":"High"}`, rating.ErrInvalidRecord},
		{"bad winner", `{"document_a":"a","document_b":"b","winner":"C","confidence":"High"}`, rating.ErrInvalidWinner},
		{"bad confidence", `{"document_a":"a","document_b":"b","winner":"B","confidence":"Sure"}`, rating.ErrInvalidConfidence},
		{"self comparison", `{"document_a":"a","document_b":"a","winner":"A","confidence":"High"}`, rating.ErrSelfComparison},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := rating.DecodeRecord([]byte(tt.line))

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				if !errors.Is(err, fault.ErrValidation) {
					t.Errorf("record errors should be validation errors: %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.DocumentA != "20080101-001" {
				t.Errorf("DocumentA = %q", cmd.DocumentA)
			}
		})
	}
}

func TestDecodeRecordCorrelationID(t *testing.T) {
	cmd, err := rating.DecodeRecord([]byte(
		`{"id":"c-9","document_a":"20080101-001","document_b":"20080102-001","winner":"B","confidence":"Medium"}`,
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.CorrelationID == nil || *cmd.CorrelationID != "c-9" {
		t.Errorf("CorrelationID = %v, want c-9", cmd.CorrelationID)
	}
}
