package validate

import (
	"strings"
	"testing"
)

func TestCheckUpload(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  string
	}{
		{
			name:     "pdf accepted",
			filename: "report.pdf",
			size:     1024,
		},
		{
			name:     "docx accepted",
			filename: "contract.docx",
			size:     1,
		},
		{
			name:     "txt accepted",
			filename: "notes.txt",
			size:     MaxFileSizeBytes,
		},
		{
			name:     "extension is case-insensitive",
			filename: "REPORT.PDF",
			size:     1024,
		},
		{
			name:     "unsupported extension",
			filename: "image.png",
			size:     1024,
			wantErr:  "Unsupported file type. Supported: .pdf, .docx, .txt",
		},
		{
			name:     "no extension",
			filename: "README",
			size:     1024,
			wantErr:  "Unsupported file type. Supported: .pdf, .docx, .txt",
		},
		{
			name:     "empty file",
			filename: "report.pdf",
			size:     0,
			wantErr:  "File is empty",
		},
		{
			name:     "oversized file",
			filename: "report.pdf",
			size:     MaxFileSizeBytes + 1,
			wantErr:  "File too large. Maximum size: 10MB",
		},
		{
			name:     "bad extension wins over empty size",
			filename: "image.png",
			size:     0,
			wantErr:  "Unsupported file type. Supported: .pdf, .docx, .txt",
		},
		{
			name:     "negative size is empty",
			filename: "report.pdf",
			size:     -1,
			wantErr:  "File is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckUpload(tt.filename, tt.size)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("CheckUpload(%q, %d) = %v, want nil", tt.filename, tt.size, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("CheckUpload(%q, %d) = nil, want error %q", tt.filename, tt.size, tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("CheckUpload() error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCheckTextLength(t *testing.T) {
	if err := CheckTextLength(MinTextChars); err != nil {
		t.Errorf("CheckTextLength(%d) = %v, want nil", MinTextChars, err)
	}
	err := CheckTextLength(MinTextChars - 1)
	if err == nil {
		t.Fatal("CheckTextLength below minimum returned nil")
	}
	want := "Insufficient text extracted (49 chars). Minimum 50 characters required."
	if err.Error() != want {
		t.Errorf("CheckTextLength() error = %q, want %q", err.Error(), want)
	}
}

func TestCheckDocumentText(t *testing.T) {
	tests := []struct {
		name    string
		chars   int
		wantErr bool
		substr  string
	}{
		{name: "at minimum", chars: MinTextChars},
		{name: "at maximum", chars: MaxAnalyzeChars},
		{name: "too short", chars: MinTextChars - 1, wantErr: true, substr: "too short"},
		{name: "too long", chars: MaxAnalyzeChars + 1, wantErr: true, substr: "too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDocumentText(tt.chars)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckDocumentText(%d) error = %v, wantErr %v", tt.chars, err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("CheckDocumentText() error = %q, want substring %q", err.Error(), tt.substr)
			}
		})
	}
}
