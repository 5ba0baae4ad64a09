package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veronicavalera/gritgirls/internal/photo/domain"
)

const mb = 1024 * 1024

func TestCheck(t *testing.T) {
	v := New(5)

	tests := []struct {
		name   string
		file   domain.LocalFile
		reason domain.RejectReason
	}{
		{"exactly at limit", domain.LocalFile{Name: "a.jpg", SizeBytes: 5 * mb, MimeType: "image/jpeg"}, ""},
		{"one byte over", domain.LocalFile{Name: "b.jpg", SizeBytes: 5*mb + 1, MimeType: "image/jpeg"}, domain.ReasonOversized},
		{"pdf", domain.LocalFile{Name: "c.pdf", SizeBytes: mb, MimeType: "application/pdf"}, domain.ReasonWrongType},
		{"missing type", domain.LocalFile{Name: "d", SizeBytes: mb}, domain.ReasonWrongType},
		{"webp", domain.LocalFile{Name: "e.webp", SizeBytes: mb, MimeType: "image/webp"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Check(tt.file)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			var rej *domain.RejectionError
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, tt.reason, rej.Reason)
			assert.Equal(t, tt.file.Name, rej.Name)
		})
	}
}

func TestPartition_KeepsOrder(t *testing.T) {
	v := New(5)
	files := []domain.LocalFile{
		{Name: "fileA", SizeBytes: 2 * mb, MimeType: "image/png"},
		{Name: "fileB", SizeBytes: 6 * mb, MimeType: "image/png"},
		{Name: "fileC", SizeBytes: 1 * mb, MimeType: "image/png"},
	}

	accepted, rejected := v.Partition(files)
	require.Len(t, accepted, 2)
	assert.Equal(t, "fileA", accepted[0].Name)
	assert.Equal(t, "fileC", accepted[1].Name)
	require.Len(t, rejected, 1)
	assert.Equal(t, "fileB", rejected[0].Name)
}

func TestNew_DefaultsNonPositive(t *testing.T) {
	assert.Equal(t, DefaultMaxMB, New(0).MaxMB())
	assert.Equal(t, int64(DefaultMaxMB*mb), New(-2).MaxBytes())
}
