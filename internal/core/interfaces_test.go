// Package core_test tests the shared conversion envelope.
package core_test

import (
	"encoding/json"
	"testing"

	"github.com/book-expert/storypipe/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionResult_MarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		result   core.ConversionResult
		expected string
	}{
		{
			name:     "success without cover",
			result:   core.ConversionResult{Success: true, OutputPath: "/out/pdf_result.md", TextLength: 0},
			expected: `{"success":true,"output_path":"/out/pdf_result.md","text_length":0,"cover_filename":""}`,
		},
		{
			name:     "success with cover",
			result:   core.ConversionResult{Success: true, OutputPath: "/out/pdf_result.md", TextLength: 412, CoverFilename: "cover.png"},
			expected: `{"success":true,"output_path":"/out/pdf_result.md","text_length":412,"cover_filename":"cover.png"}`,
		},
		{
			name:     "failure",
			result:   core.Failed("PDF validation failed"),
			expected: `{"success":false,"error":"PDF validation failed"}`,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(testCase.result)
			require.NoError(t, err)
			assert.JSONEq(t, testCase.expected, string(data))
		})
	}
}
