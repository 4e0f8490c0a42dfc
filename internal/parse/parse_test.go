package parse

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywords(t *testing.T) {
	p := New(false)

	tests := []struct {
		name     string
		response string
		expected []string
	}{
		{
			name:     "numbered list",
			response: "Here are the keywords:\n1. Kubernetes\n2. Go\n3. Terraform",
			expected: []string{"Kubernetes", "Go", "Terraform"},
		},
		{
			name:     "numbered list keeps response order",
			response: "3. Terraform\n1. Kubernetes\n2. Go",
			expected: []string{"Terraform", "Kubernetes", "Go"},
		},
		{
			name:     "numbered list capped at ten",
			response: "1. a\n2. b\n3. c\n4. d\n5. e\n6. f\n7. g\n8. h\n9. i\n10. j\n11. k\n12. l",
			expected: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
		},
		{
			name:     "fallback to plain lines",
			response: "Kubernetes\n\nGo\nTerraform\n",
			expected: []string{"Kubernetes", "Go", "Terraform"},
		},
		{
			name:     "fallback capped at ten",
			response: "a\nb\nc\nd\ne\nf\ng\nh\ni\nj\nk",
			expected: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
		},
		{
			name:     "empty response yields no keywords",
			response: "   \n\n  ",
			expected: nil,
		},
		{
			name:     "markdown fence is stripped",
			response: "```\n1. Kubernetes\n2. Go\n```",
			expected: []string{"Kubernetes", "Go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.Keywords(tt.response))
		})
	}
}

func TestMatch(t *testing.T) {
	p := New(false)

	t.Run("full response", func(t *testing.T) {
		res, err := p.Match("Matching Score: 73%\n\nJustification: Strong overlap on Go and Kubernetes.\n\nMissing Skills: Terraform, AWS, gRPC")
		require.NoError(t, err)
		assert.Equal(t, 73, res.Score)
		assert.Equal(t, "Strong overlap on Go and Kubernetes.", res.Justification)
		assert.Equal(t, []string{"Terraform", "AWS", "gRPC"}, res.MissingSkills)
	})

	t.Run("score marker is case insensitive", func(t *testing.T) {
		res, err := p.Match("some preamble\nMATCHING SCORE: 73%\nmore text")
		require.NoError(t, err)
		assert.Equal(t, 73, res.Score)
	})

	t.Run("missing score fails instead of defaulting to zero", func(t *testing.T) {
		_, err := p.Match("The resume is a decent fit overall.")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoScore)
	})

	t.Run("missing justification is empty not an error", func(t *testing.T) {
		res, err := p.Match("Matching Score: 50%")
		require.NoError(t, err)
		assert.Empty(t, res.Justification)
		assert.Empty(t, res.MissingSkills)
	})

	t.Run("missing skills trimmed per item", func(t *testing.T) {
		res, err := p.Match("Matching Score: 40%\nMissing Skills:  Rust ,  Kafka , ")
		require.NoError(t, err)
		assert.Equal(t, []string{"Rust", "Kafka"}, res.MissingSkills)
	})

	t.Run("justification stops before missing skills line", func(t *testing.T) {
		res, err := p.Match("Matching Score: 60%\nJustification: Good coverage.\nMissing Skills: Rust")
		require.NoError(t, err)
		assert.Equal(t, "Good coverage.", res.Justification)
	})
}

func TestMatchStrictMode(t *testing.T) {
	strict := New(true)
	lenient := New(false)

	_, err := strict.Match("Matching Score: 250%")
	assert.ErrorIs(t, err, ErrScoreOutOfRange)

	res, err := lenient.Match("Matching Score: 250%")
	require.NoError(t, err)
	assert.Equal(t, 250, res.Score)
}

func TestOptimization(t *testing.T) {
	p := New(false)

	t.Run("success", func(t *testing.T) {
		res, err := p.Optimization("Matching Score: 96%\n\nOptimized Resume:\n\nSUMMARY\nSeasoned engineer...")
		require.NoError(t, err)
		assert.Equal(t, 96, res.MatchingScore)
		assert.True(t, strings.HasPrefix(res.OptimizedResume, "SUMMARY"))
	})

	t.Run("missing resume marker surfaces raw text", func(t *testing.T) {
		raw := "Matching Score: 88%\nHere is your new resume without the marker."
		_, err := p.Optimization(raw)
		require.Error(t, err)

		var unparsable *UnparsableOptimization
		require.True(t, errors.As(err, &unparsable))
		assert.Equal(t, raw, unparsable.Raw)
		assert.ErrorIs(t, err, ErrNoOptimizedResume)
	})

	t.Run("missing score surfaces raw text", func(t *testing.T) {
		raw := "Optimized Resume:\nNo score was given."
		_, err := p.Optimization(raw)

		var unparsable *UnparsableOptimization
		require.True(t, errors.As(err, &unparsable))
		assert.Equal(t, raw, unparsable.Raw)
		assert.ErrorIs(t, err, ErrNoScore)
	})
}
