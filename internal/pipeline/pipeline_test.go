package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tborer/resume-helper/internal/keys"
	"github.com/tborer/resume-helper/internal/parse"
	"github.com/tborer/resume-helper/internal/store"
	"github.com/tborer/resume-helper/internal/usage"
	"github.com/tborer/resume-helper/pkg/types"
)

// fakeGen dispatches on the task each prompt belongs to, so concurrent
// calls from Analyze get the right response regardless of ordering.
type fakeGen struct {
	mu        sync.Mutex
	prompts   []string
	keywords  string
	match     string
	optimize  string
	escalate  string
	failTasks map[string]error
}

func (g *fakeGen) Generate(_ context.Context, apiKey, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	task := taskOf(prompt)
	if err, ok := g.failTasks[task]; ok {
		return "", err
	}
	switch task {
	case "keywords":
		return g.keywords, nil
	case "match":
		return g.match, nil
	case "escalate":
		return g.escalate, nil
	default:
		return g.optimize, nil
	}
}

func taskOf(prompt string) string {
	switch {
	case strings.Contains(prompt, "numbered list"):
		return "keywords"
	case strings.Contains(prompt, "previous optimization pass"):
		return "escalate"
	case strings.Contains(prompt, "resume optimization"):
		return "optimize"
	default:
		return "match"
	}
}

func (g *fakeGen) calls(task string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, p := range g.prompts {
		if taskOf(p) == task {
			n++
		}
	}
	return n
}

// fakeBackend stands in for the store behind the resolver, the meter and
// the user directory.
type fakeBackend struct {
	users       map[string]*store.User
	personal    map[string]string
	counts      map[uuid.UUID]int
	incrementsN int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users:    make(map[string]*store.User),
		personal: make(map[string]string),
		counts:   make(map[uuid.UUID]int),
	}
}

func (b *fakeBackend) addUser(email string, active bool) *store.User {
	u := &store.User{ID: uuid.New(), Email: email, IsActive: active}
	b.users[email] = u
	return u
}

func (b *fakeBackend) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	u, ok := b.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (b *fakeBackend) PersonalKey(_ context.Context, email string) (string, error) {
	key, ok := b.personal[email]
	if !ok {
		return "", store.ErrNotFound
	}
	return key, nil
}

func (b *fakeBackend) IncrementUsageIfBelow(_ context.Context, userID uuid.UUID, limit int) (int, bool, error) {
	b.incrementsN++
	if b.counts[userID] >= limit {
		return 0, false, nil
	}
	b.counts[userID]++
	return b.counts[userID], true, nil
}

func (b *fakeBackend) TodayUsage(_ context.Context, userID uuid.UUID) (int, error) {
	return b.counts[userID], nil
}

func newPipeline(gen *fakeGen, backend *fakeBackend, sharedKey string, limit, target int) *Pipeline {
	return New(
		gen,
		keys.NewResolver(backend, sharedKey),
		usage.NewMeter(backend, limit),
		backend,
		parse.New(false),
		target,
	)
}

const optimizedBody = "Optimized Resume:\n\nSUMMARY\nSeasoned Go engineer."

func TestOptimizeEscalation(t *testing.T) {
	ctx := context.Background()
	req := types.AnalysisRequest{
		JobDescription: "Go engineer role",
		ResumeText:     "My resume",
		APIKey:         "AIexplicit",
	}

	t.Run("score at target skips the second pass", func(t *testing.T) {
		gen := &fakeGen{optimize: "Matching Score: 96%\n\n" + optimizedBody}
		p := newPipeline(gen, newFakeBackend(), "", 10, 95)

		res, err := p.Optimize(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 96, res.MatchingScore)
		assert.Equal(t, 0, gen.calls("escalate"))
	})

	t.Run("score below target runs exactly one escalation", func(t *testing.T) {
		gen := &fakeGen{
			optimize: "Matching Score: 80%\n\n" + optimizedBody,
			escalate: "Matching Score: 90%\n\nOptimized Resume:\n\nSUMMARY\nDenser keywords.",
		}
		p := newPipeline(gen, newFakeBackend(), "", 10, 95)

		res, err := p.Optimize(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 90, res.MatchingScore)
		assert.Equal(t, "SUMMARY\nDenser keywords.", res.OptimizedResume)
		assert.Equal(t, 1, gen.calls("optimize"))
		assert.Equal(t, 1, gen.calls("escalate"))

		// the escalation prompt carries the first pass back in
		assert.Contains(t, gen.prompts[1], "Seasoned Go engineer.")
		assert.Contains(t, gen.prompts[1], "80%")
	})

	t.Run("failed escalation keeps the first pass", func(t *testing.T) {
		gen := &fakeGen{
			optimize:  "Matching Score: 80%\n\n" + optimizedBody,
			failTasks: map[string]error{"escalate": errors.New("rate limited")},
		}
		p := newPipeline(gen, newFakeBackend(), "", 10, 95)

		res, err := p.Optimize(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 80, res.MatchingScore)
	})

	t.Run("unparsable escalation keeps the first pass", func(t *testing.T) {
		gen := &fakeGen{
			optimize: "Matching Score: 80%\n\n" + optimizedBody,
			escalate: "I made it better but forgot the format.",
		}
		p := newPipeline(gen, newFakeBackend(), "", 10, 95)

		res, err := p.Optimize(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 80, res.MatchingScore)
		assert.Equal(t, "SUMMARY\nSeasoned Go engineer.", res.OptimizedResume)
	})

	t.Run("unparsable first pass surfaces the raw response", func(t *testing.T) {
		gen := &fakeGen{optimize: "No markers at all."}
		p := newPipeline(gen, newFakeBackend(), "", 10, 95)

		_, err := p.Optimize(ctx, req)
		var unparsable *parse.UnparsableOptimization
		require.True(t, errors.As(err, &unparsable))
		assert.Equal(t, "No markers at all.", unparsable.Raw)
	})

	t.Run("both passes consume a single quota unit", func(t *testing.T) {
		backend := newFakeBackend()
		user := backend.addUser("alice@example.com", true)
		gen := &fakeGen{
			optimize: "Matching Score: 80%\n\n" + optimizedBody,
			escalate: "Matching Score: 97%\n\n" + optimizedBody,
		}
		p := newPipeline(gen, backend, "AIshared", 10, 95)

		_, err := p.Optimize(ctx, types.AnalysisRequest{
			JobDescription: "Go engineer role",
			ResumeText:     "My resume",
			UserEmail:      "alice@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, backend.counts[user.ID])
	})
}

func TestAnalyzeTaskIsolation(t *testing.T) {
	ctx := context.Background()
	req := types.AnalysisRequest{
		JobDescription: "Go engineer role",
		ResumeText:     "My resume",
		APIKey:         "AIexplicit",
	}

	t.Run("both tasks succeed", func(t *testing.T) {
		gen := &fakeGen{
			keywords: "1. Go\n2. Kubernetes",
			match:    "Matching Score: 73%\nJustification: Solid.\nMissing Skills: Terraform",
		}
		p := newPipeline(gen, newFakeBackend(), "", 10, 95)

		res, err := p.Analyze(ctx, req)
		require.NoError(t, err)
		require.NotNil(t, res.Keywords)
		require.NotNil(t, res.Match)
		assert.Equal(t, []string{"Go", "Kubernetes"}, res.Keywords.Keywords)
		assert.Equal(t, 73, res.Match.Score)
		assert.Empty(t, res.KeywordsError)
		assert.Empty(t, res.MatchError)
	})

	t.Run("keyword failure does not sink the match", func(t *testing.T) {
		gen := &fakeGen{
			match:     "Matching Score: 73%",
			failTasks: map[string]error{"keywords": errors.New("rate limited")},
		}
		p := newPipeline(gen, newFakeBackend(), "", 10, 95)

		res, err := p.Analyze(ctx, req)
		require.NoError(t, err)
		assert.Nil(t, res.Keywords)
		assert.Contains(t, res.KeywordsError, "rate limited")
		require.NotNil(t, res.Match)
		assert.Equal(t, 73, res.Match.Score)
	})

	t.Run("unparsable match does not sink the keywords", func(t *testing.T) {
		gen := &fakeGen{
			keywords: "1. Go",
			match:    "a response with no score line",
		}
		p := newPipeline(gen, newFakeBackend(), "", 10, 95)

		res, err := p.Analyze(ctx, req)
		require.NoError(t, err)
		require.NotNil(t, res.Keywords)
		assert.Nil(t, res.Match)
		assert.NotEmpty(t, res.MatchError)
	})
}

func TestReserve(t *testing.T) {
	ctx := context.Background()

	baseReq := types.AnalysisRequest{
		JobDescription: "Go engineer role",
		ResumeText:     "My resume",
	}

	t.Run("shared key requires a registered user", func(t *testing.T) {
		gen := &fakeGen{keywords: "1. Go"}
		p := newPipeline(gen, newFakeBackend(), "AIshared", 10, 95)

		req := baseReq
		_, err := p.ExtractKeywords(ctx, req)
		assert.ErrorIs(t, err, ErrUserRequired)

		req.UserEmail = "stranger@example.com"
		_, err = p.ExtractKeywords(ctx, req)
		assert.ErrorIs(t, err, ErrUserRequired)
	})

	t.Run("deactivated user is rejected", func(t *testing.T) {
		backend := newFakeBackend()
		backend.addUser("alice@example.com", false)
		p := newPipeline(&fakeGen{keywords: "1. Go"}, backend, "AIshared", 10, 95)

		req := baseReq
		req.UserEmail = "alice@example.com"
		_, err := p.ExtractKeywords(ctx, req)
		assert.ErrorIs(t, err, ErrUserInactive)
	})

	t.Run("over limit fails before the model is called", func(t *testing.T) {
		backend := newFakeBackend()
		user := backend.addUser("alice@example.com", true)
		backend.counts[user.ID] = 10
		gen := &fakeGen{keywords: "1. Go"}
		p := newPipeline(gen, backend, "AIshared", 10, 95)

		req := baseReq
		req.UserEmail = "alice@example.com"
		_, err := p.ExtractKeywords(ctx, req)

		var limitErr *usage.LimitError
		require.True(t, errors.As(err, &limitErr))
		assert.Empty(t, gen.prompts)
	})

	t.Run("personal key bypasses the meter", func(t *testing.T) {
		backend := newFakeBackend()
		backend.addUser("alice@example.com", true)
		backend.personal["alice@example.com"] = "AIpersonal"
		p := newPipeline(&fakeGen{keywords: "1. Go"}, backend, "AIshared", 10, 95)

		req := baseReq
		req.UserEmail = "alice@example.com"
		_, err := p.ExtractKeywords(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 0, backend.incrementsN)
	})

	t.Run("no credential at all", func(t *testing.T) {
		p := newPipeline(&fakeGen{}, newFakeBackend(), "", 10, 95)
		req := baseReq
		req.UserEmail = "alice@example.com"
		_, err := p.ExtractKeywords(ctx, req)
		assert.ErrorIs(t, err, keys.ErrNoCredential)
	})
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(&fakeGen{}, newFakeBackend(), "AIshared", 10, 95)

	_, err := p.ExtractKeywords(ctx, types.AnalysisRequest{})
	assert.ErrorIs(t, err, ErrMissingJobDescription)

	_, err = p.ScoreMatch(ctx, types.AnalysisRequest{JobDescription: "jd"})
	assert.ErrorIs(t, err, ErrMissingResume)

	_, err = p.Optimize(ctx, types.AnalysisRequest{ResumeText: "resume"})
	assert.ErrorIs(t, err, ErrMissingJobDescription)

	_, err = p.Analyze(ctx, types.AnalysisRequest{JobDescription: "jd"})
	assert.ErrorIs(t, err, ErrMissingResume)
}

func TestRemaining(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	user := backend.addUser("alice@example.com", true)
	backend.counts[user.ID] = 4
	p := newPipeline(&fakeGen{}, backend, "AIshared", 10, 95)

	status, err := p.Remaining(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 6, status.Remaining)
	assert.Equal(t, 10, status.Total)

	_, err = p.Remaining(ctx, "stranger@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
