// Package pipeline wires the analysis tasks together: resolve a
// credential, reserve quota when the shared key is used, build the task
// prompt, call the model, parse the markers back out.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tborer/resume-helper/internal/cleaner"
	"github.com/tborer/resume-helper/internal/keys"
	"github.com/tborer/resume-helper/internal/parse"
	"github.com/tborer/resume-helper/internal/prompt"
	"github.com/tborer/resume-helper/internal/store"
	"github.com/tborer/resume-helper/internal/usage"
	"github.com/tborer/resume-helper/pkg/types"
)

var (
	ErrMissingJobDescription = errors.New("job description is required")
	ErrMissingResume         = errors.New("resume is required")
	// ErrUserRequired is returned when the shared key would be used but
	// the request names no known user to meter it against.
	ErrUserRequired = errors.New("a registered user email is required to use the shared API key")
	ErrUserInactive = errors.New("this account has been deactivated")
)

// Generator is the AI gateway surface the pipeline needs.
type Generator interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}

// UserDirectory resolves emails to stored users for quota accounting.
type UserDirectory interface {
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
}

type Pipeline struct {
	gen         Generator
	resolver    *keys.Resolver
	meter       *usage.Meter
	users       UserDirectory
	parser      *parse.Parser
	clean       *cleaner.Cleaner
	targetScore int
	log         *slog.Logger
}

func New(gen Generator, resolver *keys.Resolver, meter *usage.Meter, users UserDirectory, parser *parse.Parser, targetScore int) *Pipeline {
	return &Pipeline{
		gen:         gen,
		resolver:    resolver,
		meter:       meter,
		users:       users,
		parser:      parser,
		clean:       cleaner.New(),
		targetScore: targetScore,
		log:         slog.With("component", "pipeline"),
	}
}

// ExtractKeywords pulls the top keywords out of a job description.
func (p *Pipeline) ExtractKeywords(ctx context.Context, req types.AnalysisRequest) (*types.KeywordResult, error) {
	if req.JobDescription == "" {
		return nil, ErrMissingJobDescription
	}
	cred, err := p.reserve(ctx, req)
	if err != nil {
		return nil, err
	}

	jobDesc := p.clean.CleanJobDescription(req.JobDescription)
	text, err := p.gen.Generate(ctx, cred.Key, prompt.Keywords(jobDesc))
	if err != nil {
		return nil, err
	}
	return &types.KeywordResult{Keywords: p.parser.Keywords(text)}, nil
}

// ScoreMatch scores how well the resume fits the job description.
func (p *Pipeline) ScoreMatch(ctx context.Context, req types.AnalysisRequest) (*types.MatchResult, error) {
	if err := validateBoth(req); err != nil {
		return nil, err
	}
	cred, err := p.reserve(ctx, req)
	if err != nil {
		return nil, err
	}

	jobDesc := p.clean.CleanJobDescription(req.JobDescription)
	text, err := p.gen.Generate(ctx, cred.Key, prompt.Match(jobDesc, req.ResumeText))
	if err != nil {
		return nil, err
	}
	return p.parser.Match(text)
}

// Analyze runs keyword extraction and match scoring concurrently. The two
// tasks fail independently; both outcomes are always reported.
func (p *Pipeline) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error) {
	if err := validateBoth(req); err != nil {
		return nil, err
	}

	type kwOut struct {
		res *types.KeywordResult
		err error
	}
	type matchOut struct {
		res *types.MatchResult
		err error
	}
	kwCh := make(chan kwOut, 1)
	matchCh := make(chan matchOut, 1)

	go func() {
		res, err := p.ExtractKeywords(ctx, req)
		kwCh <- kwOut{res, err}
	}()
	go func() {
		res, err := p.ScoreMatch(ctx, req)
		matchCh <- matchOut{res, err}
	}()

	result := &types.AnalysisResult{}
	kw := <-kwCh
	if kw.err != nil {
		p.log.Warn("keyword extraction failed", "error", kw.err)
		result.KeywordsError = kw.err.Error()
	} else {
		result.Keywords = kw.res
	}
	match := <-matchCh
	if match.err != nil {
		p.log.Warn("match scoring failed", "error", match.err)
		result.MatchError = match.err.Error()
	} else {
		result.Match = match.res
	}
	return result, nil
}

// Optimize rewrites the resume against the job description. When the
// first pass lands below the target score a single escalation pass runs
// with the first pass fed back in; if that pass fails or cannot be
// parsed the first pass result stands. One quota unit covers both passes.
func (p *Pipeline) Optimize(ctx context.Context, req types.AnalysisRequest) (*types.OptimizationResult, error) {
	if err := validateBoth(req); err != nil {
		return nil, err
	}
	cred, err := p.reserve(ctx, req)
	if err != nil {
		return nil, err
	}

	jobDesc := p.clean.CleanJobDescription(req.JobDescription)

	text, err := p.gen.Generate(ctx, cred.Key, prompt.Optimize(jobDesc, req.ResumeText))
	if err != nil {
		return nil, err
	}
	first, err := p.parser.Optimization(text)
	if err != nil {
		return nil, err
	}
	if first.MatchingScore >= p.targetScore {
		return first, nil
	}

	p.log.Info("escalating optimization",
		"first_pass_score", first.MatchingScore,
		"target", p.targetScore)

	escalated := prompt.OptimizeEscalate(jobDesc, first.OptimizedResume, first.MatchingScore)
	text, err = p.gen.Generate(ctx, cred.Key, escalated)
	if err != nil {
		p.log.Warn("escalation call failed, keeping first pass", "error", err)
		return first, nil
	}
	second, err := p.parser.Optimization(text)
	if err != nil {
		p.log.Warn("escalation response unparsable, keeping first pass", "error", err)
		return first, nil
	}
	return second, nil
}

// Remaining reports the user's shared-key quota for today.
func (p *Pipeline) Remaining(ctx context.Context, email string) (types.UsageStatus, error) {
	user, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		return types.UsageStatus{}, err
	}
	return p.meter.Remaining(ctx, user.ID)
}

// reserve resolves the credential for a request and, for the shared key
// only, consumes one quota unit before any model call is made.
func (p *Pipeline) reserve(ctx context.Context, req types.AnalysisRequest) (keys.Credential, error) {
	cred, err := p.resolver.Resolve(ctx, req.UserEmail, req.APIKey)
	if err != nil {
		return keys.Credential{}, err
	}
	if !cred.Shared {
		return cred, nil
	}

	if req.UserEmail == "" {
		return keys.Credential{}, ErrUserRequired
	}
	user, err := p.users.GetUserByEmail(ctx, req.UserEmail)
	if errors.Is(err, store.ErrNotFound) {
		return keys.Credential{}, ErrUserRequired
	}
	if err != nil {
		return keys.Credential{}, err
	}
	if !user.IsActive {
		return keys.Credential{}, ErrUserInactive
	}
	if err := p.meter.CheckAndReserve(ctx, user.ID); err != nil {
		return keys.Credential{}, err
	}
	return cred, nil
}

func validateBoth(req types.AnalysisRequest) error {
	if req.JobDescription == "" {
		return ErrMissingJobDescription
	}
	if req.ResumeText == "" {
		return ErrMissingResume
	}
	return nil
}
