// Package parse extracts structured results from the model's free-text
// responses using the markers the prompt package asks for.
package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tborer/resume-helper/internal/cleaner"
	"github.com/tborer/resume-helper/pkg/types"
)

var (
	// ErrNoScore means the response has no "Matching Score: N%" line.
	ErrNoScore = errors.New("no matching score found in response")
	// ErrNoOptimizedResume means the "Optimized Resume:" section is missing.
	ErrNoOptimizedResume = errors.New("no optimized resume found in response")
	// ErrScoreOutOfRange is returned in strict mode for scores outside 0-100.
	ErrScoreOutOfRange = errors.New("matching score outside 0-100")
)

// UnparsableOptimization keeps the raw response around so the caller can
// surface it instead of dropping a (possibly usable) rewritten resume.
type UnparsableOptimization struct {
	Raw string
	Err error
}

func (e *UnparsableOptimization) Error() string {
	return fmt.Sprintf("failed to parse optimization response: %v", e.Err)
}

func (e *UnparsableOptimization) Unwrap() error { return e.Err }

const maxKeywords = 10

var (
	numberedLineRe = regexp.MustCompile(`^\d+\.`)
	numberPrefixRe = regexp.MustCompile(`^\d+\.\s*`)
	scoreRe        = regexp.MustCompile(`(?i)Matching Score:\s*(\d+)%`)
	justifyRe      = regexp.MustCompile(`(?i)Justification:\s*([\s\S]+)`)
	missingRe      = regexp.MustCompile(`(?i)Missing Skills:\s*(.+)`)
	optimizedRe    = regexp.MustCompile(`(?i)Optimized Resume:\s*([\s\S]+)`)
)

// Parser turns model responses into task results. Strict mode rejects
// scores outside [0,100] instead of passing them through.
type Parser struct {
	strict bool
	clean  *cleaner.Cleaner
}

func New(strict bool) *Parser {
	return &Parser{strict: strict, clean: cleaner.New()}
}

// Keywords pulls the numbered list out of a keyword-extraction response.
// When no numbered lines exist it degrades to the first ten non-empty
// lines; keyword extraction never fails outright.
func (p *Parser) Keywords(response string) []string {
	response = p.clean.CleanResponse(response)

	var keywords []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if !numberedLineRe.MatchString(line) {
			continue
		}
		kw := strings.TrimSpace(numberPrefixRe.ReplaceAllString(line, ""))
		if kw != "" {
			keywords = append(keywords, kw)
		}
		if len(keywords) == maxKeywords {
			break
		}
	}
	if len(keywords) > 0 {
		return keywords
	}

	// degraded mode: take the response lines as they are
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		keywords = append(keywords, line)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// Match extracts the score, justification and missing skills from a
// match-scoring response. A missing score line fails the whole parse; a
// missing justification or missing-skills line does not.
func (p *Parser) Match(response string) (*types.MatchResult, error) {
	response = p.clean.CleanResponse(response)

	score, err := p.score(response)
	if err != nil {
		return nil, err
	}

	result := &types.MatchResult{Score: score, MissingSkills: []string{}}

	if m := justifyRe.FindStringSubmatch(response); m != nil {
		justification := m[1]
		// the justification regex is greedy; stop it at the missing
		// skills marker when that section follows
		if idx := missingRe.FindStringIndex(justification); idx != nil {
			justification = justification[:idx[0]]
		}
		result.Justification = strings.TrimSpace(justification)
	}

	if m := missingRe.FindStringSubmatch(response); m != nil {
		for _, skill := range strings.Split(m[1], ",") {
			if s := strings.TrimSpace(skill); s != "" {
				result.MissingSkills = append(result.MissingSkills, s)
			}
		}
	}

	return result, nil
}

// Optimization extracts the rewritten resume and its score. On failure
// the raw response is preserved in the returned error.
func (p *Parser) Optimization(response string) (*types.OptimizationResult, error) {
	cleaned := p.clean.CleanResponse(response)

	score, err := p.score(cleaned)
	if err != nil {
		return nil, &UnparsableOptimization{Raw: response, Err: err}
	}

	m := optimizedRe.FindStringSubmatch(cleaned)
	if m == nil {
		return nil, &UnparsableOptimization{Raw: response, Err: ErrNoOptimizedResume}
	}

	return &types.OptimizationResult{
		OptimizedResume: strings.TrimSpace(m[1]),
		MatchingScore:   score,
	}, nil
}

func (p *Parser) score(response string) (int, error) {
	m := scoreRe.FindStringSubmatch(response)
	if m == nil {
		return 0, ErrNoScore
	}
	score, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid score %q: %w", m[1], err)
	}
	if p.strict && (score < 0 || score > 100) {
		return 0, fmt.Errorf("%w: %d", ErrScoreOutOfRange, score)
	}
	return score, nil
}
