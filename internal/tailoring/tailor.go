// Package tailoring turns a selected role and a normalized resume into requirements, a skill
// mapping, tailored bullets, skill scores and a plaintext draft.
package tailoring

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/resume-pivot/internal/ingestion"
	"github.com/jonathan/resume-pivot/internal/llm"
	"github.com/jonathan/resume-pivot/internal/prompts"
	"github.com/jonathan/resume-pivot/internal/schemas"
	"github.com/jonathan/resume-pivot/internal/types"
)

const (
	// MinBullets is the smallest tailored bullet list; shorter lists are padded from the resume
	MinBullets = 3
	// MaxBullets caps the tailored bullet list
	MaxBullets = 8
	// MaxBulletChars caps the length of a tailored bullet
	MaxBulletChars = 220
	// MaxScoredSkills caps the scoring phase
	MaxScoredSkills = 10
	maxRequirements = 12
	maxEvidence     = 3
)

// Tailor runs the individual tailoring steps
type Tailor struct {
	ex     *llm.Executor
	logger *zap.Logger
}

// NewTailor creates a Tailor
func NewTailor(ex *llm.Executor) *Tailor {
	return &Tailor{ex: ex, logger: ex.Logger().Named("tailoring")}
}

// ExtractRequirements pulls must-have and nice-to-have requirements from a job description.
// Model failure yields empty lists.
func (t *Tailor) ExtractRequirements(ctx context.Context, title, jobDescription string) (*types.Requirements, error) {
	res := llm.Execute(ctx, t.ex, llm.Task[types.Requirements]{
		Name: "extract-requirements",
		Prompt: prompts.Render(prompts.Tailoring, "extract-requirements", map[string]string{
			"Title":          title,
			"JobDescription": orNone(jobDescription),
		}),
		Schema: schemas.Requirements,
		Tier:   llm.TierStandard,
		Fallback: func() types.Requirements {
			return types.Requirements{}
		},
	})
	if !res.Usable() {
		return nil, fmt.Errorf("failed to extract requirements: %w", res.Err)
	}

	reqs := &types.Requirements{
		MustHave:   cleanList(res.Value.MustHave, maxRequirements),
		NiceToHave: cleanList(res.Value.NiceToHave, maxRequirements),
	}
	return reqs, nil
}

// MapTransferable links each requirement to the resume skills and evidence that satisfy it.
// Model failure falls back to KeywordMapping.
func (t *Tailor) MapTransferable(ctx context.Context, normalized *types.NormalizedData, reqs *types.Requirements) (*types.SkillMapping, error) {
	reqsJSON, err := json.MarshalIndent(reqs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal requirements: %w", err)
	}
	normalizedJSON, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal normalized resume: %w", err)
	}

	res := llm.Execute(ctx, t.ex, llm.Task[types.SkillMapping]{
		Name: "map-transferable",
		Prompt: prompts.Render(prompts.Tailoring, "map-transferable", map[string]string{
			"Requirements": string(reqsJSON),
			"Normalized":   string(normalizedJSON),
		}),
		Schema: schemas.Mapping,
		Tier:   llm.TierStandard,
		Fallback: func() types.SkillMapping {
			return *KeywordMapping(normalized, reqs)
		},
	})
	if !res.Usable() {
		return nil, fmt.Errorf("failed to map transferable skills: %w", res.Err)
	}

	mapping := res.Value
	kinds := requirementKinds(reqs)
	links := make([]types.SkillLink, 0, len(mapping.Links))
	for _, link := range mapping.Links {
		link.Requirement = strings.TrimSpace(link.Requirement)
		if link.Requirement == "" {
			continue
		}
		if kind, ok := kinds[strings.ToLower(link.Requirement)]; ok {
			link.Kind = kind
		} else if link.Kind == "" {
			link.Kind = types.RequirementMustHave
		}
		link.MatchedSkills = cleanList(link.MatchedSkills, 0)
		link.Evidence = cleanList(link.Evidence, maxEvidence)
		for i := range link.Evidence {
			link.Evidence[i] = ingestion.Truncate(link.Evidence[i], MaxBulletChars)
		}
		links = append(links, link)
	}
	return &types.SkillMapping{Links: links}, nil
}

// RewriteBullets writes MinBullets to MaxBullets tailored bullets. Short lists are padded with
// resume bullets so the result is only shorter than MinBullets when the resume has too few.
func (t *Tailor) RewriteBullets(ctx context.Context, mapping *types.SkillMapping, title string, resumeBullets []string) (*types.TailoredBullets, error) {
	mappingJSON, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mapping: %w", err)
	}

	res := llm.Execute(ctx, t.ex, llm.Task[types.TailoredBullets]{
		Name: "rewrite-bullets",
		Prompt: prompts.Render(prompts.Tailoring, "rewrite-bullets", map[string]string{
			"MinBullets": strconv.Itoa(MinBullets),
			"MaxBullets": strconv.Itoa(MaxBullets),
			"MaxChars":   strconv.Itoa(MaxBulletChars),
			"Title":      title,
			"Mapping":    string(mappingJSON),
		}),
		Schema: schemas.Bullets,
		Tier:   llm.TierAdvanced,
		Fallback: func() types.TailoredBullets {
			return types.TailoredBullets{}
		},
	})
	if !res.Usable() {
		return nil, fmt.Errorf("failed to rewrite bullets: %w", res.Err)
	}

	return &types.TailoredBullets{Bullets: boundBullets(res.Value.Bullets, resumeBullets)}, nil
}

// boundBullets cleans, caps and pads a bullet list
func boundBullets(bullets, resumeBullets []string) []string {
	out := make([]string, 0, MaxBullets)
	seen := make(map[string]bool)
	add := func(b string) {
		b = ingestion.Truncate(ingestion.StripBulletMarker(b), MaxBulletChars)
		key := strings.ToLower(b)
		if b == "" || seen[key] || len(out) == MaxBullets {
			return
		}
		seen[key] = true
		out = append(out, b)
	}

	for _, b := range bullets {
		add(b)
	}
	for _, b := range resumeBullets {
		if len(out) >= MinBullets {
			break
		}
		add(b)
	}
	return out
}

// ScoreSkills scores each matched skill by its evidence: min(100, 30 + 20 per evidence
// snippet). Skills are de-duplicated and the top MaxScoredSkills kept.
func ScoreSkills(mapping *types.SkillMapping) *types.SkillScoring {
	evidence := make(map[string]int)
	var order []string
	for _, link := range mapping.Links {
		for _, skill := range link.MatchedSkills {
			key := strings.ToLower(strings.TrimSpace(skill))
			if key == "" {
				continue
			}
			if _, ok := evidence[key]; !ok {
				order = append(order, key)
			}
			evidence[key] += len(link.Evidence)
		}
	}

	scores := make([]types.SkillScore, 0, len(order))
	for _, skill := range order {
		count := evidence[skill]
		scores = append(scores, types.SkillScore{
			Skill: skill,
			Score: min(100, 30+20*count),
			Depth: depthFor(count),
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	if len(scores) > MaxScoredSkills {
		scores = scores[:MaxScoredSkills]
	}
	return &types.SkillScoring{Skills: scores}
}

func depthFor(evidence int) string {
	switch {
	case evidence >= 3:
		return types.DepthAdvanced
	case evidence >= 1:
		return types.DepthWorking
	default:
		return types.DepthFoundational
	}
}

// DraftInput carries everything the draft step reads
type DraftInput struct {
	Title        string
	Background   string
	Normalized   *types.NormalizedData
	Requirements *types.Requirements
	Mapping      *types.SkillMapping
	Bullets      *types.TailoredBullets
	Scoring      *types.SkillScoring
}

// AssembleDraft writes the plaintext resume draft. Model failure falls back to PlainDraft.
func (t *Tailor) AssembleDraft(ctx context.Context, in DraftInput) (*types.Draft, error) {
	reqsJSON, err := json.MarshalIndent(in.Requirements, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal requirements: %w", err)
	}
	mappingJSON, err := json.MarshalIndent(in.Mapping, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mapping: %w", err)
	}

	type reply struct {
		Draft string `json:"draft"`
	}
	res := llm.Execute(ctx, t.ex, llm.Task[reply]{
		Name: "assemble-draft",
		Prompt: prompts.Render(prompts.Tailoring, "assemble-draft", map[string]string{
			"Title":        in.Title,
			"Background":   orNone(in.Background),
			"Requirements": string(reqsJSON),
			"Mapping":      string(mappingJSON),
			"Bullets":      bulletLines(in.Bullets),
		}),
		Schema: schemas.Draft,
		Tier:   llm.TierAdvanced,
		Fallback: func() reply {
			return reply{Draft: PlainDraft(in)}
		},
		Check: func(r *reply) error {
			if strings.TrimSpace(r.Draft) == "" {
				return fmt.Errorf("draft is empty")
			}
			return nil
		},
	})
	if !res.Usable() {
		return nil, fmt.Errorf("failed to assemble draft: %w", res.Err)
	}
	return &types.Draft{Text: strings.TrimSpace(res.Value.Draft)}, nil
}

// PlainDraft assembles a draft without the model
func PlainDraft(in DraftInput) string {
	var sb strings.Builder

	if in.Normalized != nil && in.Normalized.Name != "" {
		sb.WriteString(in.Normalized.Name)
		sb.WriteString("\n")
	}
	sb.WriteString("Target role: ")
	sb.WriteString(in.Title)
	sb.WriteString("\n\nSUMMARY\n")
	summary := strings.TrimSpace(in.Background)
	if in.Normalized != nil && in.Normalized.Summary != "" {
		summary = in.Normalized.Summary
	}
	if summary == "" {
		summary = fmt.Sprintf("Candidate transitioning into %s.", in.Title)
	}
	sb.WriteString(summary)

	if in.Scoring != nil && len(in.Scoring.Skills) > 0 {
		skills := make([]string, len(in.Scoring.Skills))
		for i, s := range in.Scoring.Skills {
			skills[i] = s.Skill
		}
		sb.WriteString("\n\nKEY SKILLS\n")
		sb.WriteString(strings.Join(skills, ", "))
	}

	if lines := bulletLines(in.Bullets); lines != "" {
		sb.WriteString("\n\nEXPERIENCE HIGHLIGHTS\n")
		sb.WriteString(lines)
	}
	return sb.String()
}

func bulletLines(b *types.TailoredBullets) string {
	if b == nil || len(b.Bullets) == 0 {
		return ""
	}
	lines := make([]string, len(b.Bullets))
	for i, bullet := range b.Bullets {
		lines[i] = "- " + bullet
	}
	return strings.Join(lines, "\n")
}

// cleanList trims, de-duplicates (case-insensitive) and optionally caps a string list
func cleanList(items []string, limit int) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func requirementKinds(reqs *types.Requirements) map[string]string {
	kinds := make(map[string]string)
	if reqs == nil {
		return kinds
	}
	for _, r := range reqs.NiceToHave {
		kinds[strings.ToLower(r)] = types.RequirementNiceToHave
	}
	for _, r := range reqs.MustHave {
		kinds[strings.ToLower(r)] = types.RequirementMustHave
	}
	return kinds
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none provided)"
	}
	return s
}
