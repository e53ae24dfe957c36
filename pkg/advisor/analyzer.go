package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"care-advisor-be/internal/pkg/logger"
	"care-advisor-be/pkg/llm"
	"care-advisor-be/pkg/profile"
	"care-advisor-be/pkg/stage"
)

// Analyzer extracts structured customer data with an LLM.
type Analyzer struct {
	llm    llm.LLMProvider
	logger logger.ILogger
}

var _ stage.Analyzer = (*Analyzer)(nil)

func NewAnalyzer(provider llm.LLMProvider, log logger.ILogger) *Analyzer {
	return &Analyzer{llm: provider, logger: log}
}

// Extract pulls whatever profile fields the utterance mentions. A reply
// that is not valid JSON yields an empty partial rather than an error.
func (a *Analyzer) Extract(ctx context.Context, text string) (profile.Profile, error) {
	raw, err := a.llm.Generate(ctx, fmt.Sprintf(extractPrompt, text), llm.WithJSON())
	if err != nil {
		return profile.Profile{}, fmt.Errorf("extract customer info: %w", err)
	}

	fields, err := decodeObject(raw)
	if err != nil {
		a.logger.Warn("Analyzer", "Extraction reply is not JSON", map[string]interface{}{"error": err.Error()})
		return profile.Profile{}, nil
	}
	return profileFromFields(fields), nil
}

// AnalyzeFeedback reads interests, concerns, sentiment and priorities from
// a tour remark.
func (a *Analyzer) AnalyzeFeedback(ctx context.Context, text string) (stage.Feedback, error) {
	raw, err := a.llm.Generate(ctx, fmt.Sprintf(feedbackPrompt, text), llm.WithJSON())
	if err != nil {
		return stage.Feedback{}, fmt.Errorf("analyze feedback: %w", err)
	}

	fb := stage.Feedback{
		Interests:     []string{},
		Concerns:      []string{},
		Sentiment:     "unknown",
		PriorityNeeds: []string{},
	}
	fields, err := decodeObject(raw)
	if err != nil {
		a.logger.Warn("Analyzer", "Feedback reply is not JSON", map[string]interface{}{"error": err.Error()})
		return fb, nil
	}
	if v := stringList(fields["interests"]); v != nil {
		fb.Interests = v
	}
	if v := stringList(fields["concerns"]); v != nil {
		fb.Concerns = v
	}
	if v, ok := stringValue(fields["sentiment"]); ok {
		fb.Sentiment = v
	}
	if v := stringList(fields["priority_needs"]); v != nil {
		fb.PriorityNeeds = v
	}
	return fb, nil
}

// decodeObject finds the outermost JSON object in a model reply, tolerating
// code fences and chatter around it.
func decodeObject(raw string) (map[string]interface{}, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in reply")
	}
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func profileFromFields(f map[string]interface{}) profile.Profile {
	var p profile.Profile
	p.Name = optString(f, "name")
	p.Age = optInt(f, "age")
	p.PregnancyStatus = optString(f, "pregnancy_status")
	p.BirthType = optString(f, "birth_type", "delivery_type")
	p.BirthCount = optInt(f, "birth_count", "child_count")
	p.DueDate = optString(f, "due_date")
	p.SourceChannel = optString(f, "source_channel")
	p.Sentiment = optString(f, "sentiment")
	p.Notes = optString(f, "notes")
	p.Interests = stringList(f["interests"])
	p.Concerns = stringList(f["concerns"])
	p.PriorityNeeds = stringList(f["priority_needs"])
	return p
}

func optString(f map[string]interface{}, keys ...string) *string {
	for _, k := range keys {
		if v, ok := stringValue(f[k]); ok {
			return &v
		}
	}
	return nil
}

var digits = regexp.MustCompile(`\d+`)

var chineseCounts = map[string]int{"一": 1, "头": 1, "二": 2, "两": 2, "三": 3, "四": 4}

func optInt(f map[string]interface{}, keys ...string) *int {
	for _, k := range keys {
		switch v := f[k].(type) {
		case float64:
			n := int(v)
			return &n
		case string:
			if m := digits.FindString(v); m != "" {
				if n, err := strconv.Atoi(m); err == nil {
					return &n
				}
			}
			for word, n := range chineseCounts {
				if strings.HasPrefix(v, word) || strings.HasPrefix(v, "第"+word) {
					count := n
					return &count
				}
			}
		}
	}
	return nil
}

func stringValue(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		x = strings.TrimSpace(x)
		return x, x != ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}

var listSeparators = regexp.MustCompile(`[,，、;；]`)

func stringList(v interface{}) []string {
	switch x := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := stringValue(item); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range listSeparators.Split(x, -1) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}
