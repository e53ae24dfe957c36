package profile

import (
	"fmt"
	"strings"
)

// Profile is the evolving summary of one customer. Nil scalars and empty
// slices mean "not known yet".
type Profile struct {
	Name            *string `json:"name,omitempty"`
	Age             *int    `json:"age,omitempty"`
	PregnancyStatus *string `json:"pregnancy_status,omitempty"`
	BirthType       *string `json:"birth_type,omitempty"`
	BirthCount      *int    `json:"birth_count,omitempty"`
	DueDate         *string `json:"due_date,omitempty"`
	SourceChannel   *string `json:"source_channel,omitempty"`
	Sentiment       *string `json:"sentiment,omitempty"`
	Notes           *string `json:"notes,omitempty"`

	Interests     []string `json:"interests,omitempty"`
	Concerns      []string `json:"concerns,omitempty"`
	PriorityNeeds []string `json:"priority_needs,omitempty"`
}

// Merge applies partial onto p. Scalars follow last-non-null-wins, list
// fields are unioned without duplicates.
func (p Profile) Merge(partial Profile) Profile {
	out := p.Clone()

	mergeString(&out.Name, partial.Name)
	mergeInt(&out.Age, partial.Age)
	mergeString(&out.PregnancyStatus, partial.PregnancyStatus)
	mergeString(&out.BirthType, partial.BirthType)
	mergeInt(&out.BirthCount, partial.BirthCount)
	mergeString(&out.DueDate, partial.DueDate)
	mergeString(&out.SourceChannel, partial.SourceChannel)
	mergeString(&out.Sentiment, partial.Sentiment)
	mergeString(&out.Notes, partial.Notes)

	out.Interests = union(out.Interests, partial.Interests)
	out.Concerns = union(out.Concerns, partial.Concerns)
	out.PriorityNeeds = union(out.PriorityNeeds, partial.PriorityNeeds)

	return out
}

// Clone returns a deep copy so callers never share backing arrays or
// pointers with the store.
func (p Profile) Clone() Profile {
	out := Profile{
		Name:            cloneString(p.Name),
		Age:             cloneInt(p.Age),
		PregnancyStatus: cloneString(p.PregnancyStatus),
		BirthType:       cloneString(p.BirthType),
		BirthCount:      cloneInt(p.BirthCount),
		DueDate:         cloneString(p.DueDate),
		SourceChannel:   cloneString(p.SourceChannel),
		Sentiment:       cloneString(p.Sentiment),
		Notes:           cloneString(p.Notes),
	}
	if len(p.Interests) > 0 {
		out.Interests = append([]string(nil), p.Interests...)
	}
	if len(p.Concerns) > 0 {
		out.Concerns = append([]string(nil), p.Concerns...)
	}
	if len(p.PriorityNeeds) > 0 {
		out.PriorityNeeds = append([]string(nil), p.PriorityNeeds...)
	}
	return out
}

// IsEmpty reports whether nothing is known about the customer yet.
func (p Profile) IsEmpty() bool {
	return p.Name == nil && p.Age == nil && p.PregnancyStatus == nil &&
		p.BirthType == nil && p.BirthCount == nil && p.DueDate == nil &&
		p.SourceChannel == nil && p.Sentiment == nil && p.Notes == nil &&
		len(p.Interests) == 0 && len(p.Concerns) == 0 && len(p.PriorityNeeds) == 0
}

// Attributes projects the profile onto the attribute names used by reference
// records (delivery_type, child_count, concerns, ...).
func (p Profile) Attributes() map[string]interface{} {
	attrs := make(map[string]interface{})
	if p.BirthType != nil && *p.BirthType != "" {
		attrs["delivery_type"] = *p.BirthType
	}
	if p.BirthCount != nil && *p.BirthCount > 0 {
		attrs["child_count"] = *p.BirthCount
	}
	if p.Age != nil {
		attrs["age"] = *p.Age
	}
	if len(p.Concerns) > 0 {
		attrs["concerns"] = append([]string(nil), p.Concerns...)
	}
	if len(p.Interests) > 0 {
		attrs["interests"] = append([]string(nil), p.Interests...)
	}
	if len(p.PriorityNeeds) > 0 {
		attrs["tags"] = append([]string(nil), p.PriorityNeeds...)
	}
	return attrs
}

// Summary renders the known fields one per line for prompt building.
func (p Profile) Summary() string {
	var lines []string
	add := func(key, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", key, value))
		}
	}
	add("name", deref(p.Name))
	if p.Age != nil {
		add("age", fmt.Sprint(*p.Age))
	}
	add("pregnancy_status", deref(p.PregnancyStatus))
	add("birth_type", deref(p.BirthType))
	if p.BirthCount != nil {
		add("birth_count", fmt.Sprint(*p.BirthCount))
	}
	add("due_date", deref(p.DueDate))
	add("source_channel", deref(p.SourceChannel))
	add("interests", strings.Join(p.Interests, ", "))
	add("concerns", strings.Join(p.Concerns, ", "))
	add("priority_needs", strings.Join(p.PriorityNeeds, ", "))
	add("sentiment", deref(p.Sentiment))
	add("notes", deref(p.Notes))
	return strings.Join(lines, "\n")
}

func mergeString(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func mergeInt(dst **int, src *int) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func union(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, v := range base {
		seen[v] = struct{}{}
	}
	for _, v := range extra {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		base = append(base, v)
	}
	return base
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// String and Int build optional scalar values.
func String(v string) *string { return &v }

func Int(v int) *int { return &v }
