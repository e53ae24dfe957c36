package reference

const (
	primaryWeight   = 3
	listWeight      = 2
	secondaryWeight = 1
)

// Scheme names which attributes take part in scoring.
type Scheme struct {
	// Primary attributes score +3 on exact match.
	Primary []string
	// List attributes score +2 for every query element the record also has.
	Lists []string
	// Secondary attributes score +1 on exact match.
	Secondary []string
}

// CaseScheme scores success cases.
var CaseScheme = Scheme{
	Primary:   []string{"delivery_type"},
	Lists:     []string{"concerns"},
	Secondary: []string{"child_count"},
}

// ScriptScheme scores sales scripts.
var ScriptScheme = Scheme{
	Primary:   []string{"delivery_type"},
	Lists:     []string{"concerns", "tags"},
	Secondary: []string{"child_count", "budget_level"},
}

// Score computes the integer match score of record attributes against query.
func (s Scheme) Score(query, record Attributes) int {
	score := 0
	for _, name := range s.Primary {
		if scalarEqual(query[name], record[name]) {
			score += primaryWeight
		}
	}
	for _, name := range s.Lists {
		score += listWeight * overlap(query[name], record[name])
	}
	for _, name := range s.Secondary {
		if scalarEqual(query[name], record[name]) {
			score += secondaryWeight
		}
	}
	return score
}

func scalarEqual(a, b interface{}) bool {
	ka, ok := scalarKey(a)
	if !ok {
		return false
	}
	kb, ok := scalarKey(b)
	return ok && ka == kb
}

// overlap counts query elements present in the record list. A query element
// given twice counts twice.
func overlap(query, record interface{}) int {
	q := listKeys(query)
	if len(q) == 0 {
		return 0
	}
	have := make(map[string]struct{})
	for _, k := range listKeys(record) {
		have[k] = struct{}{}
	}
	n := 0
	for _, k := range q {
		if _, ok := have[k]; ok {
			n++
		}
	}
	return n
}
