package adviserdesk

// DefaultFlaggedCategories are the condition categories surfaced at the top
// of health fact lists unless overridden in configuration.
var DefaultFlaggedCategories = []string{
	"Smoking",
	"Smoking Cessation",
	"Nicotine Dependence",
}

// FlaggedSet builds the lookup set consumed by PartitionFlaggedFirst.
func FlaggedSet(categories []string) map[string]bool {
	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		set[c] = true
	}
	return set
}

// PartitionFlaggedFirst returns a new sequence with every fact whose category
// is in the flagged set ahead of every other fact. Relative order within each
// partition is preserved from the input, so applying it to its own output is
// a no-op.
func PartitionFlaggedFirst(facts []HealthFact, flagged map[string]bool) []HealthFact {
	out := make([]HealthFact, 0, len(facts))
	for _, f := range facts {
		if flagged[f.Category] {
			out = append(out, f)
		}
	}
	for _, f := range facts {
		if !flagged[f.Category] {
			out = append(out, f)
		}
	}
	return out
}

// HealthActiveStatuses is the subset of health statuses counted as active.
var HealthActiveStatuses = map[string]bool{
	HealthStatusActive:     true,
	HealthStatusMonitoring: true,
}

// VulnerabilityActiveStatuses is the subset of vulnerability statuses
// counted as active.
var VulnerabilityActiveStatuses = map[string]bool{
	VulnStatusActive: true,
}

// TallyStatuses splits a status sequence into active and inactive counts
// according to the supplied active subset.
func TallyStatuses(statuses []string, active map[string]bool) StatusTally {
	var tally StatusTally
	for _, s := range statuses {
		if active[s] {
			tally.Active++
		} else {
			tally.Inactive++
		}
	}
	return tally
}

func HealthStatuses(facts []HealthFact) []string {
	statuses := make([]string, len(facts))
	for i, f := range facts {
		statuses[i] = f.Status
	}
	return statuses
}

func VulnerabilityStatuses(facts []VulnerabilityFact) []string {
	statuses := make([]string, len(facts))
	for i, f := range facts {
		statuses[i] = f.Status
	}
	return statuses
}
