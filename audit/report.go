package audit

import "sort"

const topN = 5

// Report aggregates every record matching filter (Start and End both
// inclusive, Limit/Offset applied as in Query) into a Report:
// per-dimension counts, top actors/resources, execution-time stats,
// clustered high-risk highlights, and the compliance evaluation.
func (l *Log) Report(filter Filter) Report {
	records := l.Query(filter)

	rep := Report{
		Start:           filter.Start,
		End:             filter.End,
		TotalRecords:    len(records),
		CountsByKind:    map[EventKind]int{},
		CountsByOutcome: map[Outcome]int{},
		CountsByRisk:    map[RiskLevel]int{},
	}

	actorCounts := map[string]int{}
	resourceCounts := map[string]int{}
	var durations []float64
	failures := 0

	for _, r := range records {
		rep.CountsByKind[r.Kind]++
		rep.CountsByOutcome[r.Outcome]++
		rep.CountsByRisk[r.Risk]++
		actorCounts[r.Actor]++
		resourceCounts[r.Resource]++
		if r.Outcome == OutcomeFailure {
			failures++
		}
		if d, ok := r.Details["duration_ms"]; ok {
			if f, ok := asReportFloat(d); ok {
				durations = append(durations, f)
			}
		}
	}

	rep.TopActors = topCounted(actorCounts)
	rep.TopResources = topCounted(resourceCounts)

	if len(durations) > 0 {
		sum, max := 0.0, durations[0]
		for _, d := range durations {
			sum += d
			if d > max {
				max = d
			}
		}
		rep.AvgExecutionMs = sum / float64(len(durations))
		rep.MaxExecutionMs = max
	}
	if len(records) > 0 {
		rep.ErrorRate = float64(failures) / float64(len(records))
	}

	rep.SecurityHighlights = securityHighlights(records)
	rep.Compliance = evaluateCompliance(records)

	return rep
}

func asReportFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func topCounted(counts map[string]int) []CountedKey {
	out := make([]CountedKey, 0, len(counts))
	for k, v := range counts {
		out = append(out, CountedKey{Key: k, Count: v})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// securityHighlights clusters High/Critical-risk SecurityEvent and
// PolicyViolation records by kind so a report surfaces patterns instead
// of a flat list.
func securityHighlights(records []Record) []SecurityHighlight {
	type cluster struct {
		count     int
		first     Record
		last      Record
		resources map[string]bool
	}
	byKind := map[EventKind]*cluster{}
	for _, r := range records {
		if r.Risk != RiskHigh && r.Risk != RiskCritical {
			continue
		}
		if r.Kind != EventSecurityEvent && r.Kind != EventPolicyViolation {
			continue
		}
		c, ok := byKind[r.Kind]
		if !ok {
			c = &cluster{first: r, last: r, resources: map[string]bool{}}
			byKind[r.Kind] = c
		}
		c.count++
		c.resources[r.Resource] = true
		if r.Timestamp.Before(c.first.Timestamp) {
			c.first = r
		}
		if r.Timestamp.After(c.last.Timestamp) {
			c.last = r
		}
	}

	var out []SecurityHighlight
	for kind, c := range byKind {
		resources := make([]string, 0, len(c.resources))
		for r := range c.resources {
			resources = append(resources, r)
		}
		sort.Strings(resources)
		out = append(out, SecurityHighlight{
			Kind: kind, Count: c.count, First: c.first.Timestamp, Last: c.last.Timestamp,
			AffectedResources: resources,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
