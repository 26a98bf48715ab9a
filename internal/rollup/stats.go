package rollup

import "sort"

// MeasurementsPerDay is the nominal daily target for measurement categories.
const MeasurementsPerDay = 2

func measurementStats(entries []entry, dateRange []string, counts map[string]int) Stats {
	s := Stats{
		TotalEntries:  len(entries),
		EntriesByDate: counts,
	}
	s.Expected = len(dateRange) * MeasurementsPerDay
	s.Missing = max(0, s.Expected-s.TotalEntries)
	if len(entries) == 0 {
		return s
	}
	var sum float64
	s.Min, s.Max = entries[0].value, entries[0].value
	for _, e := range entries {
		sum += e.value
		s.Min = min(s.Min, e.value)
		s.Max = max(s.Max, e.value)
	}
	s.Avg = roundTo(sum/float64(len(entries)), 1)
	return s
}

func macroStats(entries []entry, dateRange []string, counts map[string]int, tracked []string) Stats {
	s := Stats{
		TotalEntries:  len(entries),
		EntriesByDate: counts,
	}
	ApplyDayDistribution(&s, dateRange)
	s.MacroSummary = summarizeMacros(entries, tracked)
	return s
}

// ApplyDayDistribution fills the per-day fields of a macro rollup from s.EntriesByDate over
// dateRange, zero-entry days included. The monthly aggregator reuses it on merged counts.
func ApplyDayDistribution(s *Stats, dateRange []string) {
	days := len(dateRange)
	s.Expected = days
	s.UniqueDays = 0
	s.MinEntriesPerDay, s.MaxEntriesPerDay = 0, 0
	s.AvgEntriesPerDay = 0
	if days == 0 {
		s.Missing = 0
		return
	}
	total := 0
	for i, day := range dateRange {
		n := s.EntriesByDate[day]
		total += n
		if n > 0 {
			s.UniqueDays++
		}
		if i == 0 {
			s.MinEntriesPerDay, s.MaxEntriesPerDay = n, n
			continue
		}
		s.MinEntriesPerDay = min(s.MinEntriesPerDay, n)
		s.MaxEntriesPerDay = max(s.MaxEntriesPerDay, n)
	}
	s.AvgEntriesPerDay = roundTo(float64(total)/float64(days), 2)
	s.Missing = max(0, s.Expected-s.UniqueDays)
}

func summarizeMacros(entries []entry, tracked []string) map[string]MacroSummary {
	out := make(map[string]MacroSummary, len(tracked))
	for _, k := range tracked {
		out[k] = MacroSummary{}
	}
	for _, e := range entries {
		for k, v := range e.macros {
			m := out[k]
			m.Count++
			m.Total += v
			out[k] = m
		}
	}
	for k, m := range out {
		out[k] = finalizeMacro(m)
	}
	return out
}

func finalizeMacro(m MacroSummary) MacroSummary {
	m.Total = roundTo(m.Total, 2)
	if m.Count > 0 {
		m.Avg = roundTo(m.Total/float64(m.Count), 2)
	} else {
		m.Avg = 0
	}
	return m
}

// MergeMacroSummaries sums count and total per attribute and recomputes the average. Summaries are
// not keyed by day, so overlapping periods are counted twice.
func MergeMacroSummaries(parts ...map[string]MacroSummary) map[string]MacroSummary {
	out := map[string]MacroSummary{}
	for _, p := range parts {
		for k, m := range p {
			acc := out[k]
			acc.Count += m.Count
			acc.Total += m.Total
			out[k] = acc
		}
	}
	for k, m := range out {
		out[k] = finalizeMacro(m)
	}
	return out
}

// SortedDays returns the keys of a per-day map in calendar order.
func SortedDays(counts map[string]int) []string {
	out := make([]string, 0, len(counts))
	for d := range counts {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
