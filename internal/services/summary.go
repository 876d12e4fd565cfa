package services

import (
	"math"
	"sort"
)

// OptionCount is one bucket of a single-choice summary, in the question's
// declared option order.
type OptionCount struct {
	Option  string `json:"option"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// NumericStats describes rating/numeric responses. StdDev is the population
// standard deviation (divisor n) computed from the rounded mean.
type NumericStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// DateBucket counts responses sharing a calendar day, keyed 2006-01-02.
type DateBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Summary is the display-ready aggregate over a question's responses.
// Exactly one of Options, Stats or Dates is populated, per the question
// type.
type Summary struct {
	QuestionID string        `json:"question_id"`
	Type       QuestionType  `json:"type"`
	Total      int           `json:"total"`
	Options    []OptionCount `json:"options,omitempty"`
	Stats      *NumericStats `json:"stats,omitempty"`
	Dates      []DateBucket  `json:"dates,omitempty"`
}

// Summarize reduces a response set into a Summary. It is a pure function:
// no store access, no errors, and an empty response list yields neutral
// zeros rather than a division failure. Result is independent of response
// order (the median sorts internally).
func Summarize(q *Question, responses []*Response) Summary {
	sum := Summary{QuestionID: q.ID, Type: q.Type, Total: len(responses)}
	switch q.Type {
	case TypeSingle:
		sum.Options = summarizeSingle(q.Options, responses)
	case TypeRating, TypeNumeric:
		sum.Stats = summarizeNumeric(responses)
	case TypeDate:
		sum.Dates = summarizeDates(responses)
	}
	return sum
}

// summarizeSingle counts responses per declared option, preserving option
// order. Values matching no option are dropped from every bucket but still
// count toward the percentage denominator.
func summarizeSingle(options []string, responses []*Response) []OptionCount {
	index := make(map[string]int, len(options))
	out := make([]OptionCount, len(options))
	for i, o := range options {
		out[i] = OptionCount{Option: o}
		index[o] = i
	}
	for _, r := range responses {
		if r.Value.Kind != KindOption {
			continue
		}
		if i, ok := index[r.Value.Option]; ok {
			out[i].Count++
		}
	}
	if total := len(responses); total > 0 {
		for i := range out {
			out[i].Percent = int(math.Round(100 * float64(out[i].Count) / float64(total)))
		}
	}
	return out
}

func summarizeNumeric(responses []*Response) *NumericStats {
	values := make([]float64, 0, len(responses))
	for _, r := range responses {
		if r.Value.Kind == KindNumber {
			values = append(values, r.Value.Number)
		}
	}
	n := len(values)
	if n == 0 {
		return &NumericStats{}
	}

	var total float64
	for _, v := range values {
		total += v
	}
	mean := round1(total / float64(n))

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	// The dispersion sum deliberately uses the rounded mean, matching the
	// displayed mean rather than the exact one.
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	sd := round1(math.Sqrt(sq / float64(n)))

	return &NumericStats{Mean: mean, Median: median, StdDev: sd}
}

// summarizeDates buckets responses by ISO day key; lexicographic order of
// the keys is also chronological.
func summarizeDates(responses []*Response) []DateBucket {
	counts := map[string]int{}
	for _, r := range responses {
		if r.Value.Kind != KindDate || r.Value.Date.IsZero() {
			continue
		}
		day := r.Value.Date.UTC().Format("2006-01-02")
		counts[day]++
	}
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]DateBucket, 0, len(days))
	for _, d := range days {
		out = append(out, DateBucket{Date: d, Count: counts[d]})
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
