package flow

import (
	"sort"

	"quizflow-service/internal/domain"
)

// MostDroppedLimit caps AnalyticsMetrics.MostDroppedQuestions.
const MostDroppedLimit = 5

// ComputeMetrics aggregates runs of one version. nodes gives the funnel order.
// Every rate is a percentage and is 0 when its denominator is 0.
//
// A run drops off at node N when N's key is the last key it answered and the
// run never completed.
func ComputeMetrics(nodes []domain.QuizNode, runs []domain.QuizRun) domain.AnalyticsMetrics {
	m := domain.AnalyticsMetrics{
		TotalRuns:            len(runs),
		Funnel:               make([]domain.FunnelStep, 0, len(nodes)),
		MostDroppedQuestions: []string{},
		ResponseDistribution: make(map[string]map[string]int),
	}

	reached := make(map[string]int)
	lastAnswered := make(map[string]int)
	answers := 0
	for _, run := range runs {
		if run.IsCompleted() {
			m.CompletedRuns++
		}
		answers += run.Responses.Len()

		pairs := run.Responses.Pairs()
		for _, p := range pairs {
			reached[p.Key]++
			bucket, ok := m.ResponseDistribution[p.Key]
			if !ok {
				bucket = make(map[string]int)
				m.ResponseDistribution[p.Key] = bucket
			}
			bucket[domain.Stringify(p.Value)]++
		}
		if len(pairs) > 0 && !run.IsCompleted() {
			lastAnswered[pairs[len(pairs)-1].Key]++
		}
	}

	m.CompletionRate = percent(m.CompletedRuns, m.TotalRuns)
	if m.TotalRuns > 0 {
		m.AverageQuestionsPerRun = float64(answers) / float64(m.TotalRuns)
	}

	var questions []domain.FunnelStep
	for _, n := range nodes {
		step := domain.FunnelStep{
			NodeID:    n.ID,
			NodeKey:   n.Key,
			NodeTitle: n.Title,
			NodeType:  n.Type,
		}
		if n.Key != "" {
			step.StartCount = reached[n.Key]
			step.DropOffCount = lastAnswered[n.Key]
		}
		step.DropOffRate = percent(step.DropOffCount, step.StartCount)
		m.Funnel = append(m.Funnel, step)
		if n.Type == domain.NodeQuestion && step.DropOffRate > 0 {
			questions = append(questions, step)
		}
	}

	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].DropOffRate > questions[j].DropOffRate
	})
	for i := 0; i < len(questions) && i < MostDroppedLimit; i++ {
		m.MostDroppedQuestions = append(m.MostDroppedQuestions, questions[i].NodeID)
	}
	return m
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
