package domain

import "strings"

// PlanConstraints bound what any renderer (template or stylist) may emit.
type PlanConstraints struct {
	MaxLinks     int
	MaxQuestions int
	NoPrices     bool
}

// AnswerPlan is the structured draft handed from the composer to the
// renderer and guardrails. Consumers read named fields, never string keys.
type AnswerPlan struct {
	Intent       string
	AnswerPoints []string
	Questions    []string
	Link         string
	Constraints  PlanConstraints
}

// DefaultConstraints is the house rule set: one link, two questions, no
// money amounts.
func DefaultConstraints() PlanConstraints {
	return PlanConstraints{MaxLinks: 1, MaxQuestions: 2, NoPrices: true}
}

// Render produces the deterministic draft text: answer points, then up
// to MaxQuestions questions, then the link unless the body already has
// a URL.
func (p AnswerPlan) Render() string {
	points := make([]string, 0, len(p.AnswerPoints))
	for _, pt := range p.AnswerPoints {
		if s := strings.TrimSpace(pt); s != "" {
			points = append(points, s)
		}
	}
	text := strings.Join(points, "\n")

	maxQ := p.Constraints.MaxQuestions
	if maxQ <= 0 {
		maxQ = 2
	}
	questions := make([]string, 0, maxQ)
	for _, q := range p.Questions {
		if s := strings.TrimSpace(q); s != "" {
			questions = append(questions, s)
		}
		if len(questions) == maxQ {
			break
		}
	}
	if len(questions) > 0 {
		if text != "" {
			text += "\n\n"
		}
		text += strings.Join(questions, "\n")
	}

	if p.Link != "" && !strings.Contains(text, "http://") && !strings.Contains(text, "https://") {
		text += "\n" + p.Link
	}
	return strings.TrimSpace(text)
}
