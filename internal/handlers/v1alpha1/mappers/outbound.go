package mappers

import (
	"github.com/fieldservice/jobvisit/internal/scope"
	"github.com/fieldservice/jobvisit/internal/service"
	"github.com/fieldservice/jobvisit/internal/store/model"
)

type CheckoutResponse struct {
	CheckIn *model.CheckIn      `json:"check_in"`
	Summary *model.VisitSummary `json:"summary,omitempty"`
	Job     *model.Job          `json:"job"`
	Trivial bool                `json:"trivial"`
}

func CheckoutResultToResponse(res *service.CheckoutResult) CheckoutResponse {
	return CheckoutResponse{
		CheckIn: res.CheckIn,
		Summary: res.Summary,
		Job:     res.Job,
		Trivial: res.Trivial,
	}
}

type ScopeResponse struct {
	Kind  scope.RefKind `json:"kind"`
	ID    string        `json:"id"`
	Items []scope.Item  `json:"items"`
}

func ScopeToResponse(ref scope.Ref, items []scope.Item) ScopeResponse {
	if items == nil {
		items = []scope.Item{}
	}
	return ScopeResponse{Kind: ref.Kind, ID: ref.ID, Items: items}
}

type SummariesResponse struct {
	Job       *model.Job             `json:"job"`
	Summaries model.VisitSummaryList `json:"summaries"`
}
