package server

import (
	"errors"
	"net/http"

	"github.com/elonfeng/founderboard/pkg/calc"
)

type fundingRequest struct {
	MonthlyBurn  float64 `json:"monthly_burn"`
	Revenue      float64 `json:"revenue" validate:"gte=0"`
	RunwayMonths float64 `json:"runway_months" validate:"gte=0"`
}

type fundingResponse struct {
	calc.FundingEstimate
	Summary []string `json:"summary"`
}

type patentRequest struct {
	Type   string `json:"type" validate:"required,oneof=utility design provisional"`
	Method string `json:"method" validate:"required,oneof=self attorney"`
}

type patentResponse struct {
	calc.PatentEstimate
	Range string `json:"range"`
}

type pathRequest struct {
	Stage string `json:"stage"`
}

func (s *Server) handleCalcIdea(w http.ResponseWriter, r *http.Request) {
	var req calc.IdeaInput
	if err := decodeValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, calc.ScoreIdea(req))
}

func (s *Server) handleCalcFunding(w http.ResponseWriter, r *http.Request) {
	var req fundingRequest
	if err := decodeValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	est, err := calc.Funding(req.MonthlyBurn, req.Revenue, req.RunwayMonths)
	if errors.Is(err, calc.ErrNoExpenses) {
		writeError(w, r, badRequest(err.Error()))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, fundingResponse{FundingEstimate: est, Summary: est.Lines()})
}

func (s *Server) handleCalcPatent(w http.ResponseWriter, r *http.Request) {
	var req patentRequest
	if err := decodeValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	est, err := calc.PatentCost(req.Type, req.Method)
	if err != nil {
		writeError(w, r, badRequest(err.Error()))
		return
	}
	writeData(w, http.StatusOK, patentResponse{PatentEstimate: est, Range: est.Range()})
}

func (s *Server) handleCalcPath(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := decodeValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, calc.LearningPath(req.Stage))
}
