package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/elonfeng/founderboard/pkg/progress"
)

type sectionView struct {
	Items   map[string]bool `json:"items"`
	Percent int             `json:"percent"`
}

type progressView struct {
	Sections     map[string]sectionView `json:"sections"`
	Completed    int                    `json:"completed"`
	Knowledge    int                    `json:"knowledge"`
	LastUpdated  int64                  `json:"last_updated"`
	Achievements []progress.Achievement `json:"achievements"`
	Unlocked     []progress.Achievement `json:"unlocked,omitempty"`
}

type setProgressRequest struct {
	Completed bool `json:"completed"`
}

type mvpView struct {
	Checked  []bool                 `json:"checked"`
	Percent  int                    `json:"percent"`
	Unlocked []progress.Achievement `json:"unlocked,omitempty"`
}

type saveMVPRequest struct {
	Checked []bool `json:"checked" validate:"required"`
}

func newProgressView(p progress.Progress, earned, unlocked []progress.Achievement) progressView {
	sections := make(map[string]sectionView, len(p.Sections))
	for _, name := range p.SectionNames() {
		sections[name] = sectionView{Items: p.Sections[name], Percent: p.SectionPercent(name)}
	}
	if earned == nil {
		earned = []progress.Achievement{}
	}
	return progressView{
		Sections:     sections,
		Completed:    p.Completed(),
		Knowledge:    p.Knowledge(),
		LastUpdated:  p.LastUpdated,
		Achievements: earned,
		Unlocked:     unlocked,
	}
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Progress.Load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	earned, err := s.deps.Progress.Unlocked(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, newProgressView(p, earned, nil))
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Progress.Reset(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetProgress(w http.ResponseWriter, r *http.Request) {
	var req setProgressRequest
	if err := decodeValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, unlocked, err := s.deps.Progress.SetItem(r.Context(), chi.URLParam(r, "section"), chi.URLParam(r, "item"), req.Completed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	earned, err := s.deps.Progress.Unlocked(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, newProgressView(p, earned, unlocked))
}

func (s *Server) handleGetMVP(w http.ResponseWriter, r *http.Request) {
	checked, err := s.deps.Progress.LoadMVP(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if checked == nil {
		checked = []bool{}
	}
	writeData(w, http.StatusOK, mvpView{Checked: checked, Percent: progress.MVPPercent(checked)})
}

func (s *Server) handleSaveMVP(w http.ResponseWriter, r *http.Request) {
	var req saveMVPRequest
	if err := decodeValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	pct, unlocked, err := s.deps.Progress.SaveMVP(r.Context(), req.Checked)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mvpView{Checked: req.Checked, Percent: pct, Unlocked: unlocked})
}
