package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/elonfeng/founderboard/pkg/alert"
	"github.com/elonfeng/founderboard/pkg/discussion"
	"github.com/elonfeng/founderboard/pkg/render"
	"github.com/elonfeng/founderboard/pkg/search"
)

type createDiscussionRequest struct {
	Topic    string `json:"topic"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

type addReplyRequest struct {
	Message string `json:"message"`
}

type searchResult struct {
	search.Hit
	Discussion render.DiscussionView `json:"discussion"`
}

func (s *Server) handleListDiscussions(w http.ResponseWriter, r *http.Request) {
	ds := s.deps.Discussions.List(r.Context(), discussion.Filter{Category: r.URL.Query().Get("category")})
	writeList(w, s.deps.Renderer.Discussions(ds))
}

// Validation is left to the store so the API and CLI report the same errors.
func (s *Server) handleCreateDiscussion(w http.ResponseWriter, r *http.Request) {
	var req createDiscussionRequest
	if err := decodeValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	d, err := s.deps.Discussions.CreateDiscussion(r.Context(), req.Topic, req.Category, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.MarkStale()
	boardEvents.WithLabelValues("discussion_created").Inc()
	s.notify(r.Context(), alert.ForDiscussion(d, s.deps.BaseURL))

	writeData(w, http.StatusCreated, s.deps.Renderer.Discussion(d))
}

func (s *Server) handleGetDiscussion(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.deps.Discussions.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, s.deps.Renderer.Discussion(d))
}

func (s *Server) handleDeleteDiscussion(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Discussions.DeleteDiscussion(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.MarkStale()
	boardEvents.WithLabelValues("discussion_deleted").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListReplies(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	replies, err := s.deps.Discussions.ListReplies(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, s.deps.Renderer.Replies(replies))
}

func (s *Server) handleAddReply(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req addReplyRequest
	if err := decodeValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	reply, err := s.deps.Discussions.AddReply(r.Context(), id, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.MarkStale()
	boardEvents.WithLabelValues("reply_created").Inc()
	if d, err := s.deps.Discussions.Get(r.Context(), id); err == nil {
		s.notify(r.Context(), alert.ForReply(d, reply, s.deps.BaseURL))
	}

	writeData(w, http.StatusCreated, s.deps.Renderer.Reply(reply))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeList(w, discussion.Categories())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, r, badRequest("query is required"))
		return
	}

	ds, err := s.refreshIndex(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	hits, err := s.deps.Index.Search(q, s.deps.MaxResults)
	if err != nil {
		writeError(w, r, err)
		return
	}

	byID := make(map[int64]discussion.Discussion, len(ds))
	for _, d := range ds {
		byID[d.ID] = d
	}
	results := make([]searchResult, 0, len(hits))
	for _, h := range hits {
		d, ok := byID[h.ID]
		if !ok {
			continue
		}
		results = append(results, searchResult{Hit: h, Discussion: s.deps.Renderer.Discussion(d)})
	}
	writeList(w, results)
}

// refreshIndex rebuilds the search index if discussions changed since the
// last rebuild. The flag is cleared before listing so a write that lands
// mid-rebuild marks the index stale again.
func (s *Server) refreshIndex(ctx context.Context) ([]discussion.Discussion, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	rebuild := s.stale.Swap(false)
	ds := s.deps.Discussions.List(ctx, discussion.Filter{})
	if !rebuild {
		return ds, nil
	}
	if err := s.deps.Index.Rebuild(ds); err != nil {
		s.stale.Store(true)
		return nil, err
	}
	return ds, nil
}
