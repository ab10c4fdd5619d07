package session

import "github.com/tessro/earshot/internal/core"

// SearchPending shows the query as in flight for generation gen. Older
// generations are ignored.
func (s *Session) SearchPending(query string, gen uint64) {
	s.mutate(func(st *State) bool {
		if gen < st.Search.Generation {
			return false
		}
		st.Search.Query = query
		st.Search.Pending = true
		st.Search.Generation = gen
		return true
	}, nil)
}

// SearchResults displays hits for generation gen. Hits for any other
// generation than the one last marked pending are ignored.
func (s *Session) SearchResults(query string, gen uint64, hits []core.SearchHit) bool {
	return s.mutate(func(st *State) bool {
		if st.Search.Generation != gen {
			return false
		}
		st.Search = SearchState{Query: query, Hits: hits, Generation: gen}
		return true
	}, nil)
}

// SearchFailed stops the pending indicator for gen, keeping prior hits.
func (s *Session) SearchFailed(gen uint64) bool {
	return s.mutate(func(st *State) bool {
		if st.Search.Generation != gen || !st.Search.Pending {
			return false
		}
		st.Search.Pending = false
		return true
	}, nil)
}

// ClearSearch empties displayed results as of generation gen. Older
// generations are ignored.
func (s *Session) ClearSearch(query string, gen uint64) {
	s.mutate(func(st *State) bool {
		if gen < st.Search.Generation {
			return false
		}
		st.Search = SearchState{Query: query, Generation: gen}
		return true
	}, nil)
}
