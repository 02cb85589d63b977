package model

type SearchScope string

const (
	SearchAll       SearchScope = "all"
	SearchQuestions SearchScope = "questions"
	SearchAnswers   SearchScope = "answers"
	SearchSolved    SearchScope = "solved"
	SearchUnsolved  SearchScope = "unsolved"
)

type SearchSort string

const (
	SearchSortRelevance SearchSort = "relevance"
	SearchSortNewest    SearchSort = "newest"
	SearchSortVotes     SearchSort = "votes"
)

type SearchFilter struct {
	Query  string
	Filter SearchScope
	Sort   SearchSort
	Limit  int
}

// ParseSearchFilter falls back to searching everything by relevance.
func ParseSearchFilter(query, filter, sort string, limit int) SearchFilter {
	f := SearchFilter{Query: query, Filter: SearchAll, Sort: SearchSortRelevance, Limit: limit}
	switch s := SearchScope(filter); s {
	case SearchQuestions, SearchAnswers, SearchSolved, SearchUnsolved:
		f.Filter = s
	}
	switch s := SearchSort(sort); s {
	case SearchSortNewest, SearchSortVotes:
		f.Sort = s
	}
	return f
}

// IncludesQuestions reports whether question hits belong in the result.
func (f SearchFilter) IncludesQuestions() bool {
	return f.Filter != SearchAnswers
}

// IncludesAnswers reports whether answer hits belong in the result.
func (f SearchFilter) IncludesAnswers() bool {
	return f.Filter == SearchAll || f.Filter == SearchAnswers
}

// SearchResult groups question and answer hits.
type SearchResult struct {
	Questions []Question `json:"questions"`
	Answers   []Answer   `json:"answers"`
}
