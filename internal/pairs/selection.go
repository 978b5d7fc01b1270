package pairs

import "github.com/TruWeaveTrader/statarb/internal/models"

// SelectionKind tells apart the three outcomes of a scan
type SelectionKind int

const (
	// SelectionNone means no pair had enough overlapping data to be tested
	SelectionNone SelectionKind = iota
	// SelectionTradable means Pairs holds only pairs at or below the threshold
	SelectionTradable
	// SelectionBestEffort means pairs were tested but none was significant;
	// Pairs holds every tested pair
	SelectionBestEffort
)

func (k SelectionKind) String() string {
	switch k {
	case SelectionTradable:
		return "tradable"
	case SelectionBestEffort:
		return "best_effort"
	default:
		return "none"
	}
}

// MarshalText lets the kind appear by name in JSON reports
func (k SelectionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Selection is the ranked result of a scan
type Selection struct {
	Kind      SelectionKind          `json:"kind"`
	Pairs     []models.CandidatePair `json:"pairs"`
	Evaluated int                    `json:"evaluated"`
	Skipped   int                    `json:"skipped"`
}

// IsEmpty reports whether no pair could be evaluated
func (s Selection) IsEmpty() bool {
	return s.Kind == SelectionNone || len(s.Pairs) == 0
}

// Best returns the lowest p-value pair
func (s Selection) Best() (models.CandidatePair, bool) {
	if s.IsEmpty() {
		return models.CandidatePair{}, false
	}
	return s.Pairs[0], true
}

// Top returns at most n leading pairs
func (s Selection) Top(n int) []models.CandidatePair {
	if n < 0 || n >= len(s.Pairs) {
		return s.Pairs
	}
	return s.Pairs[:n]
}

func classify(ranked []models.CandidatePair, threshold float64) Selection {
	if len(ranked) == 0 {
		return Selection{Kind: SelectionNone}
	}
	var tradable []models.CandidatePair
	for _, p := range ranked {
		if p.PValue <= threshold {
			tradable = append(tradable, p)
		}
	}
	if len(tradable) > 0 {
		return Selection{Kind: SelectionTradable, Pairs: tradable}
	}
	return Selection{Kind: SelectionBestEffort, Pairs: ranked}
}
