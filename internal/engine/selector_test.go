package engine

import (
	"testing"

	"github.com/alejandrodnm/edgesim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edgeFor(id string, cat domain.MarketCategory, magnitude, volume float64) domain.Edge {
	return domain.Edge{
		Market:    domain.Market{ID: id, Category: cat, Volume: volume},
		Side:      domain.SideYes,
		Magnitude: magnitude,
	}
}

func noneTraded(string) bool { return false }

func TestSelect_CryptoPriorityBeatsLargerGeneralEdge(t *testing.T) {
	s := NewSelector(1.5, 1)

	edges := []domain.Edge{
		edgeFor("general", domain.CategoryGeneral, 0.10, 1000),
		edgeFor("crypto", domain.CategoryCrypto, 0.08, 1000), // 0.08*1.5 = 0.12
	}

	picked := s.Select(edges, noneTraded)
	require.Len(t, picked, 1)
	assert.Equal(t, "crypto", picked[0].Market.ID)
}

func TestSelect_DropsTradedMarkets(t *testing.T) {
	s := NewSelector(1.5, 3)

	edges := []domain.Edge{
		edgeFor("a", domain.CategoryGeneral, 0.10, 0),
		edgeFor("b", domain.CategoryGeneral, 0.12, 0),
	}

	picked := s.Select(edges, func(id string) bool { return id == "b" })
	require.Len(t, picked, 1)
	assert.Equal(t, "a", picked[0].Market.ID)
}

func TestSelect_TieBreaksDeterministic(t *testing.T) {
	s := NewSelector(1.0, 2)

	edges := []domain.Edge{
		edgeFor("z", domain.CategoryGeneral, 0.10, 500),
		edgeFor("a", domain.CategoryGeneral, 0.10, 500),
		edgeFor("m", domain.CategoryGeneral, 0.10, 900),
	}

	picked := s.Select(edges, noneTraded)
	require.Len(t, picked, 2)
	assert.Equal(t, "m", picked[0].Market.ID) // larger volume first
	assert.Equal(t, "a", picked[1].Market.ID) // then lowest ID
}

func TestSelect_RespectsBatchCap(t *testing.T) {
	s := NewSelector(1.0, 1)

	edges := []domain.Edge{
		edgeFor("a", domain.CategoryGeneral, 0.10, 0),
		edgeFor("b", domain.CategoryGeneral, 0.12, 0),
		edgeFor("c", domain.CategoryGeneral, 0.15, 0),
	}

	picked := s.Select(edges, noneTraded)
	require.Len(t, picked, 1)
	assert.Equal(t, "c", picked[0].Market.ID)
}

func TestSelect_EmptyInput(t *testing.T) {
	s := NewSelector(1.5, 1)
	assert.Empty(t, s.Select(nil, noneTraded))
}
