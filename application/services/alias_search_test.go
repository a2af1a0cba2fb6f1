package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
)

func TestAliasScores(t *testing.T) {
	score := func(query, name string) float64 {
		n, err := valueobjects.NewAliasName(name, 0)
		require.NoError(t, err)
		got := rankAliases(query, []*entities.Alias{entities.ReconstructAlias("a", "n", n, "vi", 1, time.Time{})}, 1, 0)
		require.Len(t, got, 1)
		return got[0].Score
	}

	tests := []struct {
		query, name string
		want        float64
	}{
		{"thu vien", "Thư viện", 100},
		{"thu vien", "Viện thư", 100},
		{"thu vien", "Tòa A thư viện", 100},
		{"hoi truong", "Hội trường lớn", 100},
		{"abc", "xyz", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, score(tt.query, tt.name), "%q vs %q", tt.query, tt.name)
	}

	typo := score("thu vein", "Thư viện")
	assert.Greater(t, typo, 70.0)
	assert.Less(t, typo, 100.0)
}

func TestRankAliases(t *testing.T) {
	alias := func(id, node, name string) *entities.Alias {
		n, _ := valueobjects.NewAliasName(name, 0)
		return entities.ReconstructAlias(valueobjects.AliasID(id), valueobjects.NodeID(node), n, "vi", 1, time.Time{})
	}
	aliases := []*entities.Alias{
		alias("1", "n1", "Cổng chính"),
		alias("2", "n2", "Thư viện"),
		alias("3", "n3", "Thư viện cũ"),
	}

	got := rankAliases("thu vien", aliases, 5, 0)
	assert.Len(t, got, 3)
	assert.Equal(t, valueobjects.NodeID("n2"), got[0].NodeID, "equal scores keep store order")
	assert.Equal(t, valueobjects.NodeID("n3"), got[1].NodeID)

	got = rankAliases("thu vien", aliases, 5, 90)
	assert.Len(t, got, 2)

	assert.Empty(t, rankAliases("", aliases, 5, 0))
}
