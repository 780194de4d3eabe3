package game

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

func TestParseOutline(t *testing.T) {
	tests := []struct {
		in      string
		want    RoleOutline
		wantErr bool
	}{
		{in: "any", want: RoleOutline{Any: true}},
		{in: " Team:Syndicate ", want: RoleOutline{Team: roster.TeamSyndicate}},
		{in: "medic", want: RoleOutline{Role: roleMedic}},
		{in: "team:pirates", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutline(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseOutlines([]string{"any", "team:nobody"})
	assert.ErrorContains(t, err, "entry 1")
}

func TestGenerateRolesIsSeeded(t *testing.T) {
	outlines, err := ParseOutlines([]string{"team:syndicate", "medic", "team:town", "any", "citizen"})
	require.NoError(t, err)

	first, err := GenerateRoles(outlines, 5, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	second, err := GenerateRoles(outlines, 5, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, roleMedic)
	assert.Contains(t, first, roleCitizen)

	var syndicate int
	for _, role := range first {
		spec, ok := LookupRole(role)
		require.True(t, ok)
		if spec.Team == roster.TeamSyndicate {
			syndicate++
		}
	}
	assert.GreaterOrEqual(t, syndicate, 1)
}

func TestGenerateRolesErrors(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	_, err := GenerateRoles([]RoleOutline{{Any: true}}, 2, rng)
	assert.True(t, errors.Is(err, ErrRoleListTooShort))

	_, err = GenerateRoles(nil, 0, rng)
	assert.True(t, errors.Is(err, ErrNoPlayers))

	_, err = GenerateRoles([]RoleOutline{{Role: roleCitizen}, {Team: roster.TeamTown}}, 2, rng)
	assert.True(t, errors.Is(err, ErrRoleListUnsatisfiable), "no syndicate")

	_, err = GenerateRoles([]RoleOutline{{Role: roleBoss}, {Role: roleBoss}, {Role: roleCitizen}}, 3, rng)
	assert.True(t, errors.Is(err, ErrRoleListUnsatisfiable), "unique role twice")

	_, err = GenerateRoles([]RoleOutline{{Role: "jester"}, {Role: roleGoon}}, 2, rng)
	assert.True(t, errors.Is(err, ErrRoleListUnsatisfiable))
}

func TestGenerateRolesKeepsExplicitUniqueRole(t *testing.T) {
	outlines := []RoleOutline{{Team: roster.TeamSyndicate}, {Role: roleBoss}, {Role: roleCitizen}}
	for seed := uint64(0); seed < 20; seed++ {
		roles, err := GenerateRoles(outlines, 3, rand.New(rand.NewPCG(seed, seed)))
		require.NoError(t, err)
		assert.Contains(t, roles, roleBoss)
	}
}
