package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/phase"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

const (
	alice roster.PlayerRef = iota
	bob
	carol
)

func targetMap(id ID, owner roster.PlayerRef, targets ...roster.PlayerRef) ParametersMap {
	return NewBuilder(id).
		Available(AvailablePlayerList{Players: roster.NewPlayerSet(targets...), MaxPlayers: 1}).
		AllowPlayers(owner).
		NightTyped().
		Build()
}

func chatMap(owner roster.PlayerRef) ParametersMap {
	return Combine(
		NewBuilder(ChatTextID(owner)).
			Available(AvailableString{}).
			AllowPlayers(owner).
			Build(),
		NewBuilder(SendChatID(owner)).
			Available(AvailableUnit{}).
			AllowPlayers(owner).
			DontSave().
			Build(),
	)
}

// assertStoreLegal checks that every stored selection satisfies its parameters.
func assertStoreLegal(t *testing.T, s *Store) {
	t.Helper()
	for _, id := range s.IDs() {
		saved, ok := s.Get(id)
		require.True(t, ok)
		assert.True(t, saved.Parameters.Legal(saved.Selection), "controller %s holds an illegal selection", id)
	}
}

func TestStoreReconcile(t *testing.T) {
	ability := RoleAbilityID(alice, "doctor", 0)

	t.Run("new controllers install defaults", func(t *testing.T) {
		s := NewStore()
		changes := s.Reconcile(targetMap(ability, alice, bob, carol))

		assert.Equal(t, []ID{ability}, changes.Changed)
		assert.Empty(t, changes.Removed)
		sel, ok := s.Selection(ability)
		require.True(t, ok)
		assert.True(t, PlayerList{}.Equal(sel))
		assertStoreLegal(t, s)
	})

	t.Run("unchanged map is a no-op", func(t *testing.T) {
		s := NewStore()
		s.Reconcile(targetMap(ability, alice, bob, carol))

		changes := s.Reconcile(targetMap(ability, alice, bob, carol))
		assert.True(t, changes.Empty())
		changes = s.Reconcile(targetMap(ability, alice, bob, carol))
		assert.True(t, changes.Empty())
	})

	t.Run("legal selection survives a parameters change", func(t *testing.T) {
		s := NewStore()
		s.Reconcile(targetMap(ability, alice, bob, carol))
		require.True(t, s.Set(PlayerActor(alice), ability, PlayerList{bob}, false).Accepted())

		changes := s.Reconcile(targetMap(ability, alice, alice, bob))
		assert.Equal(t, []ID{ability}, changes.Changed)
		sel, _ := s.Selection(ability)
		assert.True(t, PlayerList{bob}.Equal(sel))
	})

	t.Run("illegal selection falls back to default", func(t *testing.T) {
		s := NewStore()
		s.Reconcile(targetMap(ability, alice, bob, carol))
		require.True(t, s.Set(PlayerActor(alice), ability, PlayerList{carol}, false).Accepted())

		// carol died and is no longer targetable
		s.Reconcile(targetMap(ability, alice, bob))
		sel, _ := s.Selection(ability)
		assert.True(t, PlayerList{}.Equal(sel))
		assertStoreLegal(t, s)
	})

	t.Run("grayed out controllers reset", func(t *testing.T) {
		s := NewStore()
		s.Reconcile(targetMap(ability, alice, bob, carol))
		require.True(t, s.Set(PlayerActor(alice), ability, PlayerList{bob}, false).Accepted())

		grayed := NewBuilder(ability).
			Available(AvailablePlayerList{Players: roster.NewPlayerSet(bob, carol), MaxPlayers: 1}).
			AllowPlayers(alice).
			GrayedOutIf(true).
			Build()
		s.Reconcile(grayed)
		sel, _ := s.Selection(ability)
		assert.True(t, PlayerList{}.Equal(sel))
	})

	t.Run("illegal default is installed as declared", func(t *testing.T) {
		s := NewStore()
		m := NewBuilder(ability).
			Available(AvailablePlayerList{Players: roster.NewPlayerSet(bob), MaxPlayers: 1}).
			Default(PlayerList{carol}).
			AllowPlayers(alice).
			Build()
		s.Reconcile(m)
		sel, _ := s.Selection(ability)
		assert.True(t, PlayerList{carol}.Equal(sel))
	})

	t.Run("removed controllers are reported", func(t *testing.T) {
		s := NewStore()
		s.Reconcile(Combine(targetMap(ability, alice, bob), chatMap(alice)))

		changes := s.Reconcile(chatMap(alice))
		assert.Equal(t, []ID{ability}, changes.Removed)
		assert.Empty(t, changes.Changed)
		_, ok := s.Get(ability)
		assert.False(t, ok)
	})
}

func TestStoreSet(t *testing.T) {
	ability := RoleAbilityID(alice, "doctor", 0)
	newStore := func() *Store {
		s := NewStore()
		s.Reconcile(Combine(targetMap(ability, alice, bob, carol), chatMap(alice), chatMap(bob)))
		return s
	}

	tests := []struct {
		name     string
		actor    Actor
		id       ID
		sel      Selection
		override bool
		want     Rejection
	}{
		{name: "accepts legal choice", actor: PlayerActor(alice), id: ability, sel: PlayerList{bob}, want: NotRejected},
		{name: "unknown controller", actor: PlayerActor(alice), id: JudgeID(alice), sel: Integer(0), want: RejectedUnknownController},
		{name: "illegal target", actor: PlayerActor(alice), id: ability, sel: PlayerList{alice}, want: RejectedIllegal},
		{name: "too many targets", actor: PlayerActor(alice), id: ability, sel: PlayerList{bob, carol}, want: RejectedIllegal},
		{name: "wrong variant", actor: PlayerActor(alice), id: ability, sel: Boolean(true), want: RejectedIllegal},
		{name: "player not allowed", actor: PlayerActor(bob), id: ability, sel: PlayerList{bob}, want: RejectedNotAllowed},
		{name: "system bypasses permission", actor: SystemActor(), id: ability, sel: PlayerList{carol}, want: NotRejected},
		{name: "identical selection", actor: PlayerActor(alice), id: ability, sel: PlayerList{}, want: RejectedUnchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore()
			before, _ := s.Selection(tt.id)

			res := s.Set(tt.actor, tt.id, tt.sel, tt.override)
			assert.Equal(t, tt.want, res.Rejection)

			after, _ := s.Selection(tt.id)
			if res.Accepted() {
				assert.True(t, SelectionsEqual(tt.sel, after))
			} else {
				assert.True(t, SelectionsEqual(before, after), "rejection must not mutate")
			}
			assertStoreLegal(t, s)
		})
	}
}

func TestStoreSetUnitIsAlwaysReaccepted(t *testing.T) {
	s := NewStore()
	s.Reconcile(chatMap(alice))

	require.True(t, s.Set(PlayerActor(alice), ChatTextID(alice), String("hello"), false).Accepted())

	first := s.Set(PlayerActor(alice), SendChatID(alice), Unit{}, false)
	second := s.Set(PlayerActor(alice), SendChatID(alice), Unit{}, false)
	assert.True(t, first.Accepted())
	assert.True(t, second.Accepted())
	assert.False(t, first.Stored, "send button does not persist")

	again := s.Set(PlayerActor(alice), ChatTextID(alice), String("hello"), false)
	assert.Equal(t, RejectedUnchanged, again.Rejection)
}

func TestStoreSetDontSaveKeepsPriorValue(t *testing.T) {
	shoot := RoleAbilityID(alice, "deputy", 0)
	s := NewStore()
	s.Reconcile(NewBuilder(shoot).
		Available(AvailablePlayerList{Players: roster.NewPlayerSet(bob, carol), MaxPlayers: 1}).
		AllowPlayers(alice).
		DontSave().
		Build())

	res := s.Set(PlayerActor(alice), shoot, PlayerList{bob}, false)
	assert.True(t, res.Accepted())
	assert.False(t, res.Stored)
	assert.True(t, PlayerList{bob}.Equal(res.Selection))

	sel, _ := s.Selection(shoot)
	assert.True(t, PlayerList{}.Equal(sel))
}

func TestStoreSetGrayedOut(t *testing.T) {
	ability := RoleAbilityID(alice, "doctor", 0)
	s := NewStore()
	s.Reconcile(NewBuilder(ability).
		Available(AvailablePlayerList{Players: roster.NewPlayerSet(bob), MaxPlayers: 1}).
		AllowPlayers(alice).
		GrayedOutIf(true).
		Build())

	assert.Equal(t, RejectedGrayedOut, s.Set(PlayerActor(alice), ability, PlayerList{bob}, false).Rejection)
	assert.True(t, s.Set(PlayerActor(alice), ability, PlayerList{bob}, true).Accepted())
}

func TestStoreResetForPhase(t *testing.T) {
	ability := RoleAbilityID(alice, "doctor", 0)
	s := NewStore()
	s.Reconcile(Combine(targetMap(ability, alice, bob), chatMap(alice)))
	require.True(t, s.Set(PlayerActor(alice), ability, PlayerList{bob}, false).Accepted())
	require.True(t, s.Set(PlayerActor(alice), ChatTextID(alice), String("typing"), false).Accepted())

	assert.Empty(t, s.ResetForPhase(phase.Night))

	changed := s.ResetForPhase(phase.Obituary)
	assert.Equal(t, []ID{ability}, changed)
	sel, _ := s.Selection(ability)
	assert.True(t, PlayerList{}.Equal(sel))
	text, _ := s.Selection(ChatTextID(alice))
	assert.True(t, String("typing").Equal(text))
}

func TestStoreViewFor(t *testing.T) {
	ability := RoleAbilityID(alice, "doctor", 0)
	s := NewStore()
	s.Reconcile(Combine(targetMap(ability, alice, bob), chatMap(alice), chatMap(bob)))

	view := s.ViewFor(bob)
	assert.Len(t, view, 2)
	assert.Contains(t, view, ChatTextID(bob))
	assert.NotContains(t, view, ability)
}
