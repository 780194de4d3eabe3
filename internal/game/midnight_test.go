package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/event"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/night"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/phase"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

func TestSyndicateKill(t *testing.T) {
	g := newTestGame(t, roleGoon, roleMedic, roleCitizen, roleCitizen, roleCitizen)
	toNight(t, g)
	require.True(t, g.SetSelection(0, controller.SyndicateKillID(), controller.PlayerList{2}).Accepted())

	g.Skip()

	assert.Equal(t, phase.Obituary, g.Phase())
	assert.Equal(t, 2, g.Day())
	assert.False(t, g.Alive(2))

	graves := g.Graves()
	require.Len(t, graves, 1)
	assert.Equal(t, night.Grave{Player: 2, Role: roleCitizen, Day: 1, Killers: []night.Killer{night.KillerSyndicate}}, graves[0])
	for _, p := range g.Players() {
		assert.Len(t, chatOfKind(g, p, ChatGrave), 1)
	}
	assert.Equal(t, []night.MessageKind{night.MessageKilled}, nightMessages(g, 2))

	out, ok := g.LastOutcome()
	require.True(t, ok)
	assert.Equal(t, graves, out.Deaths())
}

func TestSyndicateKillerRank(t *testing.T) {
	g := newTestGame(t, roleBoss, roleGoon, roleMedic, roleCitizen, roleCitizen, roleCitizen)

	killer, ok := g.syndicateKiller()
	require.True(t, ok)
	assert.Equal(t, roster.PlayerRef(1), killer)

	g.kill(1, night.Grave{Player: 1, Role: roleGoon, Day: 1})
	killer, ok = g.syndicateKiller()
	require.True(t, ok)
	assert.Equal(t, roster.PlayerRef(0), killer)
}

func TestMedicProtectsTarget(t *testing.T) {
	g := newTestGame(t, roleGoon, roleMedic, roleCitizen, roleCitizen, roleCitizen)
	toNight(t, g)
	require.True(t, g.SetSelection(0, controller.SyndicateKillID(), controller.PlayerList{3}).Accepted())
	require.True(t, g.SetSelection(1, targetID(1, roleMedic), controller.PlayerList{3}).Accepted())

	g.Skip()

	assert.True(t, g.Alive(3))
	assert.Empty(t, g.Graves())
	assert.Equal(t, []night.MessageKind{night.MessageAttackSurvived}, nightMessages(g, 3))
	assert.Equal(t, []night.MessageKind{night.MessageTargetSurvived}, nightMessages(g, 0))

	out, _ := g.LastOutcome()
	assert.True(t, out.Players[3].Attacked)
	assert.False(t, out.Players[3].Died)
}

func TestArmoredSurvivesBasicAttack(t *testing.T) {
	g := newTestGame(t, roleGoon, roleMedic, roleCitizen, roleCitizen, roleCitizen, roleBoss)
	v := night.NewVariables(1, g.seats(), nil)

	assert.False(t, v.TryKill(night.Attack{Target: 5, Power: night.AttackBasic, Killer: "test"}))
	assert.True(t, v.TryKill(night.Attack{Target: 5, Power: night.AttackArmorPiercing, Killer: "test"}))
}

func TestRoleblockStopsSyndicateKill(t *testing.T) {
	g := newTestGame(t, roleGoon, roleBlocker, roleCitizen, roleCitizen, roleCitizen)
	var blocked []roster.PlayerRef
	g.Events.OnRoleblocked.Register(event.On(func(_ *Game, ev Roleblocked, _ *night.Variables, _ event.Unit) {
		blocked = append(blocked, ev.Player)
	}))

	toNight(t, g)
	require.True(t, g.SetSelection(0, controller.SyndicateKillID(), controller.PlayerList{2}).Accepted())
	require.True(t, g.SetSelection(1, targetID(1, roleBlocker), controller.PlayerList{0}).Accepted())

	g.Skip()

	assert.True(t, g.Alive(2))
	assert.Equal(t, []roster.PlayerRef{0}, blocked)
	assert.Equal(t, []night.MessageKind{night.MessageRoleblocked}, nightMessages(g, 0))
	out, _ := g.LastOutcome()
	assert.True(t, out.Players[0].Blocked)
}

func TestRoleblockImmuneRole(t *testing.T) {
	g := newTestGame(t, roleGoon, roleBlocker, roleStone, roleCitizen, roleCitizen)
	toNight(t, g)
	require.True(t, g.SetSelection(1, targetID(1, roleBlocker), controller.PlayerList{2}).Accepted())
	require.True(t, g.SetSelection(2, targetID(2, roleStone), controller.PlayerList{3}).Accepted())

	g.Skip()

	out, _ := g.LastOutcome()
	assert.False(t, out.Players[2].Blocked)
	assert.Empty(t, nightMessages(g, 2))
}

func TestWardblockKeepsImmuneVisits(t *testing.T) {
	g := newTestGame(t, roleGoon, roleMedic, roleCitizen, roleCitizen, roleCitizen)
	v := night.NewVariables(1, g.seats(), []night.Visit{
		{Actor: 1, Target: 2},
		{Actor: 1, Target: 3, WardblockImmune: true},
	})

	var warded []roster.PlayerRef
	g.Events.OnWardblocked.Register(event.On(func(_ *Game, ev Wardblocked, _ *night.Variables, _ event.Unit) {
		warded = append(warded, ev.Player)
	}))

	require.True(t, g.Wardblock(v, 1))
	assert.Equal(t, []night.Visit{{Actor: 1, Target: 3, WardblockImmune: true}}, v.Visits)
	assert.Equal(t, []roster.PlayerRef{1}, warded)
}

func TestPossessRedirectsAbility(t *testing.T) {
	g := newTestGame(t, roleGoon, rolePuppeteer, roleMedic, roleCitizen, roleCitizen)
	toNight(t, g)
	require.True(t, g.SetSelection(0, controller.SyndicateKillID(), controller.PlayerList{4}).Accepted())
	require.True(t, g.SetSelection(2, targetID(2, roleMedic), controller.PlayerList{3}).Accepted())
	require.True(t, g.SetSelection(1, targetID(1, rolePuppeteer), controller.PlayerPair(2, 4)).Accepted())

	g.Midnight()

	assert.Equal(t, []roster.PlayerRef{4}, g.TargetsOf(targetID(2, roleMedic)))
	out, _ := g.LastOutcome()
	assert.False(t, out.Players[4].Died, "possessed medic protected the syndicate target")
	require.Len(t, out.Players[2].Messages, 1)
	assert.Equal(t, night.MessagePossessed, out.Players[2].Messages[0].Kind)
}

func TestPossessionImmuneRole(t *testing.T) {
	g := newTestGame(t, roleGoon, rolePuppeteer, roleStone, roleCitizen, roleCitizen)
	toNight(t, g)
	require.True(t, g.SetSelection(2, targetID(2, roleStone), controller.PlayerList{3}).Accepted())
	require.True(t, g.SetSelection(1, targetID(1, rolePuppeteer), controller.PlayerPair(2, 4)).Accepted())

	g.Midnight()

	assert.Equal(t, []roster.PlayerRef{3}, g.TargetsOf(targetID(2, roleStone)))
	out, _ := g.LastOutcome()
	assert.Empty(t, out.Players[2].Messages)
}

func TestPossessWithoutTargetsFails(t *testing.T) {
	g := newTestGame(t, roleGoon, roleMedic, roleCitizen, roleCitizen, roleCitizen)
	toNight(t, g)
	v := night.NewVariables(g.Day(), g.seats(), g.collectVisits())

	assert.False(t, g.Possess(v, 1, 3), "medic has no target to redirect")
	assert.False(t, g.Possess(v, 2, 3), "citizen has no ability")
}

func TestConversionAppliedAtDawn(t *testing.T) {
	g := newTestGame(t, roleGoon, roleMedic, roleCitizen, roleCitizen, roleCitizen, roleCitizen)
	g.Events.OnMidnight.Register(AtPriority(night.Convert, func(_ *Game, v *night.Variables) {
		v.Convert(1, roleGoon)
	}))
	toNight(t, g)

	g.Skip()

	role, _ := g.RoleOf(1)
	assert.Equal(t, roleGoon, role)
	assert.Empty(t, g.AbilitiesOf(1))
	assert.Equal(t, []roster.PlayerRef{0, 1}, g.LivingOnTeam(roster.TeamSyndicate))
}

func TestMidnightIsDeterministic(t *testing.T) {
	run := func() night.Outcome {
		g := newTestGame(t, roleGoon, rolePuppeteer, roleMedic, roleBlocker, roleCitizen, roleCitizen)
		toNight(t, g)
		require.True(t, g.SetSelection(0, controller.SyndicateKillID(), controller.PlayerList{5}).Accepted())
		require.True(t, g.SetSelection(1, targetID(1, rolePuppeteer), controller.PlayerPair(2, 4)).Accepted())
		require.True(t, g.SetSelection(2, targetID(2, roleMedic), controller.PlayerList{5}).Accepted())
		require.True(t, g.SetSelection(3, targetID(3, roleBlocker), controller.PlayerList{1}).Accepted())
		return g.Midnight()
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
	assert.Equal(t, first.Checksum(), second.Checksum())
	assert.True(t, first.Players[1].Blocked)
	assert.True(t, first.Players[5].Died, "possession resolves before roleblocks")
}
