package bancho

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/model"
)

func TestChannelManager_Resolve(t *testing.T) {
	cm := NewChannelManager()
	osu := model.NewChannel("#osu", "main", constants.PrivAnyone, constants.PrivAnyone, true, false)
	cm.Add(osu)

	host := newTestSession(1001, "host", "tok-h")
	watcher := newTestSession(1002, "watcher", "tok-w")
	spec := model.NewChannel(model.SpecChannelName(host.ID), "", constants.PrivAnyone, constants.PrivAnyone, false, true)
	cm.Add(spec)
	host.Spectators = append(host.Spectators, watcher)
	watcher.Spectating = host

	assert.Same(t, osu, cm.Resolve("#osu", watcher))
	assert.Same(t, spec, cm.Resolve("#spectator", watcher), "spectator resolves through the host")
	assert.Same(t, spec, cm.Resolve("#spectator", host), "host resolves own channel")

	loner := newTestSession(1003, "loner", "tok-l")
	assert.Nil(t, cm.Resolve("#spectator", loner))
	assert.Nil(t, cm.Resolve("#multiplayer", loner))

	m := model.NewMatch(0)
	m.Chat = model.NewChannel(model.MultiChannelName(m.ID), "", constants.PrivAnyone, constants.PrivAnyone, false, true)
	loner.Match = m
	assert.Same(t, m.Chat, cm.Resolve("#multiplayer", loner))
}

func TestChannelManager_Remove(t *testing.T) {
	cm := NewChannelManager()
	c := model.NewChannel("#osu", "", constants.PrivAnyone, constants.PrivAnyone, true, false)
	cm.Add(c)

	cm.Remove("#osu")
	assert.Nil(t, cm.Get("#osu"))
}
