// Package clientpackets parses the structured osu! -> server payloads.
// Single-integer payloads are read inline by the handlers; only compound
// layouts get a parser here.
package clientpackets

import (
	"fmt"

	"github.com/osukon/banchod/internal/bancho/packet"
	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/model"
)

// ChangeAction is the client's status update.
//
// Structure:
//   - u8:     action
//   - string: info text
//   - string: map md5
//   - i32:    mods
//   - u8:     mode
//   - i32:    map id
type ChangeAction struct {
	Action   uint8
	InfoText string
	MapMD5   string
	Mods     constants.Mods
	Mode     uint8
	MapID    int32
}

// ParseChangeAction parses a ChangeAction payload.
func ParseChangeAction(data []byte) (*ChangeAction, error) {
	r := packet.NewReader(data)

	action, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading action: %w", err)
	}
	infoText, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading info text: %w", err)
	}
	mapMD5, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading map md5: %w", err)
	}
	mods, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading mods: %w", err)
	}
	mode, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading mode: %w", err)
	}
	mapID, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading map id: %w", err)
	}

	return &ChangeAction{
		Action:   action,
		InfoText: infoText,
		MapMD5:   mapMD5,
		Mods:     constants.Mods(mods),
		Mode:     mode,
		MapID:    mapID,
	}, nil
}

// Message is a chat message. The client fills sender and sender id with
// junk; only text and recipient matter.
type Message struct {
	Text      string
	Recipient string
}

// ParseMessage parses a chat message payload.
func ParseMessage(data []byte) (*Message, error) {
	r := packet.NewReader(data)

	if _, err := r.ReadString(); err != nil {
		return nil, fmt.Errorf("reading sender: %w", err)
	}
	text, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}
	recipient, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading recipient: %w", err)
	}
	if _, err := r.ReadInt32(); err != nil {
		return nil, fmt.Errorf("reading sender id: %w", err)
	}

	return &Message{Text: text, Recipient: recipient}, nil
}

// JoinMatch is a request to enter a multiplayer room.
type JoinMatch struct {
	MatchID int32
	Passwd  string
}

// ParseJoinMatch parses a JoinMatch payload.
func ParseJoinMatch(data []byte) (*JoinMatch, error) {
	r := packet.NewReader(data)

	matchID, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading match id: %w", err)
	}
	passwd, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return &JoinMatch{MatchID: matchID, Passwd: passwd}, nil
}

// MatchPayload is the client's view of a room, sent with create-match and
// change-settings requests. Slot occupants and statuses are client junk
// and discarded; the server's room state is authoritative.
type MatchPayload struct {
	Name         string
	Passwd       string
	MapName      string
	MapID        int32
	MapMD5       string
	HostID       int32
	Mode         uint8
	Mods         constants.Mods
	WinCondition model.MatchWinCondition
	TeamType     model.MatchTeamType
	Freemods     bool
	Seed         int32
}

// ParseMatch parses a match payload.
func ParseMatch(data []byte) (*MatchPayload, error) {
	r := packet.NewReader(data)

	if _, err := r.ReadInt16(); err != nil { // match id
		return nil, fmt.Errorf("reading match id: %w", err)
	}
	if err := r.Skip(2); err != nil { // in_progress, powerplay
		return nil, fmt.Errorf("skipping flags: %w", err)
	}
	mods, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading mods: %w", err)
	}
	name, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading name: %w", err)
	}
	passwd, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	mapName, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading map name: %w", err)
	}
	mapID, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading map id: %w", err)
	}
	mapMD5, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading map md5: %w", err)
	}

	var statuses [16]byte
	for i := range statuses {
		statuses[i], err = r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading slot status %d: %w", i, err)
		}
	}
	if err := r.Skip(16); err != nil { // slot teams
		return nil, fmt.Errorf("skipping slot teams: %w", err)
	}
	for i, st := range statuses {
		if model.SlotStatus(st)&model.SlotHasPlayer != 0 {
			if _, err := r.ReadInt32(); err != nil {
				return nil, fmt.Errorf("reading slot %d player id: %w", i, err)
			}
		}
	}

	hostID, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading host id: %w", err)
	}
	mode, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading mode: %w", err)
	}
	winCondition, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading win condition: %w", err)
	}
	teamType, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading team type: %w", err)
	}
	freemods, err := r.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("reading freemods: %w", err)
	}
	if freemods {
		if err := r.Skip(16 * 4); err != nil { // per-slot mods
			return nil, fmt.Errorf("skipping slot mods: %w", err)
		}
	}
	seed, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading seed: %w", err)
	}

	return &MatchPayload{
		Name:         name,
		Passwd:       passwd,
		MapName:      mapName,
		MapID:        mapID,
		MapMD5:       mapMD5,
		HostID:       hostID,
		Mode:         mode,
		Mods:         constants.Mods(mods),
		WinCondition: model.MatchWinCondition(winCondition),
		TeamType:     model.MatchTeamType(teamType),
		Freemods:     freemods,
		Seed:         seed,
	}, nil
}
