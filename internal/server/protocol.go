package server

import (
	"encoding/json"

	"github.com/rushboard/solo-board/internal/board"
)

// Message types understood by the websocket endpoint besides the board
// action kinds.
const (
	MsgUndo         = "undo"
	MsgFullReset    = "full_reset"
	MsgShuffleReset = "shuffle_reset"
	MsgLoadDeck     = "load_deck"
	MsgRollDie      = "roll_die"
	MsgFlipCoin     = "flip_coin"
	MsgGetState     = "get_state"
)

// Reply types sent to clients.
const (
	MsgBoardState = "board_state"
	MsgDieResult  = "die_result"
	MsgCoinResult = "coin_result"
	MsgError      = "error"
)

// EventIgnored marks a board_state sent back to a client whose request did
// not change the board, so it can revert an optimistic drag.
const EventIgnored = "ignored"

// ClientMessage is a request from a client. Board actions use their action
// kind as Type together with CardID, Anchor and Count.
type ClientMessage struct {
	Type   string   `json:"type"`
	CardID string   `json:"card_id,omitempty"`
	Anchor string   `json:"anchor,omitempty"`
	Count  int      `json:"count,omitempty"`
	Main   []string `json:"main,omitempty"`
	Extra  []string `json:"extra,omitempty"`
}

// ServerMessage is a reply or broadcast to clients.
type ServerMessage struct {
	Type    string `json:"type"`
	BoardID string `json:"board_id"`
	Data    any    `json:"data,omitempty"`
}

// BoardState is the payload of a board_state message.
type BoardState struct {
	Event     string         `json:"event"`
	Snapshot  board.Snapshot `json:"snapshot"`
	Draggable []string       `json:"draggable"`
	History   int            `json:"history"`
}

// DieResult is the payload of a die_result message.
type DieResult struct {
	Value int `json:"value"`
}

// CoinResult is the payload of a coin_result message.
type CoinResult struct {
	Face board.CoinFace `json:"face"`
}

// ErrorPayload is the payload of an error message.
type ErrorPayload struct {
	Message string `json:"message"`
}

func encodeBoardState(boardID, event string, snap board.Snapshot, history int) ([]byte, error) {
	return json.Marshal(ServerMessage{
		Type:    MsgBoardState,
		BoardID: boardID,
		Data: BoardState{
			Event:     event,
			Snapshot:  snap,
			Draggable: snap.DraggableIDs(),
			History:   history,
		},
	})
}
