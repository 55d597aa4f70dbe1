// Package action routes named player actions to the game engines.
package action

import (
	"encoding/json"
	"errors"

	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/crafting"
)

// Name identifies an action.
type Name string

const (
	Explore  Name = "explore"
	Fight    Name = "fight"
	Craft    Name = "craft"
	Discover Name = "discover"
	Rest     Name = "rest"
)

// Names lists every supported action.
var Names = []Name{Explore, Fight, Craft, Discover, Rest}

// Outcome tags the branch an action took.
type Outcome string

const (
	OutcomeEncounter  Outcome = "encounter"
	OutcomeFound      Outcome = "found"
	OutcomeVictory    Outcome = "victory"
	OutcomeFled       Outcome = "fled"
	OutcomeDraw       Outcome = "draw"
	OutcomeCrafted    Outcome = "crafted"
	OutcomeDiscovered Outcome = "discovered"
	OutcomeNothing    Outcome = "nothing"
	OutcomeRested     Outcome = "rested"
	OutcomeError      Outcome = "error"
)

// ErrorKind classifies a request-level failure carried in a Result.
type ErrorKind string

const (
	KindPlayerNotFound       ErrorKind = "PlayerNotFound"
	KindEncounterNotFound    ErrorKind = "EncounterNotFound"
	KindInsufficientElements ErrorKind = "InsufficientElements"
	KindUnknownAction        ErrorKind = "UnknownAction"
	KindInvalidPayload       ErrorKind = "InvalidPayload"
)

var (
	ErrPlayerNotFound       = errors.New("player not found")
	ErrEncounterNotFound    = errors.New("encounter not found")
	ErrInsufficientElements = errors.New("insufficient elements")
	ErrUnknownAction        = errors.New("unknown action")
	ErrInvalidPayload       = errors.New("invalid payload")
)

var kindErrors = map[ErrorKind]error{
	KindPlayerNotFound:       ErrPlayerNotFound,
	KindEncounterNotFound:    ErrEncounterNotFound,
	KindInsufficientElements: ErrInsufficientElements,
	KindUnknownAction:        ErrUnknownAction,
	KindInvalidPayload:       ErrInvalidPayload,
}

// Request is one action call.
type Request struct {
	PlayerID string          `json:"player_id"`
	Action   string          `json:"action"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// FightPayload selects an encounter and what to do against it.
type FightPayload struct {
	EnemyID string `json:"enemy_id"`
	Cmd     string `json:"cmd,omitempty"`
}

// CraftPayload lists the elements to combine.
type CraftPayload struct {
	Elements []string `json:"elements"`
}

// Result is the structured response of an action. Only the fields relevant
// to the outcome are set.
type Result struct {
	OK         bool                `json:"ok"`
	Action     string              `json:"action"`
	Outcome    Outcome             `json:"result,omitempty"`
	Text       string              `json:"text,omitempty"`
	Enemy      *actor.Encounter    `json:"enemy,omitempty"`
	Log        []string            `json:"log,omitempty"`
	Loot       []string            `json:"loot,omitempty"`
	XP         int                 `json:"xp,omitempty"`
	Item       *actor.Item         `json:"item,omitempty"`
	Discovered *crafting.Discovery `json:"discovered,omitempty"`
	Blueprint  *crafting.Blueprint `json:"blueprint,omitempty"`
	Message    string              `json:"msg,omitempty"`
	Error      string              `json:"error,omitempty"`
	ErrorKind  ErrorKind           `json:"error_kind,omitempty"`
	Player     *actor.Player       `json:"player,omitempty"`
}

// Err returns the sentinel error for a failed result, or nil.
func (r *Result) Err() error {
	if r.ErrorKind == "" {
		return nil
	}
	return kindErrors[r.ErrorKind]
}

func failure(action string, kind ErrorKind, msg string) *Result {
	return &Result{
		Action:    action,
		Outcome:   OutcomeError,
		Error:     msg,
		ErrorKind: kind,
	}
}
