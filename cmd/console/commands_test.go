package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwebster45206/realm-engine/pkg/action"
	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/crafting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playerWithEncounters() *actor.Player {
	p := actor.NewPlayer("Ada")
	p.AddEncounter(&actor.Encounter{ID: "e-2", Name: "Glass Serpent", HP: 9, MaxHP: 9})
	p.AddEncounter(&actor.Encounter{ID: "e-1", Name: "Dust Wraith", HP: 4, MaxHP: 6})
	return p
}

func TestParseInput(t *testing.T) {
	p := playerWithEncounters()

	tests := []struct {
		name    string
		input   string
		action  string
		payload any
		wantErr string
	}{
		{name: "explore", input: "explore", action: "explore"},
		{name: "case folded", input: "  REST ", action: "rest"},
		{name: "fight defaults to first", input: "fight", action: "fight", payload: action.FightPayload{EnemyID: "e-1"}},
		{name: "fight by number", input: "fight 2", action: "fight", payload: action.FightPayload{EnemyID: "e-2"}},
		{name: "fight by id with flee", input: "fight e-2 flee", action: "fight", payload: action.FightPayload{EnemyID: "e-2", Cmd: "flee"}},
		{name: "fight flee", input: "fight flee", action: "fight", payload: action.FightPayload{EnemyID: "e-1", Cmd: "flee"}},
		{name: "fight out of range", input: "fight 3", wantErr: "no encounter #3"},
		{name: "craft", input: "craft Iron Carbon", action: "craft", payload: action.CraftPayload{Elements: []string{"Iron", "Carbon"}}},
		{name: "craft one element", input: "craft Iron", wantErr: "at least two"},
		{name: "unknown", input: "dance", wantErr: "unknown command"},
		{name: "empty", input: "   ", wantErr: "nothing to do"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parseInput(tt.input, p)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, p.ID, req.PlayerID)
			assert.Equal(t, tt.action, req.Action)
			if tt.payload == nil {
				assert.Empty(t, req.Payload)
				return
			}
			want, err := json.Marshal(tt.payload)
			require.NoError(t, err)
			assert.JSONEq(t, string(want), string(req.Payload))
		})
	}
}

func TestParseInputFightWithoutEncounters(t *testing.T) {
	_, err := parseInput("fight", actor.NewPlayer("Ada"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "try exploring")
}

func TestDescribeResult(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		lines := describeResult(&action.Result{Error: "Missing Gold"})
		assert.Equal(t, []string{"Error: Missing Gold"}, lines)
	})

	t.Run("victory", func(t *testing.T) {
		lines := describeResult(&action.Result{
			Action:  "fight",
			Outcome: action.OutcomeVictory,
			Log:     []string{"You strike for 4."},
			Loot:    []string{"Iron"},
			XP:      25,
		})
		assert.Equal(t, []string{"You strike for 4.", "Loot: Iron", "+25 XP"}, lines)
	})

	t.Run("already discovered", func(t *testing.T) {
		lines := describeResult(&action.Result{
			Discovered: &crafting.Discovery{Already: true, Blueprint: &crafting.Blueprint{Elements: []string{"Iron", "Gold"}}},
		})
		assert.Equal(t, []string{"Already known: Iron + Gold."}, lines)
	})

	t.Run("bare outcome", func(t *testing.T) {
		lines := describeResult(&action.Result{Action: "explore", Outcome: action.OutcomeNothing})
		assert.Equal(t, []string{"explore: nothing"}, lines)
	})
}

func TestAPIClientAct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/action", r.URL.Path)
		var req action.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		if req.PlayerID == "missing" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(action.Result{Action: req.Action, Error: "Player not found", ErrorKind: action.KindPlayerNotFound})
			return
		}
		_ = json.NewEncoder(w).Encode(action.Result{OK: true, Action: req.Action, Outcome: action.OutcomeRested})
	}))
	defer server.Close()

	api := NewAPIClient(server.URL, server.Client())

	res, err := api.Act(context.Background(), action.Request{PlayerID: "p1", Action: "rest"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, action.OutcomeRested, res.Outcome)

	res, err = api.Act(context.Background(), action.Request{PlayerID: "missing", Action: "rest"})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err(), action.ErrPlayerNotFound)
}

func TestAPIClientErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"degraded"}`))
	}))
	defer server.Close()

	err := NewAPIClient(server.URL, server.Client()).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "degraded")
}
