package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jwebster45206/realm-engine/pkg/action"
	"github.com/jwebster45206/realm-engine/pkg/actor"
)

// sortedEncounters lists a player's encounters in a stable display order.
func sortedEncounters(p *actor.Player) []*actor.Encounter {
	out := make([]*actor.Encounter, 0, len(p.Encounters))
	for _, e := range p.Encounters {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// parseInput turns a typed line into an action request. Fight targets may be
// given by list number or id and default to the first encounter.
//
//	explore | rest | discover
//	fight [n|enemy_id] [cmd...]
//	craft <element> <element> [...]
func parseInput(input string, p *actor.Player) (action.Request, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return action.Request{}, fmt.Errorf("nothing to do")
	}
	req := action.Request{PlayerID: p.ID, Action: strings.ToLower(fields[0])}
	args := fields[1:]

	var payload any
	switch action.Name(req.Action) {
	case action.Explore, action.Rest, action.Discover:
	case action.Fight:
		encounters := sortedEncounters(p)
		if len(encounters) == 0 {
			return action.Request{}, fmt.Errorf("there is nothing to fight, try exploring")
		}
		fp := action.FightPayload{EnemyID: encounters[0].ID}
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				if n < 1 || n > len(encounters) {
					return action.Request{}, fmt.Errorf("no encounter #%d", n)
				}
				fp.EnemyID = encounters[n-1].ID
				args = args[1:]
			} else if _, ok := p.Encounter(args[0]); ok {
				fp.EnemyID = args[0]
				args = args[1:]
			}
		}
		fp.Cmd = strings.Join(args, " ")
		payload = fp
	case action.Craft:
		if len(args) < 2 {
			return action.Request{}, fmt.Errorf("craft needs at least two elements")
		}
		payload = action.CraftPayload{Elements: args}
	default:
		return action.Request{}, fmt.Errorf("unknown command %q, try /help", fields[0])
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return action.Request{}, err
		}
		req.Payload = data
	}
	return req, nil
}

// describeResult renders an action result as plain lines.
func describeResult(res *action.Result) []string {
	if res.Error != "" {
		return []string{"Error: " + res.Error}
	}
	var lines []string
	if res.Text != "" {
		lines = append(lines, res.Text)
	}
	if res.Enemy != nil && res.Outcome == action.OutcomeEncounter {
		lines = append(lines, fmt.Sprintf("%s appears (HP %d, ATK %d, AGI %d).",
			res.Enemy.Name, res.Enemy.HP, res.Enemy.Attack, res.Enemy.Agility))
	}
	lines = append(lines, res.Log...)
	if len(res.Loot) > 0 {
		lines = append(lines, "Loot: "+strings.Join(res.Loot, ", "))
	}
	if res.Item != nil {
		lines = append(lines, fmt.Sprintf("Crafted %s [%s] power %.2f.", res.Item.Name, res.Item.Rarity, res.Item.Power))
		if res.Item.Flavor != "" {
			lines = append(lines, res.Item.Flavor)
		}
	}
	if d := res.Discovered; d != nil && d.Blueprint != nil {
		if d.Already {
			lines = append(lines, "Already known: "+strings.Join(d.Blueprint.Elements, " + ")+".")
		} else {
			lines = append(lines, "New blueprint discovered: "+strings.Join(d.Blueprint.Elements, " + ")+".")
		}
	} else if res.Blueprint != nil {
		lines = append(lines, fmt.Sprintf("Blueprint %s: %s.", res.Blueprint.ID, strings.Join(res.Blueprint.Elements, " + ")))
	}
	if res.Message != "" {
		lines = append(lines, res.Message)
	}
	if res.XP > 0 {
		lines = append(lines, fmt.Sprintf("+%d XP", res.XP))
	}
	if len(lines) == 0 {
		lines = append(lines, fmt.Sprintf("%s: %s", res.Action, res.Outcome))
	}
	return lines
}
