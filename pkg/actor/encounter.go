package actor

// Encounter is an enemy instance attached to exactly one player.
// It lives in the player's record until it is defeated, fled or abandoned.
type Encounter struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	HP      int      `json:"hp"`
	MaxHP   int      `json:"max_hp"`
	Attack  int      `json:"atk"`
	Agility int      `json:"agility"`
	Loot    []string `json:"loot"`
}
