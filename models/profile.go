package models

// User is the account record returned by the auth API.
type User struct {
	ID     string  `json:"id"`
	Player *Player `json:"player,omitempty"`
}

// Player is the account-side player record.
type Player struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Chips    int64  `json:"chips"`
}

// Profile is what the game server needs to seat a player.
type Profile struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Balance     int    `json:"balance"`
}

func (u *User) Profile() Profile {
	if u.Player == nil {
		return Profile{PlayerID: u.ID, DisplayName: u.ID}
	}
	name := u.Player.Username
	if name == "" {
		name = u.Player.ID
	}
	return Profile{PlayerID: u.Player.ID, DisplayName: name, Balance: int(u.Player.Chips)}
}
