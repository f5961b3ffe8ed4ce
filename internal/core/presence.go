package core

// Presence is the in-memory registry of online users, process-lifetime and
// never persisted. It is owned exclusively by the hub goroutine and is not
// safe for concurrent use.
type Presence struct {
	users []OnlineUser
}

// NewPresence constructs an empty registry.
func NewPresence() *Presence {
	return &Presence{}
}

// Add inserts a user, replacing any existing entry with the same connection
// id so a re-join never duplicates presence.
func (p *Presence) Add(user OnlineUser) {
	for i, u := range p.users {
		if u.ID == user.ID {
			p.users[i] = user
			return
		}
	}
	p.users = append(p.users, user)
}

// Remove deletes and returns the entry with the given connection id.
func (p *Presence) Remove(connID string) (OnlineUser, bool) {
	for i, u := range p.users {
		if u.ID == connID {
			p.users = append(p.users[:i], p.users[i+1:]...)
			return u, true
		}
	}
	return OnlineUser{}, false
}

// ByRoom returns the users in a room, in insertion order. The result is
// never nil so rosters serialize as an empty array.
func (p *Presence) ByRoom(roomID string) []OnlineUser {
	users := make([]OnlineUser, 0, len(p.users))
	for _, u := range p.users {
		if u.RoomID == roomID {
			users = append(users, u)
		}
	}
	return users
}

// Len returns the total number of online users across all rooms.
func (p *Presence) Len() int {
	return len(p.users)
}
