package models

// User is a row of users_table. The password hash never leaves the server.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"user_email"`
	Username     string `json:"user_username"`
	PasswordHash string `json:"-"`
}

// Principal returns the session-safe projection of the user.
func (u User) Principal() Principal {
	return Principal{ID: u.ID, Email: u.Email, Username: u.Username}
}

// Principal is the authenticated identity bound to a session.
type Principal struct {
	ID       int64  `json:"id"`
	Email    string `json:"user_email"`
	Username string `json:"user_username"`
}

// Note is a row of notes_table. OwnerID is set on insert and never updated.
type Note struct {
	ID      int64  `json:"note_id"`
	OwnerID int64  `json:"user_id"`
	Title   string `json:"note_title"`
	Content string `json:"note_content"`
	Status  string `json:"datetimedetails"`
}
