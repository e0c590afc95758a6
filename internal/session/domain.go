package session

// Role is the single authorization dimension used by guards and navigation.
type Role string

// Known roles.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Status describes the lifecycle of a user account.
type Status string

// Known account statuses.
const (
	StatusActive   Status = "active"
	StatusPending  Status = "pending"
	StatusInactive Status = "inactive"
)

// User represents the authenticated operator.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar,omitempty"`
	Role      Role   `json:"role"`
	Status    Status `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Credentials carries a login attempt.
type Credentials struct {
	Email    string
	Password string
}

// State is an immutable snapshot of the session store.
//
// Invariant: Authenticated == (User != nil && Token != "") after every
// committed transition.
type State struct {
	User          *User
	Token         string
	Authenticated bool
	Loading       bool
	Err           string
}

// Consistent reports whether the snapshot honours the store invariant.
func (s State) Consistent() bool {
	return s.Authenticated == (s.User != nil && s.Token != "")
}

// CurrentRole returns the user's role, or "" when logged out.
func (s State) CurrentRole() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}
