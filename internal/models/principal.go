package models

// Principal is the request-scoped identity extracted from a validated JWT.
// It is passed explicitly into every service operation instead of being read
// from ambient state.
type Principal struct {
	ID       string
	Username string
	Admin    bool
}
