package user

// Principal is the verified caller identity. It is always passed
// explicitly into use cases, never read from ambient state.
type Principal struct {
	UserID string
	Email  string
}
