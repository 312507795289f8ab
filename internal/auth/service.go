package auth

// Service is the account/session contract consumed by the HTTP layer.
// User IDs are opaque strings minted at account creation and never reused.
type Service interface {
	Register(username, password string) (userID string, sessionToken string, err error)
	Login(username, password string) (userID string, sessionToken string, err error)
	// Guest creates an anonymous throwaway account with an authenticated
	// session. Guests cannot log back in once the session is gone.
	Guest() (userID string, sessionToken string, err error)
	ResolveSession(token string) (userID string, username string, ok bool)
	Logout(token string)
	Close() error
}
