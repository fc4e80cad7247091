package domain

// UserInfo is the identity record returned by the sign-in provider
type UserInfo struct {
	ID         string `json:"id"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
	Photo      string `json:"photo,omitempty"`
}

// AuthSession is the signed-in state. UserInfo and AccessToken are either
// both set or both empty.
type AuthSession struct {
	UserInfo    *UserInfo `json:"userInfo"`
	AccessToken string    `json:"-"`
}

// Authenticated reports whether the session holds an identity and a token
func (s AuthSession) Authenticated() bool {
	return s.UserInfo != nil && s.AccessToken != ""
}
