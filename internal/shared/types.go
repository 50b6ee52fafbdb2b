package shared

// AuthClaims is what the API keeps from a validated access token
type AuthClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Gin context keys set by the auth middleware
const (
	CtxClaims = "claims"
	CtxUserID = "userID"
	CtxRole   = "role"
)
