package constants

import "fmt"

const (
	RoleUser = "user"
)

// Template pesan error role
const (
	ErrOnlyOwnerCanAccess = "only the form owner can access %s"
)

func RoleErrorOwner(feature string) string {
	return fmt.Sprintf(ErrOnlyOwnerCanAccess, feature)
}

// Header yang dipakai responden & owner.
const (
	HeaderResponseSession = "X-Response-Session"
	HeaderFormPassword    = "X-Form-Password"
	HeaderRequestID       = "X-Request-ID"
)

// Locals keys
const (
	LocUserID   = "user_id"
	LocUserRole = "userRole"
	LocUserName = "user_name"
	LocRawToken = "raw_token"
	LocReqID    = "reqid"
)
