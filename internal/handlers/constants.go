package handlers

const (
	MsgInvalidJSON          = "Invalid JSON body"
	MsgUnauthorized         = "Authentication failed"
	MsgInvalidCredentials   = "Invalid credentials"
	MsgDuplicateName        = "Family name already exists"
	MsgFamilyNotFound       = "Family not found"
	MsgMemberNotFound       = "Member not found"
	MsgTooManyRequests      = "Too many requests, please try again later"
	MsgInternalServerError  = "Internal server error"
	MsgTokenIssuanceFailure = "Error generating authentication token"

	// maxBodyBytes bounds every JSON request body
	maxBodyBytes = 1 << 20
)
