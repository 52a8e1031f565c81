package protocol

// Query parameter names of the LEAP session API.
const (
	ParamLogin             = "login"
	ParamA                 = "A"
	ParamClientAuth        = "client_auth"
	ParamAuthenticityToken = "authenticity_token"
)

// SRPInitResponse carries the user's salt and the server ephemeral B.
type SRPInitResponse struct {
	Salt string `json:"salt"` // hex
	B    string `json:"B"`    // hex
}

// Empty reports whether the response carries neither value, which is how a
// rejected login reaches the client.
func (r *SRPInitResponse) Empty() bool {
	return r == nil || (r.Salt == "" && r.B == "")
}

// SRPVerifyResponse carries the server proof. The session token arrives as a
// cookie: SessionTokenCarrier is the cookie name and SessionToken its value.
type SRPVerifyResponse struct {
	M2                  string `json:"M2"` // hex
	ID                  string `json:"id,omitempty"`
	SessionToken        string `json:"-"`
	SessionTokenCarrier string `json:"-"`
}

// Empty reports whether the response carries no server proof.
func (r *SRPVerifyResponse) Empty() bool {
	return r == nil || r.M2 == ""
}

// APIErrors is the body a provider sends for a rejected request, e.g.
// {"errors": {"password": "wrong password"}}.
type APIErrors struct {
	Errors map[string]string `json:"errors"`
}
