package domain

// SignalPostAppID is the discriminator value that marks a payload as an OTP request.
const (
	DiscriminatorField = "demo_app_id"
	SignalPostAppID    = "Signal Post"
	PhoneField         = "phone_number"
	ActionSignalPost   = "signal_post"
)

// DispatchResult reports what the dispatch rule did with a payload.
// Triggered=false payloads were passed through untouched.
type DispatchResult struct {
	Triggered bool             `json:"-"`
	Action    string           `json:"action,omitempty"`
	Success   bool             `json:"success"`
	Details   *DispatchDetails `json:"details,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// DispatchDetails carries diagnostics for a triggered dispatch. The issued code
// itself is never included; CodeMarker is a masked stand-in.
type DispatchDetails struct {
	OriginalPhone             string      `json:"originalPhone"`
	E164Phone                 string      `json:"e164Phone"`
	CodeMarker                string      `json:"generatedSignalCode"`
	OTPStored                 bool        `json:"otpStored"`
	OTPExpiresIn              string      `json:"otpExpiresIn"`
	OriginalPayloadSignalCode string      `json:"originalPayloadSignalCode"`
	ProviderResponse          interface{} `json:"providerResponse,omitempty"`
	ProviderError             string      `json:"providerError,omitempty"`
}
