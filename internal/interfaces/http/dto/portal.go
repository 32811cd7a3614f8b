package dto

// Portal result codes. The supplier portal uses a numeric envelope instead
// of the staff API's success flag.
const (
	PortalCodeOK    = 0
	PortalCodeError = 1
)

// PortalResponse is the envelope for all public supplier-portal endpoints
type PortalResponse struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// NewPortalSuccess creates a portal success envelope
func NewPortalSuccess(data interface{}) PortalResponse {
	return PortalResponse{
		Code: PortalCodeOK,
		Msg:  "ok",
		Data: data,
	}
}

// NewPortalError creates a portal failure envelope. The message must never
// reveal which access gate failed.
func NewPortalError(msg string) PortalResponse {
	return PortalResponse{
		Code: PortalCodeError,
		Msg:  msg,
	}
}

// NewPortalErrorWithData creates a portal failure envelope carrying
// structured detail, used for allocation and validation errors
func NewPortalErrorWithData(msg string, data interface{}) PortalResponse {
	return PortalResponse{
		Code: PortalCodeError,
		Msg:  msg,
		Data: data,
	}
}
