package call

import "strings"

// MediaErrorCode distinguishes the media-access failures that get their own
// user-facing message. Everything else surfaces with its raw engine text.
type MediaErrorCode string

const (
	MediaPermissionDenied MediaErrorCode = "permission_denied"
	MediaDeviceNotFound   MediaErrorCode = "device_not_found"
	MediaDeviceBusy       MediaErrorCode = "device_busy"
	MediaUnknown          MediaErrorCode = "unknown"
)

// MediaError wraps a media-acquisition failure with its category and a
// message fit to show a user.
type MediaError struct {
	Code    MediaErrorCode
	Message string
	cause   error
}

func (e *MediaError) Error() string { return e.Message }

func (e *MediaError) Unwrap() error { return e.cause }

// ClassifyMediaError maps an engine error from stream creation onto the
// media taxonomy.
func ClassifyMediaError(err error) *MediaError {
	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "permission denied"),
		strings.Contains(text, "not allowed"):
		return &MediaError{
			Code:    MediaPermissionDenied,
			Message: "Camera and microphone access was denied. Check permissions and try again.",
			cause:   err,
		}
	case strings.Contains(text, "not found"),
		strings.Contains(text, "no device"):
		return &MediaError{
			Code:    MediaDeviceNotFound,
			Message: "No camera or microphone was found on this device.",
			cause:   err,
		}
	case strings.Contains(text, "busy"),
		strings.Contains(text, "in use"),
		strings.Contains(text, "not readable"):
		return &MediaError{
			Code:    MediaDeviceBusy,
			Message: "The camera or microphone is already in use by another application.",
			cause:   err,
		}
	}
	return &MediaError{Code: MediaUnknown, Message: err.Error(), cause: err}
}
