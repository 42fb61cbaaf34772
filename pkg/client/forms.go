package client

import (
	"errors"
	"maps"

	"github.com/thebigwealth89/socialblog/pkg/session"
)

// GenericErrorMessage is shown when an error carries nothing displayable.
const GenericErrorMessage = "Something went wrong!"

// FormErrors turns an error from Login, Signup or CreatePost into what a
// form shows: per-field messages when the error names fields, otherwise one
// general message.
func FormErrors(err error) (fields map[string]string, general string) {
	if err == nil {
		return nil, ""
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		if len(verr.Fields) > 0 {
			return maps.Clone(verr.Fields), ""
		}
		if verr.Message != "" {
			return nil, verr.Message
		}
		return nil, GenericErrorMessage
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if len(httpErr.Fields) > 0 {
			return maps.Clone(httpErr.Fields), ""
		}
		if httpErr.structured && httpErr.Message != "" {
			return nil, httpErr.Message
		}
		return nil, GenericErrorMessage
	}

	if errors.Is(err, session.ErrNoSession) {
		return nil, ReasonLoginRequired
	}
	return nil, GenericErrorMessage
}
