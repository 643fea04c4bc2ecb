package errors

import (
	"errors"
	"fmt"
)

// ErrorDump flattens an error chain into the fields logged on request failures.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

type upstreamCarrier interface {
	StatusCode() int
	Body() string
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var upstream upstreamCarrier
	if errors.As(err, &upstream) {
		d.UpstreamStatus = upstream.StatusCode()
		d.UpstreamBody = upstream.Body()
	}

	return d
}
