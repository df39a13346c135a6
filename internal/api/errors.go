package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	DefaultLoginURL  = "/login"
	authFailedDetail = "认证失败，请重新登录"
)

// AuthError is a 401 response flagged with auth_error. The stored token is
// no longer accepted and the user has to log in again.
type AuthError struct {
	Detail   string
	Redirect string
}

func (e *AuthError) Error() string {
	return e.Detail
}

// Error is any other non-2xx response. Detail is the server's message, shown verbatim.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

// errorBody is the error envelope the server sends.
type errorBody struct {
	Detail    json.RawMessage `json:"detail"`
	AuthError bool            `json:"auth_error"`
	Redirect  string          `json:"redirect"`
}

// validationIssue is one entry of a request-validation detail list.
type validationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// detailText flattens detail, which is a string for application errors and
// a list of issues when the server rejects the request shape.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var issues []validationIssue
	if err := json.Unmarshal(raw, &issues); err == nil {
		msgs := make([]string, 0, len(issues))
		for _, issue := range issues {
			if len(issue.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", issue.Loc[len(issue.Loc)-1], issue.Msg))
			} else {
				msgs = append(msgs, issue.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(raw)
}

// responseError converts a non-2xx response body into AuthError or Error.
// fallback is used when the server sent no detail.
func responseError(status int, body []byte, fallback string) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	detail := detailText(eb.Detail)

	if status == 401 && eb.AuthError {
		if detail == "" {
			detail = authFailedDetail
		}
		redirect := eb.Redirect
		if redirect == "" {
			redirect = DefaultLoginURL
		}
		return &AuthError{Detail: detail, Redirect: redirect}
	}

	if detail == "" {
		detail = fallback
	}
	return &Error{Status: status, Detail: detail}
}
