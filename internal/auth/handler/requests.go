package handler

import (
	"strings"

	"github.com/asaskevich/govalidator"

	dErrors "studentdesk/pkg/domain-errors"
)

// signupRequest is the HTTP request body for POST /api/auth/signup.
type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate collects every violation into a single comma-joined message so
// the client sees all problems at once.
func (r *signupRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var errs []string
	if len(strings.TrimSpace(r.Username)) < 3 {
		errs = append(errs, "Username must be at least 3 characters long")
	}
	if !govalidator.IsEmail(r.Email) {
		errs = append(errs, "Please provide a valid email")
	}
	if len(r.Password) < 6 {
		errs = append(errs, "Password must be at least 6 characters long")
	}
	if len(errs) > 0 {
		return dErrors.New(dErrors.CodeValidation, strings.Join(errs, ", "))
	}
	return nil
}

// loginRequest is the HTTP request body for POST /api/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var errs []string
	if r.Email == "" {
		errs = append(errs, "Email is required")
	}
	if r.Password == "" {
		errs = append(errs, "Password is required")
	}
	if len(errs) > 0 {
		return dErrors.New(dErrors.CodeValidation, strings.Join(errs, ", "))
	}
	return nil
}
