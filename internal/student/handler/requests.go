package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"studentdesk/internal/student/models"
	dErrors "studentdesk/pkg/domain-errors"
)

// studentRequest is the HTTP request body for creating or updating a
// student record. All fields are required.
type studentRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Age       int    `json:"age"`
}

func (r *studentRequest) Validate() error {
	if r.FirstName == "" || r.LastName == "" || r.Email == "" || r.Age == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "All fields are required")
	}
	return nil
}

func (r *studentRequest) toInput(actorID uuid.UUID) models.StudentInput {
	return models.StudentInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Age:       r.Age,
		ActorID:   actorID,
	}
}

func decodeStudentRequest(r *http.Request) (*studentRequest, error) {
	var req studentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}
