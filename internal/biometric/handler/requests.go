package handler

import (
	dErrors "novenantes/pkg/domain-errors"
)

type enrollRequest struct {
	MemberID int64 `json:"fraterno_id"`
}

func (r *enrollRequest) Validate() error {
	if r.MemberID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "fraterno_id is required")
	}
	return nil
}
