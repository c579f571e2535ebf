package types

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SelectRoleInput picks a discovered candidate by id or supplies a custom role title
type SelectRoleInput struct {
	RoleID         string `json:"role_id,omitempty" validate:"required_without=CustomTitle"`
	CustomTitle    string `json:"custom_title,omitempty" validate:"required_without=RoleID,max=120"`
	JobDescription string `json:"job_description,omitempty" validate:"max=20000"`
}

// Validate validates the SelectRoleInput using the validator.
func (r *SelectRoleInput) Validate() error {
	r.RoleID = strings.TrimSpace(r.RoleID)
	r.CustomTitle = strings.TrimSpace(r.CustomTitle)
	validate := validator.New()
	return validate.Struct(r)
}

// TransformInput requests a direct style rewrite. A nil JobIndex means every job;
// empty BulletIndices means every bullet of the selected job(s).
type TransformInput struct {
	Style         EditStyle `json:"style" validate:"required"`
	JobIndex      *int      `json:"job_index,omitempty" validate:"omitempty,min=0"`
	BulletIndices []int     `json:"bullet_indices,omitempty" validate:"dive,min=0"`
}

// Validate validates the TransformInput using the validator.
func (r *TransformInput) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	if !r.Style.IsRewrite() {
		return fmt.Errorf("unsupported style %q", r.Style)
	}
	return nil
}
