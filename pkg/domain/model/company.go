package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

// Company is a tenant account. It is created by an administrator and never
// modified afterwards.
type Company struct {
	ID          types.CompanyID `json:"id"`
	Name        string          `json:"company_name"`
	ContactName string          `json:"contact_name"`
	Email       string          `json:"email"`
	CreatedAt   time.Time       `json:"created_at"`
	APIKey      types.APIKey    `json:"api_key"`
}

// Validate checks the fields an administrator has to provide
func (c *Company) Validate() error {
	if c.Name == "" {
		return goerr.New("company name is required")
	}
	if c.ContactName == "" {
		return goerr.New("contact name is required", goerr.V("company_name", c.Name))
	}
	if c.Email == "" {
		return goerr.New("email is required", goerr.V("company_name", c.Name))
	}
	return nil
}
