package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cottus/pkg/domain/model"
)

func TestCompany_Validate(t *testing.T) {
	tests := []struct {
		name    string
		company model.Company
		wantErr bool
	}{
		{"valid", model.Company{Name: "Acme", ContactName: "Jane", Email: "jane@example.com"}, false},
		{"missing name", model.Company{ContactName: "Jane", Email: "jane@example.com"}, true},
		{"missing contact", model.Company{Name: "Acme", Email: "jane@example.com"}, true},
		{"missing email", model.Company{Name: "Acme", ContactName: "Jane"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.company.Validate()
			if tt.wantErr {
				gt.Error(t, err)
			} else {
				gt.NoError(t, err)
			}
		})
	}
}
