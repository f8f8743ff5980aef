package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xavierca1/ligue-leads/internal/usecase"
)

func TestValidateCreateLeadInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*usecase.CreateLeadInput)
		fields []string
	}{
		{"valid", func(*usecase.CreateLeadInput) {}, nil},
		{"phone optional", func(in *usecase.CreateLeadInput) { in.ClientPhone = "" }, nil},
		{"phone with 10 digits", func(in *usecase.CreateLeadInput) { in.ClientPhone = "11 3333-4444" }, nil},
		{"blank name", func(in *usecase.CreateLeadInput) { in.ClientName = "   " }, []string{"client_name"}},
		{"bad email", func(in *usecase.CreateLeadInput) { in.ClientEmail = "maria" }, []string{"client_email"}},
		{"short phone", func(in *usecase.CreateLeadInput) { in.ClientPhone = "9876" }, []string{"client_phone"}},
		{"negative priority", func(in *usecase.CreateLeadInput) { in.Priority = -1 }, []string{"priority"}},
		{"two fields", func(in *usecase.CreateLeadInput) {
			in.ClientName = ""
			in.ClientEmail = ""
		}, []string{"client_name", "client_email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validLeadInput()
			tt.modify(&input)

			errs := usecase.ValidateCreateLeadInput(input)

			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.ElementsMatch(t, tt.fields, fields)
		})
	}
}

func TestValidateStruct_Messages(t *testing.T) {
	errs := usecase.ValidateStruct(usecase.AgentActionInput{AgentID: "s-1", Action: "archive"})

	if assert.Len(t, errs, 1) {
		assert.Equal(t, "action", errs[0].Field)
		assert.Equal(t, "must be one of: start complete reject", errs[0].Message)
		assert.Equal(t, "action: must be one of: start complete reject", errs[0].Error())
	}
}
