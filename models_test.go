package commune

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccountMessageValidate(t *testing.T) {
	valid := CreateAccountMessage{
		Username: "stevejobs",
		Password: "verysecure",
		Email:    "steve@example.com",
		Session:  "session-1",
		Code:     "123456",
	}

	tests := []struct {
		name   string
		mutate func(m *CreateAccountMessage)
		fields []string
	}{
		{name: "valid", mutate: func(m *CreateAccountMessage) {}},
		{name: "username at lower bound", mutate: func(m *CreateAccountMessage) { m.Username = "abcdefgh" }},
		{name: "username at upper bound", mutate: func(m *CreateAccountMessage) { m.Username = "abcdefghijkl" }},
		{name: "username too short", mutate: func(m *CreateAccountMessage) { m.Username = "abcdefg" }, fields: []string{"username"}},
		{name: "username too long", mutate: func(m *CreateAccountMessage) { m.Username = "abcdefghijklm" }, fields: []string{"username"}},
		{name: "password too short", mutate: func(m *CreateAccountMessage) { m.Password = "secret" }, fields: []string{"password"}},
		{name: "password too long", mutate: func(m *CreateAccountMessage) { m.Password = "averyverylongpassword" }, fields: []string{"password"}},
		{name: "malformed email", mutate: func(m *CreateAccountMessage) { m.Email = "steve-at-example" }, fields: []string{"email"}},
		{
			name:   "everything blank",
			mutate: func(m *CreateAccountMessage) { *m = CreateAccountMessage{} },
			fields: []string{"username", "password", "email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := valid
			tt.mutate(&msg)

			err := msg.Validate()
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, IsValidationError(err))

			fields := FieldErrors(err)
			require.Len(t, fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(nil))
	assert.Nil(t, FieldErrors(ErrRemoteInvariant.Clone()))
}

func TestValidationErrorDoesNotMutateSentinel(t *testing.T) {
	err := CreateAccountMessage{}.Validate()
	require.Error(t, err)
	assert.Nil(t, ErrAccountValidation.Source)
	assert.Empty(t, ErrAccountValidation.Metadata)
}
