package validator

import (
	"strings"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/trainfood-auth/internal/model"
)

func TestRegistrationInput_Normalize(t *testing.T) {
	in := RegistrationInput{Name: " Al ", Email: " Al@X.com ", Password: " secret1\t", Station: " Colombo "}

	out := in.Normalize()

	assert.Equal(t, "Al", out.Name)
	assert.Equal(t, "al@x.com", out.Email)
	assert.Equal(t, "secret1", out.Password)
	assert.Equal(t, model.RoleCustomer, out.Role)
	assert.Equal(t, "Colombo", out.Station)
}

func TestValidateRegistration(t *testing.T) {
	base := RegistrationInput{Name: "Al", Email: "al@x.com", Password: "secret1", Role: model.RoleCustomer}

	tests := []struct {
		name    string
		mutate  func(*RegistrationInput)
		wantMsg string
		field   string
	}{
		{"missing name", func(in *RegistrationInput) { in.Name = "" }, MsgRegisterRequired, ""},
		{"missing password", func(in *RegistrationInput) { in.Password = "" }, MsgRegisterRequired, ""},
		{"short name", func(in *RegistrationInput) { in.Name = "A" }, MsgNameShort, "name"},
		{"bad email", func(in *RegistrationInput) { in.Email = "al@x" }, MsgEmailFormat, FieldEmail},
		{"short password", func(in *RegistrationInput) { in.Password = "12345" }, MsgRegisterPassword, FieldPassword},
		{"admin not allowed", func(in *RegistrationInput) { in.Role = model.RoleAdmin }, MsgInvalidRole, "role"},
		{"seller without shop", func(in *RegistrationInput) { in.Role = model.RoleSeller }, MsgSellerFieldsNeeded, "restaurantName"},
		{"seller without station", func(in *RegistrationInput) {
			in.Role = model.RoleSeller
			in.RestaurantName = "Curry Corner"
		}, MsgSellerFieldsNeeded, "restaurantName"},
		{"password with space", func(in *RegistrationInput) { in.Password = "sec ret1" }, ErrPasswordSpaces.Error(), FieldPassword},
		{"long name", func(in *RegistrationInput) { in.Name = strings.Repeat("n", MaxNameLength+1) }, MsgNameLong, "name"},
		{"long email", func(in *RegistrationInput) { in.Email = strings.Repeat("a", MaxEmailLength-5) + "@x.com" }, MsgEmailLong, FieldEmail},
		{"long restaurant name", func(in *RegistrationInput) {
			in.Role = model.RoleSeller
			in.RestaurantName = strings.Repeat("r", MaxRestaurantNameLength+1)
			in.Station = "Fort"
		}, MsgRestaurantNameLong, "restaurantName"},
		{"long station", func(in *RegistrationInput) {
			in.Role = model.RoleSeller
			in.RestaurantName = "Curry Corner"
			in.Station = strings.Repeat("s", MaxStationLength+1)
		}, MsgStationLong, "station"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)

			err := ValidateRegistration(in)
			require.Error(t, err)
			oopsErr, ok := oops.AsOops(err)
			require.True(t, ok)
			assert.Equal(t, CodeValidation, oopsErr.Code())
			assert.Equal(t, tt.wantMsg, oops.GetPublic(err, ""))
			if tt.field != "" {
				assert.Equal(t, tt.field, oopsErr.Context()["field"])
			}
		})
	}
}

func TestValidateRegistration_NoDomainAllowList(t *testing.T) {
	in := RegistrationInput{Name: "Al", Email: "al@x.io", Password: "secret1", Role: model.RoleCustomer}
	assert.NoError(t, ValidateRegistration(in))
}

func TestValidateRegistration_Accepts(t *testing.T) {
	for _, in := range []RegistrationInput{
		{Name: "Al", Email: "al@x.com", Password: "secret1", Role: model.RoleCustomer},
		{Name: "Dee", Email: "dee@x.com", Password: "secret1", Role: model.RoleDeliveryAgent},
		{Name: "Sam", Email: "sam@x.com", Password: "secret1", Role: model.RoleSeller, RestaurantName: "Curry", Station: "Fort"},
		{Name: strings.Repeat("n", MaxNameLength), Email: strings.Repeat("a", MaxEmailLength-6) + "@x.com", Password: "secret1", Role: model.RoleCustomer},
	} {
		assert.NoError(t, ValidateRegistration(in), in.Role)
	}
}
