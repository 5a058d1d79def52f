package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-management-svc/pkg/security"
)

func validInput(username, email string) UserInput {
	return UserInput{
		Prefix:    "Mr",
		FirstName: "John",
		LastName:  "Doe",
		Username:  username,
		Email:     email,
	}
}

func ruleNames(rules []Rule) []string {
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.String())
	}
	return names
}

func TestRulesCreateMode(t *testing.T) {
	rules := Rules(nil)

	assert.Equal(t, []string{"required", "in:Mr,Mrs,Ms"}, ruleNames(rules[FieldPrefix]))
	assert.Equal(t, []string{"required", "string", "max:255", "unique:users,username"}, ruleNames(rules[FieldUsername]))
	assert.Equal(t, []string{"required", "email", "max:255", "unique:users,email"}, ruleNames(rules[FieldEmail]))
	assert.Equal(t, []string{"nullable", "mimes:jpg,png,jpeg,gif,svg"}, ruleNames(rules[FieldPhoto]))
	assert.Equal(t, []string{"nullable", "min:8", "max:255", "confirmed", "password"}, ruleNames(rules[FieldPassword]))
}

func TestRulesUpdateMode(t *testing.T) {
	id := uint(7)
	rules := Rules(&id)

	assert.Equal(t, []string{"required", "string", "max:255", "unique:users,username,7,id"}, ruleNames(rules[FieldUsername]))
	assert.Equal(t, []string{"required", "email", "max:255", "unique:users,email,7,id"}, ruleNames(rules[FieldEmail]))
	_, hasPassword := rules[FieldPassword]
	assert.False(t, hasPassword)
}

func TestValidateUniqueness(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	users := f.storeUsers(t, 2)

	err := f.svc.Validate(ctx, nil, validInput("john1", "new@example.com"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUniquenessConflict))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields()[FieldUsername], "The username has already been taken.")

	id := users[0].ID
	assert.NoError(t, f.svc.Validate(ctx, &id, validInput("john1", "john1@example.com")))

	err = f.svc.Validate(ctx, &id, validInput("john2", "john1@example.com"))
	assert.ErrorIs(t, err, ErrUniquenessConflict)

	_, err = f.svc.Destroy(ctx, users[1].ID)
	require.NoError(t, err)
	err = f.svc.Validate(ctx, nil, validInput("fresh", "john2@example.com"))
	assert.ErrorIs(t, err, ErrUniquenessConflict, "trashed users keep their email")
}

func TestValidateFieldRules(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	err := f.svc.Validate(ctx, nil, UserInput{
		Prefix:               "Dr",
		LastName:             strings.Repeat("x", 256),
		Username:             "someone",
		Email:                "not-an-email",
		Password:             "short",
		PasswordConfirmation: "different",
	})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUniquenessConflict))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	fields := verr.Fields()

	assert.Equal(t, []string{"The selected prefix is invalid."}, fields[FieldPrefix])
	assert.Equal(t, []string{"The first name field is required."}, fields[FieldFirstName])
	assert.Equal(t, []string{"The last name field must not be greater than 255 characters."}, fields[FieldLastName])
	assert.Equal(t, []string{"The email field must be a valid email address."}, fields[FieldEmail])
	assert.Contains(t, fields[FieldPassword], "The password field must be at least 8 characters.")
	assert.Contains(t, fields[FieldPassword], "The password field confirmation does not match.")
	assert.NotContains(t, fields, FieldMiddleName)
	assert.NotContains(t, fields, FieldUsername)
}

func TestValidateNullableFields(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	input := validInput("john", "john@example.com")
	assert.NoError(t, f.svc.Validate(ctx, nil, input), "password and photo are optional")

	input.Password = "password123"
	input.PasswordConfirmation = "password123"
	assert.NoError(t, f.svc.Validate(ctx, nil, input))

	input.MiddleName = strings.Repeat("m", 256)
	err := f.svc.Validate(ctx, nil, input)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields()[FieldMiddleName], 1)
}

func TestValidatePhotoMimes(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	input := validInput("john", "john@example.com")
	input.Photo = fileHeader(t, "avatar.png", pngBytes)
	assert.NoError(t, f.svc.Validate(ctx, nil, input))

	input.Photo = fileHeader(t, "avatar.gif", []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"))
	assert.NoError(t, f.svc.Validate(ctx, nil, input))

	input.Photo = fileHeader(t, "avatar.png", []byte("%PDF-1.4 not an image"))
	err := f.svc.Validate(ctx, nil, input)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"The photo field must be a file of type: jpg, png, jpeg, gif, svg."}, verr.Fields()[FieldPhoto])

	for _, name := range []string{"evil.html", "avatar", "avatar.png.svgz"} {
		input.Photo = fileHeader(t, name, pngBytes)
		err = f.svc.Validate(ctx, nil, input)
		require.True(t, errors.As(err, &verr), name)
		assert.Contains(t, verr.Fields(), FieldPhoto, name)
	}

	input.Photo = fileHeader(t, "Avatar.PNG", pngBytes)
	assert.NoError(t, f.svc.Validate(ctx, nil, input))
}

func TestValidateWhitespacePassword(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	input := validInput("john", "john@example.com")
	input.Password = " "
	input.PasswordConfirmation = " "

	err := f.svc.Validate(ctx, nil, input)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields()[FieldPassword], "The password field must be at least 8 characters.")
}

func TestValidatePasswordPolicy(t *testing.T) {
	f := newServiceFixture(t)
	strict := NewRuleValidator(f.userRepo, security.PasswordPolicy{MinLength: 8, RequireNumbers: true})

	input := validInput("john", "john@example.com")
	input.Password = "passwordonly"
	input.PasswordConfirmation = "passwordonly"

	err := strict.Validate(context.Background(), nil, input)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"The password must contain at least one number."}, verr.Fields()[FieldPassword])
}
