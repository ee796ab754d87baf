package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,min=4,max=20"`
	Email    string `json:"email" validate:"required,looseemail"`
	Password string `json:"password" validate:"required,min=8"`
	ZipCode  string `json:"zipCode" validate:"omitempty,zipcode"`
	Owner    string `json:"owner" validate:"omitempty,objectid"`
}

func TestStruct_Valid(t *testing.T) {
	errs := Struct(signup{Username: "alice123", Email: "a@x.com", Password: "Password1!", ZipCode: "10001-1234"})
	assert.Nil(t, errs)
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	errs := Struct(signup{Username: "al", Email: "nope", Password: "short", ZipCode: "1", Owner: "xyz"})
	require.Len(t, errs, 5)

	byField := map[string]string{}
	for _, e := range errs {
		byField[e.Field] = e.Message
	}
	assert.Equal(t, "username must be at least 4 characters", byField["username"])
	assert.Equal(t, "Please enter a valid email address", byField["email"])
	assert.Equal(t, "password must be at least 8 characters", byField["password"])
	assert.Equal(t, "Please enter a valid zip code", byField["zipCode"])
	assert.Equal(t, "owner is not a valid id", byField["owner"])
}

func TestStruct_Required(t *testing.T) {
	errs := Struct(signup{})
	require.Len(t, errs, 3)
	assert.Equal(t, "username is required", errs[0].Message)
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(signup{Username: "alice", Email: "a@x.com", Password: "12345678"}))
	assert.Error(t, Check(signup{}))
}

func TestIsObjectID(t *testing.T) {
	assert.True(t, IsObjectID("507f1f77bcf86cd799439011"))
	assert.False(t, IsObjectID("507f1f77bcf86cd79943901"))
	assert.False(t, IsObjectID("not-an-id-not-an-id-1234"))
}
