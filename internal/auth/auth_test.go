package auth

import (
	"testing"

	"github.com/dyslexiaaid/screening-service/internal/config"
	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))

	_, err = HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestCanRegisterChild(t *testing.T) {
	assert.True(t, CanRegisterChild(models.RoleParent))
	assert.False(t, CanRegisterChild(models.RoleChild))
	assert.False(t, CanRegisterChild(models.RoleIndependent))
}

func TestUnknownRoleIsDenied(t *testing.T) {
	corrupted := models.Role("ADMIN")
	profile := &models.Profile{SubjectUserID: 9}

	assert.NotPanics(t, func() {
		assert.False(t, CanRegisterChild(corrupted))
		assert.False(t, CanActFor(&models.User{ID: 9, Role: corrupted}, profile))
		assert.False(t, CanOpenLessons(corrupted))
	})
}

func TestCanActFor(t *testing.T) {
	parentID := uint(1)
	childProfile := &models.Profile{SubjectUserID: 2, ParentUserID: &parentID}
	independentProfile := &models.Profile{SubjectUserID: 4}

	parent := &models.User{ID: 1, Role: models.RoleParent}
	otherParent := &models.User{ID: 3, Role: models.RoleParent}
	child := &models.User{ID: 2, Role: models.RoleChild}
	independent := &models.User{ID: 4, Role: models.RoleIndependent}

	assert.True(t, CanActFor(parent, childProfile))
	assert.False(t, CanActFor(otherParent, childProfile))
	assert.True(t, CanActFor(child, childProfile))
	assert.False(t, CanActFor(child, independentProfile))
	assert.True(t, CanActFor(independent, independentProfile))
	assert.False(t, CanActFor(parent, independentProfile))
	assert.False(t, CanActFor(nil, childProfile))
}

func TestCanOpenLessons(t *testing.T) {
	assert.False(t, CanOpenLessons(models.RoleParent))
	assert.True(t, CanOpenLessons(models.RoleChild))
	assert.True(t, CanOpenLessons(models.RoleIndependent))
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	token, ok = BearerToken("bearer   xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", token)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc"} {
		_, ok := BearerToken(header)
		assert.False(t, ok, header)
	}
}

func TestCasdoorVerifier_RejectsMalformedToken(t *testing.T) {
	verifier := NewCasdoorVerifier(config.CasdoorConfig{
		Endpoint:         "http://localhost:8000",
		ClientID:         "client",
		ClientSecret:     "secret",
		Certificate:      "not a certificate",
		OrganizationName: "dyslexiaaid",
		ApplicationName:  "screening",
	})

	_, err := verifier.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
