package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FabricioLanche/campus-room/internal/models"
)

const testSecret = "test-secret"

func testUser() *models.User {
	return &models.User{
		Base:   models.NewBase(),
		Name:   "Ana García",
		Email:  "ana@gmail.com",
		Role:   models.RoleStudent,
		Handle: "student-ana",
	}
}

func TestGenerateAndValidateJWT(t *testing.T) {
	user := testUser()

	token, err := GenerateJWT(user, testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "student-ana", claims.Handle)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.False(t, claims.IsAdmin)

	id, err := claims.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT(testUser(), testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateJWT_Expired(t *testing.T) {
	token, err := GenerateJWT(testUser(), testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateJWT(token, testSecret)
	assert.Error(t, err)
}

func TestValidateJWT_Garbage(t *testing.T) {
	_, err := ValidateJWT("not.a.token", testSecret)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("campusroom")
	require.NoError(t, err)
	assert.NotEqual(t, "campusroom", hash)

	assert.True(t, CheckPasswordHash("campusroom", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
