package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleTeacher.Valid())
	assert.True(t, RoleStudent.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestRole_In(t *testing.T) {
	assert.True(t, RoleTeacher.In(RoleAdmin, RoleTeacher))
	assert.False(t, RoleStudent.In(RoleAdmin, RoleTeacher))
	assert.False(t, RoleAdmin.In())
}
