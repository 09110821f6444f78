package models

import (
	"testing"
	"time"
)

func TestUser_Struct(t *testing.T) {
	now := time.Now()
	user := User{
		ID:        "user-123",
		Email:     "test@example.com",
		Name:      "Test User",
		AvatarURL: "http://example.com/avatar.png",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if user.ID != "user-123" {
		t.Errorf("ID = %q, want %q", user.ID, "user-123")
	}
	if user.Email != "test@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "test@example.com")
	}
}
