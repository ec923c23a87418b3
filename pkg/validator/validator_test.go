package validator

import (
	"testing"

	"github.com/google/uuid"
)

type signup struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=50,username"`
	FirstName string `json:"first_name" validate:"max=5"`
}

type roleChange struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Role   string    `json:"role" validate:"required,oneof=admin member"`
	Media  []string  `json:"media" validate:"max=1"`
}

func TestStructUsesJSONNames(t *testing.T) {
	errs := Struct(signup{Email: "nope", Username: "ab", FirstName: "Maximilian"})

	want := map[string]string{
		"email":      "Invalid email address",
		"username":   "Username must be at least 3 characters",
		"first_name": "First name is too long",
	}
	for field, msg := range want {
		if errs[field] != msg {
			t.Errorf("%s: expected %q, got %q", field, msg, errs[field])
		}
	}
}

func TestStructUsernameTag(t *testing.T) {
	errs := Struct(signup{Email: "a@b.co", Username: "bad name!"})
	if errs["username"] != "Username can only contain letters, numbers, _ and -" {
		t.Fatalf("unexpected errors %v", errs)
	}
	if Struct(signup{Email: "a@b.co", Username: "good_name-1"}).HasErrors() {
		t.Fatal("valid input reported errors")
	}
}

func TestStructRequiredUUIDAndOneOf(t *testing.T) {
	errs := Struct(roleChange{Role: "king", Media: []string{"a", "b"}})
	if errs["user_id"] != "User id is required" {
		t.Errorf("user_id: %q", errs["user_id"])
	}
	if errs["role"] != "Role must be one of: admin, member" {
		t.Errorf("role: %q", errs["role"])
	}
	if errs["media"] != "Media can have at most 1 items" {
		t.Errorf("media: %q", errs["media"])
	}
}

func TestPassword(t *testing.T) {
	cases := map[string]string{
		"short":        "Password must be at least 8 characters",
		"alllower1":    "Password must contain at least one uppercase letter",
		"NoDigitsHere": "Password must contain at least one number",
		"Valid123":     "",
	}
	for password, want := range cases {
		errs := make(ValidationErrors)
		Password(errs, password)
		if errs["password"] != want {
			t.Errorf("%q: expected %q, got %q", password, want, errs["password"])
		}
	}
}
